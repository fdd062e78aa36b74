package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chnu/award-monitoring-system/internal/repository"
	"github.com/chnu/award-monitoring-system/pkg/apperror"
	"github.com/chnu/award-monitoring-system/pkg/model"
	"github.com/chnu/award-monitoring-system/pkg/observability"
	"github.com/chnu/award-monitoring-system/pkg/snowflake"
)

type UserService interface {
	Register(ctx context.Context, username string) (*model.User, error)
	OpenSession(ctx context.Context)
	CloseSession(ctx context.Context)
}

type userService struct {
	users     repository.UserRepository
	metrics   BusinessMetrics
	tracer    observability.Tracer
	snowflake snowflake.Snowflake
}

func NewUserService(users repository.UserRepository, metrics BusinessMetrics, tracer observability.Tracer, snowflake snowflake.Snowflake) UserService {
	return &userService{users: users, metrics: metrics, tracer: tracer, snowflake: snowflake}
}

func (s *userService) Register(ctx context.Context, username string) (*model.User, error) {
	var user *model.User
	err := observability.Observe(ctx, s.tracer, "UserService.Register", func(ctx context.Context) error {
		if strings.TrimSpace(username) == "" {
			return fmt.Errorf("username is required: %w", apperror.ErrInvalidArgument)
		}

		u := &model.User{
			Id:           s.snowflake.Generate(),
			Username:     username,
			RegisteredAt: time.Now().UTC(),
		}
		if err := s.users.Insert(ctx, u); err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordUserRegistration()
	return user, nil
}

func (s *userService) OpenSession(ctx context.Context) {
	s.metrics.IncrementActiveSessions()
}

// CloseSession trusts the caller to have opened the session first.
func (s *userService) CloseSession(ctx context.Context) {
	s.metrics.DecrementActiveSessions()
}
