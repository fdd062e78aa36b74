package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/chnu/award-monitoring-system/pkg/apperror"
	"github.com/chnu/award-monitoring-system/pkg/model"
)

type UserRepository interface {
	Insert(ctx context.Context, user *model.User) error
}

type InMemoryUserRepository struct {
	mu    sync.Mutex
	users map[string]model.User
}

func NewInMemoryUserRepository() UserRepository {
	return &InMemoryUserRepository{users: make(map[string]model.User)}
}

func (r *InMemoryUserRepository) Insert(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.Username]; ok {
		return fmt.Errorf("user %q: %w", user.Username, apperror.ErrConflict)
	}
	r.users[user.Username] = *user
	return nil
}
