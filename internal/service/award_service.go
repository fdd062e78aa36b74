package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chnu/award-monitoring-system/internal/repository"
	"github.com/chnu/award-monitoring-system/pkg/apperror"
	"github.com/chnu/award-monitoring-system/pkg/model"
	"github.com/chnu/award-monitoring-system/pkg/observability"
	"github.com/chnu/award-monitoring-system/pkg/snowflake"
)

type AwardService interface {
	Submit(ctx context.Context, title, applicant string) (*model.Award, error)
	Get(ctx context.Context, id int64) (*model.Award, error)
	Decide(ctx context.Context, id int64, approved bool, level string) (*model.Award, error)
	ProcessDocument(ctx context.Context, id int64, content []byte) (*model.Award, error)
}

type awardService struct {
	awards    repository.AwardRepository
	metrics   BusinessMetrics
	tracer    observability.Tracer
	snowflake snowflake.Snowflake

	// award id -> *TimedOperation started on submission
	workflows sync.Map
}

func NewAwardService(awards repository.AwardRepository, metrics BusinessMetrics, tracer observability.Tracer, snowflake snowflake.Snowflake) AwardService {
	return &awardService{awards: awards, metrics: metrics, tracer: tracer, snowflake: snowflake}
}

func (s *awardService) Submit(ctx context.Context, title, applicant string) (*model.Award, error) {
	var award *model.Award
	err := observability.Observe(ctx, s.tracer, "AwardService.Submit", func(ctx context.Context) error {
		if strings.TrimSpace(title) == "" {
			return fmt.Errorf("title is required: %w", apperror.ErrInvalidArgument)
		}
		if strings.TrimSpace(applicant) == "" {
			return fmt.Errorf("applicant is required: %w", apperror.ErrInvalidArgument)
		}

		a := &model.Award{
			Id:          s.snowflake.Generate(),
			Title:       title,
			Applicant:   applicant,
			Status:      model.AwardStatusPending,
			SubmittedAt: time.Now().UTC(),
		}
		if err := s.awards.Insert(ctx, a); err != nil {
			return err
		}
		award = a
		return nil
	})
	if err != nil {
		s.metrics.RecordSubmission(SubmissionFailed)
		return nil, err
	}

	s.metrics.RecordSubmission(SubmissionSuccess)
	s.metrics.IncrementPending()
	s.workflows.Store(award.Id, s.metrics.BeginTimedOperation(AwardWorkflow))
	return award, nil
}

func (s *awardService) Get(ctx context.Context, id int64) (*model.Award, error) {
	var award *model.Award
	err := observability.Observe(ctx, s.tracer, "AwardService.Get", func(ctx context.Context) error {
		a, err := s.awards.Get(ctx, id)
		if err != nil {
			return err
		}
		if a == nil {
			return fmt.Errorf("award %d: %w", id, apperror.ErrNotFound)
		}
		award = a
		return nil
	}, observability.Int64("award.id", id))
	if err != nil {
		return nil, err
	}
	return award, nil
}

func (s *awardService) Decide(ctx context.Context, id int64, approved bool, level string) (*model.Award, error) {
	var award *model.Award
	err := observability.Observe(ctx, s.tracer, "AwardService.Decide", func(ctx context.Context) error {
		a, err := s.awards.Update(ctx, id, func(a *model.Award) error {
			if a.Decided() {
				return fmt.Errorf("award %d already %s: %w", id, a.Status, apperror.ErrConflict)
			}
			a.Status = model.AwardStatusRejected
			if approved {
				a.Status = model.AwardStatusApproved
			}
			a.Level = level
			a.DecidedAt = time.Now().UTC()
			return nil
		})
		if err != nil {
			return err
		}
		award = a
		return nil
	}, observability.Int64("award.id", id), observability.String("award.level", level))
	if err != nil {
		return nil, err
	}

	s.metrics.RecordApproval(approved, level)
	s.metrics.DecrementPending()
	if op, ok := s.workflows.LoadAndDelete(id); ok {
		s.metrics.EndTimedOperation(op.(*TimedOperation))
	}
	return award, nil
}

func (s *awardService) ProcessDocument(ctx context.Context, id int64, content []byte) (*model.Award, error) {
	var award *model.Award
	err := observability.Observe(ctx, s.tracer, "AwardService.ProcessDocument", func(ctx context.Context) error {
		return s.metrics.MeasureDocumentProcessing(func() error {
			if len(content) == 0 {
				return fmt.Errorf("document is empty: %w", apperror.ErrInvalidArgument)
			}
			a, err := s.awards.Update(ctx, id, func(a *model.Award) error {
				a.Documents++
				return nil
			})
			if err != nil {
				return err
			}
			award = a
			return nil
		})
	}, observability.Int64("award.id", id), observability.Int("document.size", len(content)))
	if err != nil {
		s.metrics.RecordDocumentProcessingFailure()
		return nil, err
	}
	return award, nil
}
