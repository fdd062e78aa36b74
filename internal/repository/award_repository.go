package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/chnu/award-monitoring-system/pkg/apperror"
	"github.com/chnu/award-monitoring-system/pkg/model"
)

type AwardRepository interface {
	// Get returns nil when the award does not exist.
	Get(ctx context.Context, id int64) (*model.Award, error)
	Insert(ctx context.Context, award *model.Award) error
	// Update applies fn to the stored award and saves the result unless fn fails.
	Update(ctx context.Context, id int64, fn func(award *model.Award) error) (*model.Award, error)
}

type InMemoryAwardRepository struct {
	mu     sync.RWMutex
	awards map[int64]model.Award
}

func NewInMemoryAwardRepository() AwardRepository {
	return &InMemoryAwardRepository{awards: make(map[int64]model.Award)}
}

func (r *InMemoryAwardRepository) Get(ctx context.Context, id int64) (*model.Award, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	award, ok := r.awards[id]
	if !ok {
		return nil, nil
	}
	return &award, nil
}

func (r *InMemoryAwardRepository) Insert(ctx context.Context, award *model.Award) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.awards[award.Id]; ok {
		return fmt.Errorf("award %d: %w", award.Id, apperror.ErrConflict)
	}
	r.awards[award.Id] = *award
	return nil
}

func (r *InMemoryAwardRepository) Update(ctx context.Context, id int64, fn func(award *model.Award) error) (*model.Award, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	award, ok := r.awards[id]
	if !ok {
		return nil, fmt.Errorf("award %d: %w", id, apperror.ErrNotFound)
	}
	if err := fn(&award); err != nil {
		return nil, err
	}
	r.awards[id] = award
	return &award, nil
}
