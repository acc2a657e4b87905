package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/vietddude/resilience/internal/core/domain"
	"github.com/vietddude/resilience/internal/infra/storage"
)

// FailedRepo is an in-process FailedExecutionRepository.
type FailedRepo struct {
	mu      sync.RWMutex
	records []*domain.FailedExecution
}

func NewFailedRepo() *FailedRepo {
	return &FailedRepo{}
}

func (r *FailedRepo) Add(ctx context.Context, fe *domain.FailedExecution) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *fe
	r.records = append(r.records, &cp)
	return nil
}

func (r *FailedRepo) List(ctx context.Context, limit int) ([]*domain.FailedExecution, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.FailedExecution, 0, len(r.records))
	for _, fe := range slices.Backward(r.records) {
		if limit > 0 && len(out) == limit {
			break
		}
		cp := *fe
		out = append(out, &cp)
	}
	return out, nil
}

func (r *FailedRepo) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, fe := range r.records {
		if fe.Status == domain.FailedExecutionStatusPending {
			n++
		}
	}
	return n, nil
}

func (r *FailedRepo) MarkResolved(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, fe := range r.records {
		if fe.ID == id {
			fe.Status = domain.FailedExecutionStatusResolved
			return nil
		}
	}
	return storage.ErrNotFound
}

func (r *FailedRepo) DeleteOlderThan(ctx context.Context, threshold time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	before := len(r.records)
	r.records = slices.DeleteFunc(r.records, func(fe *domain.FailedExecution) bool {
		return fe.CreatedAt.Before(threshold)
	})
	return before - len(r.records), nil
}

func (r *FailedRepo) Health(ctx context.Context) error { return nil }

func (r *FailedRepo) Close() error { return nil }
