package storage

import (
	"context"
	"errors"
	"time"

	"github.com/vietddude/resilience/internal/core/domain"
)

var (
	// ErrNotFound is returned when a record doesn't exist
	ErrNotFound = errors.New("record not found")
)

// FailedExecutionRepository stores exhausted executions
type FailedExecutionRepository interface {
	// Add records a failed execution
	Add(ctx context.Context, fe *domain.FailedExecution) error

	// List returns the newest records first, at most limit when limit > 0
	List(ctx context.Context, limit int) ([]*domain.FailedExecution, error)

	// Count returns the number of pending records
	Count(ctx context.Context) (int, error)

	// MarkResolved flags a record as handled
	MarkResolved(ctx context.Context, id string) error

	// DeleteOlderThan removes records created before threshold and reports how many
	DeleteOlderThan(ctx context.Context, threshold time.Time) (int, error)

	// Health checks the backend is reachable
	Health(ctx context.Context) error

	// Close releases the backend
	Close() error
}
