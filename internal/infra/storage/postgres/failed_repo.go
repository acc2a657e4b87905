package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/vietddude/resilience/internal/core/domain"
	"github.com/vietddude/resilience/internal/infra/storage"
)

// FailedRepo implements storage.FailedExecutionRepository using PostgreSQL.
type FailedRepo struct {
	db *DB
}

// NewFailedRepo creates a new PostgreSQL failed execution repository.
func NewFailedRepo(db *DB) *FailedRepo {
	return &FailedRepo{db: db}
}

// Add records a failed execution.
func (r *FailedRepo) Add(ctx context.Context, fe *domain.FailedExecution) error {
	query := `
		INSERT INTO failed_executions (id, execution_id, operation, kind, error_msg, attempts, status, created_at)
		VALUES (:id, :execution_id, :operation, :kind, :error_msg, :attempts, :status, :created_at)
	`
	row := *fe
	if row.Status == "" {
		row.Status = domain.FailedExecutionStatusPending
	}

	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("failed to add failed execution: %w", err)
	}
	return nil
}

// List returns the newest records first.
func (r *FailedRepo) List(ctx context.Context, limit int) ([]*domain.FailedExecution, error) {
	query := `
		SELECT id, execution_id, operation, kind, error_msg, attempts, status, created_at
		FROM failed_executions
		ORDER BY created_at DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	var rows []*domain.FailedExecution
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list failed executions: %w", err)
	}
	return rows, nil
}

// Count returns the number of pending records.
func (r *FailedRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM failed_executions WHERE status = $1",
		string(domain.FailedExecutionStatusPending),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to count failed executions: %w", err)
	}
	return count, nil
}

// MarkResolved flags a record as handled.
func (r *FailedRepo) MarkResolved(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE failed_executions SET status = $1 WHERE id = $2",
		string(domain.FailedExecutionStatusResolved), id,
	)
	if err != nil {
		return fmt.Errorf("failed to resolve failed execution: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteOlderThan removes records created before threshold.
func (r *FailedRepo) DeleteOlderThan(ctx context.Context, threshold time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM failed_executions WHERE created_at < $1", threshold)
	if err != nil {
		return 0, fmt.Errorf("failed to prune failed executions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return int(n), nil
}

func (r *FailedRepo) Health(ctx context.Context) error {
	return r.db.Health(ctx)
}

func (r *FailedRepo) Close() error {
	return r.db.Close()
}
