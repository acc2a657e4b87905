// Package sqlite stores failed executions in an embedded SQLite database.
package sqlite

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/vietddude/resilience/internal/core/domain"
	"github.com/vietddude/resilience/internal/infra/storage"
)

const memory = ":memory:"

// Config holds SQLite settings. An empty or ":memory:" path opens a private in-memory database.
type Config struct {
	Path string `yaml:"path"`
}

// FailedRepo implements storage.FailedExecutionRepository on SQLite.
type FailedRepo struct {
	db *sqlx.DB
}

type row struct {
	ID          string `db:"id"`
	ExecutionID string `db:"execution_id"`
	Operation   string `db:"operation"`
	Kind        string `db:"kind"`
	Error       string `db:"error_msg"`
	Attempts    int    `db:"attempts"`
	Status      string `db:"status"`
	CreatedAt   int64  `db:"created_at"`
}

func (r row) record() *domain.FailedExecution {
	return &domain.FailedExecution{
		ID:          r.ID,
		ExecutionID: r.ExecutionID,
		Operation:   r.Operation,
		Kind:        r.Kind,
		Error:       r.Error,
		Attempts:    r.Attempts,
		Status:      domain.FailedExecutionStatus(r.Status),
		CreatedAt:   time.UnixMilli(r.CreatedAt),
	}
}

// Open opens the database and creates the schema.
func Open(cfg Config) (*FailedRepo, error) {
	db, err := open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	if err := setup(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("setup: %w", err)
	}
	return &FailedRepo{db: db}, nil
}

func open(cfg Config) (*sqlx.DB, error) {
	params := url.Values{}
	params.Add("_timeout", "5000") // 5s

	path := cfg.Path
	inMemory := path == "" || path == memory
	if inMemory {
		path = uuid.NewString()
		params.Add("mode", "memory")
		params.Add("cache", "shared")
	} else {
		params.Add("_journal", "wal")
		params.Add("_sync", "normal")
	}

	dsn := "file:" + path + "?" + params.Encode()
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	if inMemory {
		db.SetMaxOpenConns(1)
	}
	db.SetConnMaxIdleTime(0)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func setup(db *sqlx.DB) error {
	if _, err := db.Exec(
		`
		create table if not exists failed_execution (
			id           text primary key,
			execution_id text not null,
			operation    text not null,
			kind         text not null,
			error_msg    text not null,
			attempts     int not null,
			status       text not null,
			created_at   int not null
		) strict
		`,
	); err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	if _, err := db.Exec(
		`create index if not exists idx_failed_execution_created_at on failed_execution (created_at)`,
	); err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

func (r *FailedRepo) Add(ctx context.Context, fe *domain.FailedExecution) error {
	status := fe.Status
	if status == "" {
		status = domain.FailedExecutionStatusPending
	}
	_, err := r.db.NamedExecContext(ctx,
		`
		insert into failed_execution (id, execution_id, operation, kind, error_msg, attempts, status, created_at)
		values (:id, :execution_id, :operation, :kind, :error_msg, :attempts, :status, :created_at)
		`,
		row{
			ID:          fe.ID,
			ExecutionID: fe.ExecutionID,
			Operation:   fe.Operation,
			Kind:        fe.Kind,
			Error:       fe.Error,
			Attempts:    fe.Attempts,
			Status:      string(status),
			CreatedAt:   fe.CreatedAt.UnixMilli(),
		},
	)
	if err != nil {
		return fmt.Errorf("insert: %w", err)
	}
	return nil
}

func (r *FailedRepo) List(ctx context.Context, limit int) ([]*domain.FailedExecution, error) {
	if limit <= 0 {
		limit = -1
	}
	var rows []row
	err := r.db.SelectContext(ctx, &rows,
		`select * from failed_execution order by created_at desc, rowid desc limit ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}

	out := make([]*domain.FailedExecution, len(rows))
	for i, rw := range rows {
		out[i] = rw.record()
	}
	return out, nil
}

func (r *FailedRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n,
		`select count(*) from failed_execution where status = ?`,
		string(domain.FailedExecutionStatusPending))
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

func (r *FailedRepo) MarkResolved(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`update failed_execution set status = ? where id = ?`,
		string(domain.FailedExecutionStatusResolved), id)
	if err != nil {
		return fmt.Errorf("update: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (r *FailedRepo) DeleteOlderThan(ctx context.Context, threshold time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx,
		`delete from failed_execution where created_at < ?`, threshold.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(n), nil
}

func (r *FailedRepo) Health(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *FailedRepo) Close() error {
	return r.db.Close()
}
