package control

import (
	"context"
	"log/slog"

	"github.com/vietddude/resilience/internal/core/config"
	"github.com/vietddude/resilience/internal/core/failure"
	redisclient "github.com/vietddude/resilience/internal/infra/redis"
	"github.com/vietddude/resilience/internal/infra/storage"
	"github.com/vietddude/resilience/internal/infra/storage/memory"
	"github.com/vietddude/resilience/internal/infra/storage/postgres"
	"github.com/vietddude/resilience/internal/infra/storage/sqlite"
)

// OpenJournal connects the configured exhaustion journal backend. It returns nil for "none".
func OpenJournal(ctx context.Context, cfg *config.AppConfig) (storage.FailedExecutionRepository, error) {
	switch cfg.Journal.Backend {
	case "none":
		slog.Info("Exhaustion journal disabled")
		return nil, nil

	case "", "memory":
		slog.Info("Using Memory journal")
		return memory.NewFailedRepo(), nil

	case "redis":
		if cfg.Redis.URL == "" {
			return nil, failure.New(failure.Configuration, "redis journal requires redis.url")
		}
		client, err := redisclient.NewClient(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		slog.Info("Using Redis journal")
		return redisclient.NewFailedRepo(client, cfg.Journal.Retention), nil

	case "postgres":
		if cfg.Database.URL == "" {
			return nil, failure.New(failure.Configuration, "postgres journal requires database.url")
		}
		db, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		slog.Info("Using PostgreSQL journal", "driver", cfg.Database.Driver)
		return postgres.NewFailedRepo(db), nil

	case "sqlite":
		repo, err := sqlite.Open(cfg.SQLite)
		if err != nil {
			return nil, err
		}
		slog.Info("Using SQLite journal", "path", cfg.SQLite.Path)
		return repo, nil
	}
	return nil, failure.New(failure.Configuration, "unknown journal backend %q", cfg.Journal.Backend)
}
