package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/vietddude/resilience/internal/infra/storage"
)

// Pruner deletes old failed executions based on retention policy.
type Pruner struct {
	retention time.Duration
	repo      storage.FailedExecutionRepository
	logger    *slog.Logger
}

// NewPruner creates a new Pruner worker.
func NewPruner(
	retention time.Duration,
	repo storage.FailedExecutionRepository,
	logger *slog.Logger,
) *Pruner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pruner{
		retention: retention,
		repo:      repo,
		logger:    logger,
	}
}

// Interval is how often the pruner runs: a tenth of the retention, between 1m and 1h.
func (p *Pruner) Interval() time.Duration {
	interval := min(p.retention/10, 1*time.Hour)
	return max(interval, 1*time.Minute)
}

// Start runs the pruner loop until ctx is done.
func (p *Pruner) Start(ctx context.Context) {
	if p.retention <= 0 {
		return // Retention disabled
	}

	ticker := time.NewTicker(p.Interval())
	defer ticker.Stop()

	// Initial prune
	p.Prune(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Prune(ctx)
		}
	}
}

// Prune deletes records older than the retention once and returns how many were removed.
func (p *Pruner) Prune(ctx context.Context) int {
	threshold := time.Now().Add(-p.retention)

	n, err := p.repo.DeleteOlderThan(ctx, threshold)
	if err != nil {
		p.logger.Error("Failed to prune failed executions", "error", err)
		return 0
	}
	if n > 0 {
		p.logger.Info("Pruned failed executions", "count", n, "older_than", threshold.Format(time.RFC3339))
	}
	return n
}
