// Package journal records executions that exhausted their retries.
package journal

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/resilience/internal/core/domain"
	"github.com/vietddude/resilience/internal/core/failure"
	"github.com/vietddude/resilience/internal/core/retry"
	"github.com/vietddude/resilience/internal/infra/storage"
)

// DefaultBuffer is the queue size used when NewRecorder is given none.
const DefaultBuffer = 256

// Recorder is a retry.Observer that persists exhausted executions. Exhausted only queues the
// record; Run writes the queue to the repository. Storage failures are logged and never reach
// the execution.
type Recorder struct {
	retry.NopObserver

	repo    storage.FailedExecutionRepository
	timeout time.Duration
	logger  *slog.Logger
	now     func() time.Time

	queue   chan *domain.FailedExecution
	flush   chan chan struct{}
	dropped atomic.Int64
}

// NewRecorder creates a recorder writing to repo with a per-write timeout. Up to buffer records
// wait for the writer; further records are dropped.
func NewRecorder(
	repo storage.FailedExecutionRepository,
	timeout time.Duration,
	buffer int,
	logger *slog.Logger,
) *Recorder {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		repo:    repo,
		timeout: timeout,
		logger:  logger,
		now:     time.Now,
		queue:   make(chan *domain.FailedExecution, buffer),
		flush:   make(chan chan struct{}),
	}
}

// Exhausted queues one record for the execution. It never blocks.
func (r *Recorder) Exhausted(e retry.Event) {
	fe := &domain.FailedExecution{
		ID:          uuid.New().String(),
		ExecutionID: e.ExecutionID,
		Operation:   e.Operation,
		Kind:        failure.Label(e.Err),
		Error:       errorText(e.Err),
		Attempts:    e.Attempt + 1,
		Status:      domain.FailedExecutionStatusPending,
		CreatedAt:   r.now(),
	}

	select {
	case r.queue <- fe:
	default:
		r.dropped.Add(1)
		r.logger.Warn("Journal buffer full, dropping record",
			"op", e.Operation,
			"execution_id", e.ExecutionID,
		)
	}
}

// Dropped returns how many records were discarded because the buffer was full.
func (r *Recorder) Dropped() int64 {
	return r.dropped.Load()
}

// Run writes queued records until ctx is done, then writes what is still queued and returns.
// Only one Run may be active at a time.
func (r *Recorder) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			r.drain()
			return
		case fe := <-r.queue:
			r.write(fe)
		case ack := <-r.flush:
			r.drain()
			close(ack)
		}
	}
}

// Flush waits until every record queued before the call has been written. It needs a
// running Run.
func (r *Recorder) Flush(ctx context.Context) error {
	ack := make(chan struct{})
	select {
	case r.flush <- ack:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-ack:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Recorder) drain() {
	for {
		select {
		case fe := <-r.queue:
			r.write(fe)
		default:
			return
		}
	}
}

func (r *Recorder) write(fe *domain.FailedExecution) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if err := r.repo.Add(ctx, fe); err != nil {
		r.logger.Error("Failed to record exhausted execution",
			"op", fe.Operation,
			"execution_id", fe.ExecutionID,
			"error", err,
		)
	}
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
