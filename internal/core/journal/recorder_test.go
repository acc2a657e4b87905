package journal

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/resilience/internal/core/domain"
	"github.com/vietddude/resilience/internal/core/failure"
	"github.com/vietddude/resilience/internal/core/retry"
	"github.com/vietddude/resilience/internal/infra/storage/memory"
)

// =============================================================================
// Mock Repositories
// =============================================================================

type brokenRepo struct {
	*memory.FailedRepo
}

func (brokenRepo) Add(context.Context, *domain.FailedExecution) error {
	return errors.New("disk full")
}

// hungRepo blocks every Add until its context is done.
type hungRepo struct {
	*memory.FailedRepo
	calls atomic.Int32
}

func (r *hungRepo) Add(ctx context.Context, _ *domain.FailedExecution) error {
	r.calls.Add(1)
	<-ctx.Done()
	return ctx.Err()
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startRecorder runs rec until the test ends and waits for it to drain.
func startRecorder(t *testing.T, rec *Recorder) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		rec.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

// =============================================================================
// Tests
// =============================================================================

func TestRecorder_RecordsExhaustion(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		repo := memory.NewFailedRepo()
		rec := NewRecorder(repo, time.Second, 0, nil)
		startRecorder(t, rec)

		p := retry.DefaultPolicy()
		p.Jitter = false
		p.MaxRetries = 2

		err := retry.Run(func() error {
			return failure.New(failure.DataFetch, "quote feed down")
		}, retry.WithPolicy(p), retry.WithObserver(rec), retry.WithName("quotes"))
		require.Error(t, err)
		require.NoError(t, rec.Flush(context.Background()))

		list, err := repo.List(context.Background(), 0)
		require.NoError(t, err)
		require.Len(t, list, 1)

		fe := list[0]
		assert.Equal(t, "quotes", fe.Operation)
		assert.Equal(t, "data_fetch", fe.Kind)
		assert.Equal(t, "quote feed down", fe.Error)
		assert.Equal(t, 3, fe.Attempts)
		assert.NotEmpty(t, fe.ID)
		assert.NotEmpty(t, fe.ExecutionID)
		assert.Equal(t, domain.FailedExecutionStatusPending, fe.Status)
	})
}

func TestRecorder_IgnoresOtherOutcomes(t *testing.T) {
	repo := memory.NewFailedRepo()
	rec := NewRecorder(repo, 0, 0, nil)
	startRecorder(t, rec)

	err := retry.Run(func() error {
		return failure.New(failure.Validation, "bad")
	}, retry.WithRetryableKinds(failure.API), retry.WithObserver(rec))
	require.Error(t, err)
	require.NoError(t, rec.Flush(context.Background()))

	count, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRecorder_StoreErrorIsLoggedOnly(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	rec := NewRecorder(brokenRepo{memory.NewFailedRepo()}, time.Second, 0, logger)
	startRecorder(t, rec)

	assert.NotPanics(t, func() {
		rec.Exhausted(retry.Event{Operation: "quotes", Err: errors.New("x")})
	})
	require.NoError(t, rec.Flush(context.Background()))
	assert.Contains(t, buf.String(), "disk full")
}

func TestRecorder_HungStoreDoesNotHoldExecution(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		repo := &hungRepo{FailedRepo: memory.NewFailedRepo()}
		rec := NewRecorder(repo, 5*time.Second, 0, discard())
		startRecorder(t, rec)

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		p := retry.DefaultPolicy()
		p.MaxRetries = 0

		start := time.Now()
		err := retry.RunContext(ctx, func(context.Context) error {
			return failure.New(failure.API, "down")
		}, retry.WithPolicy(p), retry.WithObserver(rec), retry.WithName("quotes"))

		assert.ErrorIs(t, err, failure.API)
		assert.Less(t, time.Since(start), time.Second)

		synctest.Wait()
		assert.Equal(t, int32(1), repo.calls.Load())
	})
}

func TestRecorder_FullBufferDrops(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	repo := memory.NewFailedRepo()
	rec := NewRecorder(repo, time.Second, 1, logger)

	// No writer yet: the first record fills the buffer.
	rec.Exhausted(retry.Event{Operation: "quotes", Err: errors.New("a")})
	rec.Exhausted(retry.Event{Operation: "quotes", Err: errors.New("b")})
	rec.Exhausted(retry.Event{Operation: "quotes", Err: errors.New("c")})

	assert.Equal(t, int64(2), rec.Dropped())
	assert.Contains(t, buf.String(), "Journal buffer full")

	startRecorder(t, rec)
	require.NoError(t, rec.Flush(context.Background()))

	list, err := repo.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "a", list[0].Error)
}

func TestRecorder_RunDrainsOnStop(t *testing.T) {
	repo := memory.NewFailedRepo()
	rec := NewRecorder(repo, time.Second, 4, discard())

	rec.Exhausted(retry.Event{Operation: "quotes", Err: errors.New("a")})
	rec.Exhausted(retry.Event{Operation: "quotes", Err: errors.New("b")})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec.Run(ctx)

	n, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestRecorder_FlushHonorsContext(t *testing.T) {
	rec := NewRecorder(memory.NewFailedRepo(), time.Second, 0, discard())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, rec.Flush(ctx), context.Canceled)
}
