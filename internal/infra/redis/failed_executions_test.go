package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/resilience/internal/core/domain"
	"github.com/vietddude/resilience/internal/infra/storage"
)

func newTestRepo(t *testing.T) *FailedRepo {
	t.Helper()
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}

	client, err := NewClient(context.Background(), Config{
		URL:       url,
		KeyPrefix: "test-" + uuid.NewString(),
	})
	require.NoError(t, err)

	repo := NewFailedRepo(client, time.Hour)
	t.Cleanup(func() {
		_, _ = repo.DeleteOlderThan(context.Background(), time.Now().Add(time.Hour))
		_ = repo.Close()
	})
	return repo
}

func TestFailedRepo_Lifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now()

	for i, id := range []string{"old", "mid", "new"} {
		require.NoError(t, repo.Add(ctx, &domain.FailedExecution{
			ID:        id,
			Operation: "quotes",
			Kind:      "api_timeout",
			Attempts:  4,
			Status:    domain.FailedExecutionStatusPending,
			CreatedAt: now.Add(time.Duration(i-2) * time.Hour),
		}))
	}

	list, err := repo.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "new", list[0].ID)
	assert.Equal(t, "mid", list[1].ID)

	require.NoError(t, repo.MarkResolved(ctx, "mid"))
	assert.ErrorIs(t, repo.MarkResolved(ctx, "missing"), storage.ErrNotFound)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	deleted, err := repo.DeleteOlderThan(ctx, now.Add(-90*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	assert.NoError(t, repo.Health(ctx))
}

func TestNewClient_BadURL(t *testing.T) {
	_, err := NewClient(context.Background(), Config{URL: "not a url"})
	assert.Error(t, err)
}
