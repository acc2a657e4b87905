package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/resilience/internal/core/domain"
	"github.com/vietddude/resilience/internal/infra/storage"
)

func record(id string, at time.Time) *domain.FailedExecution {
	return &domain.FailedExecution{
		ID:        id,
		Operation: "quotes",
		Kind:      "api_timeout",
		Attempts:  4,
		Status:    domain.FailedExecutionStatusPending,
		CreatedAt: at,
	}
}

func TestFailedRepo(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	repo := NewFailedRepo()

	require.NoError(t, repo.Add(ctx, record("a", now.Add(-2*time.Hour))))
	require.NoError(t, repo.Add(ctx, record("b", now.Add(-time.Hour))))
	require.NoError(t, repo.Add(ctx, record("c", now)))

	list, err := repo.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "c", list[0].ID)
	assert.Equal(t, "b", list[1].ID)

	require.NoError(t, repo.MarkResolved(ctx, "b"))
	assert.ErrorIs(t, repo.MarkResolved(ctx, "zzz"), storage.ErrNotFound)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	deleted, err := repo.DeleteOlderThan(ctx, now.Add(-30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	list, err = repo.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "c", list[0].ID)

	assert.NoError(t, repo.Health(ctx))
}

func TestFailedRepo_ListReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewFailedRepo()
	require.NoError(t, repo.Add(ctx, record("a", time.Now())))

	list, err := repo.List(ctx, 0)
	require.NoError(t, err)
	list[0].Status = domain.FailedExecutionStatusResolved

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
