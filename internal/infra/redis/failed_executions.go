package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vietddude/resilience/internal/core/domain"
	"github.com/vietddude/resilience/internal/infra/storage"
)

// FailedRepo implements FailedExecutionRepository using Redis. Records are JSON values indexed
// by a sorted set scored with their creation time.
type FailedRepo struct {
	client *Client
	ttl    time.Duration
}

// NewFailedRepo creates a new Redis-backed repository. A zero ttl keeps records until pruned.
func NewFailedRepo(client *Client, ttl time.Duration) *FailedRepo {
	return &FailedRepo{client: client, ttl: ttl}
}

// Key helpers
func (r *FailedRepo) indexKey() string {
	return fmt.Sprintf("%s:failed_executions", r.client.prefix)
}

func (r *FailedRepo) recordKey(id string) string {
	return fmt.Sprintf("%s:failed_execution:%s", r.client.prefix, id)
}

// Add stores a record and indexes it.
func (r *FailedRepo) Add(ctx context.Context, fe *domain.FailedExecution) error {
	data, err := json.Marshal(fe)
	if err != nil {
		return fmt.Errorf("failed to marshal failed execution: %w", err)
	}

	pipe := r.client.rdb.TxPipeline()
	pipe.Set(ctx, r.recordKey(fe.ID), data, r.ttl)
	pipe.ZAdd(ctx, r.indexKey(), redis.Z{
		Score:  float64(fe.CreatedAt.UnixMilli()),
		Member: fe.ID,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to add failed execution: %w", err)
	}
	return nil
}

func (r *FailedRepo) get(ctx context.Context, id string) (*domain.FailedExecution, error) {
	data, err := r.client.rdb.Get(ctx, r.recordKey(id)).Bytes()
	if err == redis.Nil {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get failed execution: %w", err)
	}

	var fe domain.FailedExecution
	if err := json.Unmarshal(data, &fe); err != nil {
		return nil, fmt.Errorf("failed to unmarshal failed execution: %w", err)
	}
	return &fe, nil
}

// List returns the newest records first.
func (r *FailedRepo) List(ctx context.Context, limit int) ([]*domain.FailedExecution, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}
	ids, err := r.client.rdb.ZRevRange(ctx, r.indexKey(), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("zrevrange failed: %w", err)
	}

	out := make([]*domain.FailedExecution, 0, len(ids))
	for _, id := range ids {
		fe, err := r.get(ctx, id)
		if err == storage.ErrNotFound {
			// Data expired but ID still indexed, drop it
			r.client.rdb.ZRem(ctx, r.indexKey(), id)
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, fe)
	}
	return out, nil
}

// Count returns the number of pending records.
func (r *FailedRepo) Count(ctx context.Context) (int, error) {
	all, err := r.List(ctx, 0)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, fe := range all {
		if fe.Status == domain.FailedExecutionStatusPending {
			n++
		}
	}
	return n, nil
}

// MarkResolved rewrites the record with resolved status, keeping its remaining TTL.
func (r *FailedRepo) MarkResolved(ctx context.Context, id string) error {
	fe, err := r.get(ctx, id)
	if err != nil {
		return err
	}
	fe.Status = domain.FailedExecutionStatusResolved

	data, err := json.Marshal(fe)
	if err != nil {
		return fmt.Errorf("failed to marshal failed execution: %w", err)
	}
	if err := r.client.rdb.SetArgs(ctx, r.recordKey(id), data, redis.SetArgs{KeepTTL: true}).Err(); err != nil {
		return fmt.Errorf("failed to set failed execution: %w", err)
	}
	return nil
}

// DeleteOlderThan removes records created before threshold.
func (r *FailedRepo) DeleteOlderThan(ctx context.Context, threshold time.Time) (int, error) {
	upper := "(" + strconv.FormatInt(threshold.UnixMilli(), 10)
	ids, err := r.client.rdb.ZRangeByScore(ctx, r.indexKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: upper,
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("zrangebyscore failed: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	keys := make([]string, len(ids))
	members := make([]any, len(ids))
	for i, id := range ids {
		keys[i] = r.recordKey(id)
		members[i] = id
	}

	pipe := r.client.rdb.TxPipeline()
	pipe.Del(ctx, keys...)
	pipe.ZRem(ctx, r.indexKey(), members...)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to delete failed executions: %w", err)
	}
	return len(ids), nil
}

func (r *FailedRepo) Health(ctx context.Context) error {
	return r.client.Ping(ctx)
}

func (r *FailedRepo) Close() error {
	return r.client.Close()
}
