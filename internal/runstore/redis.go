package runstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a Store backed by Redis. Each run is a JSON value under a
// prefixed key; a per-workflow sorted set (scored by start time) indexes
// runs for listing.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ Store = (*RedisStore)(nil)

// RedisOptions configures a RedisStore.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string        // key prefix, default "flowgrid:"
	TTL      time.Duration // expiration for runs, default 0 (no expiration)
}

// NewRedisStore connects a run store to Redis.
func NewRedisStore(opts RedisOptions) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	prefix := opts.Prefix
	if prefix == "" {
		prefix = "flowgrid:"
	}

	return &RedisStore{client: client, prefix: prefix, ttl: opts.TTL}
}

func (s *RedisStore) runKey(id string) string {
	return fmt.Sprintf("%srun:%s", s.prefix, id)
}

func (s *RedisStore) workflowKey(name string) string {
	return fmt.Sprintf("%sworkflow:%s:runs", s.prefix, name)
}

func (s *RedisStore) SaveRun(ctx context.Context, run *Run) error {
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("encoding run: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.runKey(run.ID), data, s.ttl)
	pipe.ZAdd(ctx, s.workflowKey(run.Workflow), redis.Z{
		Score:  float64(run.StartedAt.UnixNano()),
		Member: run.ID,
	})
	if s.ttl > 0 {
		pipe.Expire(ctx, s.workflowKey(run.Workflow), s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("saving run to redis: %w", err)
	}
	return nil
}

func (s *RedisStore) Run(ctx context.Context, id string) (*Run, error) {
	data, err := s.client.Get(ctx, s.runKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("loading run from redis: %w", err)
	}
	var run Run
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("decoding run: %w", err)
	}
	return &run, nil
}

func (s *RedisStore) ListRuns(ctx context.Context, workflowName string) ([]*Run, error) {
	ids, err := s.client.ZRevRange(ctx, s.workflowKey(workflowName), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("listing runs from redis: %w", err)
	}

	var runs []*Run
	for _, id := range ids {
		run, err := s.Run(ctx, id)
		if err != nil {
			if errors.Is(err, ErrRunNotFound) {
				// Expired run body; the index entry is stale.
				continue
			}
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}

func (s *RedisStore) Close() error { return s.client.Close() }
