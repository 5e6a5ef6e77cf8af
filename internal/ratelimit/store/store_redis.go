package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"registro/internal/ratelimit/models"
)

const redisKeyPrefix = "registro:lockout:"

// RedisStore shares lockouts between instances. Each key is a hash with the
// failure count, the last failure and the lock deadline, all in Unix
// milliseconds. Key expiry replaces any cleanup job.
type RedisStore struct {
	client redis.Cmdable
}

func NewRedis(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client}
}

const (
	fieldFailures = "failures"
	fieldLast     = "last"
	fieldUntil    = "until"
)

// Get returns nil when the key has no recorded failures. Expiry is handled by
// Redis, so now and window are unused.
func (s *RedisStore) Get(ctx context.Context, key string, _ time.Time, _ time.Duration) (*models.Lockout, error) {
	vals, err := s.client.HGetAll(ctx, redisKeyPrefix+key).Result()
	if err != nil {
		return nil, fmt.Errorf("get lockout: %w", err)
	}
	if len(vals) == 0 {
		return nil, nil
	}
	return decode(key, vals)
}

// RecordFailure increments the count and pushes expiry to now+window.
// MULTI keeps the increment and the expiry atomic.
func (s *RedisStore) RecordFailure(ctx context.Context, key string, now time.Time, window time.Duration) (*models.Lockout, error) {
	k := redisKeyPrefix + key
	var incr *redis.IntCmd
	var until *redis.StringCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.HIncrBy(ctx, k, fieldFailures, 1)
		pipe.HSet(ctx, k, fieldLast, now.UnixMilli())
		until = pipe.HGet(ctx, k, fieldUntil)
		pipe.PExpire(ctx, k, window)
		return nil
	})
	// A missing deadline field surfaces as redis.Nil from the HGET.
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("record lockout failure: %w", err)
	}
	rec := &models.Lockout{Key: key, Failures: int(incr.Val()), LastFailureAt: now}
	if ms, err := strconv.ParseInt(until.Val(), 10, 64); err == nil {
		t := time.UnixMilli(ms)
		rec.LockedUntil = &t
	}
	return rec, nil
}

// Lock sets the lock deadline and keeps the key alive at least until then.
func (s *RedisStore) Lock(ctx context.Context, key string, until time.Time) error {
	k := redisKeyPrefix + key
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, k, fieldUntil, until.UnixMilli())
		pipe.PExpireAt(ctx, k, until)
		return nil
	})
	if err != nil {
		return fmt.Errorf("lock key: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, redisKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("clear lockout: %w", err)
	}
	return nil
}

func decode(key string, vals map[string]string) (*models.Lockout, error) {
	rec := &models.Lockout{Key: key}
	if v, ok := vals[fieldFailures]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("decode lockout failures: %w", err)
		}
		rec.Failures = n
	}
	if v, ok := vals[fieldLast]; ok {
		ms, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("decode lockout last failure: %w", err)
		}
		rec.LastFailureAt = time.UnixMilli(ms)
	}
	if v, ok := vals[fieldUntil]; ok {
		ms, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("decode lockout deadline: %w", err)
		}
		t := time.UnixMilli(ms)
		rec.LockedUntil = &t
	}
	return rec, nil
}
