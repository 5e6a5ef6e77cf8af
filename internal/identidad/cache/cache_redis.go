// Package cache keeps positive identity lookups so repeated queries do not
// reach the national service.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"registro/internal/identidad/models"
	"registro/internal/platform/metrics"
	id "registro/pkg/domain"
	"registro/pkg/platform/sentinel"
)

const redisKeyPrefix = "registro:cedula:"

// RedisCache stores identities as JSON with a TTL.
type RedisCache struct {
	client  redis.Cmdable
	ttl     time.Duration
	metrics *metrics.Metrics
}

// NewRedis builds a Redis-backed cache; metrics may be nil.
func NewRedis(client redis.Cmdable, ttl time.Duration, m *metrics.Metrics) *RedisCache {
	return &RedisCache{client: client, ttl: ttl, metrics: m}
}

// Get returns sentinel.ErrNotFound on a miss.
func (c *RedisCache) Get(ctx context.Context, cedula id.Cedula) (*models.Identidad, error) {
	data, err := c.client.Get(ctx, redisKey(cedula)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			c.observe(false)
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get cedula cache: %w", err)
	}
	var ident models.Identidad
	if err := json.Unmarshal(data, &ident); err != nil {
		return nil, fmt.Errorf("decode cedula cache: %w", err)
	}
	c.observe(true)
	return &ident, nil
}

func (c *RedisCache) Set(ctx context.Context, ident *models.Identidad) error {
	if ident == nil {
		return errors.New("identidad is required")
	}
	payload, err := json.Marshal(ident)
	if err != nil {
		return fmt.Errorf("encode cedula cache: %w", err)
	}
	if err := c.client.Set(ctx, redisKey(ident.Cedula), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("set cedula cache: %w", err)
	}
	return nil
}

func (c *RedisCache) observe(hit bool) {
	if c.metrics != nil {
		c.metrics.ObserveCache("cedula", hit)
	}
}

func redisKey(cedula id.Cedula) string {
	return redisKeyPrefix + cedula.String()
}
