package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"registro/internal/identidad/models"
	"registro/internal/platform/metrics"
	id "registro/pkg/domain"
	"registro/pkg/platform/sentinel"
)

// MemoryCache is used when REDIS_URL is unset. Expired entries are dropped
// on read.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[id.Cedula]memoryEntry
	ttl     time.Duration
	now     func() time.Time
	metrics *metrics.Metrics
}

type memoryEntry struct {
	ident     models.Identidad
	expiresAt time.Time
}

type MemoryOption func(*MemoryCache)

func WithClock(now func() time.Time) MemoryOption {
	return func(c *MemoryCache) { c.now = now }
}

func WithMetrics(m *metrics.Metrics) MemoryOption {
	return func(c *MemoryCache) { c.metrics = m }
}

func NewMemory(ttl time.Duration, opts ...MemoryOption) *MemoryCache {
	c := &MemoryCache{entries: make(map[id.Cedula]memoryEntry), ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *MemoryCache) Get(_ context.Context, cedula id.Cedula) (*models.Identidad, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[cedula]
	if ok && !c.now().Before(e.expiresAt) {
		delete(c.entries, cedula)
		ok = false
	}
	if c.metrics != nil {
		c.metrics.ObserveCache("cedula", ok)
	}
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	ident := e.ident
	return &ident, nil
}

func (c *MemoryCache) Set(_ context.Context, ident *models.Identidad) error {
	if ident == nil {
		return errors.New("identidad is required")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[ident.Cedula] = memoryEntry{ident: *ident, expiresAt: c.now().Add(c.ttl)}
	return nil
}
