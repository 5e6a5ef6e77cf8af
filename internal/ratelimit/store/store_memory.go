package store

import (
	"context"
	"sync"
	"time"

	"registro/internal/ratelimit/models"
)

// InMemoryStore keeps lockouts in process. Used when Redis is not configured
// and in tests; counts are not shared between instances.
type InMemoryStore struct {
	mu      sync.Mutex
	records map[string]*models.Lockout
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{records: make(map[string]*models.Lockout)}
}

// Get returns nil when the key has no recorded failures.
func (s *InMemoryStore) Get(_ context.Context, key string, now time.Time, window time.Duration) (*models.Lockout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key]
	if !ok {
		return nil, nil
	}
	if s.expired(rec, now, window) {
		delete(s.records, key)
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

// RecordFailure increments the failure count, restarting it when the previous
// failure is older than window.
func (s *InMemoryStore) RecordFailure(_ context.Context, key string, now time.Time, window time.Duration) (*models.Lockout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key]
	if !ok || s.expired(rec, now, window) {
		rec = &models.Lockout{Key: key}
		s.records[key] = rec
	}
	rec.Failures++
	rec.LastFailureAt = now
	cp := *rec
	return &cp, nil
}

func (s *InMemoryStore) Lock(_ context.Context, key string, until time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key]
	if !ok {
		rec = &models.Lockout{Key: key}
		s.records[key] = rec
	}
	rec.LockedUntil = &until
	return nil
}

func (s *InMemoryStore) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
	return nil
}

// expired reports whether neither the failure window nor a lock keeps rec alive.
func (s *InMemoryStore) expired(rec *models.Lockout, now time.Time, window time.Duration) bool {
	if rec.IsLocked(now) {
		return false
	}
	return !now.Before(rec.LastFailureAt.Add(window))
}
