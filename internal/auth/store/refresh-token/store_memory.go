package refreshtoken

import (
	"context"
	"fmt"
	"sync"
	"time"

	"registro/internal/auth/models"
	id "registro/pkg/domain"
	"registro/pkg/platform/sentinel"
)

// InMemoryRefreshTokenStore mirrors PostgresStore semantics for tests.
type InMemoryRefreshTokenStore struct {
	mu     sync.Mutex
	tokens map[string]*models.RefreshTokenRecord
}

func NewInMemoryRefreshTokenStore() *InMemoryRefreshTokenStore {
	return &InMemoryRefreshTokenStore{tokens: make(map[string]*models.RefreshTokenRecord)}
}

func (s *InMemoryRefreshTokenStore) Create(_ context.Context, token *models.RefreshTokenRecord) error {
	if token == nil {
		return fmt.Errorf("refresh token is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *token
	s.tokens[token.TokenHash] = &cp
	return nil
}

func (s *InMemoryRefreshTokenStore) Find(_ context.Context, tokenHash string) (*models.RefreshTokenRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.tokens[tokenHash]
	if !ok {
		return nil, fmt.Errorf("refresh token not found: %w", sentinel.ErrNotFound)
	}
	cp := *record
	return &cp, nil
}

func (s *InMemoryRefreshTokenStore) Consume(_ context.Context, tokenHash string, now time.Time) (*models.RefreshTokenRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.tokens[tokenHash]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *record
	if record.Used {
		return &cp, sentinel.ErrAlreadyUsed
	}
	if record.IsExpired(now) {
		return &cp, sentinel.ErrExpired
	}
	record.Used = true
	cp.Used = true
	return &cp, nil
}

func (s *InMemoryRefreshTokenStore) DeleteByToken(_ context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tokens[tokenHash]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.tokens, tokenHash)
	return nil
}

func (s *InMemoryRefreshTokenStore) DeleteByUser(_ context.Context, userID id.UserID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for key, record := range s.tokens {
		if record.UserID == userID {
			delete(s.tokens, key)
			n++
		}
	}
	return n, nil
}

func (s *InMemoryRefreshTokenStore) DeleteExpiredTokens(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for key, record := range s.tokens {
		if record.ExpiresAt.Before(now) {
			delete(s.tokens, key)
			n++
		}
	}
	return n, nil
}

func (s *InMemoryRefreshTokenStore) DeleteUsedTokens(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for key, record := range s.tokens {
		if record.Used {
			delete(s.tokens, key)
			n++
		}
	}
	return n, nil
}
