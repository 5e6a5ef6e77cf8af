package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"registro/internal/ratelimit/models"
	"registro/internal/ratelimit/store"
	dErrors "registro/pkg/domain-errors"
	"registro/pkg/requestcontext"
)

type LockoutSuite struct {
	suite.Suite
	store *store.InMemoryStore
	svc   *Service
	now   time.Time
}

func TestLockoutSuite(t *testing.T) {
	suite.Run(t, new(LockoutSuite))
}

func (s *LockoutSuite) SetupTest() {
	s.store = store.NewInMemory()
	svc, err := New(s.store, WithConfig(models.Config{MaxFailures: 3, Window: 10 * time.Minute, LockDuration: 5 * time.Minute}))
	s.Require().NoError(err)
	s.svc = svc
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func (s *LockoutSuite) at(d time.Duration) context.Context {
	return requestcontext.WithTime(context.Background(), s.now.Add(d))
}

func (s *LockoutSuite) fail(n int, d time.Duration) {
	for range n {
		s.Require().NoError(s.svc.RecordFailure(s.at(d), "juan", "10.0.0.1"))
	}
}

func (s *LockoutSuite) TestLocksAfterThreshold() {
	s.fail(2, 0)
	s.NoError(s.svc.Check(s.at(0), "juan", "10.0.0.1"), "below the threshold")

	s.fail(1, time.Second)
	err := s.svc.Check(s.at(2*time.Second), "juan", "10.0.0.1")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeTooManyRequests))
	s.Contains(err.Error(), "5 minuto")
}

func (s *LockoutSuite) TestLockIsScopedToUsernameAndAddress() {
	s.fail(3, 0)
	s.Error(s.svc.Check(s.at(0), "juan", "10.0.0.1"))
	s.Error(s.svc.Check(s.at(0), "JUAN", "10.0.0.1"), "usernames compare case-insensitively")
	s.NoError(s.svc.Check(s.at(0), "juan", "10.0.0.2"))
	s.NoError(s.svc.Check(s.at(0), "ana", "10.0.0.1"))
}

func (s *LockoutSuite) TestLockExpires() {
	s.fail(3, 0)
	s.Error(s.svc.Check(s.at(4*time.Minute), "juan", "10.0.0.1"))
	s.NoError(s.svc.Check(s.at(5*time.Minute), "juan", "10.0.0.1"))
}

func (s *LockoutSuite) TestWindowResetsCount() {
	s.fail(2, 0)
	s.fail(1, 11*time.Minute)
	s.NoError(s.svc.Check(s.at(11*time.Minute), "juan", "10.0.0.1"))
}

func (s *LockoutSuite) TestClearForgetsFailures() {
	s.fail(2, 0)
	s.Require().NoError(s.svc.Clear(s.at(0), "juan", "10.0.0.1"))
	s.fail(2, time.Second)
	s.NoError(s.svc.Check(s.at(time.Second), "juan", "10.0.0.1"))
}

type failingStore struct{ store.InMemoryStore }

func (*failingStore) Get(context.Context, string, time.Time, time.Duration) (*models.Lockout, error) {
	return nil, errors.New("redis down")
}

func TestCheckStoreError(t *testing.T) {
	svc, err := New(&failingStore{})
	require.NoError(t, err)
	err = svc.Check(context.Background(), "juan", "10.0.0.1")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
}

func TestNewRequiresStore(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}

func TestLockoutKey(t *testing.T) {
	assert.Equal(t, "login:juan:10.0.0.1", models.LockoutKey(" Juan ", "10.0.0.1"))
	assert.Equal(t, "login:juan:__1", models.LockoutKey("juan", "::1"))
	assert.Equal(t, "login:-:-", models.LockoutKey("", ""))
}
