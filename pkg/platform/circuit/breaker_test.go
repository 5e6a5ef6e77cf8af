package circuit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newBreaker(clock *fakeClock) *Breaker {
	return New("wfs", WithFailureThreshold(3), WithCooldown(10*time.Second), WithClock(clock.Now))
}

func TestBreakerOpensAfterThreshold(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	b := newBreaker(clock)

	assert.Equal(t, StateChange{}, b.RecordFailure())
	assert.Equal(t, StateChange{}, b.RecordFailure())
	assert.Equal(t, StateChange{Opened: true}, b.RecordFailure())
	assert.Equal(t, StateOpen, b.State())
	assert.ErrorIs(t, b.Allow(), ErrOpen)
}

func TestBreakerSuccessResetsCount(t *testing.T) {
	b := newBreaker(&fakeClock{now: time.Unix(0, 0)})
	b.RecordFailure()
	b.RecordFailure()
	b.RecordSuccess()
	b.RecordFailure()
	assert.Equal(t, StateClosed, b.State())
	assert.NoError(t, b.Allow())
}

func TestBreakerHalfOpenProbe(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	b := newBreaker(clock)
	for range 3 {
		b.RecordFailure()
	}

	clock.Advance(10 * time.Second)
	assert.Equal(t, StateHalfOpen, b.State())
	require.NoError(t, b.Allow(), "first probe passes")
	assert.ErrorIs(t, b.Allow(), ErrOpen, "concurrent probe is rejected")

	t.Run("failed probe reopens", func(t *testing.T) {
		assert.Equal(t, StateChange{Opened: true}, b.RecordFailure())
		assert.ErrorIs(t, b.Allow(), ErrOpen)
	})

	t.Run("successful probe closes", func(t *testing.T) {
		clock.Advance(10 * time.Second)
		require.NoError(t, b.Allow())
		assert.Equal(t, StateChange{Closed: true}, b.RecordSuccess())
		assert.Equal(t, StateClosed, b.State())
	})
}

func TestBreakerReset(t *testing.T) {
	b := newBreaker(&fakeClock{now: time.Unix(0, 0)})
	for range 3 {
		b.RecordFailure()
	}
	b.Reset()
	assert.NoError(t, b.Allow())
	assert.Equal(t, "closed", b.State().String())
}
