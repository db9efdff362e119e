package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	cachekit "github.com/akshayb7/go-cachekit"
	"github.com/akshayb7/go-cachekit/clock"
)

func newMockedLimiter(t *testing.T, cfg Config) (*Limiter, *clock.Mock) {
	t.Helper()

	mockClock := clock.NewMock(time.Now())
	limiter, err := NewLimiter(cfg, WithClock(mockClock))
	require.NoError(t, err)
	return limiter, mockClock
}

func TestLimiter_AllowsUpToLimit(t *testing.T) {
	limiter, _ := newMockedLimiter(t, Config{Limit: 3, Window: time.Minute})

	for i := 1; i <= 3; i++ {
		require.True(t, limiter.Allow("alice"), "request %d should be allowed", i)
		require.Equal(t, i, limiter.Count("alice"))
	}

	require.False(t, limiter.Allow("alice"))
	require.Equal(t, 3, limiter.Count("alice"), "denied requests must not count")
	require.Equal(t, 0, limiter.Remaining("alice"))
}

func TestLimiter_IdentifiersAreIndependent(t *testing.T) {
	limiter, _ := newMockedLimiter(t, Config{Limit: 1, Window: time.Minute})

	require.True(t, limiter.Allow("alice"))
	require.False(t, limiter.Allow("alice"))
	require.True(t, limiter.Allow("bob"))
}

func TestLimiter_WindowExpiryStartsFresh(t *testing.T) {
	limiter, mockClock := newMockedLimiter(t, Config{Limit: 2, Window: time.Minute})

	require.True(t, limiter.Allow("alice"))
	require.True(t, limiter.Allow("alice"))
	require.False(t, limiter.Allow("alice"))

	mockClock.Advance(time.Minute)

	require.True(t, limiter.Allow("alice"))
	require.Equal(t, 1, limiter.Count("alice"), "expired window must reset the count")
}

// Increments must not push the window end out: a request near the end of a
// window cannot keep the window alive.
func TestLimiter_WindowIsNotExtendedByTraffic(t *testing.T) {
	limiter, mockClock := newMockedLimiter(t, Config{Limit: 2, Window: 100 * time.Millisecond})

	require.True(t, limiter.Allow("alice")) // window opens at t=0
	mockClock.Advance(60 * time.Millisecond)
	require.True(t, limiter.Allow("alice")) // counts, must not move the deadline

	// t=120ms: past the original deadline, so this opens a new window even
	// though the last request was only 60ms ago.
	mockClock.Advance(60 * time.Millisecond)
	require.True(t, limiter.Allow("alice"))
	require.Equal(t, 1, limiter.Count("alice"))
}

func TestLimiter_Remaining(t *testing.T) {
	limiter, _ := newMockedLimiter(t, Config{Limit: 5, Window: time.Minute})

	require.Equal(t, 5, limiter.Remaining("alice"), "unseen identifier has the full limit")

	limiter.Allow("alice")
	limiter.Allow("alice")
	require.Equal(t, 3, limiter.Remaining("alice"))
	require.Equal(t, 2, limiter.Count("alice"))
}

func TestLimiter_Reset(t *testing.T) {
	limiter, _ := newMockedLimiter(t, Config{Limit: 1, Window: time.Minute})

	require.True(t, limiter.Allow("alice"))
	require.False(t, limiter.Allow("alice"))

	limiter.Reset("alice")

	require.Equal(t, 0, limiter.Count("alice"))
	require.True(t, limiter.Allow("alice"))
}

func TestLimiter_DeleteExpired(t *testing.T) {
	limiter, mockClock := newMockedLimiter(t, Config{Limit: 5, Window: time.Minute})

	limiter.Allow("alice")
	limiter.Allow("bob")

	mockClock.Advance(2 * time.Minute)

	require.Equal(t, 2, limiter.DeleteExpired())
	require.Equal(t, 0, limiter.DeleteExpired())
}

func TestNewLimiter_InvalidConfig(t *testing.T) {
	for _, cfg := range []Config{
		{Limit: 0, Window: time.Minute},
		{Limit: -1, Window: time.Minute},
		{Limit: 10, Window: 0},
		{Limit: 10, Window: -time.Second},
	} {
		_, err := NewLimiter(cfg)
		require.ErrorIs(t, err, cachekit.ErrInvalidConfig, "config %+v", cfg)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	require.Equal(t, 10, cfg.Limit)
	require.Equal(t, time.Minute, cfg.Window)
}

func TestLimiter_ConcurrentAllow(t *testing.T) {
	limiter, err := NewLimiter(Config{Limit: 100, Window: time.Minute})
	require.NoError(t, err)

	var wg sync.WaitGroup
	allowed := make([]int, 8)

	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				if limiter.Allow("shared") {
					allowed[w]++
				}
				limiter.Allow(fmt.Sprintf("solo-%d", w))
			}
		}(w)
	}
	wg.Wait()

	total := 0
	for _, n := range allowed {
		total += n
	}
	require.Equal(t, 100, total, "exactly the limit must be admitted for the shared identifier")
	require.Equal(t, 100, limiter.Count("shared"))
}
