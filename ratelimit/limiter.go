// Package ratelimit implements a fixed-window request limiter on top of the
// cachekit TTL cache: per-identifier counters live in the cache and the
// window boundary is the entry's expiry. When a counter expires, the next
// request opens a fresh window.
package ratelimit

import (
	"fmt"
	"sync"
	"time"

	logger "github.com/harwoeck/liblog/contract"

	cachekit "github.com/akshayb7/go-cachekit"
	"github.com/akshayb7/go-cachekit/clock"
)

// Config holds the fixed-window policy: at most Limit requests per Window
// for each identifier.
type Config struct {
	Limit  int
	Window time.Duration
}

// DefaultConfig allows 10 requests per minute.
func DefaultConfig() Config {
	return Config{Limit: 10, Window: time.Minute}
}

func (c Config) Validate() error {
	if c.Limit <= 0 {
		return fmt.Errorf("Limit must be positive")
	}
	if c.Window <= 0 {
		return fmt.Errorf("Window must be positive")
	}
	return nil
}

// Option configures a Limiter at construction time.
type Option func(*limiterOptions)

type limiterOptions struct {
	clock clock.Clock
	log   logger.Logger
}

// WithClock replaces the wall clock, letting tests move window boundaries
// deterministically.
func WithClock(c clock.Clock) Option {
	return func(o *limiterOptions) { o.clock = c }
}

// WithLogger enables debug logging of limiter decisions.
func WithLogger(log logger.Logger) Option {
	return func(o *limiterOptions) { o.log = log }
}

// Limiter is a fixed-window rate limiter. It owns a TTL cache mapping
// identifier to the request count in the current window; the cache's expiry
// is the window expiry.
//
// Counter bumps go through the cache's Replace, which preserves the stored
// expiry, so a busy identifier cannot push its window end out; windows
// close on schedule regardless of traffic.
type Limiter struct {
	cfg    Config
	mu     sync.Mutex
	counts *cachekit.TTL[string, int]
	log    logger.Logger
}

// NewLimiter builds a limiter for the given policy.
func NewLimiter(cfg Config, opts ...Option) (*Limiter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", cachekit.ErrInvalidConfig, err)
	}

	o := &limiterOptions{clock: clock.Real()}
	for _, opt := range opts {
		opt(o)
	}

	counts := cachekit.NewTTL[string, int](cfg.Window,
		cachekit.WithClock[string, int](o.clock))

	var log logger.Logger
	if o.log != nil {
		log = o.log.Named("ratelimit")
	}

	return &Limiter{cfg: cfg, counts: counts, log: log}, nil
}

// Allow records a request for identifier and reports whether it fits in the
// current window. The first request of a window stores count 1 with the
// window duration as TTL; later requests increment the counter in place.
func (l *Limiter) Allow(identifier string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	count, ok := l.counts.Fetch(identifier)
	if !ok {
		l.counts.Put(identifier, 1)
		l.debug("window opened", identifier, 1)
		return true
	}

	if count >= l.cfg.Limit {
		if l.log != nil {
			l.log.Warn("rate limit exceeded",
				logger.NewField("identifier", identifier),
				logger.NewField("count", count),
				logger.NewField("limit", l.cfg.Limit))
		}
		return false
	}

	if !l.counts.Replace(identifier, count+1) {
		// The window closed between Fetch and Replace; start a new one.
		l.counts.Put(identifier, 1)
		l.debug("window opened", identifier, 1)
		return true
	}

	l.debug("request counted", identifier, count+1)
	return true
}

// Remaining reports how many requests identifier has left in the current
// window. An identifier with no live window has the full limit available.
func (l *Limiter) Remaining(identifier string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	count, ok := l.counts.Fetch(identifier)
	if !ok {
		return l.cfg.Limit
	}

	if remaining := l.cfg.Limit - count; remaining > 0 {
		return remaining
	}
	return 0
}

// Count reports the requests recorded for identifier in the current window.
func (l *Limiter) Count(identifier string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	count, _ := l.counts.Fetch(identifier)
	return count
}

// Reset forgets the current window for identifier. The next request starts
// a fresh one.
func (l *Limiter) Reset(identifier string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.counts.Remove(identifier)
	l.debug("window reset", identifier, 0)
}

// DeleteExpired sweeps closed windows out of the backing cache. Optional;
// lazy removal keeps results correct without it.
func (l *Limiter) DeleteExpired() int {
	return l.counts.DeleteExpired()
}

func (l *Limiter) debug(msg, identifier string, count int) {
	if l.log != nil {
		l.log.Debug(msg,
			logger.NewField("identifier", identifier),
			logger.NewField("count", count),
			logger.NewField("limit", l.cfg.Limit))
	}
}
