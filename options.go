package cachekit

import (
	logger "github.com/harwoeck/liblog/contract"

	"github.com/akshayb7/go-cachekit/clock"
)

// Option configures a cache at construction time.
type Option[K comparable, V any] func(*options[K, V])

type options[K comparable, V any] struct {
	clock  clock.Clock
	events EventHandlers[K, V]
	log    logger.Logger
	loader Loader[K, V]
}

func applyOptions[K comparable, V any](opts []Option[K, V]) *options[K, V] {
	o := &options[K, V]{clock: clock.Real()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithClock replaces the wall clock. Only the TTL cache reads time; the
// option exists so expiry can be driven deterministically in tests.
func WithClock[K comparable, V any](c clock.Clock) Option[K, V] {
	return func(o *options[K, V]) { o.clock = c }
}

// WithEventHandlers installs callbacks for puts, hits and evictions.
func WithEventHandlers[K comparable, V any](handlers EventHandlers[K, V]) Option[K, V] {
	return func(o *options[K, V]) { o.events = handlers }
}

// WithLogger enables debug logging of cache activity. A nil logger (the
// default) keeps the hot path silent.
func WithLogger[K comparable, V any](log logger.Logger) Option[K, V] {
	return func(o *options[K, V]) { o.log = log }
}

// WithLoader attaches a Loader used by TTL.GetOrLoad to fill misses.
func WithLoader[K comparable, V any](l Loader[K, V]) Option[K, V] {
	return func(o *options[K, V]) { o.loader = l }
}

func named(log logger.Logger, name string) logger.Logger {
	if log == nil {
		return nil
	}
	return log.Named(name)
}

func debugLog(log logger.Logger, msg string, fields ...logger.Field) {
	if log != nil {
		log.Debug(msg, fields...)
	}
}
