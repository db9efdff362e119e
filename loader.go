package cachekit

import (
	"fmt"

	"golang.org/x/sync/singleflight"
)

// Loader fills cache misses for TTL.GetOrLoad.
type Loader[K comparable, V any] interface {
	Load(key K) (V, error)
}

// LoaderFunc adapts a plain function to the Loader interface.
type LoaderFunc[K comparable, V any] func(key K) (V, error)

func (f LoaderFunc[K, V]) Load(key K) (V, error) {
	return f(key)
}

// SuppressedLoader deduplicates concurrent loads of the same key through
// singleflight, so a burst of misses triggers one underlying load instead
// of a stampede.
type SuppressedLoader[K comparable, V any] struct {
	loader Loader[K, V]
	group  singleflight.Group
}

func NewSuppressedLoader[K comparable, V any](loader Loader[K, V]) *SuppressedLoader[K, V] {
	return &SuppressedLoader[K, V]{loader: loader}
}

func (l *SuppressedLoader[K, V]) Load(key K) (V, error) {
	// singleflight keys on strings; formatting the key is good enough for
	// any comparable K.
	result, err, _ := l.group.Do(fmt.Sprint(key), func() (interface{}, error) {
		return l.loader.Load(key)
	})
	if err != nil {
		var zero V
		return zero, err
	}

	return result.(V), nil
}
