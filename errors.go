package cachekit

import "errors"

var (
	ErrInvalidCapacity = errors.New("capacity must be positive")
	ErrInvalidConfig   = errors.New("invalid configuration")
	ErrKeyNotFound     = errors.New("key not found")
)
