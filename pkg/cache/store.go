package cache

import (
	"context"
	"time"
)

// Store is a keyed cache with a per-entry time to live.
// A missing or expired key is reported with ok == false and a nil error.
type Store[V any] interface {
	Get(ctx context.Context, key string) (v V, ok bool, err error)
	Set(ctx context.Context, key string, v V, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// ReadThrough returns the cached value for key, or calls load and caches its
// result for ttl. Cache failures fall through to load; a failed load is not cached.
func ReadThrough[V any](ctx context.Context, s Store[V], key string, ttl time.Duration, load func(context.Context) (V, error)) (V, error) {
	if v, ok, err := s.Get(ctx, key); err == nil && ok {
		return v, nil
	}

	v, err := load(ctx)
	if err != nil {
		var zero V
		return zero, err
	}
	_ = s.Set(ctx, key, v, ttl)
	return v, nil
}

// Nop is a Store that never holds anything.
type Nop[V any] struct{}

func (Nop[V]) Get(context.Context, string) (V, bool, error) {
	var zero V
	return zero, false, nil
}
func (Nop[V]) Set(context.Context, string, V, time.Duration) error { return nil }
func (Nop[V]) Delete(context.Context, string) error                { return nil }
func (Nop[V]) Close() error                                        { return nil }
