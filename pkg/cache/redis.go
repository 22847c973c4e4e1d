package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a Store shared between processes. Values are stored as JSON.
type Redis[V any] struct {
	db     redis.UniversalClient
	prefix string
	owned  bool
}

// NewRedis wraps an existing client. Close does not close a client passed in here.
func NewRedis[V any](db redis.UniversalClient, prefix string) *Redis[V] {
	return &Redis[V]{db: db, prefix: prefix}
}

func (r *Redis[V]) Get(ctx context.Context, key string) (V, bool, error) {
	var zero V
	raw, err := r.db.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, errors.Join(ErrStore, err)
	}

	var v V
	if err := json.Unmarshal(raw, &v); err != nil {
		// A value written by an incompatible version is treated as a miss.
		_ = r.db.Del(ctx, r.prefix+key).Err()
		return zero, false, nil
	}
	return v, true, nil
}

// Set stores v for ttl. A non-positive ttl stores the key without expiry.
func (r *Redis[V]) Set(ctx context.Context, key string, v V, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return errors.Join(ErrEncode, err)
	}
	if ttl < 0 {
		ttl = 0
	}
	if err := r.db.Set(ctx, r.prefix+key, raw, ttl).Err(); err != nil {
		return errors.Join(ErrStore, err)
	}
	return nil
}

func (r *Redis[V]) Delete(ctx context.Context, key string) error {
	if err := r.db.Del(ctx, r.prefix+key).Err(); err != nil {
		return errors.Join(ErrStore, err)
	}
	return nil
}

func (r *Redis[V]) Close() error {
	if !r.owned {
		return nil
	}
	return r.db.Close()
}

// Connect opens a Redis client and pings it until it answers, up to
// cfg.RetryAttempts times.
func Connect(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	if cfg.URL == "" {
		return nil, ErrEmptyRedisURL
	}
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, errors.Join(ErrParseRedisURL, err)
	}

	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	var lastErr error
	for attempt := range max(cfg.RetryAttempts, 1) {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, errors.Join(ErrRedisNotReady, ctx.Err())
			case <-time.After(cfg.RetryInterval):
			}
		}

		client := redis.NewClient(opts)
		if lastErr = client.Ping(ctx).Err(); lastErr == nil {
			return client, nil
		}
		_ = client.Close()
	}
	return nil, errors.Join(ErrRedisNotReady, lastErr)
}
