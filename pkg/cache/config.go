package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
)

// Driver selects the Store implementation.
type Driver string

const (
	DriverMemory Driver = "memory"
	DriverRedis  Driver = "redis"
	DriverNone   Driver = "none"
)

// Config selects and tunes the cache in front of the backend.
type Config struct {
	Driver    Driver        `env:"CACHE_DRIVER" envDefault:"memory"`
	TTL       time.Duration `env:"CACHE_TTL" envDefault:"5m"`
	Capacity  int           `env:"CACHE_CAPACITY" envDefault:"1024"`
	KeyPrefix string        `env:"CACHE_KEY_PREFIX" envDefault:"entitlements:"`
	Redis     RedisConfig
}

// RedisConfig holds the connection settings used by DriverRedis.
type RedisConfig struct {
	URL            string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"2s"`
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"10s"`
}

// Open builds the store described by cfg.
func Open[V any](ctx context.Context, cfg Config, clock clockwork.Clock) (Store[V], error) {
	switch cfg.Driver {
	case DriverMemory, "":
		return NewMemory[V](max(cfg.Capacity, 1), clock), nil
	case DriverRedis:
		client, err := Connect(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		s := NewRedis[V](client, cfg.KeyPrefix)
		s.owned = true
		return s, nil
	case DriverNone:
		return Nop[V]{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}
