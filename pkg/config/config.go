package config

import (
	"fmt"

	"github.com/gestaonuvem/entitlements/pkg/backend"
	"github.com/gestaonuvem/entitlements/pkg/cache"
	"github.com/gestaonuvem/entitlements/pkg/httpserver"
	"github.com/gestaonuvem/entitlements/pkg/logger"
	"github.com/gestaonuvem/entitlements/pkg/payment"
)

// Config is the complete runtime configuration.
type Config struct {
	TenantID    string `env:"TENANT_ID"`
	CatalogFile string `env:"PLAN_CATALOG_FILE"`

	Logger  logger.Config
	Backend backend.Config
	Cache   cache.Config
	Payment payment.Config
	HTTP    httpserver.Config
}

// Load reads the optional env files, then the environment, and validates the result.
func Load(files ...string) (Config, error) {
	if err := LoadEnv(files...); err != nil {
		return Config{}, err
	}
	cfg, err := Parse[Config]()
	if err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// MustLoad is like Load but panics on failure.
func MustLoad(files ...string) Config {
	cfg, err := Load(files...)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// Validate checks the settings env tags cannot express.
func (c Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("%w: ENTITLEMENTS_API_URL is empty", ErrInvalidConfig)
	}
	switch c.Cache.Driver {
	case cache.DriverMemory, cache.DriverRedis, cache.DriverNone:
	default:
		return fmt.Errorf("%w: unknown CACHE_DRIVER %q", ErrInvalidConfig, c.Cache.Driver)
	}
	if c.Cache.Driver == cache.DriverMemory && c.Cache.Capacity <= 0 {
		return fmt.Errorf("%w: CACHE_CAPACITY must be positive", ErrInvalidConfig)
	}
	if c.Payment.PixPollInterval <= 0 || c.Payment.BoletoPollInterval <= 0 || c.Payment.CountdownInterval <= 0 {
		return fmt.Errorf("%w: payment intervals must be positive", ErrInvalidConfig)
	}
	return nil
}
