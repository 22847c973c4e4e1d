package backend

import "time"

// Config holds the connection settings for the backend of record.
type Config struct {
	BaseURL   string `env:"ENTITLEMENTS_API_URL" envDefault:"http://localhost:3000/api/"`
	Token     string `env:"ENTITLEMENTS_API_TOKEN"`
	UserAgent string `env:"ENTITLEMENTS_API_USER_AGENT" envDefault:"entitlements-client/1.0"`

	Timeout time.Duration `env:"ENTITLEMENTS_API_TIMEOUT" envDefault:"15s"`

	// Retries apply to idempotent reads only.
	MaxRetries   int           `env:"ENTITLEMENTS_API_MAX_RETRIES" envDefault:"3"`
	RetryMinWait time.Duration `env:"ENTITLEMENTS_API_RETRY_MIN_WAIT" envDefault:"250ms"`
	RetryMaxWait time.Duration `env:"ENTITLEMENTS_API_RETRY_MAX_WAIT" envDefault:"5s"`

	BreakerName        string        `env:"ENTITLEMENTS_API_BREAKER_NAME" envDefault:"entitlements-api"`
	BreakerMaxFailures uint32        `env:"ENTITLEMENTS_API_BREAKER_MAX_FAILURES" envDefault:"5"`
	BreakerInterval    time.Duration `env:"ENTITLEMENTS_API_BREAKER_INTERVAL" envDefault:"60s"`
	BreakerTimeout     time.Duration `env:"ENTITLEMENTS_API_BREAKER_TIMEOUT" envDefault:"30s"`
}

// DefaultConfig mirrors the env defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL:            "http://localhost:3000/api/",
		UserAgent:          "entitlements-client/1.0",
		Timeout:            15 * time.Second,
		MaxRetries:         3,
		RetryMinWait:       250 * time.Millisecond,
		RetryMaxWait:       5 * time.Second,
		BreakerName:        "entitlements-api",
		BreakerMaxFailures: 5,
		BreakerInterval:    60 * time.Second,
		BreakerTimeout:     30 * time.Second,
	}
}
