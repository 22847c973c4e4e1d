package payment

import "time"

// Config holds the payment confirmation settings.
type Config struct {
	PixPollInterval     time.Duration `env:"PAYMENT_PIX_POLL_INTERVAL" envDefault:"5s"`
	BoletoPollInterval  time.Duration `env:"PAYMENT_BOLETO_POLL_INTERVAL" envDefault:"10s"`
	CountdownInterval   time.Duration `env:"PAYMENT_COUNTDOWN_INTERVAL" envDefault:"1s"`
	StatusTimeout       time.Duration `env:"PAYMENT_STATUS_TIMEOUT" envDefault:"15s"`
	ReusePendingIntents bool          `env:"PAYMENT_REUSE_PENDING_INTENTS" envDefault:"true"`
	QRCodeSize          int           `env:"PAYMENT_QR_SIZE" envDefault:"256"`
	FrontendURL         string        `env:"PAYMENT_FRONTEND_URL"`
}

// DefaultConfig returns the settings used when no configuration is supplied.
func DefaultConfig() Config {
	return Config{
		PixPollInterval:     5 * time.Second,
		BoletoPollInterval:  10 * time.Second,
		CountdownInterval:   time.Second,
		StatusTimeout:       15 * time.Second,
		ReusePendingIntents: true,
		QRCodeSize:          256,
	}
}

func (c Config) pollInterval(ch Channel) time.Duration {
	if ch == ChannelBoleto {
		return c.BoletoPollInterval
	}
	return c.PixPollInterval
}

// withDefaults fills zero durations and sizes so a partially set Config stays usable.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.PixPollInterval <= 0 {
		c.PixPollInterval = d.PixPollInterval
	}
	if c.BoletoPollInterval <= 0 {
		c.BoletoPollInterval = d.BoletoPollInterval
	}
	if c.CountdownInterval <= 0 {
		c.CountdownInterval = d.CountdownInterval
	}
	if c.StatusTimeout <= 0 {
		c.StatusTimeout = d.StatusTimeout
	}
	if c.QRCodeSize <= 0 {
		c.QRCodeSize = d.QRCodeSize
	}
	return c
}
