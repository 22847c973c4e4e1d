// Package config loads the engine configuration from the environment.
//
// Each package owns its settings struct with env tags (backend.Config,
// cache.Config, payment.Config, logger.Config); Config aggregates them.
// LoadEnv reads .env files with github.com/joho/godotenv and Parse fills a
// struct with github.com/caarlos0/env/v11.
//
//	cfg, err := config.Load()          // ./.env if present, then the environment
//	cfg, err := config.Load("prod.env") // explicit files must exist
//
// ParseMap parses from a map instead of the process environment, which keeps
// tests parallel-safe.
package config
