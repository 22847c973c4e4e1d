package config

import "errors"

var (
	ErrParsingConfig = errors.New("failed to parse environment variables into config")
	ErrLoadEnvFile   = errors.New("failed to load env file")
	ErrInvalidConfig = errors.New("invalid configuration")
)
