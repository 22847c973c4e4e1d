package cache

import "errors"

var (
	ErrStore         = errors.New("cache store failure")
	ErrEncode        = errors.New("failed to encode cache value")
	ErrUnknownDriver = errors.New("unknown cache driver")
	ErrEmptyRedisURL = errors.New("empty redis connection URL")
	ErrParseRedisURL = errors.New("failed to parse redis connection URL")
	ErrRedisNotReady = errors.New("redis did not become ready in time")
)
