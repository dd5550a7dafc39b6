package redis

import "errors"

var (
	ErrNoURL       = errors.New("redis: REDIS_URL is not set")
	ErrInvalidURL  = errors.New("redis: invalid connection URL")
	ErrUnreachable = errors.New("redis: server unreachable")
	ErrPingFailed  = errors.New("redis: ping failed")
)
