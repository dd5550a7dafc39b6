package session

import "errors"

var (
	ErrEmptyToken    = errors.New("session: empty token")
	ErrClosed        = errors.New("session: store is closed")
	ErrFull          = errors.New("session: too many live sessions")
	ErrUnknownDriver = errors.New("session: unknown store driver")
	ErrNoRedis       = errors.New("session: redis driver needs a redis client")
)
