package auth

import "errors"

var (
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrNoPassword         = errors.New("auth: no admin password configured")
	ErrUnknownDriver      = errors.New("auth: unknown credentials driver")
	ErrNoRedis            = errors.New("auth: redis driver needs a redis client")
	ErrHashFailed         = errors.New("auth: failed to hash password")
	ErrStoreFailed        = errors.New("auth: credential store failure")
)
