// Package session keeps the set of issued admin session tokens.
//
// A token is valid from Put until its TTL elapses. Expiry is the only way a
// token disappears: there is no logout and changing the password does not
// revoke anything. Two stores are provided, an in-process Memory store and a
// Redis store for deployments that restart often.
package session

import (
	"context"
	"time"
)

// DefaultTTL is the lifetime of a session token.
const DefaultTTL = 6 * time.Hour

// Store records issued tokens with a bounded lifetime.
type Store interface {
	// Put marks token as valid for ttl. A non-positive ttl means DefaultTTL.
	Put(ctx context.Context, token string, ttl time.Duration) error
	// IsValid reports whether token was Put and has not expired.
	IsValid(ctx context.Context, token string) (bool, error)
	Close() error
}

// Config selects the session store.
type Config struct {
	Driver string        `env:"SESSION_DRIVER" envDefault:"memory"`
	TTL    time.Duration `env:"SESSION_TTL" envDefault:"6h"`
}

func resolveTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return DefaultTTL
	}
	return ttl
}
