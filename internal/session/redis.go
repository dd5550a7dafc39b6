package session

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "folio:session:"

// Redis stores each token as a key with a TTL, so expiry is enforced by Redis.
type Redis struct {
	client redis.UniversalClient
	prefix string
}

// NewRedis creates a Redis-backed store. An empty prefix uses "folio:session:".
func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) Put(ctx context.Context, token string, ttl time.Duration) error {
	if token == "" {
		return ErrEmptyToken
	}
	return r.client.Set(ctx, r.prefix+token, "valid", resolveTTL(ttl)).Err()
}

func (r *Redis) IsValid(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	err := r.client.Get(ctx, r.prefix+token).Err()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, redis.Nil):
		return false, nil
	default:
		return false, err
	}
}

// Close is a no-op; the client is owned by the caller.
func (r *Redis) Close() error { return nil }

var _ Store = (*Redis)(nil)

// Open builds the store named by cfg.Driver. client is required for "redis".
func Open(cfg Config, client redis.UniversalClient) (Store, error) {
	switch cfg.Driver {
	case "memory", "":
		return NewMemory(), nil
	case "redis":
		if client == nil {
			return nil, ErrNoRedis
		}
		return NewRedis(client, ""), nil
	default:
		return nil, errors.Join(ErrUnknownDriver, errors.New(cfg.Driver))
	}
}
