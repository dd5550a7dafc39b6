package auth

import (
	"context"
	"errors"
	"sync"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

// Credentials holds the admin password as a bcrypt hash.
type Credentials interface {
	// Verify reports whether password matches the stored hash.
	Verify(ctx context.Context, password string) (bool, error)
	// Set replaces the stored hash with one of password.
	Set(ctx context.Context, password string) error
}

// Config selects and seeds the credential store.
type Config struct {
	Driver     string `env:"CREDENTIALS_DRIVER" envDefault:"memory"`
	Password   string `env:"ADMIN_PASSWORD"`
	RedisKey   string `env:"CREDENTIALS_REDIS_KEY" envDefault:"folio:admin:password"`
	BcryptCost int    `env:"BCRYPT_COST" envDefault:"10"`
}

func hash(password string, cost int) ([]byte, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return nil, errors.Join(ErrHashFailed, err)
	}
	return h, nil
}

func compare(hashed []byte, password string) (bool, error) {
	err := bcrypt.CompareHashAndPassword(hashed, []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, errors.Join(ErrStoreFailed, err)
	}
}

// MemoryCredentials keeps the hash in process memory. A restart resets it to
// the configured password.
type MemoryCredentials struct {
	mu   sync.RWMutex
	hash []byte
	cost int
}

// NewMemoryCredentials hashes password with the given bcrypt cost.
func NewMemoryCredentials(password string, cost int) (*MemoryCredentials, error) {
	if password == "" {
		return nil, ErrNoPassword
	}
	h, err := hash(password, cost)
	if err != nil {
		return nil, err
	}
	return &MemoryCredentials{hash: h, cost: cost}, nil
}

func (m *MemoryCredentials) Verify(_ context.Context, password string) (bool, error) {
	m.mu.RLock()
	h := m.hash
	m.mu.RUnlock()
	return compare(h, password)
}

func (m *MemoryCredentials) Set(_ context.Context, password string) error {
	h, err := hash(password, m.cost)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.hash = h
	m.mu.Unlock()
	return nil
}

// RedisCredentials keeps the hash under a single Redis key, so a changed
// password survives restarts and is shared between instances.
type RedisCredentials struct {
	client redis.UniversalClient
	key    string
	cost   int
}

// NewRedisCredentials seeds key with a hash of password unless a hash is
// already stored there.
func NewRedisCredentials(ctx context.Context, client redis.UniversalClient, key, password string, cost int) (*RedisCredentials, error) {
	if password == "" {
		return nil, ErrNoPassword
	}
	h, err := hash(password, cost)
	if err != nil {
		return nil, err
	}
	if err := client.SetNX(ctx, key, h, 0).Err(); err != nil {
		return nil, errors.Join(ErrStoreFailed, err)
	}
	return &RedisCredentials{client: client, key: key, cost: cost}, nil
}

func (r *RedisCredentials) Verify(ctx context.Context, password string) (bool, error) {
	h, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, ErrNoPassword
	}
	if err != nil {
		return false, errors.Join(ErrStoreFailed, err)
	}
	return compare(h, password)
}

func (r *RedisCredentials) Set(ctx context.Context, password string) error {
	h, err := hash(password, r.cost)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key, h, 0).Err(); err != nil {
		return errors.Join(ErrStoreFailed, err)
	}
	return nil
}

// OpenCredentials builds the store selected by cfg. The redis driver needs client.
func OpenCredentials(ctx context.Context, cfg Config, client redis.UniversalClient) (Credentials, error) {
	switch cfg.Driver {
	case "", "memory":
		return NewMemoryCredentials(cfg.Password, cfg.BcryptCost)
	case "redis":
		if client == nil {
			return nil, ErrNoRedis
		}
		return NewRedisCredentials(ctx, client, cfg.RedisKey, cfg.Password, cfg.BcryptCost)
	default:
		return nil, ErrUnknownDriver
	}
}
