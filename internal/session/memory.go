package session

import (
	"context"
	"sync"
	"time"
)

// Memory keeps tokens in process memory. Tokens leave only by expiring:
// IsValid drops an expired token it meets and a janitor goroutine sweeps the
// rest. When a maximum is configured, Put rejects new tokens while the store
// is full of live ones.
type Memory struct {
	tokens map[string]time.Time // token -> expiry
	now    func() time.Time
	done   chan struct{}

	cleanupInterval time.Duration
	maxTokens       int

	mu     sync.Mutex
	closed bool
}

// MemoryOption configures a Memory store.
type MemoryOption func(*Memory)

// WithCleanupInterval sets how often expired tokens are swept. Zero disables the janitor.
// Default: 1 minute
func WithCleanupInterval(d time.Duration) MemoryOption {
	return func(m *Memory) { m.cleanupInterval = d }
}

// WithMaxTokens bounds the number of live tokens; Put returns ErrFull past
// it. Zero means unbounded.
// Default: 1000
func WithMaxTokens(n int) MemoryOption {
	return func(m *Memory) { m.maxTokens = n }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMemory creates an in-memory store. Close stops its janitor.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		tokens:          make(map[string]time.Time),
		now:             time.Now,
		done:            make(chan struct{}),
		cleanupInterval: time.Minute,
		maxTokens:       1000,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.cleanupInterval > 0 {
		go m.janitor()
	}
	return m
}

func (m *Memory) Put(_ context.Context, token string, ttl time.Duration) error {
	if token == "" {
		return ErrEmptyToken
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}

	now := m.now()
	if _, ok := m.tokens[token]; !ok && m.maxTokens > 0 && len(m.tokens) >= m.maxTokens {
		m.sweep(now)
		if len(m.tokens) >= m.maxTokens {
			return ErrFull
		}
	}
	m.tokens[token] = now.Add(resolveTTL(ttl))
	return nil
}

func (m *Memory) IsValid(_ context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return false, ErrClosed
	}

	expiresAt, ok := m.tokens[token]
	if !ok {
		return false, nil
	}
	if !m.now().Before(expiresAt) {
		delete(m.tokens, token)
		return false, nil
	}
	return true, nil
}

// Len returns the number of stored tokens, including expired ones not yet swept.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tokens)
}

// Close stops the janitor. It is idempotent.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	close(m.done)
	return nil
}

func (m *Memory) janitor() {
	ticker := time.NewTicker(m.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.deleteExpired()
		}
	}
}

func (m *Memory) deleteExpired() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweep(m.now())
}

// sweep drops tokens expired at now. Caller holds the mutex.
func (m *Memory) sweep(now time.Time) {
	for token, expiresAt := range m.tokens {
		if !now.Before(expiresAt) {
			delete(m.tokens, token)
		}
	}
}

var _ Store = (*Memory)(nil)
