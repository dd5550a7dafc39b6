package blob

import (
	"context"
	"slices"
	"strings"
	"sync"
)

// Memory keeps uploads in process memory.
type Memory struct {
	mu      sync.RWMutex
	objects map[string][]byte
	baseURL string
	prefix  string
}

// NewMemory returns an empty store whose URLs start with baseURL.
func NewMemory(baseURL, prefix string) *Memory {
	return &Memory{
		objects: make(map[string][]byte),
		baseURL: strings.TrimSuffix(baseURL, "/"),
		prefix:  prefix,
	}
}

func (m *Memory) Put(_ context.Context, u Upload) (Object, error) {
	key := buildKey(m.prefix, u)
	m.mu.Lock()
	m.objects[key] = slices.Clone(u.Data)
	m.mu.Unlock()
	return Object{
		Key:         key,
		URL:         m.baseURL + "/" + key,
		ContentType: u.ContentType,
		Size:        int64(len(u.Data)),
	}, nil
}

func (m *Memory) Ping(context.Context) error { return nil }

// Get returns the stored bytes of key.
func (m *Memory) Get(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.objects[key]
	return slices.Clone(b), ok
}

// Disabled rejects every upload with ErrNotConfigured.
type Disabled struct{}

func (Disabled) Put(context.Context, Upload) (Object, error) { return Object{}, ErrNotConfigured }

func (Disabled) Ping(context.Context) error { return nil }
