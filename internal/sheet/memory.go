package sheet

import (
	"context"
	"slices"
	"sync"
)

type memTable struct {
	headers []string
	rows    []Row
}

// Memory is an in-process backend. Rows are copied on the way in and out.
type Memory struct {
	mu     sync.RWMutex
	order  []string
	tables map[string]*memTable
	closed bool
}

// NewMemory returns an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{tables: make(map[string]*memTable)}
}

func (m *Memory) Tables(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	return slices.Clone(m.order), nil
}

func (m *Memory) ReadHeaders(_ context.Context, table string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	t, ok := m.tables[table]
	if !ok {
		return []string{}, nil
	}
	return slices.Clone(t.headers), nil
}

func (m *Memory) AppendHeader(_ context.Context, table, name string) error {
	if name == "" {
		return ErrEmptyHeaderName
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, err := m.table(table)
	if err != nil {
		return err
	}
	if !slices.Contains(t.headers, name) {
		t.headers = append(t.headers, name)
	}
	return nil
}

func (m *Memory) ListRows(_ context.Context, table string) ([]Row, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	t, ok := m.tables[table]
	if !ok {
		return []Row{}, nil
	}
	out := make([]Row, len(t.rows))
	for i, r := range t.rows {
		out[i] = r.Clone()
	}
	return out, nil
}

func (m *Memory) AppendRow(_ context.Context, table string, row Row) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, err := m.table(table)
	if err != nil {
		return err
	}
	t.rows = append(t.rows, encodeRow(row))
	return nil
}

func (m *Memory) WriteRow(_ context.Context, table string, index int, row Row) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	t, ok := m.tables[table]
	if !ok || index < 0 || index >= len(t.rows) {
		return ErrRowOutOfRange
	}
	t.rows[index] = encodeRow(row)
	return nil
}

func (m *Memory) DeleteRow(_ context.Context, table string, index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	t, ok := m.tables[table]
	if !ok || index < 0 || index >= len(t.rows) {
		return ErrRowOutOfRange
	}
	t.rows = slices.Delete(t.rows, index, index+1)
	return nil
}

func (m *Memory) Ping(_ context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrClosed
	}
	return nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// table returns the named table, creating it. Caller holds the write lock.
func (m *Memory) table(name string) (*memTable, error) {
	if m.closed {
		return nil, ErrClosed
	}
	if name == "" {
		return nil, ErrEmptyTableName
	}
	t, ok := m.tables[name]
	if !ok {
		t = &memTable{}
		m.tables[name] = t
		m.order = append(m.order, name)
	}
	return t, nil
}
