package storage

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrNotFound = errors.New("storage: not found")

const (
	KeyTodos                  = "todos"
	KeyNotificationsEnabled   = "notificationsEnabled"
	KeyNotificationPermission = "notificationPermission"
	// KeyTodosCorrupt keeps the last todos payload that failed to load.
	KeyTodosCorrupt = "todos.corrupt"
)

// KV is a string key-value store shared by every todod process on the same
// database. Get reports ok=false for absent keys; Delete and UpdatedAt return
// ErrNotFound. UpdatedAt changes on every Set, so a process can tell that
// another one wrote a key.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	UpdatedAt(ctx context.Context, key string) (time.Time, error)
}

type MemoryKV struct {
	mu      sync.RWMutex
	values  map[string]string
	updated map[string]time.Time
	last    time.Time
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: make(map[string]string), updated: make(map[string]time.Time)}
}

func (m *MemoryKV) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryKV) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	// strictly increasing, even for writes within one clock tick
	stamp := time.Now().UTC()
	if !stamp.After(m.last) {
		stamp = m.last.Add(time.Nanosecond)
	}
	m.last = stamp
	m.updated[key] = stamp
	return nil
}

func (m *MemoryKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.values[key]; !ok {
		return ErrNotFound
	}
	delete(m.values, key)
	delete(m.updated, key)
	return nil
}

func (m *MemoryKV) UpdatedAt(_ context.Context, key string) (time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stamp, ok := m.updated[key]
	if !ok {
		return time.Time{}, ErrNotFound
	}
	return stamp, nil
}
