package credentials

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrIndexOutOfRange is returned by RemoveAt for a position outside the pool
var ErrIndexOutOfRange = errors.New("key index out of range")

// Manager applies pool edits to the store and keeps the rotator in sync.
// Edits never move the rotation cursor except to clamp it.
type Manager struct {
	store   Store
	rotator *Rotator
	mu      sync.Mutex
}

// NewManager loads the stored pool into a fresh rotator. When nothing was
// ever saved and seed is non-empty, seed is saved and used instead. A pool
// the user emptied stays empty.
func NewManager(ctx context.Context, store Store, seed []string) (*Manager, error) {
	keys, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}

	if keys == nil {
		keys = normalize(seed)
		if len(keys) > 0 {
			if err := store.Save(ctx, keys); err != nil {
				return nil, err
			}
		}
	}

	return &Manager{store: store, rotator: NewRotator(keys)}, nil
}

// Rotator returns the live rotator shared by every fetch
func (m *Manager) Rotator() *Rotator {
	return m.rotator
}

// List returns the pool in order
func (m *Manager) List() []string {
	return m.rotator.Keys()
}

// Add appends a key. Surrounding whitespace is trimmed and an empty key is
// ignored. It reports whether a key was added.
func (m *Manager) Add(ctx context.Context, key string) (bool, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return false, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	keys := append(m.rotator.Keys(), key)
	if err := m.store.Save(ctx, keys); err != nil {
		return false, err
	}
	m.rotator.SetPool(keys)
	return true, nil
}

// RemoveAt deletes the key at index
func (m *Manager) RemoveAt(ctx context.Context, index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := m.rotator.Keys()
	if index < 0 || index >= len(keys) {
		return fmt.Errorf("%w: %d not in [0,%d)", ErrIndexOutOfRange, index, len(keys))
	}
	keys = append(keys[:index], keys[index+1:]...)

	if err := m.store.Save(ctx, keys); err != nil {
		return err
	}
	m.rotator.SetPool(keys)
	return nil
}

// Clear removes every key
func (m *Manager) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Clear(ctx); err != nil {
		return err
	}
	m.rotator.SetPool(nil)
	return nil
}

func normalize(keys []string) []string {
	var out []string
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}
