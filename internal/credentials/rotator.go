package credentials

import (
	"errors"
	"sync"
)

// ErrEmptyPool is returned when no credentials are configured
var ErrEmptyPool = errors.New("credential pool is empty")

// Rotator holds an ordered credential pool and a round-robin cursor.
// The cursor lives only in memory and starts at zero.
type Rotator struct {
	mu     sync.RWMutex
	keys   []string
	cursor int
}

// NewRotator creates a rotator over a copy of keys
func NewRotator(keys []string) *Rotator {
	r := &Rotator{}
	r.SetPool(keys)
	return r
}

// Current returns the credential under the cursor
func (r *Rotator) Current() (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.keys) == 0 {
		return "", ErrEmptyPool
	}
	return r.keys[r.cursor], nil
}

// Advance moves the cursor to the next credential, wrapping at the end.
// It does nothing on an empty pool.
func (r *Rotator) Advance() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.keys) == 0 {
		return
	}
	r.cursor = (r.cursor + 1) % len(r.keys)
}

// Cursor returns the current cursor position
func (r *Rotator) Cursor() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cursor
}

// Len returns the pool size
func (r *Rotator) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.keys)
}

// Keys returns a copy of the pool
func (r *Rotator) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.keys...)
}

// SetPool replaces the pool. The cursor does not move unless the pool has
// shrunk below it, in which case it is clamped to the last index.
func (r *Rotator) SetPool(keys []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.keys = append([]string(nil), keys...)
	switch {
	case len(r.keys) == 0:
		r.cursor = 0
	case r.cursor >= len(r.keys):
		r.cursor = len(r.keys) - 1
	}
}
