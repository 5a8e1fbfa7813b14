package rhmap

import (
	"fmt"
)

// Map is an open-addressing hash map with Robin Hood displacement, mapping
// byte-string keys to values of type V. Probe sequences are bounded by a
// limit that grows and shrinks together with the capacity, and deletion
// shifts displaced entries back instead of leaving tombstones.
//
// Map is not safe for concurrent use.
type Map[V any] struct {
	table[V]
}

// Returns a new initialized map.
func New[V any](opts ...Option[V]) (*Map[V], error) {
	var m Map[V]
	if err := m.Init(opts...); err != nil {
		return nil, err
	}

	return &m, nil
}

// Init allocates the initial backing array. It must be called before any
// other method unless the map came from New. Calling it again drops the
// previous contents without releasing them, call Destroy first.
func (m *Map[V]) Init(opts ...Option[V]) error {
	return m.init(opts...)
}

// Set stores value under key, taking ownership of key: the caller must not
// modify it afterwards.
func (m *Map[V]) Set(key []byte, value V) error {
	if m.slots == nil {
		return ErrNotInitialized
	}

	return m.insert(m.hash(key), key, value, false)
}

// SetCopy stores value under a private copy of key.
func (m *Map[V]) SetCopy(key []byte, value V) error {
	if m.slots == nil {
		return ErrNotInitialized
	}

	return m.insert(m.hash(key), key, value, true)
}

// Get returns the value stored under key.
func (m *Map[V]) Get(key []byte) (V, bool) {
	return m.get(key)
}

// Delete removes key and reports whether it was present. When it returns
// true with an error, the entry is removed but the map could not shrink;
// the error then matches both ErrShrinkDeferred and ErrOutOfMemory.
func (m *Map[V]) Delete(key []byte) (bool, error) {
	if m.slots == nil {
		return false, ErrNotInitialized
	}

	ok, err := m.remove(m.hash(key), key)
	if err != nil {
		return ok, fmt.Errorf("%w: %w", ErrShrinkDeferred, err)
	}

	return ok, nil
}

// Destroy releases every key and value the map holds and leaves it
// uninitialized.
func (m *Map[V]) Destroy() {
	m.destroy()
}

// Len returns the number of stored entries.
func (m *Map[V]) Len() int {
	return int(m.size)
}
