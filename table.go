package rhmap

import (
	"bytes"

	"go.uber.org/zap"
)

type slot[V any] struct {
	key   []byte
	value V

	// Number of slots past the ideal index the entry currently sits at.
	dist uint8
	used bool
	// Key bytes were copied by the table and are accounted in the allocator.
	owned bool
}

type probeKind uint8

const (
	// Key is stored at index.
	probeFound probeKind = iota
	// Key is absent, index is the first free slot of its sequence.
	probeEmpty
	// Key is absent, the resident at index is closer to its ideal slot than
	// the probed key would be, so it gets displaced.
	probeDisplace
	// Probe sequence hit maxProbe without resolution.
	probeLimit
)

type probeResult struct {
	kind  probeKind
	index uintptr
	dist  uint8
}

// displaced remembers a slot overwritten during a Robin Hood swap.
type displaced[V any] struct {
	index uintptr
	prev  slot[V]
}

type table[V any] struct {
	slots []slot[V]

	capacity uintptr
	mask     uintptr
	size     uintptr
	maxProbe uint8

	dealloc  func(V)
	hashFunc HashFunc
	alloc    Allocator
	logger   *zap.Logger

	emptyV V
}

type Option[V any] func(t *table[V])

// Override default hash function.
func WithHashFunc[V any](f HashFunc) Option[V] {
	return func(t *table[V]) {
		t.hashFunc = f
	}
}

// WithDeallocator registers a callback receiving every value the table stops
// holding: on overwrite, removal and Destroy.
func WithDeallocator[V any](f func(V)) Option[V] {
	return func(t *table[V]) {
		t.dealloc = f
	}
}

// WithAllocator sets the allocator backing arrays and key copies are
// accounted against.
func WithAllocator[V any](a Allocator) Option[V] {
	return func(t *table[V]) {
		t.alloc = a
	}
}

func WithLogger[V any](l *zap.Logger) Option[V] {
	return func(t *table[V]) {
		t.logger = l
	}
}

func (t *table[V]) init(opts ...Option[V]) error {
	*t = table[V]{}

	for _, opt := range opts {
		opt(t)
	}

	if t.hashFunc == nil {
		t.hashFunc = DefaultHashFunc
	}
	if t.alloc == nil {
		t.alloc = DefaultAllocator()
	}
	if t.logger == nil {
		t.logger = zap.NewNop()
	}

	if err := t.alloc.Allocate(slotsSize[V](initCapacity)); err != nil {
		return err
	}

	t.setSlots(make([]slot[V], initCapacity))
	t.maxProbe = initMaxProbe

	return nil
}

func (t *table[V]) setSlots(slots []slot[V]) {
	t.slots = slots
	t.capacity = uintptr(len(slots))
	t.mask = t.capacity - 1
}

func (t *table[V]) hash(key []byte) uint32 {
	return t.hashFunc(key)
}

func (t *table[V]) probe(hash uint32, key []byte) probeResult {
	var (
		start = uintptr(hash) & t.mask
		i     = start
		d     uint8
	)

	// d is widened so a maxProbe of 255 can't wrap the loop.
	for p := 0; p <= int(t.maxProbe); p++ {
		d = uint8(p)
		i = (start + uintptr(p)) & t.mask
		s := &t.slots[i]

		if !s.used {
			return probeResult{kind: probeEmpty, index: i, dist: d}
		}

		if s.dist < d {
			return probeResult{kind: probeDisplace, index: i, dist: d}
		}

		if s.dist == d && bytes.Equal(s.key, key) {
			return probeResult{kind: probeFound, index: i, dist: d}
		}
	}

	return probeResult{kind: probeLimit, index: i, dist: d}
}

func (t *table[V]) get(key []byte) (V, bool) {
	if t.slots == nil {
		return t.emptyV, false
	}

	r := t.probe(t.hash(key), key)
	if r.kind != probeFound {
		return t.emptyV, false
	}

	return t.slots[r.index].value, true
}

// insert stores value under key. With copyKey set, the key bytes are cloned
// through the allocator, otherwise the table takes ownership of key.
// On error the table is exactly as it was before the call.
func (t *table[V]) insert(hash uint32, key []byte, value V, copyKey bool) error {
	var owned bool
	if copyKey {
		if r := t.probe(hash, key); r.kind == probeFound {
			t.replace(r.index, value)
			return nil
		}

		var err error
		if key, err = t.cloneKey(key); err != nil {
			return err
		}

		owned = true
	}

	err := t.place(hash, key, value, owned)
	if err != nil && owned {
		t.alloc.Free(uint64(len(key)))
	}

	return err
}

// place runs the Robin Hood insertion loop for an entry whose key is already
// in its final form.
func (t *table[V]) place(hash uint32, key []byte, value V, owned bool) error {
	var chain []displaced[V]

	cur := slot[V]{key: key, value: value, used: true, owned: owned}
	curHash := hash

	for {
		r := t.probe(curHash, cur.key)

		switch r.kind {
		case probeFound:
			// Only the caller's own entry can match: displaced entries are
			// unique keys already.
			t.replace(r.index, cur.value)
			return nil

		case probeEmpty:
			cur.dist = r.dist
			t.slots[r.index] = cur
			t.size++

			return nil

		case probeDisplace:
			prev := t.slots[r.index]
			chain = append(chain, displaced[V]{index: r.index, prev: prev})

			cur.dist = r.dist
			t.slots[r.index] = cur

			cur = prev
			curHash = t.hash(cur.key)

		case probeLimit:
			// Put every displaced entry back before growing, so that a failed
			// grow leaves nothing in flight.
			t.undo(chain)
			chain = chain[:0]

			if err := t.grow(); err != nil {
				return err
			}

			cur = slot[V]{key: key, value: value, used: true, owned: owned}
			curHash = hash
		}
	}
}

func (t *table[V]) undo(chain []displaced[V]) {
	for i := len(chain) - 1; i >= 0; i-- {
		t.slots[chain[i].index] = chain[i].prev
	}
}

func (t *table[V]) replace(index uintptr, value V) {
	s := &t.slots[index]
	if t.dealloc != nil {
		t.dealloc(s.value)
	}

	s.value = value
}

func (t *table[V]) cloneKey(key []byte) ([]byte, error) {
	if err := t.alloc.Allocate(uint64(len(key))); err != nil {
		return nil, err
	}

	return bytes.Clone(key), nil
}

// release drops everything the slot owns, handing the value to the
// deallocator.
func (t *table[V]) release(s *slot[V]) {
	if s.owned {
		t.alloc.Free(uint64(len(s.key)))
	}

	if t.dealloc != nil {
		t.dealloc(s.value)
	}

	*s = slot[V]{}
}

// remove deletes key and repairs the probe sequence by shifting the
// following displaced entries one slot back. A non-nil error with true means
// the entry is gone but the follow-up shrink failed.
func (t *table[V]) remove(hash uint32, key []byte) (bool, error) {
	r := t.probe(hash, key)
	if r.kind != probeFound {
		return false, nil
	}

	t.release(&t.slots[r.index])
	t.size--

	hole := r.index
	for {
		next := (hole + 1) & t.mask
		s := &t.slots[next]

		if !s.used || s.dist == 0 {
			break
		}

		t.slots[hole] = *s
		t.slots[hole].dist--
		*s = slot[V]{}

		hole = next
	}

	return true, t.shrink()
}

func (t *table[V]) grow() error {
	return t.resize(nextCapacity(t.capacity), t.maxProbe+1)
}

func (t *table[V]) shrink() error {
	if t.size >= shrinkSize(t.capacity) || t.capacity <= initCapacity {
		return nil
	}

	return t.resize(prevCapacity(t.capacity), t.maxProbe-1)
}

// resize rehashes every entry into a fresh table of the given capacity. The
// receiver is only modified once the new table is fully built.
func (t *table[V]) resize(capacity uintptr, maxProbe uint8) error {
	if err := t.alloc.Allocate(slotsSize[V](capacity)); err != nil {
		t.logger.Warn("resize allocation failed",
			zap.Uint64("capacity", uint64(t.capacity)),
			zap.Uint64("target capacity", uint64(capacity)),
			zap.Error(err),
		)

		return err
	}

	next := table[V]{
		maxProbe: maxProbe,
		dealloc:  t.dealloc,
		hashFunc: t.hashFunc,
		alloc:    t.alloc,
		logger:   t.logger,
	}
	next.setSlots(make([]slot[V], capacity))

	for i := range t.slots {
		s := &t.slots[i]
		if !s.used {
			continue
		}

		// Keys move by reference, ownership stays with the entry.
		if err := next.place(next.hash(s.key), s.key, s.value, s.owned); err != nil {
			// next may have grown on its own, free whatever it holds now.
			t.alloc.Free(slotsSize[V](next.capacity))
			t.logger.Warn("resize rolled back",
				zap.Uint64("capacity", uint64(t.capacity)),
				zap.Uint64("target capacity", uint64(capacity)),
				zap.Error(err),
			)

			return err
		}
	}

	t.alloc.Free(slotsSize[V](t.capacity))
	t.logger.Debug("table resized",
		zap.Uint64("from capacity", uint64(t.capacity)),
		zap.Uint64("capacity", uint64(next.capacity)),
		zap.Uint8("max probe", next.maxProbe),
		zap.Uint64("size", uint64(next.size)),
	)

	t.setSlots(next.slots)
	t.maxProbe = next.maxProbe
	t.size = next.size

	return nil
}

func (t *table[V]) destroy() {
	for i := range t.slots {
		if t.slots[i].used {
			t.release(&t.slots[i])
		}
	}

	if t.slots != nil {
		t.alloc.Free(slotsSize[V](t.capacity))
	}

	*t = table[V]{}
}
