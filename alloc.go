package rhmap

import (
	"unsafe"
)

// Allocator accounts for the memory a table owns: backing arrays and copied
// keys. Allocate reports ErrOutOfMemory when the request can't be served, and
// the table then leaves its state untouched.
type Allocator interface {
	Allocate(size uint64) error
	Free(size uint64)
}

type heapAllocator struct{}

func (heapAllocator) Allocate(uint64) error { return nil }
func (heapAllocator) Free(uint64)           {}

// DefaultAllocator never fails, the Go runtime owns the memory.
func DefaultAllocator() Allocator {
	return heapAllocator{}
}

// LimitAllocator fails once the bytes in use would exceed Limit.
// A zero Limit means no limit.
type LimitAllocator struct {
	Limit uint64

	inUse uint64
	peak  uint64
}

func NewLimitAllocator(limit uint64) *LimitAllocator {
	return &LimitAllocator{Limit: limit}
}

func (a *LimitAllocator) Allocate(size uint64) error {
	if a.Limit > 0 && a.inUse+size > a.Limit {
		return ErrOutOfMemory
	}

	a.inUse += size
	a.peak = max(a.peak, a.inUse)

	return nil
}

func (a *LimitAllocator) Free(size uint64) {
	a.inUse -= min(size, a.inUse)
}

// InUse returns the bytes currently accounted for.
func (a *LimitAllocator) InUse() uint64 {
	return a.inUse
}

// Peak returns the high-water mark of InUse.
func (a *LimitAllocator) Peak() uint64 {
	return a.peak
}

// slotsSize is the number of bytes a backing array of n slots occupies.
func slotsSize[V any](n uintptr) uint64 {
	return uint64(unsafe.Sizeof(slot[V]{}) * n)
}
