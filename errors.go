package rhmap

import "errors"

var (
	// ErrOutOfMemory is returned when the allocator refuses a backing array
	// or a key copy. The table is left as it was before the call.
	ErrOutOfMemory = errors.New("rhmap: out of memory")

	// ErrShrinkDeferred is returned by Delete together with true when the
	// entry was removed but the follow-up shrink could not allocate.
	ErrShrinkDeferred = errors.New("rhmap: shrink deferred")

	// ErrNotInitialized is returned by mutations on a map that was never
	// initialized or has been destroyed.
	ErrNotInitialized = errors.New("rhmap: map is not initialized")
)
