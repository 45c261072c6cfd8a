package arena

import (
	"errors"
	"fmt"
)

// ErrAlloc reports that memory could not be obtained: the chunk allocator
// failed, a size computation overflowed, or a new chunk would not fit under
// the allocation limit. The three causes are deliberately not distinguished.
var ErrAlloc = errors.New("arena: allocation failed")

// InitError wraps an error returned by an initializer passed to
// TryAllocTryWith. Its presence means the memory was reserved and the
// initializer ran.
type InitError struct {
	Err error
}

func (e *InitError) Error() string {
	return "arena: initializer failed: " + e.Err.Error()
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// oom panics; used by the infallible entry points.
func oom(l Layout) {
	panic(fmt.Errorf("%w: out of memory allocating %d bytes (align %d)", ErrAlloc, l.Size, l.Align))
}
