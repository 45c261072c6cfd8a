package arena

import (
	"sync"
	"unsafe"
)

// SafeArena is a mutex-protected wrapper around Arena for concurrent access.
// All operations are thread-safe but come with the overhead of mutex locking.
type SafeArena struct {
	mu sync.Mutex
	a  *Arena
}

// NewSafeArena wraps a new empty arena.
func NewSafeArena(opts ...Option) *SafeArena {
	return &SafeArena{a: New(opts...)}
}

// NewSafeArenaWithCapacity wraps an arena created with WithCapacity.
func NewSafeArenaWithCapacity(capacity int, opts ...Option) *SafeArena {
	return &SafeArena{a: WithCapacity(capacity, opts...)}
}

// AllocBytes thread-safely allocates n bytes and returns a slice pointing to them.
// Returns nil if n <= 0.
func (s *SafeArena) AllocBytes(n int) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.AllocBytes(n)
}

// TryAllocLayout thread-safely allocates memory for l.
func (s *SafeArena) TryAllocLayout(l Layout) (unsafe.Pointer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.TryAllocLayout(l)
}

// EnsureCapacity thread-safely ensures the current chunk has at least n free bytes.
func (s *SafeArena) EnsureCapacity(n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.EnsureCapacity(n)
}

// SetAllocationLimit thread-safely sets the allocation limit.
func (s *SafeArena) SetAllocationLimit(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.a.SetAllocationLimit(n)
}

// Reset thread-safely resets the arena. Every goroutine must be done with
// memory from the arena before it is called.
func (s *SafeArena) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.a.Reset()
}

// Release thread-safely returns all chunks to the allocator.
func (s *SafeArena) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.a.Release()
}

// Do runs f with exclusive access to the underlying arena, for sequences
// such as Grow after an allocation that must not interleave with others.
func (s *SafeArena) Do(f func(a *Arena)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f(s.a)
}

// Generic allocation functions for SafeArena

// SafeAlloc thread-safely copies v into the arena.
func SafeAlloc[T any](s *SafeArena, v T) *T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Alloc(s.a, v)
}

// SafeAllocZeroed thread-safely returns a pointer to a zero T.
func SafeAllocZeroed[T any](s *SafeArena) *T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return AllocZeroed[T](s.a)
}

// SafeAllocSlice thread-safely allocates a slice of n elements of type T.
func SafeAllocSlice[T any](s *SafeArena, n int) []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return AllocSlice[T](s.a, n)
}

// SafeAllocSliceCopy thread-safely copies src into the arena.
func SafeAllocSliceCopy[T any](s *SafeArena, src []T) []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return AllocSliceCopy(s.a, src)
}

// SafeAllocString thread-safely copies str into the arena.
func SafeAllocString(s *SafeArena, str string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return AllocString(s.a, str)
}

// Thread-safe metrics for SafeArena

// AllocatedBytes thread-safely returns the total chunk capacity.
func (s *SafeArena) AllocatedBytes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.AllocatedBytes()
}

// SizeInUse thread-safely returns the number of bytes handed out.
func (s *SafeArena) SizeInUse() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.SizeInUse()
}

// NumChunks thread-safely returns the number of chunks currently allocated.
func (s *SafeArena) NumChunks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.NumChunks()
}

// Metrics thread-safely returns a snapshot of arena statistics.
func (s *SafeArena) Metrics() ArenaMetrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Metrics()
}

// Utilization thread-safely returns the ratio of bytes in use to capacity.
func (s *SafeArena) Utilization() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Utilization()
}
