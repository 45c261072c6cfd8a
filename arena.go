package arena

import (
	"fmt"
	"log/slog"
	"math"
	"unsafe"
)

// Arena is a bump allocator over a list of chunks. Not goroutine-safe.
// Use SafeArena for concurrent access.
//
// An Arena must be created with New, TryNew, WithCapacity or
// TryWithCapacity.
type Arena struct {
	current *chunk

	limit    int
	hasLimit bool

	alloc Allocator
	log   *slog.Logger
}

// Option configures an Arena at construction.
type Option func(*Arena)

// WithAllocator sets where chunk memory comes from. The default is
// HeapAllocator.
func WithAllocator(alloc Allocator) Option {
	return func(a *Arena) {
		if alloc != nil {
			a.alloc = alloc
		}
	}
}

// WithLogger sets the logger for chunk growth, reset and release events,
// all logged at debug level. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(a *Arena) {
		if l != nil {
			a.log = l
		}
	}
}

// WithAllocationLimit is SetAllocationLimit applied at construction.
func WithAllocationLimit(n int) Option {
	return func(a *Arena) {
		a.SetAllocationLimit(n)
	}
}

var discardLogger = slog.New(slog.DiscardHandler)

func newArena(opts []Option) *Arena {
	a := &Arena{
		current: emptyChunk,
		alloc:   HeapAllocator{},
		log:     discardLogger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// New creates an empty arena. No memory is allocated until first use.
func New(opts ...Option) *Arena {
	return newArena(opts)
}

// TryNew is New with the fallible signature. It never fails.
func TryNew(opts ...Option) (*Arena, error) {
	return newArena(opts), nil
}

// WithCapacity creates an arena whose first chunk holds at least capacity
// bytes. It panics if that chunk cannot be allocated.
func WithCapacity(capacity int, opts ...Option) *Arena {
	a, err := TryWithCapacity(capacity, opts...)
	if err != nil {
		panic(err)
	}
	return a
}

// TryWithCapacity creates an arena whose first chunk holds at least
// capacity bytes. It returns ErrAlloc if the chunk cannot be allocated,
// the size overflows, or it exceeds a limit given by WithAllocationLimit.
// Under a limit smaller than the default chunk size, the first chunk is
// sized to fit the limit instead.
func TryWithCapacity(capacity int, opts ...Option) (*Arena, error) {
	a := newArena(opts)
	if capacity == 0 {
		return a, nil
	}
	l, err := NewLayout(capacity, 1)
	if err != nil {
		return nil, err
	}
	if a.hasLimit && a.limit < defaultChunkSizeWithoutFooter && capacity < a.limit {
		// A default sized chunk never fits such a limit; take the smaller
		// first chunk the slow path would pick.
		if _, ok := a.allocLayoutSlow(l); !ok {
			return nil, fmt.Errorf("%w: capacity %d does not fit allocation limit %d", ErrAlloc, capacity, a.limit)
		}
		a.current.finger = a.current.capacity
		return a, nil
	}
	d, ok := newChunkMemoryDetails(defaultChunkSizeWithoutFooter, l)
	if !ok {
		return nil, fmt.Errorf("%w: capacity %d overflows", ErrAlloc, capacity)
	}
	if a.hasLimit && d.sizeWithoutFooter > a.limit {
		return nil, fmt.Errorf("%w: capacity %d exceeds allocation limit %d", ErrAlloc, d.sizeWithoutFooter, a.limit)
	}
	c, err := newChunk(a.alloc, d, emptyChunk)
	if err != nil {
		return nil, err
	}
	a.current = c
	a.log.Debug("arena: new chunk", "capacity", c.capacity, "allocated", c.allocatedBytes)
	return a, nil
}

// AllocationLimit returns the limit in bytes and whether one is set.
func (a *Arena) AllocationLimit() (int, bool) {
	return a.limit, a.hasLimit
}

// SetAllocationLimit caps the total capacity of the arena's chunks at n
// bytes. The limit is only checked when a new chunk is needed: memory
// already obtained, including the rest of the current chunk, stays usable.
func (a *Arena) SetAllocationLimit(n int) {
	if n < 0 {
		panic(fmt.Sprintf("arena: negative allocation limit %d", n))
	}
	a.limit, a.hasLimit = n, true
}

// RemoveAllocationLimit lets the arena grow without bound.
func (a *Arena) RemoveAllocationLimit() {
	a.limit, a.hasLimit = 0, false
}

// allocationLimitRemaining is the headroom before the limit. A limit that is
// already exceeded leaves zero headroom.
func (a *Arena) allocationLimitRemaining() (int, bool) {
	if !a.hasLimit {
		return 0, false
	}
	allocated := a.AllocatedBytes()
	if allocated > a.limit {
		return 0, true
	}
	return a.limit - allocated, true
}

// AllocLayout returns uninitialized memory for l. It panics if the memory
// cannot be obtained.
func (a *Arena) AllocLayout(l Layout) unsafe.Pointer {
	checkLayout(l)
	if p, ok := a.tryAllocLayoutFast(l); ok {
		return p
	}
	p, ok := a.allocLayoutSlow(l)
	if !ok {
		oom(l)
	}
	return p
}

// TryAllocLayout returns uninitialized memory for l, or ErrAlloc.
func (a *Arena) TryAllocLayout(l Layout) (unsafe.Pointer, error) {
	checkLayout(l)
	if p, ok := a.tryAllocLayoutFast(l); ok {
		return p, nil
	}
	if p, ok := a.allocLayoutSlow(l); ok {
		return p, nil
	}
	return nil, ErrAlloc
}

func checkLayout(l Layout) {
	if l.Size < 0 || l.Align <= 0 || l.Align&(l.Align-1) != 0 {
		panic(fmt.Sprintf("arena: invalid layout size=%d align=%d", l.Size, l.Align))
	}
}

// maxZeroSizedAlign is the largest alignment zeroSized can satisfy.
const maxZeroSizedAlign = 64

// zeroSizedBase backs zero-sized allocations made before the first chunk.
var zeroSizedBase [2 * maxZeroSizedAlign]byte

// zeroSized returns an address aligned to align that is valid for a
// zero-sized value.
func zeroSized(align int) (unsafe.Pointer, bool) {
	if align > maxZeroSizedAlign {
		return nil, false
	}
	return unsafe.Pointer(&zeroSizedBase[alignPad(zeroSizedBase[:], align)]), true
}

// tryAllocLayoutFast bumps the finger of the current chunk down by l.Size,
// then down again to l.Align. Zero-sized layouts take the same path, except
// on the empty chunk, which is never written.
func (a *Arena) tryAllocLayoutFast(l Layout) (unsafe.Pointer, bool) {
	c := a.current
	if c.isEmpty() {
		if l.Size == 0 {
			return zeroSized(l.Align)
		}
		return nil, false
	}
	if c.finger < l.Size {
		return nil, false
	}
	addr := (c.base + uintptr(c.finger-l.Size)) &^ uintptr(l.Align-1)
	if addr < c.base {
		return nil, false
	}
	off := int(addr - c.base)
	c.finger = off
	return c.ptr(off), true
}

// allocLayoutSlow allocates a new chunk big enough for l and allocates l
// from it. The new chunk aims at twice the current capacity; if the
// allocator or the limit refuses, the target is halved until it would no
// longer hold the default chunk size (or the request).
func (a *Arena) allocLayoutSlow(l Layout) (unsafe.Pointer, bool) {
	remaining, limited := a.allocationLimitRemaining()
	cur := a.current

	minNewChunkSize := max(l.Size, defaultChunkSizeWithoutFooter)
	if cur.capacity > math.MaxInt/2 {
		return nil, false
	}
	baseSize := max(cur.capacity*2, minNewChunkSize)

	for size := baseSize; ; size /= 2 {
		// Small limits could never fit a default sized chunk, so the first
		// chunk of such an arena may be smaller than the default.
		bypassMinChunkSize := a.hasLimit &&
			l.Size < a.limit &&
			size >= l.Size &&
			a.limit < defaultChunkSizeWithoutFooter &&
			a.AllocatedBytes() == 0
		if size < minNewChunkSize && !bypassMinChunkSize {
			break
		}

		d, ok := newChunkMemoryDetails(size, l)
		if !ok {
			return nil, false
		}
		if limited && remaining < d.sizeWithoutFooter {
			a.log.Debug("arena: chunk exceeds allocation limit", "capacity", d.sizeWithoutFooter, "remaining", remaining)
		} else if c, err := newChunk(a.alloc, d, cur); err != nil {
			a.log.Debug("arena: chunk allocation failed", "size", d.size, "error", err)
		} else {
			a.current = c
			a.log.Debug("arena: new chunk", "capacity", c.capacity, "allocated", c.allocatedBytes, "request", l.Size)

			// The chunk was sized for l, so this cannot fall below base.
			addr := (c.base + uintptr(c.capacity-l.Size)) &^ uintptr(l.Align-1)
			off := int(addr - c.base)
			c.finger = off
			return c.ptr(off), true
		}

		if size == 0 {
			break
		}
	}
	return nil, false
}

// EnsureCapacity makes sure the current chunk has at least n free bytes,
// growing the arena with a new chunk if it does not.
func (a *Arena) EnsureCapacity(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: negative capacity %d", ErrAlloc, n)
	}
	if a.Remaining() >= n && !a.current.isEmpty() {
		return nil
	}
	l := Layout{Size: n, Align: 1}
	p, ok := a.allocLayoutSlow(l)
	if !ok {
		return ErrAlloc
	}
	a.Dealloc(p, l)
	return nil
}

// Reset deallocates everything allocated in the arena at once. Every chunk
// but the current, largest one is returned to the Allocator, and the current
// one is emptied for reuse.
//
// No cleanup of any kind runs for the objects in the arena: files, locks or
// Go heap memory they refer to are simply forgotten. The caller must make
// sure nothing still refers to memory from the arena.
func (a *Arena) Reset() {
	c := a.current
	if c.isEmpty() {
		return
	}

	prev := c.prev
	c.prev = emptyChunk
	freed := freeChunkList(a.alloc, prev)

	c.finger = c.capacity
	c.allocatedBytes = c.capacity
	a.log.Debug("arena: reset", "freed", freed, "capacity", c.capacity)
}

// Release returns all chunks to the Allocator and leaves the arena empty,
// as if just created with New. The same caller contract as Reset applies.
func (a *Arena) Release() {
	freed := freeChunkList(a.alloc, a.current)
	a.current = emptyChunk
	if freed > 0 {
		a.log.Debug("arena: release", "freed", freed)
	}
}
