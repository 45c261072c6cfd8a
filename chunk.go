package arena

import (
	"errors"
	"fmt"
	"math"
	"unsafe"
)

const (
	ptrSize = int(unsafe.Sizeof(uintptr(0)))

	// Past this size new chunks are rounded to page boundaries instead of
	// powers of two.
	pageStrategyCutoff = 0x1000
	pageSize           = 0x1000

	// chunkAlign is the minimum alignment of every chunk. Allocations with
	// alignment up to chunkAlign are what IterAllocatedChunks supports.
	chunkAlign = 16

	// footerSize is reserved at the top of every chunk, past the usable
	// region. A zero-sized allocation at the very top of a chunk therefore
	// still points inside the chunk's memory.
	footerSize = 6 * ptrSize

	// mallocOverhead is the typical bookkeeping a general purpose allocator
	// adds to each block.
	mallocOverhead = 16

	// overhead covers malloc bookkeeping, the footer, and alignment, so that
	// capacity+overhead lands on a size the allocator likes.
	overhead = (mallocOverhead + footerSize + chunkAlign - 1) &^ (chunkAlign - 1)

	firstAllocationGoal = 1 << 9

	// defaultChunkSizeWithoutFooter is the capacity of the first chunk an
	// empty arena allocates.
	defaultChunkSizeWithoutFooter = firstAllocationGoal - overhead
)

// chunk is the footer record of one block of arena memory. The usable
// region is mem[:capacity]; objects are bumped downward from capacity
// towards zero, so finger always satisfies 0 <= finger <= capacity.
type chunk struct {
	mem  []byte // usable region followed by footerSize reserved bytes
	raw  []byte // as returned by the Allocator, for Free
	base uintptr

	capacity int
	finger   int

	prev *chunk

	// allocatedBytes is capacity plus the allocatedBytes of prev.
	allocatedBytes int

	layout Layout
}

// emptyChunk terminates every chunk list and is the current chunk of an
// arena that has not allocated yet. It has no memory, its prev is itself,
// and nothing ever writes to it.
var emptyChunk = func() *chunk {
	c := &chunk{layout: Layout{Size: footerSize, Align: chunkAlign}}
	c.prev = c
	return c
}()

func (c *chunk) isEmpty() bool {
	return c == emptyChunk
}

func (c *chunk) ptr(off int) unsafe.Pointer {
	return unsafe.Add(unsafe.Pointer(unsafe.SliceData(c.mem)), off)
}

// rawParts returns the occupied part of the chunk: from the bump finger up
// to the footer.
func (c *chunk) rawParts() (unsafe.Pointer, int) {
	if c.isEmpty() {
		return nil, 0
	}
	return c.ptr(c.finger), c.capacity - c.finger
}

// chunkMemoryDetails is the size and alignment of a chunk we may allocate.
type chunkMemoryDetails struct {
	sizeWithoutFooter int
	align             int
	size              int
}

// newChunkMemoryDetails picks the capacity for a chunk that must hold the
// requested layout. The whole block, including footer and malloc overhead,
// is kept at or just under a power of two for small chunks and a page
// multiple for large ones. It reports false if the size overflows.
func newChunkMemoryDetails(sizeWithoutFooter int, requested Layout) (chunkMemoryDetails, bool) {
	align := max(chunkAlign, requested.Align)
	requestedSize, ok := roundUpTo(requested.Size, align)
	if !ok {
		return chunkMemoryDetails{}, false
	}
	n := max(sizeWithoutFooter, requestedSize)

	if n < pageStrategyCutoff {
		n = nextPowerOfTwo(n+overhead) - overhead
	} else {
		if n > math.MaxInt-overhead {
			return chunkMemoryDetails{}, false
		}
		if n, ok = roundUpTo(n+overhead, pageSize); !ok {
			return chunkMemoryDetails{}, false
		}
		n -= overhead
	}
	if n > math.MaxInt-footerSize {
		return chunkMemoryDetails{}, false
	}
	return chunkMemoryDetails{
		sizeWithoutFooter: n,
		align:             align,
		size:              n + footerSize,
	}, true
}

// newChunk obtains memory for d from alloc and links it on top of prev with
// the bump finger at the top.
func newChunk(alloc Allocator, d chunkMemoryDetails, prev *chunk) (*chunk, error) {
	raw, err := alloc.Alloc(d.size)
	if err != nil {
		return nil, allocError(err)
	}
	if len(raw) < d.size {
		alloc.Free(raw)
		return nil, fmt.Errorf("%w: allocator returned %d of %d bytes", ErrAlloc, len(raw), d.size)
	}

	pad := alignPad(raw, d.align)
	if pad != 0 {
		// Retry with enough slack to align by hand.
		alloc.Free(raw)
		if d.size > math.MaxInt-(d.align-1) {
			return nil, ErrAlloc
		}
		if raw, err = alloc.Alloc(d.size + d.align - 1); err != nil {
			return nil, allocError(err)
		}
		if len(raw) < d.size+d.align-1 {
			alloc.Free(raw)
			return nil, ErrAlloc
		}
		pad = alignPad(raw, d.align)
	}

	mem := raw[pad : pad+d.size : pad+d.size]
	return &chunk{
		mem:            mem,
		raw:            raw,
		base:           uintptr(unsafe.Pointer(unsafe.SliceData(mem))),
		capacity:       d.sizeWithoutFooter,
		finger:         d.sizeWithoutFooter,
		prev:           prev,
		allocatedBytes: prev.allocatedBytes + d.sizeWithoutFooter,
		layout:         Layout{Size: d.size, Align: d.align},
	}, nil
}

// allocError makes sure an Allocator error matches ErrAlloc.
func allocError(err error) error {
	if errors.Is(err, ErrAlloc) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrAlloc, err)
}

// alignPad is how many leading bytes of buf must be skipped to reach align.
func alignPad(buf []byte, align int) int {
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(buf)))
	return int((uintptr(align) - addr&uintptr(align-1)) & uintptr(align-1))
}

// freeChunkList hands c and all of its ancestors back to alloc and returns
// how many chunks were freed. The sentinel is never freed.
func freeChunkList(alloc Allocator, c *chunk) int {
	n := 0
	for !c.isEmpty() {
		prev := c.prev
		alloc.Free(c.raw)
		*c = chunk{}
		c = prev
		n++
	}
	return n
}
