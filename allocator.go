package arena

import (
	"fmt"

	"github.com/bytedance/gopkg/lang/dirtmake"
	"github.com/bytedance/gopkg/lang/mcache"
)

// Allocator is the source of chunk memory for an Arena.
//
// Alloc returns a buffer of exactly n bytes whose contents are undefined, or
// an error if memory is exhausted. Free gives back a buffer previously
// returned by Alloc; the arena never touches it afterwards.
type Allocator interface {
	Alloc(n int) ([]byte, error)
	Free(buf []byte)
}

// maxHeapChunk is the largest chunk taken from the Go heap. The runtime
// aborts the process instead of panicking on requests it cannot map.
const maxHeapChunk = 1 << min(8*ptrSize-2, 47)

func checkHeapChunk(n int) error {
	if n < 0 || n > maxHeapChunk {
		return fmt.Errorf("%w: chunk of %d bytes", ErrAlloc, n)
	}
	return nil
}

// HeapAllocator takes chunk memory from the Go heap without zeroing it.
// Free is a no-op: the garbage collector reclaims a chunk once nothing
// points into it. This is the default Allocator.
type HeapAllocator struct{}

func (HeapAllocator) Alloc(n int) (buf []byte, err error) {
	if e := checkHeapChunk(n); e != nil {
		return nil, e
	}
	defer func() {
		// makeslice panics on sizes the runtime cannot satisfy
		if recover() != nil {
			buf, err = nil, ErrAlloc
		}
	}()
	return dirtmake.Bytes(n, n), nil
}

func (HeapAllocator) Free([]byte) {}

// PoolAllocator recycles chunk memory through size-classed sync.Pools, so
// arenas that are reset or released repeatedly stop hitting the heap.
type PoolAllocator struct{}

func (PoolAllocator) Alloc(n int) (buf []byte, err error) {
	if e := checkHeapChunk(n); e != nil {
		return nil, e
	}
	defer func() {
		if recover() != nil {
			buf, err = nil, ErrAlloc
		}
	}()
	return mcache.Malloc(n), nil
}

func (PoolAllocator) Free(buf []byte) {
	mcache.Free(buf)
}
