//go:build unix

package arena

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// MmapAllocator maps each chunk as anonymous private memory outside the Go
// heap. Chunks are unmapped as soon as Reset or Release drops them, so any
// reference kept past that point faults instead of reading stale data.
type MmapAllocator struct{}

func (MmapAllocator) Alloc(n int) ([]byte, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: mmap of %d bytes", ErrAlloc, n)
	}
	buf, err := unix.Mmap(-1, 0, n, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("%w: mmap: %v", ErrAlloc, err)
	}
	return buf, nil
}

func (MmapAllocator) Free(buf []byte) {
	if len(buf) == 0 {
		return
	}
	// munmap only fails for ranges we never mapped
	_ = unix.Munmap(buf)
}
