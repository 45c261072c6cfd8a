//go:build !unix

package arena

// MmapAllocator is only available on unix systems; elsewhere every Alloc
// fails with ErrAlloc.
type MmapAllocator struct{}

func (MmapAllocator) Alloc(int) ([]byte, error) { return nil, ErrAlloc }

func (MmapAllocator) Free([]byte) {}
