package arena

import (
	"iter"
	"unsafe"
)

// IterAllocatedChunksRaw yields the start and length of the occupied part
// of every chunk, most recently allocated chunk first. Within a chunk the
// most recent allocation comes first, since chunks fill downward.
//
// Nothing may be allocated from the arena while iterating, and the caller
// must not read through the pointers while other references to the same
// memory are being written.
func (a *Arena) IterAllocatedChunksRaw() iter.Seq2[unsafe.Pointer, int] {
	return func(yield func(unsafe.Pointer, int) bool) {
		for c := a.current; !c.isEmpty(); c = c.prev {
			p, n := c.rawParts()
			if !yield(p, n) {
				return
			}
		}
	}
}

// IterAllocatedChunks is IterAllocatedChunksRaw with each range as a byte
// slice. The bytes include any alignment padding between allocations, so
// they can only be read back as a sequence of values when every allocation
// in the arena has the same layout with no padding, with alignment of at
// most 16 bytes.
func (a *Arena) IterAllocatedChunks() iter.Seq[[]byte] {
	return func(yield func([]byte) bool) {
		for p, n := range a.IterAllocatedChunksRaw() {
			if !yield(unsafe.Slice((*byte)(p), n)) {
				return
			}
		}
	}
}
