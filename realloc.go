package arena

import (
	"unsafe"
)

// IsLastAllocation reports whether p is the most recent allocation in the
// current chunk, with nothing allocated after it.
func (a *Arena) IsLastAllocation(p unsafe.Pointer) bool {
	c := a.current
	return p != nil && !c.isEmpty() && p == c.ptr(c.finger)
}

// Dealloc gives back the memory at p if it is the last allocation, making
// its bytes immediately reusable. Any other memory stays allocated until
// Reset.
func (a *Arena) Dealloc(p unsafe.Pointer, l Layout) {
	if a.IsLastAllocation(p) {
		c := a.current
		c.finger = min(c.finger+l.Size, c.capacity)
	}
}

// Shrink reduces the allocation at p from one layout to a smaller one and
// returns where the first to.Size bytes now live.
//
// The bytes are moved up, and the space below them reclaimed, only when p
// is the last allocation and at least half of from.Size comes back.
// Otherwise p is returned unchanged. Shrink can only fail when to.Align is
// stricter than from.Align, p does not already satisfy it, and allocating a
// fresh block fails.
func (a *Arena) Shrink(p unsafe.Pointer, from, to Layout) (unsafe.Pointer, error) {
	checkLayout(to)
	if to.Size > from.Size {
		return a.Grow(p, from, to)
	}
	if to.Align > from.Align {
		if uintptr(p)&uintptr(to.Align-1) == 0 {
			return p, nil
		}
		q, err := a.TryAllocLayout(to)
		if err != nil {
			return nil, err
		}
		copyBytes(q, p, to.Size)
		return q, nil
	}

	// What we would actually get back while keeping to.Align.
	delta := roundDownTo(from.Size-to.Size, to.Align)
	if !a.IsLastAllocation(p) || delta < from.Size/2 {
		return p, nil
	}

	c := a.current
	c.finger += delta
	q := c.ptr(c.finger)
	copyBytes(q, p, to.Size)
	return q, nil
}

// Grow extends the allocation at p from one layout to a larger one and
// returns the new location; the first from.Size bytes are preserved.
//
// When p is the last allocation and the current chunk has room, the
// allocation is extended downward in place and its bytes slide down to the
// new start. Otherwise a fresh block is allocated and the bytes are copied.
func (a *Arena) Grow(p unsafe.Pointer, from, to Layout) (unsafe.Pointer, error) {
	checkLayout(to)
	if to.Size <= from.Size {
		return a.Shrink(p, from, to)
	}
	if from.Align >= to.Align && a.IsLastAllocation(p) {
		delta := Layout{Size: to.Size - from.Size, Align: from.Align}
		if q, ok := a.tryAllocLayoutFast(delta); ok {
			copyBytes(q, p, from.Size)
			return q, nil
		}
	}

	q, err := a.TryAllocLayout(to)
	if err != nil {
		return nil, err
	}
	copyBytes(q, p, from.Size)
	return q, nil
}

// Realloc resizes the allocation at p, described by l, to newSize bytes
// with the same alignment. A zero-sized p is simply allocated anew.
func (a *Arena) Realloc(p unsafe.Pointer, l Layout, newSize int) (unsafe.Pointer, error) {
	nl, err := NewLayout(newSize, l.Align)
	if err != nil {
		return nil, err
	}
	if l.Size == 0 {
		return a.TryAllocLayout(nl)
	}
	if newSize <= l.Size {
		return a.Shrink(p, l, nl)
	}
	return a.Grow(p, l, nl)
}

// copyBytes is memmove: the ranges may overlap.
func copyBytes(dst, src unsafe.Pointer, n int) {
	if n == 0 || dst == src {
		return
	}
	copy(unsafe.Slice((*byte)(dst), n), unsafe.Slice((*byte)(src), n))
}
