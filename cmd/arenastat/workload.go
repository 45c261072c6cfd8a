package main

import (
	"strconv"

	"github.com/pavanmanishd/arena/v2"
)

// workload performs up to n allocations in a and returns how many
// succeeded.
type workload func(a *arena.Arena, n int) (int, error)

var workloads = map[string]workload{
	"ints":    allocInts,
	"strings": allocStrings,
	"bytes":   allocBytes,
	"realloc": growBuffers,
}

func allocInts(a *arena.Arena, n int) (int, error) {
	for i := range n {
		if _, err := arena.TryAlloc(a, int64(i)); err != nil {
			return i, err
		}
	}
	return n, nil
}

func allocStrings(a *arena.Arena, n int) (int, error) {
	var buf []byte
	for i := range n {
		buf = strconv.AppendInt(append(buf[:0], "key-"...), int64(i), 10)
		if _, err := arena.TryAllocString(a, string(buf)); err != nil {
			return i, err
		}
	}
	return n, nil
}

// allocBytes allocates blocks of 1 to 256 bytes with mixed alignment.
func allocBytes(a *arena.Arena, n int) (int, error) {
	for i := range n {
		l := arena.Layout{Size: 1 + i%256, Align: 1 << (i % 5)}
		if _, err := a.TryAllocLayout(l); err != nil {
			return i, err
		}
	}
	return n, nil
}

// maxBuffer is the size at which growBuffers starts over with a new buffer.
const maxBuffer = 64 << 10

// growBuffers appends 8 bytes at a time to a buffer, the way a growing
// slice would, so most steps extend the last allocation in place.
func growBuffers(a *arena.Arena, n int) (int, error) {
	l := arena.Layout{Size: 8, Align: 8}
	p, err := a.TryAllocLayout(l)
	if err != nil {
		return 0, err
	}
	for i := 1; i < n; i++ {
		if l.Size >= maxBuffer {
			if p, err = a.TryAllocLayout(arena.Layout{Size: 8, Align: 8}); err != nil {
				return i, err
			}
			l.Size = 8
			continue
		}
		if p, err = a.Realloc(p, l, l.Size+8); err != nil {
			return i, err
		}
		l.Size += 8
	}
	return n, nil
}
