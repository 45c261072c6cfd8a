package arena

import (
	"fmt"
	"math"
	"math/bits"
	"unsafe"
)

// Layout describes a block of memory by its size and alignment in bytes.
// Align is always a power of two.
type Layout struct {
	Size  int
	Align int
}

// NewLayout validates size and align. It returns ErrAlloc when size is
// negative, align is not a power of two, or size rounded up to align
// overflows an int.
func NewLayout(size, align int) (Layout, error) {
	if size < 0 || align <= 0 || align&(align-1) != 0 {
		return Layout{}, fmt.Errorf("%w: invalid layout size=%d align=%d", ErrAlloc, size, align)
	}
	if _, ok := roundUpTo(size, align); !ok {
		return Layout{}, fmt.Errorf("%w: layout size %d overflows", ErrAlloc, size)
	}
	return Layout{Size: size, Align: align}, nil
}

// LayoutOf returns the layout of a value of type T.
func LayoutOf[T any]() Layout {
	var zero T
	return Layout{Size: int(unsafe.Sizeof(zero)), Align: int(unsafe.Alignof(zero))}
}

// ArrayLayout returns the layout of n contiguous values of type T.
func ArrayLayout[T any](n int) (Layout, error) {
	l := LayoutOf[T]()
	if n < 0 {
		return Layout{}, fmt.Errorf("%w: negative length %d", ErrAlloc, n)
	}
	hi, lo := bits.Mul64(uint64(l.Size), uint64(n))
	if hi != 0 || lo > math.MaxInt {
		return Layout{}, fmt.Errorf("%w: %d elements of %d bytes overflows", ErrAlloc, n, l.Size)
	}
	return NewLayout(int(lo), l.Align)
}

func roundUpTo(n, divisor int) (int, bool) {
	if n > math.MaxInt-(divisor-1) {
		return 0, false
	}
	return (n + divisor - 1) &^ (divisor - 1), true
}

func roundDownTo(n, divisor int) int {
	return n &^ (divisor - 1)
}

// nextPowerOfTwo returns the smallest power of two >= n, for n > 0.
func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}
