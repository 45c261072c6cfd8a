package arena

import (
	"iter"
	"unsafe"
)

// Typed allocation helpers. Memory handed out by the arena is invisible to
// the garbage collector: values stored in it must not be the only reference
// to Go heap memory. Pointers into the same arena are fine while it lives.
//
// Unless stated otherwise the helpers zero the destination before writing
// into it, and panic when memory cannot be obtained.

// Alloc copies v into the arena and returns a pointer to the copy.
func Alloc[T any](a *Arena, v T) *T {
	p := (*T)(a.AllocLayout(LayoutOf[T]()))
	store(p, v)
	return p
}

// TryAlloc is Alloc returning ErrAlloc instead of panicking.
func TryAlloc[T any](a *Arena, v T) (*T, error) {
	ptr, err := a.TryAllocLayout(LayoutOf[T]())
	if err != nil {
		return nil, err
	}
	p := (*T)(ptr)
	store(p, v)
	return p, nil
}

// AllocZeroed returns a pointer to a zero T inside the arena.
func AllocZeroed[T any](a *Arena) *T {
	l := LayoutOf[T]()
	p := a.AllocLayout(l)
	clear(unsafe.Slice((*byte)(p), l.Size))
	return (*T)(p)
}

// AllocUninitialized returns a *T located in the arena without zeroing
// memory. Only use it for types without pointers, and initialize the value
// before reading it.
func AllocUninitialized[T any](a *Arena) *T {
	return (*T)(a.AllocLayout(LayoutOf[T]()))
}

// AllocWith reserves space for a T, then stores the result of f there.
// Memory is reserved before f runs, so f may allocate from a too.
func AllocWith[T any](a *Arena, f func() T) *T {
	p := (*T)(a.AllocLayout(LayoutOf[T]()))
	store(p, f())
	return p
}

// TryAllocWith is AllocWith returning ErrAlloc instead of panicking. f is
// not called when the memory cannot be reserved.
func TryAllocWith[T any](a *Arena, f func() T) (*T, error) {
	ptr, err := a.TryAllocLayout(LayoutOf[T]())
	if err != nil {
		return nil, err
	}
	p := (*T)(ptr)
	store(p, f())
	return p, nil
}

// AllocTryWith reserves space for a T and stores the value f returns.
// If f fails its error is returned as is, and the reserved space is given
// back when nothing was allocated after it.
func AllocTryWith[T any](a *Arena, f func() (T, error)) (*T, error) {
	rewindChunk, rewindFinger := a.current, a.current.finger
	p := (*T)(a.AllocLayout(LayoutOf[T]()))
	v, err := f()
	if err != nil {
		a.rewind(unsafe.Pointer(p), rewindChunk, rewindFinger)
		return nil, err
	}
	store(p, v)
	return p, nil
}

// TryAllocTryWith is AllocTryWith that never panics. The error is either
// ErrAlloc, in which case f never ran, or an *InitError wrapping what f
// returned.
func TryAllocTryWith[T any](a *Arena, f func() (T, error)) (*T, error) {
	rewindChunk, rewindFinger := a.current, a.current.finger
	ptr, err := a.TryAllocLayout(LayoutOf[T]())
	if err != nil {
		return nil, err
	}
	v, err := f()
	if err != nil {
		a.rewind(ptr, rewindChunk, rewindFinger)
		return nil, &InitError{Err: err}
	}
	p := (*T)(ptr)
	store(p, v)
	return p, nil
}

// rewind undoes the allocation of p made when the arena was at c with the
// given finger, provided p is still the last allocation. If p forced a new
// chunk, it was that chunk's only allocation and the chunk is emptied.
func (a *Arena) rewind(p unsafe.Pointer, c *chunk, finger int) {
	if !a.IsLastAllocation(p) {
		return
	}
	if cur := a.current; cur == c {
		cur.finger = finger
	} else {
		cur.finger = cur.capacity
	}
}

// AllocBytes returns n uninitialized bytes from the arena.
// Returns nil if n <= 0.
func (a *Arena) AllocBytes(n int) []byte {
	if n <= 0 {
		return nil
	}
	p := a.AllocLayout(Layout{Size: n, Align: 1})
	return unsafe.Slice((*byte)(p), n)
}

// AllocSlice allocates a slice of n zeroed elements of type T inside the
// arena. Returns nil if n <= 0.
func AllocSlice[T any](a *Arena, n int) []T {
	return allocSliceZeroed[T](a, n)
}

func tryAllocSliceZeroed[T any](a *Arena, n int) ([]T, error) {
	if n <= 0 {
		return nil, nil
	}
	l, err := ArrayLayout[T](n)
	if err != nil {
		return nil, err
	}
	p, err := a.TryAllocLayout(l)
	if err != nil {
		return nil, err
	}
	clear(unsafe.Slice((*byte)(p), l.Size))
	return unsafe.Slice((*T)(p), n), nil
}

func allocSliceZeroed[T any](a *Arena, n int) []T {
	s, err := tryAllocSliceZeroed[T](a, n)
	if err != nil {
		panic(err)
	}
	return s
}

// AllocSliceCopy copies src into the arena.
func AllocSliceCopy[T any](a *Arena, src []T) []T {
	dst := allocSliceZeroed[T](a, len(src))
	copy(dst, src)
	return dst
}

// TryAllocSliceCopy is AllocSliceCopy returning ErrAlloc instead of
// panicking.
func TryAllocSliceCopy[T any](a *Arena, src []T) ([]T, error) {
	dst, err := tryAllocSliceZeroed[T](a, len(src))
	if err != nil {
		return nil, err
	}
	copy(dst, src)
	return dst, nil
}

// AllocSliceClone stores clone(v) for every v of src in the arena.
func AllocSliceClone[T any](a *Arena, src []T, clone func(T) T) []T {
	dst := allocSliceZeroed[T](a, len(src))
	for i, v := range src {
		dst[i] = clone(v)
	}
	return dst
}

// AllocString copies s into the arena.
func AllocString(a *Arena, s string) string {
	if len(s) == 0 {
		return ""
	}
	b := a.AllocBytes(len(s))
	copy(b, s)
	return unsafe.String(unsafe.SliceData(b), len(b))
}

// TryAllocString is AllocString returning ErrAlloc instead of panicking.
func TryAllocString(a *Arena, s string) (string, error) {
	if len(s) == 0 {
		return "", nil
	}
	p, err := a.TryAllocLayout(Layout{Size: len(s), Align: 1})
	if err != nil {
		return "", err
	}
	b := unsafe.Slice((*byte)(p), len(s))
	copy(b, s)
	return unsafe.String(unsafe.SliceData(b), len(b)), nil
}

// AllocSliceFillWith allocates n elements and sets element i to f(i).
func AllocSliceFillWith[T any](a *Arena, n int, f func(i int) T) []T {
	dst := allocSliceZeroed[T](a, n)
	for i := range dst {
		dst[i] = f(i)
	}
	return dst
}

// AllocSliceFillCopy allocates n copies of v.
func AllocSliceFillCopy[T any](a *Arena, n int, v T) []T {
	dst := allocSliceZeroed[T](a, n)
	for i := range dst {
		dst[i] = v
	}
	return dst
}

// AllocSliceFillClone allocates n elements, each clone(v).
func AllocSliceFillClone[T any](a *Arena, n int, v T, clone func(T) T) []T {
	dst := allocSliceZeroed[T](a, n)
	for i := range dst {
		dst[i] = clone(v)
	}
	return dst
}

// AllocSliceFillIter allocates n elements taken from seq. seq must yield at
// least n values; AllocSliceFillIter panics otherwise. Values past the
// first n are not consumed.
func AllocSliceFillIter[T any](a *Arena, n int, seq iter.Seq[T]) []T {
	dst := allocSliceZeroed[T](a, n)
	i := 0
	if n > 0 {
		for v := range seq {
			dst[i] = v
			i++
			if i == n {
				break
			}
		}
	}
	if i < n {
		panic("arena: iterator yielded fewer elements than requested")
	}
	return dst
}

// AllocSliceFillDefault allocates n zero values.
func AllocSliceFillDefault[T any](a *Arena, n int) []T {
	return allocSliceZeroed[T](a, n)
}

// store writes v to freshly allocated memory at p. The bytes are cleared
// first so the garbage collector never sees stale data as a pointer.
func store[T any](p *T, v T) {
	clear(unsafe.Slice((*byte)(unsafe.Pointer(p)), unsafe.Sizeof(v)))
	*p = v
}
