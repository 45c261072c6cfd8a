// Package arena implements a bump allocator (memory arena) for Go.
//
// # Overview
//
// An arena hands out memory by moving a single pointer, the bump finger,
// through a chunk of memory obtained up front. Objects are never freed one
// by one; the whole arena is reset at once. This is particularly useful for:
//
//   - Request-scoped allocations in servers
//   - Building large pointer-free structures with one cleanup point
//   - Reducing garbage collection pressure
//
// # Basic Usage
//
//	a := arena.New()     // no memory until first use
//	defer a.Release()    // give the chunks back when done
//
//	// Allocate raw bytes
//	buf := a.AllocBytes(1024)
//
//	// Allocate typed values
//	p := arena.Alloc(a, Point{X: 1, Y: 2})
//	s := arena.AllocSliceCopy(a, []int{1, 2, 3})
//	name := arena.AllocString(a, "gopher")
//
//	// Drop everything, keep the largest chunk for reuse
//	a.Reset()
//
// # Memory Layout
//
// The arena owns a list of chunks, newest first. Within a chunk memory is
// handed out from the top down, rounding each address down to the requested
// alignment. When the current chunk is full a new one is obtained from the
// Allocator, about twice the size of the previous one, and rounded to a
// power of two (small chunks) or a page multiple (large chunks).
//
// Reset frees all chunks but the newest and empties that one, so a reused
// arena settles on a single chunk big enough for its workload.
//
// # Allocation Limit
//
// SetAllocationLimit caps the total capacity of all chunks. It is only
// checked when a new chunk is needed, and a request refused by the limit
// fails with the same ErrAlloc as a request the allocator could not serve.
//
// # Reusing The Last Allocation
//
// Dealloc, Shrink and Grow only do real work for the most recent
// allocation in the current chunk: its space can be given back, trimmed,
// or extended in place. For any other allocation Dealloc is a no-op,
// Shrink returns the same pointer and Grow copies to a fresh block.
//
// # Important Notes
//
//   - Allocated memory is only valid until Reset or Release.
//   - No finalizers, Close methods or other cleanup ever run for arena
//     values. Anything they hold is leaked at Reset. Use Box to attach
//     explicit cleanup to the few values that need it.
//   - The garbage collector does not look inside the arena: a value stored
//     in it must not be the only reference to Go heap memory.
//   - Arena is not goroutine-safe. Use SafeArena, or a mutex of your own.
//   - Infallible functions panic with an error wrapping ErrAlloc when
//     memory runs out; the Try variants return it instead.
//
// # Metrics and Monitoring
//
//	m := a.Metrics()
//	fmt.Println(m) // 1.0 KiB used of 3.4 KiB in 2 chunks (...)
package arena
