package arena_test

import (
	"fmt"
	"math"
	"runtime"
	"sync"
	"testing"
	"time"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavanmanishd/arena/v2"
)

// TestEdgeCases covers edge cases of the public API
func TestEdgeCases(t *testing.T) {
	t.Run("ZeroAndNegativeCapacities", func(t *testing.T) {
		a := arena.WithCapacity(0)
		assert.Zero(t, a.NumChunks())

		_, err := arena.TryWithCapacity(-1)
		assert.ErrorIs(t, err, arena.ErrAlloc)
		assert.Panics(t, func() { arena.WithCapacity(-1000) })
	})

	t.Run("LargeAllocations", func(t *testing.T) {
		a := arena.WithCapacity(1024)
		defer a.Release()

		// Larger than the current chunk
		assert.Len(t, a.AllocBytes(4096), 4096)

		// Very large
		assert.Len(t, a.AllocBytes(1024*1024), 1024*1024)
		assert.GreaterOrEqual(t, a.ChunkCapacity(), 1024*1024)
	})

	t.Run("IntegerOverflowProtection", func(t *testing.T) {
		a := arena.WithCapacity(1024)
		defer a.Release()

		_, err := a.TryAllocLayout(arena.Layout{Size: math.MaxInt - 8, Align: 16})
		assert.ErrorIs(t, err, arena.ErrAlloc)

		_, err = arena.TryWithCapacity(math.MaxInt)
		assert.ErrorIs(t, err, arena.ErrAlloc)

		func() {
			defer func() {
				err, ok := recover().(error)
				require.True(t, ok)
				assert.ErrorIs(t, err, arena.ErrAlloc)
			}()
			a.AllocLayout(arena.Layout{Size: math.MaxInt - 7, Align: 8})
		}()

		// The arena is untouched by failed requests
		assert.Equal(t, 1, a.NumChunks())
		assert.Zero(t, a.SizeInUse())
	})

	t.Run("AlignmentEdgeCases", func(t *testing.T) {
		a := arena.WithCapacity(1024)
		defer a.Release()

		type AlignTest1 struct{ a int8 }
		type AlignTest2 struct{ a int64 }
		type AlignTest3 struct {
			a int8
			b int64
		}

		p1 := arena.AllocZeroed[AlignTest1](a)
		p2 := arena.AllocZeroed[AlignTest2](a)
		p3 := arena.AllocZeroed[AlignTest3](a)

		assert.Zero(t, uintptr(unsafe.Pointer(p1))%unsafe.Alignof(*p1))
		assert.Zero(t, uintptr(unsafe.Pointer(p2))%unsafe.Alignof(*p2))
		assert.Zero(t, uintptr(unsafe.Pointer(p3))%unsafe.Alignof(*p3))

		for _, align := range []int{1, 2, 4, 8, 16, 32, 64, 128, 4096} {
			p, err := a.TryAllocLayout(arena.Layout{Size: 3, Align: align})
			require.NoError(t, err)
			assert.Zero(t, uintptr(p)%uintptr(align), "align %d", align)
		}
	})

	t.Run("UseAfterRelease", func(t *testing.T) {
		a := arena.WithCapacity(1024)
		a.Release()

		// A released arena behaves like a new one
		assert.Len(t, a.AllocBytes(100), 100)
		require.NoError(t, a.EnsureCapacity(100))
		a.Reset()
		assert.Equal(t, 7, *arena.Alloc(a, 7))
		assert.Len(t, arena.AllocSlice[int](a, 10), 10)
	})

	t.Run("MultipleReleases", func(t *testing.T) {
		a := arena.WithCapacity(1024)
		a.Release()
		a.Release()
		a.Reset()
		a.Release()
		assert.Zero(t, a.NumChunks())
	})

	t.Run("EmptySliceAllocations", func(t *testing.T) {
		a := arena.WithCapacity(1024)
		defer a.Release()

		assert.Nil(t, arena.AllocSlice[int](a, 0))
		assert.Nil(t, arena.AllocSlice[int](a, -1))
		assert.Nil(t, arena.AllocSliceFillDefault[int](a, 0))
		assert.Nil(t, arena.AllocSliceFillDefault[int](a, -1))
		assert.Zero(t, a.SizeInUse())
	})
}

// TestMemoryCorruption checks that allocations never overlap
func TestMemoryCorruption(t *testing.T) {
	a := arena.WithCapacity(1024)
	defer a.Release()

	ptrs := make([]*[64]byte, 100)
	for i := range ptrs {
		ptrs[i] = arena.AllocUninitialized[[64]byte](a)
		for j := range ptrs[i] {
			ptrs[i][j] = byte(i)
		}
	}

	for i, ptr := range ptrs {
		for j, b := range ptr {
			if b != byte(i) {
				t.Fatalf("Memory corruption detected at ptr[%d][%d]: got %d, want %d", i, j, b, byte(i))
			}
		}
	}
}

// TestBoundaryConditions tests boundary conditions
func TestBoundaryConditions(t *testing.T) {
	t.Run("ExactChunkCapacityAllocation", func(t *testing.T) {
		a := arena.WithCapacity(1024)
		defer a.Release()

		capacity := a.ChunkCapacity()
		assert.Len(t, a.AllocBytes(capacity), capacity)
		assert.Equal(t, 1, a.NumChunks())
		assert.Zero(t, a.Remaining())

		// This must trigger a new chunk
		assert.Len(t, a.AllocBytes(1), 1)
		assert.Equal(t, 2, a.NumChunks())
	})

	t.Run("ByteAllocationsArePacked", func(t *testing.T) {
		a := arena.WithCapacity(1024)
		defer a.Release()

		sizes := []int{1, 2, 3, 4, 5, 7, 8, 9, 15, 16, 17}
		total := 0
		for _, size := range sizes {
			assert.Len(t, a.AllocBytes(size), size)
			total += size
		}
		assert.Equal(t, total, a.SizeInUse())
	})
}

// TestTypeSpecificAllocations tests allocation of various Go types
func TestTypeSpecificAllocations(t *testing.T) {
	a := arena.WithCapacity(4096)
	defer a.Release()

	t.Run("BasicTypes", func(t *testing.T) {
		pBool := arena.Alloc(a, true)
		pInt8 := arena.Alloc(a, int8(-8))
		pInt16 := arena.Alloc(a, int16(-16))
		pUint32 := arena.Alloc(a, uint32(32))
		pInt64 := arena.Alloc(a, int64(12345))
		pFloat32 := arena.Alloc(a, float32(1.5))
		pFloat64 := arena.Alloc(a, 3.14159)
		pComplex := arena.Alloc(a, complex(1, 2))

		assert.True(t, *pBool)
		assert.Equal(t, int8(-8), *pInt8)
		assert.Equal(t, int16(-16), *pInt16)
		assert.Equal(t, uint32(32), *pUint32)
		assert.Equal(t, int64(12345), *pInt64)
		assert.Equal(t, float32(1.5), *pFloat32)
		assert.Equal(t, 3.14159, *pFloat64)
		assert.Equal(t, complex(1, 2), *pComplex)
	})

	t.Run("ArenaOnlyStructs", func(t *testing.T) {
		type Node struct {
			Value int64
			Name  string
			Next  *Node
			Kids  []int32
		}

		// Every reference points into the arena
		var head *Node
		for i := 0; i < 10; i++ {
			head = arena.Alloc(a, Node{
				Value: int64(i),
				Name:  arena.AllocString(a, fmt.Sprint("node", i)),
				Next:  head,
				Kids:  arena.AllocSliceFillWith(a, i, func(j int) int32 { return int32(j) }),
			})
		}

		i := 9
		for n := head; n != nil; n = n.Next {
			assert.Equal(t, int64(i), n.Value)
			assert.Equal(t, fmt.Sprint("node", i), n.Name)
			assert.Len(t, n.Kids, i)
			i--
		}
		assert.Equal(t, -1, i)
	})

	t.Run("ArraysAndSlices", func(t *testing.T) {
		pArray := arena.AllocZeroed[[10]int](a)
		for i := range pArray {
			assert.Zero(t, pArray[i])
			pArray[i] = i * 2
		}

		slice := arena.AllocSlice[int](a, 20)
		assert.Len(t, slice, 20)
		assert.Equal(t, 20, cap(slice))
		for i := range slice {
			slice[i] = i * 3
		}
		for i := range slice {
			assert.Equal(t, i*3, slice[i])
		}
	})
}

// TestResetBehavior thoroughly tests Reset functionality
func TestResetBehavior(t *testing.T) {
	a := arena.WithCapacity(1024)
	defer a.Release()

	// Allocate across multiple chunks
	for i := 0; i < 10; i++ {
		a.AllocBytes(512)
	}
	require.Greater(t, a.NumChunks(), 1)
	largest := a.ChunkCapacity()

	a.Reset()

	assert.Zero(t, a.SizeInUse())
	assert.Equal(t, 1, a.NumChunks())
	assert.Equal(t, largest, a.ChunkCapacity())
	assert.Equal(t, largest, a.AllocatedBytes())
	assert.Zero(t, a.Utilization())

	// The kept chunk fills up again without growing
	for i := 0; i < largest/512; i++ {
		a.AllocBytes(512)
	}
	assert.Equal(t, 1, a.NumChunks())
}

// TestMemoryLeaks checks that released arenas are reclaimed
func TestMemoryLeaks(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping memory leak test in short mode")
	}

	var m1, m2 runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m1)

	for i := 0; i < 1000; i++ {
		a := arena.WithCapacity(1024)
		for j := 0; j < 100; j++ {
			a.AllocBytes(64)
		}
		a.Release()
	}

	runtime.GC()
	runtime.ReadMemStats(&m2)

	if m2.HeapAlloc > m1.HeapAlloc*2+1<<20 {
		t.Errorf("Potential memory leak: before=%d, after=%d", m1.HeapAlloc, m2.HeapAlloc)
	}
}

// TestGCKeepsChunksAlive checks that a pointer into the arena is enough to
// keep heap chunk memory valid across collections.
func TestGCKeepsChunksAlive(t *testing.T) {
	var ptr *int

	func() {
		a := arena.New()
		ptr = arena.Alloc(a, 42)
	}()

	runtime.GC()
	runtime.GC()

	assert.Equal(t, 42, *ptr)
}

// TestConcurrencyStress performs stress testing on SafeArena
func TestConcurrencyStress(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping stress test in short mode")
	}

	s := arena.NewSafeArenaWithCapacity(64 * 1024)
	defer s.Release()

	const (
		numWorkers      = 20
		numOpsPerWorker = 1000
	)

	var wg sync.WaitGroup
	errs := make(chan error, numWorkers)

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()

			for j := 0; j < numOpsPerWorker; j++ {
				switch j % 5 {
				case 0:
					if buf := s.AllocBytes(64); len(buf) != 64 {
						errs <- fmt.Errorf("worker %d: AllocBytes failed", workerID)
						return
					}
				case 1:
					arena.SafeAlloc(s, int64(workerID*1000+j))
				case 2:
					if slice := arena.SafeAllocSlice[int32](s, 10); len(slice) != 10 {
						errs <- fmt.Errorf("worker %d: AllocSlice failed", workerID)
						return
					}
				case 3:
					if err := s.EnsureCapacity(128); err != nil {
						errs <- fmt.Errorf("worker %d: EnsureCapacity: %w", workerID, err)
						return
					}
				case 4:
					_ = s.SizeInUse()
					_ = s.Utilization()
				}

				if j%50 == 0 {
					runtime.Gosched()
				}
			}
		}(i)
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

// TestSafeArenaDeadlock tests for potential deadlocks in SafeArena
func TestSafeArenaDeadlock(t *testing.T) {
	s := arena.NewSafeArenaWithCapacity(1024)
	defer s.Release()

	done := make(chan bool, 2)
	timeout := time.After(5 * time.Second)

	go func() {
		for i := 0; i < 1000; i++ {
			s.AllocBytes(32)
			if i%100 == 0 {
				runtime.Gosched()
			}
		}
		done <- true
	}()

	go func() {
		for i := 0; i < 1000; i++ {
			_ = s.Metrics()
			s.Do(func(a *arena.Arena) { _ = a.Remaining() })
			if i%100 == 0 {
				runtime.Gosched()
			}
		}
		done <- true
	}()

	completed := 0
	for completed < 2 {
		select {
		case <-done:
			completed++
		case <-timeout:
			t.Fatal("Test timed out - possible deadlock")
		}
	}
}
