package arena

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// AllocatedBytes returns the total capacity of all chunks in the arena.
// It counts chunk capacity, not bytes handed out, so it includes unused
// space and alignment padding but not the per-chunk footer.
func (a *Arena) AllocatedBytes() int {
	return a.current.allocatedBytes
}

// ChunkCapacity returns the capacity of the current chunk.
func (a *Arena) ChunkCapacity() int {
	return a.current.capacity
}

// Remaining returns how many bytes the current chunk can still hand out
// before alignment.
func (a *Arena) Remaining() int {
	return a.current.finger
}

// SizeInUse returns the number of bytes handed out across all chunks.
// This includes internal fragmentation due to alignment.
func (a *Arena) SizeInUse() int {
	sum := 0
	for c := a.current; !c.isEmpty(); c = c.prev {
		sum += c.capacity - c.finger
	}
	return sum
}

// NumChunks returns the number of chunks currently allocated by the arena.
func (a *Arena) NumChunks() int {
	n := 0
	for c := a.current; !c.isEmpty(); c = c.prev {
		n++
	}
	return n
}

// Utilization returns the ratio of bytes in use to total capacity (0.0 to 1.0).
// Returns 0.0 if the arena has no capacity.
func (a *Arena) Utilization() float64 {
	capacity := a.AllocatedBytes()
	if capacity == 0 {
		return 0
	}
	return float64(a.SizeInUse()) / float64(capacity)
}

// Metrics returns a snapshot of arena statistics.
func (a *Arena) Metrics() ArenaMetrics {
	limit, ok := a.AllocationLimit()
	if !ok {
		limit = -1
	}
	return ArenaMetrics{
		SizeInUse:       a.SizeInUse(),
		AllocatedBytes:  a.AllocatedBytes(),
		ChunkCapacity:   a.ChunkCapacity(),
		NumChunks:       a.NumChunks(),
		AllocationLimit: limit,
		Utilization:     a.Utilization(),
	}
}

// ArenaMetrics contains statistical information about an arena.
type ArenaMetrics struct {
	SizeInUse       int     // Bytes handed out
	AllocatedBytes  int     // Total chunk capacity in bytes
	ChunkCapacity   int     // Capacity of the current chunk
	NumChunks       int     // Number of chunks
	AllocationLimit int     // Limit in bytes, -1 if unlimited
	Utilization     float64 // Ratio of used to total capacity (0.0-1.0)
}

func (m ArenaMetrics) String() string {
	limit := "none"
	if m.AllocationLimit >= 0 {
		limit = humanize.IBytes(uint64(m.AllocationLimit))
	}
	return fmt.Sprintf("%s used of %s in %d chunks (current %s, limit %s, %.1f%%)",
		humanize.IBytes(uint64(m.SizeInUse)),
		humanize.IBytes(uint64(m.AllocatedBytes)),
		m.NumChunks,
		humanize.IBytes(uint64(m.ChunkCapacity)),
		limit,
		m.Utilization*100,
	)
}
