// Package metrics reads Go runtime memory statistics for verbose run
// summaries.
package metrics

import (
	"fmt"
	"runtime"
	"time"

	"github.com/agbru/fibiter/internal/format"
)

// MemorySnapshot holds a point-in-time memory reading.
type MemorySnapshot struct {
	HeapAlloc    uint64 // bytes in use by application
	TotalAlloc   uint64 // cumulative bytes allocated
	Sys          uint64 // total bytes obtained from OS
	Mallocs      uint64 // cumulative heap object allocations
	NumGC        uint32 // number of completed GC cycles
	PauseTotalNs uint64 // cumulative GC pause time
}

// MemoryCollector reads runtime memory statistics.
type MemoryCollector struct{}

func NewMemoryCollector() *MemoryCollector {
	return &MemoryCollector{}
}

// Snapshot reads current memory statistics.
func (mc *MemoryCollector) Snapshot() MemorySnapshot {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return MemorySnapshot{
		HeapAlloc:    m.HeapAlloc,
		TotalAlloc:   m.TotalAlloc,
		Sys:          m.Sys,
		Mallocs:      m.Mallocs,
		NumGC:        m.NumGC,
		PauseTotalNs: m.PauseTotalNs,
	}
}

// RunStats is the memory cost of a run, computed from two snapshots.
type RunStats struct {
	Allocated   uint64
	Allocations uint64
	GCCycles    uint32
	GCPause     time.Duration
	PeakHeap    uint64
	// ResidentSet is the process RSS at the end of the run, when known.
	ResidentSet uint64
}

// Diff returns the activity between before and after. Counters that
// decreased (which the runtime does not do) are reported as zero.
func Diff(before, after MemorySnapshot) RunStats {
	sub := func(a, b uint64) uint64 {
		if a < b {
			return 0
		}
		return a - b
	}
	rs := RunStats{
		Allocated:   sub(after.TotalAlloc, before.TotalAlloc),
		Allocations: sub(after.Mallocs, before.Mallocs),
		GCPause:     time.Duration(sub(after.PauseTotalNs, before.PauseTotalNs)),
		PeakHeap:    max(before.HeapAlloc, after.HeapAlloc),
	}
	if after.NumGC > before.NumGC {
		rs.GCCycles = after.NumGC - before.NumGC
	}
	return rs
}

// String renders a one-line summary.
func (rs RunStats) String() string {
	return fmt.Sprintf("allocated %s in %d objects, heap %s, %d GC cycles (%s paused)",
		format.FormatBytes(rs.Allocated), rs.Allocations, format.FormatBytes(rs.PeakHeap),
		rs.GCCycles, format.FormatExecutionDuration(rs.GCPause))
}
