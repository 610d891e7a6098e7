package metrics

import (
	"math/big"
	"strings"
	"testing"
)

var sink *big.Int

func TestMemoryCollector_Snapshot(t *testing.T) {
	t.Parallel()

	snap := NewMemoryCollector().Snapshot()
	if snap.HeapAlloc == 0 {
		t.Error("HeapAlloc should be > 0")
	}
	if snap.Sys == 0 {
		t.Error("Sys should be > 0")
	}
}

func TestDiff_CountsAllocations(t *testing.T) {
	t.Parallel()

	mc := NewMemoryCollector()
	before := mc.Snapshot()
	a, b := big.NewInt(0), big.NewInt(1)
	for range 2000 {
		a.Add(a, b)
		a, b = b, a
	}
	sink = new(big.Int).Set(a)
	after := mc.Snapshot()

	rs := Diff(before, after)
	if rs.Allocated == 0 || rs.Allocations == 0 {
		t.Errorf("expected allocations, got %+v", rs)
	}
	if rs.PeakHeap < after.HeapAlloc {
		t.Errorf("PeakHeap = %d, want >= %d", rs.PeakHeap, after.HeapAlloc)
	}
}

func TestDiff_NeverUnderflows(t *testing.T) {
	t.Parallel()
	rs := Diff(MemorySnapshot{TotalAlloc: 10, NumGC: 3}, MemorySnapshot{TotalAlloc: 5, NumGC: 1})
	if rs.Allocated != 0 || rs.GCCycles != 0 {
		t.Errorf("got %+v", rs)
	}
}

func TestRunStats_String(t *testing.T) {
	t.Parallel()
	s := RunStats{Allocated: 2048, Allocations: 7, GCCycles: 1, PeakHeap: 1 << 20}.String()
	for _, want := range []string{"2.0 KiB", "7 objects", "1.0 MiB", "1 GC cycles"} {
		if !strings.Contains(s, want) {
			t.Errorf("%q missing %q", s, want)
		}
	}
}
