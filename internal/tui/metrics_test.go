package tui

import (
	"strings"
	"testing"
	"time"
)

func TestMetricsModel_UpdateMemStats(t *testing.T) {
	m := NewMetricsModel()
	msg := MemStatsMsg{
		HeapAlloc:    50 << 20,
		Sys:          80 << 20,
		NumGC:        10,
		PauseTotalNs: 2_500_000,
		NumGoroutine: 8,
	}
	m.UpdateMemStats(msg)

	if m.heapAlloc != msg.HeapAlloc || m.sys != msg.Sys {
		t.Errorf("heap = %d/%d, want %d/%d", m.heapAlloc, m.sys, msg.HeapAlloc, msg.Sys)
	}
	if m.numGC != 10 || m.numGoroutine != 8 {
		t.Errorf("unexpected GC or goroutine count: %d, %d", m.numGC, m.numGoroutine)
	}
}

func TestMetricsModel_AddTerm(t *testing.T) {
	m := NewMetricsModel()
	m.AddTerm(TermMsg{Index: 5, Digits: 1})
	m.AddTerm(TermMsg{Index: 300, Digits: 63})
	m.AddTerm(TermMsg{Index: 6, Digits: 1})

	if m.terms != 3 {
		t.Errorf("terms = %d, want 3", m.terms)
	}
	if m.maxDigits != 63 {
		t.Errorf("maxDigits = %d, want 63", m.maxDigits)
	}
	if m.lastIndex != 6 {
		t.Errorf("lastIndex = %d, want 6", m.lastIndex)
	}
}

func TestMetricsModel_UpdateRate(t *testing.T) {
	m := NewMetricsModel()
	start := time.Now()
	m.windowStart = start
	for range 10 {
		m.AddTerm(TermMsg{Digits: 1})
	}

	m.UpdateRate(start.Add(time.Second))
	if m.rate < 9.99 || m.rate > 10.01 {
		t.Errorf("rate = %f, want 10", m.rate)
	}
	if m.windowTerms != 0 {
		t.Error("window should reset after a rate update")
	}

	// 30 terms over the next second: smoothed 0.7*10 + 0.3*30 = 16.
	for range 30 {
		m.AddTerm(TermMsg{Digits: 1})
	}
	m.UpdateRate(start.Add(2 * time.Second))
	if m.rate < 15.99 || m.rate > 16.01 {
		t.Errorf("smoothed rate = %f, want 16", m.rate)
	}
}

func TestMetricsModel_UpdateRate_IgnoresShortWindows(t *testing.T) {
	m := NewMetricsModel()
	m.AddTerm(TermMsg{})
	m.UpdateRate(m.windowStart.Add(10 * time.Millisecond))
	if m.rate != 0 || m.windowTerms != 1 {
		t.Errorf("short window should be skipped: rate=%f window=%d", m.rate, m.windowTerms)
	}
}

func TestMetricsModel_View(t *testing.T) {
	m := NewMetricsModel()
	m.SetSize(60, 7)
	m.AddTerm(TermMsg{Index: 1000, Digits: 209})
	m.UpdateMemStats(MemStatsMsg{HeapAlloc: 1536, Sys: 4096, NumGoroutine: 3})

	view := m.View()
	for _, want := range []string{"Heap:", "1.5 KiB / 4.0 KiB", "Terms:", "Max digits:", "209", "Goroutines:"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}
