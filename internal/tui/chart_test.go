package tui

import (
	"strings"
	"testing"
	"time"
)

func TestChartModel_ScaledRelativeToMax(t *testing.T) {
	c := NewChartModel()
	c.SetSize(40, 12)
	for _, d := range []int{1, 2, 4} {
		c.AddTerm(d)
	}
	got := c.scaled()
	want := []float64{25, 50, 100}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("scaled[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestChartModel_DoneAndReset(t *testing.T) {
	c := NewChartModel()
	c.SetSize(60, 14)
	c.AddTerm(3)
	c.UpdateSysStats(12.5, 40)
	c.SetDone(2 * time.Second)

	view := c.View()
	if !strings.Contains(view, "100.0%") || !strings.Contains(view, "done in") {
		t.Errorf("finished chart should show completion:\n%s", view)
	}
	if !strings.Contains(view, "12.5%") {
		t.Errorf("chart should show the last CPU sample:\n%s", view)
	}

	c.Reset()
	if c.digits.Len() != 0 || c.cpu.Len() != 0 || c.done || c.progress != 0 {
		t.Error("Reset should clear history and state")
	}
}

func TestChartModel_SetSizeResizesHistory(t *testing.T) {
	c := NewChartModel()
	c.SetSize(24, 10)
	if got, want := c.digits.Cap(), (24-4)*2; got != want {
		t.Errorf("Cap() = %d, want %d", got, want)
	}
}

func TestHeaderModel(t *testing.T) {
	h := NewHeaderModel("v2.1.0", "uint64")
	h.SetWidth(100)
	view := h.View()
	for _, want := range []string{"fibiter v2.1.0", "backend: uint64", "Elapsed"} {
		if !strings.Contains(view, want) {
			t.Errorf("header missing %q: %q", want, view)
		}
	}

	dev := NewHeaderModel("dev", "big")
	dev.SetWidth(100)
	if strings.Contains(dev.View(), "dev") {
		t.Error("dev builds should not print a version")
	}

	h.SetDone()
	first := h.Elapsed()
	time.Sleep(5 * time.Millisecond)
	if h.Elapsed() != first {
		t.Error("Elapsed should be frozen after SetDone")
	}
	h.Reset()
	if h.Elapsed() >= first+time.Second {
		t.Error("Reset should restart the timer")
	}
}

func TestFooterModel_Status(t *testing.T) {
	f := NewFooterModel()
	f.SetWidth(100)
	if !strings.Contains(f.View(), "RUNNING") {
		t.Error("expected RUNNING")
	}
	f.SetPaused(true)
	if !strings.Contains(f.View(), "PAUSED") {
		t.Error("expected PAUSED")
	}
	f.SetDone(true)
	if !strings.Contains(f.View(), "DONE") {
		t.Error("done takes precedence over paused")
	}
	f.SetError(true)
	if !strings.Contains(f.View(), "ERROR") {
		t.Error("error takes precedence over done")
	}
}
