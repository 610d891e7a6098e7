package tui

import (
	"time"

	"github.com/agbru/fibiter/internal/orchestration"
)

// TermMsg carries one produced term.
type TermMsg struct {
	Index  uint64
	Value  string
	Digits int
}

// ProgressMsg carries an aggregated progress update.
type ProgressMsg struct {
	Value float64
	ETA   time.Duration
}

// ProgressDoneMsg is sent when the progress channel is closed.
type ProgressDoneMsg struct{}

// GenerationCompleteMsg is sent when a run ends, successfully or not.
type GenerationCompleteMsg struct {
	Summary    orchestration.Summary
	Err        error
	ExitCode   int
	Generation uint64
}

// TickMsg drives periodic sampling.
type TickMsg time.Time

// MemStatsMsg carries runtime memory statistics.
type MemStatsMsg struct {
	HeapAlloc    uint64
	Sys          uint64
	NumGC        uint32
	PauseTotalNs uint64
	NumGoroutine int
}

// SysStatsMsg carries system-wide CPU and memory usage.
type SysStatsMsg struct {
	CPUPercent float64
	MemPercent float64
}

// ContextCancelledMsg is sent when the run context ends.
type ContextCancelledMsg struct {
	Err        error
	Generation uint64
}
