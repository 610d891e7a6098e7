package orchestration

import (
	"time"

	"github.com/agbru/fibiter/internal/format"
)

// ProgressAggregator averages progress over several sources. Both the CLI
// and the TUI use it.
type ProgressAggregator struct {
	state      *format.ProgressWithETA
	numSources int
}

// NewProgressAggregator returns nil if numSources <= 0.
func NewProgressAggregator(numSources int) *ProgressAggregator {
	if numSources <= 0 {
		return nil
	}
	return &ProgressAggregator{
		state:      format.NewProgressWithETA(numSources),
		numSources: numSources,
	}
}

// AggregatedProgress is the result of processing a single update.
type AggregatedProgress struct {
	SourceIndex     int
	Value           float64
	AverageProgress float64
	ETA             time.Duration
}

// Update processes a single progress update.
func (a *ProgressAggregator) Update(update ProgressUpdate) AggregatedProgress {
	avg, eta := a.state.UpdateWithETA(update.SourceIndex, update.Value)
	return AggregatedProgress{
		SourceIndex:     update.SourceIndex,
		Value:           update.Value,
		AverageProgress: avg,
		ETA:             eta,
	}
}

// CalculateAverage returns the current average without updating, for
// ticker-driven refreshes.
func (a *ProgressAggregator) CalculateAverage() float64 {
	return a.state.CalculateAverage()
}

func (a *ProgressAggregator) GetETA() time.Duration {
	return a.state.GetETA()
}

func (a *ProgressAggregator) NumSources() int {
	return a.numSources
}

// IsMultiSource reports whether more than one source is tracked.
func (a *ProgressAggregator) IsMultiSource() bool {
	return a.numSources > 1
}

// DrainChannel discards every update until the channel is closed.
func DrainChannel(progressChan <-chan ProgressUpdate) {
	for range progressChan {
	}
}

// progressStep returns how many terms pass between two progress updates so
// that a run emits about a thousand of them.
func progressStep(count uint64) uint64 {
	return max(1, count/1000)
}
