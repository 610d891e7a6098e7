//go:generate mockgen -source=interfaces.go -destination=mocks/mock_interfaces.go -package=mocks

package orchestration

import (
	"io"
	"math/big"
	"sync"
	"time"

	"github.com/agbru/fibiter/internal/fibonacci"
)

// ProgressUpdate is sent by a running source after it has produced terms.
type ProgressUpdate struct {
	// SourceIndex identifies the source among those running together.
	SourceIndex int
	// Value is the completed fraction, 0.0 to 1.0.
	Value float64
	// Index is the index of the last term produced.
	Index uint64
}

// Sink consumes terms in index order.
type Sink interface {
	// WriteTerm outputs a single term.
	WriteTerm(t fibonacci.Term) error
	// Flush is called once after the last term, including after a failure.
	Flush() error
}

// Recorder observes generation for metrics.
type Recorder interface {
	ObserveTerm(source string, t fibonacci.Term)
	ObserveOverflow(source string)
}

// NopRecorder discards all observations.
type NopRecorder struct{}

func (NopRecorder) ObserveTerm(string, fibonacci.Term) {}
func (NopRecorder) ObserveOverflow(string)             {}

// ProgressReporter displays progress updates. DisplayProgress runs in its
// own goroutine until progressChan is closed and must call wg.Done on
// return.
type ProgressReporter interface {
	DisplayProgress(wg *sync.WaitGroup, progressChan <-chan ProgressUpdate, numSources int, out io.Writer)
}

// ProgressReporterFunc adapts a function to ProgressReporter.
type ProgressReporterFunc func(wg *sync.WaitGroup, progressChan <-chan ProgressUpdate, numSources int, out io.Writer)

// DisplayProgress calls f.
func (f ProgressReporterFunc) DisplayProgress(wg *sync.WaitGroup, progressChan <-chan ProgressUpdate, numSources int, out io.Writer) {
	f(wg, progressChan, numSources, out)
}

// NullProgressReporter drains the progress channel without output.
type NullProgressReporter struct{}

// DisplayProgress drains the channel without output.
func (NullProgressReporter) DisplayProgress(wg *sync.WaitGroup, progressChan <-chan ProgressUpdate, _ int, _ io.Writer) {
	defer wg.Done()
	DrainChannel(progressChan)
}

// Summary describes a completed (or interrupted) generation run.
type Summary struct {
	Source string
	// Count is the number of terms written to the sink.
	Count      uint64
	FirstIndex uint64
	LastIndex  uint64
	// Last is the value of the last term written, nil when Count is zero.
	Last      *big.Int
	MaxDigits int
	Duration  time.Duration
}

// SequenceResult is the outcome of one backend in comparison mode.
type SequenceResult struct {
	Name     string
	Terms    []fibonacci.Term
	Duration time.Duration
	Err      error
}

// Summary condenses the result.
func (r SequenceResult) Summary() Summary {
	s := Summary{Source: r.Name, Count: uint64(len(r.Terms)), Duration: r.Duration}
	for i, t := range r.Terms {
		if i == 0 {
			s.FirstIndex = t.Index
		}
		s.LastIndex, s.Last = t.Index, t.Value
		s.MaxDigits = max(s.MaxDigits, t.Digits())
	}
	return s
}

// PresentationOptions configures how results are presented.
type PresentationOptions struct {
	Count   uint64
	Start   uint64
	Verbose bool
	Quiet   bool
}

// ResultPresenter renders results. It decouples orchestration from the
// output format.
type ResultPresenter interface {
	// PresentComparisonTable displays one row per backend.
	PresentComparisonTable(results []SequenceResult, out io.Writer)
	// PresentSummary displays the outcome of a run.
	PresentSummary(summary Summary, opts PresentationOptions, out io.Writer)
}

// ErrorHandler turns a generation error into an exit code.
type ErrorHandler interface {
	HandleError(err error, duration time.Duration, out io.Writer) int
}
