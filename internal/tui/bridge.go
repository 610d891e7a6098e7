package tui

import (
	"io"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/agbru/fibiter/internal/fibonacci"
	"github.com/agbru/fibiter/internal/format"
	"github.com/agbru/fibiter/internal/orchestration"
)

// logValueEdges is the number of digits kept on each side of long values
// in the term log.
const logValueEdges = 12

// programRef is a shared reference to the tea.Program. bubbletea copies the
// model on every Update, so bridge goroutines need a pointer that survives
// the copies.
type programRef struct {
	mu      sync.RWMutex
	program *tea.Program
}

// SetProgram sets the tea.Program reference (thread-safe).
func (r *programRef) SetProgram(p *tea.Program) {
	r.mu.Lock()
	r.program = p
	r.mu.Unlock()
}

// Send forwards msg to the program. It is a no-op before SetProgram.
func (r *programRef) Send(msg tea.Msg) {
	r.mu.RLock()
	p := r.program
	r.mu.RUnlock()
	if p != nil {
		p.Send(msg)
	}
}

// TUIProgressReporter implements orchestration.ProgressReporter by
// forwarding updates as ProgressMsg.
type TUIProgressReporter struct {
	ref *programRef
}

var _ orchestration.ProgressReporter = (*TUIProgressReporter)(nil)

func (t *TUIProgressReporter) DisplayProgress(wg *sync.WaitGroup, progressChan <-chan orchestration.ProgressUpdate, numSources int, _ io.Writer) {
	defer wg.Done()

	agg := orchestration.NewProgressAggregator(numSources)
	if agg == nil {
		orchestration.DrainChannel(progressChan)
		return
	}

	for update := range progressChan {
		ap := agg.Update(update)
		t.ref.Send(ProgressMsg{Value: ap.AverageProgress, ETA: ap.ETA})
	}
	t.ref.Send(ProgressDoneMsg{})
}

// tuiSink implements orchestration.Sink by sending every term to the
// dashboard through send.
type tuiSink struct {
	send func(tea.Msg)
}

var _ orchestration.Sink = (*tuiSink)(nil)

func (s *tuiSink) WriteTerm(t fibonacci.Term) error {
	v := t.Value.String()
	s.send(TermMsg{
		Index:  t.Index,
		Value:  format.TruncateDigits(v, logValueEdges),
		Digits: len(v),
	})
	return nil
}

func (s *tuiSink) Flush() error { return nil }
