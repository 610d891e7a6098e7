package cli

import (
	"bytes"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/briandowns/spinner"

	"github.com/agbru/fibiter/internal/orchestration"
	"github.com/agbru/fibiter/internal/ui"
)

// MockSpinner records calls instead of drawing.
type MockSpinner struct {
	mu       sync.Mutex
	started  bool
	stopped  bool
	suffixes []string
}

func (m *MockSpinner) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = true
}

func (m *MockSpinner) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
}

func (m *MockSpinner) UpdateSuffix(suffix string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.suffixes = append(m.suffixes, suffix)
}

func (m *MockSpinner) lastSuffix() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.suffixes) == 0 {
		return ""
	}
	return m.suffixes[len(m.suffixes)-1]
}

func withMockSpinner(t *testing.T) *MockSpinner {
	t.Helper()
	original := newSpinner
	t.Cleanup(func() { newSpinner = original })
	mockS := &MockSpinner{}
	newSpinner = func(io.Writer) Spinner { return mockS }
	return mockS
}

func TestRealSpinner(t *testing.T) {
	t.Parallel()
	s := spinner.New(spinner.CharSets[11], 100*time.Millisecond, spinner.WithWriter(io.Discard))
	rs := &realSpinner{s}

	rs.Start()
	rs.UpdateSuffix(" test")
	rs.Stop()
	if s.Suffix != " test" {
		t.Errorf("suffix = %q, want %q", s.Suffix, " test")
	}
}

func TestDisplayProgress(t *testing.T) {
	ui.SetTheme("none")
	mockS := withMockSpinner(t)

	var wg sync.WaitGroup
	wg.Add(1)
	progressChan := make(chan orchestration.ProgressUpdate)
	var out bytes.Buffer

	go func() {
		progressChan <- orchestration.ProgressUpdate{SourceIndex: 0, Value: 0.5, Index: 5}
		progressChan <- orchestration.ProgressUpdate{SourceIndex: 0, Value: 1.0, Index: 9}
		close(progressChan)
	}()

	DisplayProgress(&wg, progressChan, 1, &out)
	wg.Wait()

	if !mockS.started {
		t.Error("Spinner should have started")
	}
	if !mockS.stopped {
		t.Error("Spinner should have stopped")
	}
	last := mockS.lastSuffix()
	if !strings.Contains(last, "Generating") || !strings.Contains(last, "100.0%") {
		t.Errorf("final suffix = %q, want a complete bar", last)
	}
}

func TestDisplayProgress_MultiSourceLabel(t *testing.T) {
	ui.SetTheme("none")
	mockS := withMockSpinner(t)

	var wg sync.WaitGroup
	wg.Add(1)
	progressChan := make(chan orchestration.ProgressUpdate)
	close(progressChan)

	DisplayProgress(&wg, progressChan, 3, io.Discard)
	wg.Wait()

	if !strings.Contains(mockS.lastSuffix(), "Comparing 3 backends") {
		t.Errorf("suffix = %q, want comparison label", mockS.lastSuffix())
	}
}

func TestDisplayProgress_ZeroSources(t *testing.T) {
	mockS := withMockSpinner(t)

	var wg sync.WaitGroup
	wg.Add(1)
	progressChan := make(chan orchestration.ProgressUpdate, 1)
	progressChan <- orchestration.ProgressUpdate{Value: 0.3}
	close(progressChan)

	DisplayProgress(&wg, progressChan, 0, io.Discard)
	wg.Wait()

	if mockS.started {
		t.Error("Spinner should not start without sources")
	}
}

func TestCLIProgressReporter(t *testing.T) {
	withMockSpinner(t)

	var wg sync.WaitGroup
	wg.Add(1)
	progressChan := make(chan orchestration.ProgressUpdate)
	close(progressChan)

	CLIProgressReporter{}.DisplayProgress(&wg, progressChan, 1, io.Discard)
	wg.Wait()
}
