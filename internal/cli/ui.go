//go:generate mockgen -source=ui.go -destination=mocks/mock_ui.go -package=mocks

package cli

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/briandowns/spinner"

	"github.com/agbru/fibiter/internal/format"
	"github.com/agbru/fibiter/internal/orchestration"
)

const (
	// ProgressRefreshRate defines the refresh frequency of the progress bar.
	ProgressRefreshRate = 200 * time.Millisecond
	// ProgressBarWidth defines the width in characters of the progress bar.
	ProgressBarWidth = 40
)

// Spinner abstracts the terminal spinner so that DisplayProgress can be
// tested without a terminal.
type Spinner interface {
	// Start begins the spinner animation.
	Start()
	// Stop halts the spinner animation.
	Stop()
	// UpdateSuffix sets the text that is displayed after the spinner.
	UpdateSuffix(suffix string)
}

// realSpinner adapts spinner.Spinner to Spinner.
type realSpinner struct {
	s *spinner.Spinner
}

func (rs *realSpinner) Start() { rs.s.Start() }
func (rs *realSpinner) Stop()  { rs.s.Stop() }

func (rs *realSpinner) UpdateSuffix(suffix string) {
	rs.s.Lock()
	rs.s.Suffix = suffix
	rs.s.Unlock()
}

var newSpinner = func(out io.Writer) Spinner {
	s := spinner.New(spinner.CharSets[11], ProgressRefreshRate, spinner.WithWriter(out))
	return &realSpinner{s}
}

// DisplayProgress draws a spinner followed by a progress bar with ETA
// until progressChan is closed. It calls wg.Done on return.
func DisplayProgress(wg *sync.WaitGroup, progressChan <-chan orchestration.ProgressUpdate, numSources int, out io.Writer) {
	defer wg.Done()
	agg := orchestration.NewProgressAggregator(numSources)
	if agg == nil {
		orchestration.DrainChannel(progressChan)
		return
	}

	s := newSpinner(out)
	label := "Generating"
	if agg.IsMultiSource() {
		label = fmt.Sprintf("Comparing %d backends", numSources)
	}
	render := func(progress float64, eta time.Duration) {
		s.UpdateSuffix(fmt.Sprintf(" %s %s", label, format.FormatProgressBarWithETA(progress, eta, ProgressBarWidth)))
	}
	render(0, 0)
	s.Start()

	ticker := time.NewTicker(ProgressRefreshRate)
	defer ticker.Stop()

	for {
		select {
		case update, ok := <-progressChan:
			if !ok {
				render(agg.CalculateAverage(), 0)
				s.Stop()
				fmt.Fprintln(out)
				return
			}
			ap := agg.Update(update)
			render(ap.AverageProgress, ap.ETA)
		case <-ticker.C:
			render(agg.CalculateAverage(), agg.GetETA())
		}
	}
}

// CLIProgressReporter implements orchestration.ProgressReporter with
// DisplayProgress.
type CLIProgressReporter struct{}

var _ orchestration.ProgressReporter = CLIProgressReporter{}

func (CLIProgressReporter) DisplayProgress(wg *sync.WaitGroup, progressChan <-chan orchestration.ProgressUpdate, numSources int, out io.Writer) {
	DisplayProgress(wg, progressChan, numSources, out)
}
