package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	apperrors "github.com/agbru/fibiter/internal/errors"
	"github.com/agbru/fibiter/internal/format"
	"github.com/agbru/fibiter/internal/metrics"
	"github.com/agbru/fibiter/internal/orchestration"
	"github.com/agbru/fibiter/internal/ui"
)

// CLIColorProvider implements apperrors.ColorProvider with the active theme.
type CLIColorProvider struct{}

func (CLIColorProvider) Red() string    { return ui.ColorRed() }
func (CLIColorProvider) Yellow() string { return ui.ColorYellow() }
func (CLIColorProvider) Reset() string  { return ui.ColorReset() }

// CLIResultPresenter implements orchestration.ResultPresenter and
// orchestration.ErrorHandler for terminal output.
type CLIResultPresenter struct{}

var (
	_ orchestration.ResultPresenter = CLIResultPresenter{}
	_ orchestration.ErrorHandler    = CLIResultPresenter{}
)

func displayDuration(d time.Duration) string {
	if d == 0 {
		return "< 1µs"
	}
	return format.FormatExecutionDuration(d)
}

// PresentComparisonTable prints one row per backend. Padding is computed
// by hand because the cells contain ANSI codes.
func (CLIResultPresenter) PresentComparisonTable(results []orchestration.SequenceResult, out io.Writer) {
	fmt.Fprintf(out, "\n--- Comparison Summary ---\n")

	maxNameLen := len("Backend")
	maxDurationLen := len("Duration")
	for _, res := range results {
		maxNameLen = max(maxNameLen, len(res.Name))
		maxDurationLen = max(maxDurationLen, len(displayDuration(res.Duration)))
	}

	fmt.Fprintf(out, "%sBackend%s%s   %sDuration%s%s   %sTerms%s   %sStatus%s\n",
		ui.ColorUnderline(), ui.ColorReset(), padRight("", maxNameLen-len("Backend")),
		ui.ColorUnderline(), ui.ColorReset(), padRight("", maxDurationLen-len("Duration")),
		ui.ColorUnderline(), ui.ColorReset(),
		ui.ColorUnderline(), ui.ColorReset())

	for _, res := range results {
		var status string
		if res.Err != nil {
			status = fmt.Sprintf("%s❌ Failure (%v)%s", ui.ColorRed(), res.Err, ui.ColorReset())
		} else {
			status = fmt.Sprintf("%s✅ Success%s", ui.ColorGreen(), ui.ColorReset())
		}
		duration := displayDuration(res.Duration)
		terms := fmt.Sprintf("%d", len(res.Terms))
		fmt.Fprintf(out, "%s%s%s%s   %s%s%s%s   %s%s   %s\n",
			ui.ColorBlue(), res.Name, ui.ColorReset(), padRight("", maxNameLen-len(res.Name)),
			ui.ColorYellow(), duration, ui.ColorReset(), padRight("", maxDurationLen-len(duration)),
			terms, padRight("", len("Terms")-len(terms)),
			status)
	}
}

func padRight(s string, length int) string {
	if length <= 0 {
		return s
	}
	return s + strings.Repeat(" ", length)
}

// PresentSummary prints the outcome of a run. Quiet mode prints nothing.
func (CLIResultPresenter) PresentSummary(s orchestration.Summary, opts orchestration.PresentationOptions, out io.Writer) {
	if opts.Quiet {
		return
	}
	fmt.Fprintf(out, "\n--- Summary ---\n")
	if s.Count == 0 {
		fmt.Fprintf(out, "No terms produced (%s).\n", displayDuration(s.Duration))
		return
	}
	fmt.Fprintf(out, "Produced %s%d%s terms F(%d)..F(%d) with the %s%s%s backend in %s%s%s.\n",
		ui.ColorGreen(), s.Count, ui.ColorReset(), s.FirstIndex, s.LastIndex,
		ui.ColorCyan(), s.Source, ui.ColorReset(),
		ui.ColorYellow(), displayDuration(s.Duration), ui.ColorReset())
	fmt.Fprintf(out, "Largest term: %s digits.\n", format.FormatNumberString(fmt.Sprintf("%d", s.MaxDigits)))
	if opts.Verbose && s.Last != nil {
		fmt.Fprintf(out, "F(%d) = %s\n", s.LastIndex, format.FormatNumberString(s.Last.String()))
	}
}

// HandleError prints the failure status line and returns the exit code.
func (CLIResultPresenter) HandleError(err error, duration time.Duration, out io.Writer) int {
	return apperrors.HandleGenerationError(err, duration, out, CLIColorProvider{})
}

// DisplayRunStats shows the memory cost of a run.
func DisplayRunStats(rs metrics.RunStats, out io.Writer) {
	fmt.Fprintf(out, "\nMemory Stats:\n")
	fmt.Fprintf(out, "  Peak heap:       %s\n", format.FormatBytes(rs.PeakHeap))
	fmt.Fprintf(out, "  Total allocated: %s (%d objects)\n", format.FormatBytes(rs.Allocated), rs.Allocations)
	fmt.Fprintf(out, "  GC cycles:       %d\n", rs.GCCycles)
	fmt.Fprintf(out, "  GC pause total:  %s\n", format.FormatExecutionDuration(rs.GCPause))
	if rs.ResidentSet > 0 {
		fmt.Fprintf(out, "  Resident set:    %s\n", format.FormatBytes(rs.ResidentSet))
	}
}
