package cli

import (
	"fmt"
	"io"
	"runtime"

	"github.com/agbru/fibiter/internal/config"
	"github.com/agbru/fibiter/internal/fibonacci"
	"github.com/agbru/fibiter/internal/format"
	"github.com/agbru/fibiter/internal/ui"
)

// PrintExecutionConfig displays the run parameters: the index range, the
// expected size of the last term, the timeout and the environment.
func PrintExecutionConfig(cfg config.AppConfig, out io.Writer) {
	last := cfg.Start
	if cfg.Count > 0 {
		last = cfg.Start + cfg.Count - 1
	}
	fmt.Fprintf(out, "--- Execution Configuration ---\n")
	fmt.Fprintf(out, "Generating %s%d%s terms %sF(%d)..F(%d)%s with a timeout of %s%s%s.\n",
		ui.ColorMagenta(), cfg.Count, ui.ColorReset(),
		ui.ColorMagenta(), cfg.Start, last, ui.ColorReset(),
		ui.ColorYellow(), cfg.Timeout, ui.ColorReset())
	if cfg.LastDigits > 0 {
		fmt.Fprintf(out, "Only the last %s%d%s digits are kept.\n", ui.ColorCyan(), cfg.LastDigits, ui.ColorReset())
	} else {
		fmt.Fprintf(out, "Largest term: about %s%s%s digits.\n",
			ui.ColorCyan(), format.FormatNumberString(fmt.Sprintf("%d", fibonacci.EstimateDigits(last))), ui.ColorReset())
	}
	if cfg.Numeric == "uint64" {
		fmt.Fprintf(out, "Overflow policy: %s%s%s (uint64 holds up to F(%d)).\n",
			ui.ColorCyan(), cfg.OverflowPolicy(), ui.ColorReset(), fibonacci.MaxUint64Index)
	}
	fmt.Fprintf(out, "Environment: %s%d%s logical processors, Go %s%s%s.\n",
		ui.ColorCyan(), runtime.NumCPU(), ui.ColorReset(), ui.ColorCyan(), runtime.Version(), ui.ColorReset())
}

// PrintExecutionMode displays whether one backend runs or several are
// compared.
func PrintExecutionMode(sources []fibonacci.Source, out io.Writer) {
	var modeDesc string
	if len(sources) > 1 {
		modeDesc = fmt.Sprintf("Comparison of %d backends", len(sources))
	} else if len(sources) == 1 {
		modeDesc = fmt.Sprintf("Sequence from the %s%s%s backend",
			ui.ColorGreen(), sources[0].Name(), ui.ColorReset())
	} else {
		modeDesc = "No backend"
	}
	fmt.Fprintf(out, "Execution mode: %s.\n", modeDesc)
	fmt.Fprintf(out, "\n--- Starting Execution ---\n")
}
