package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/agbru/fibiter/internal/cli"
	"github.com/agbru/fibiter/internal/config"
	apperrors "github.com/agbru/fibiter/internal/errors"
	"github.com/agbru/fibiter/internal/fibonacci"
	"github.com/agbru/fibiter/internal/metrics"
	"github.com/agbru/fibiter/internal/orchestration"
	"github.com/agbru/fibiter/internal/sysmon"
)

// runGenerate orchestrates a command-line run. Terms go to out; the
// banner, progress and summary go to ErrWriter so that out stays pipeable.
func (a *Application) runGenerate(ctx context.Context, out io.Writer) int {
	ctx, cancelTimeout := context.WithTimeout(ctx, a.Config.Timeout)
	defer cancelTimeout()
	ctx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	sources, err := a.sources()
	if err != nil {
		return apperrors.HandleGenerationError(err, 0, a.ErrWriter, cli.CLIColorProvider{})
	}

	if !a.Config.Quiet {
		cli.PrintExecutionConfig(a.Config, a.ErrWriter)
		cli.PrintExecutionMode(sources, a.ErrWriter)
	}

	if len(sources) > 1 {
		return a.runComparison(ctx, sources, out)
	}
	return a.runSingle(ctx, sources[0], out)
}

// sources builds the backends selected by the configuration. Last-digits
// mode always uses the modular source.
func (a *Application) sources() ([]fibonacci.Source, error) {
	if a.Config.LastDigits > 0 {
		src, err := fibonacci.NewModSource(a.Config.Start, fibonacci.PowerOfTen(a.Config.LastDigits))
		if err != nil {
			return nil, err
		}
		return []fibonacci.Source{src}, nil
	}
	return orchestration.SourcesToRun(a.Config.Numeric, a.Factory, fibonacci.SourceOptions{
		Start:    a.Config.Start,
		Overflow: a.Config.OverflowPolicy(),
	})
}

func (a *Application) presentationOptions() orchestration.PresentationOptions {
	return orchestration.PresentationOptions{
		Count:   a.Config.Count,
		Start:   a.Config.Start,
		Verbose: a.Config.Verbose,
		Quiet:   a.Config.Quiet,
	}
}

func (a *Application) outputConfig() cli.OutputConfig {
	return cli.OutputConfig{
		OutputFile: a.Config.OutputFile,
		Format:     a.Config.Format,
		PadWidth:   a.Config.LastDigits,
	}
}

func (a *Application) fileHeader(source string) cli.FileHeader {
	h := cli.FileHeader{
		Source:     source,
		Start:      a.Config.Start,
		Count:      a.Config.Count,
		LastDigits: a.Config.LastDigits,
	}
	if source == "uint64" {
		h.Overflow = a.Config.Overflow
	}
	return h
}

// progressReporter picks the reporter of a streaming run. Terms printed to
// a terminal already show progress, so the bar is drawn only when out is
// redirected.
func (a *Application) progressReporter(out io.Writer) orchestration.ProgressReporter {
	if a.Config.Quiet || isTerminal(out) {
		return orchestration.NullProgressReporter{}
	}
	return cli.CLIProgressReporter{}
}

// runSingle streams one backend into the terminal sink and, if requested,
// into the output file.
func (a *Application) runSingle(ctx context.Context, src fibonacci.Source, out io.Writer) int {
	presenter := cli.CLIResultPresenter{}

	stdout, err := cli.NewSink(a.Config.Format, out, cli.SinkOptions{
		Quiet:    a.Config.Quiet,
		Verbose:  a.Config.Verbose,
		PadWidth: a.Config.LastDigits,
		Color:    !a.Config.NoColor && isTerminal(out),
	})
	if err != nil {
		return apperrors.HandleGenerationError(apperrors.NewConfigError("%v", err), 0, a.ErrWriter, cli.CLIColorProvider{})
	}
	sink := cli.MultiSink{stdout}
	if a.Config.OutputFile != "" {
		fs, err := cli.OpenFileSink(a.outputConfig(), a.fileHeader(src.Name()))
		if err != nil {
			fmt.Fprintf(a.ErrWriter, "Error saving sequence: %v\n", err)
			return apperrors.ExitErrorGeneric
		}
		sink = append(sink, fs)
	}

	collector := metrics.NewMemoryCollector()
	before := collector.Snapshot()

	summary, err := orchestration.Generate(ctx, src, orchestration.GenerateOptions{
		Count:    a.Config.Count,
		Interval: a.Config.Interval,
		Buffer:   a.Config.Buffer,
	}, sink, a.progressReporter(out), a.ErrWriter)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = apperrors.TimeoutError{Operation: "generate", Limit: a.Config.Timeout, Cause: err}
		}
		return presenter.HandleError(err, summary.Duration, a.ErrWriter)
	}

	presenter.PresentSummary(summary, a.presentationOptions(), a.ErrWriter)
	if a.Config.Verbose && !a.Config.Quiet {
		rs := metrics.Diff(before, collector.Snapshot())
		rs.ResidentSet = sysmon.Sample().RSS
		cli.DisplayRunStats(rs, a.ErrWriter)
	}
	if a.Config.OutputFile != "" && !a.Config.Quiet {
		cli.DisplaySavedFile(a.ErrWriter, a.Config.OutputFile)
	}
	return apperrors.ExitSuccess
}

// runComparison runs every backend concurrently, checks that they agree
// and prints the comparison table. The sequence itself is only written
// to the output file.
func (a *Application) runComparison(ctx context.Context, sources []fibonacci.Source, out io.Writer) int {
	var reporter orchestration.ProgressReporter = cli.CLIProgressReporter{}
	progressOut := a.ErrWriter
	if a.Config.Quiet {
		reporter, progressOut = orchestration.NullProgressReporter{}, io.Discard
	}

	results := orchestration.ExecuteComparison(ctx, sources, a.Config.Count, reporter, progressOut)
	presenter := cli.CLIResultPresenter{}
	code := orchestration.AnalyzeComparison(results, a.presentationOptions(), presenter, presenter, out)
	if code != apperrors.ExitSuccess || a.Config.OutputFile == "" {
		return code
	}

	// AnalyzeComparison puts the fastest successful backend first.
	best := results[0]
	if err := cli.WriteSequenceToFile(best.Terms, a.fileHeader(config.NumericAll), a.outputConfig()); err != nil {
		fmt.Fprintf(a.ErrWriter, "Error saving sequence: %v\n", err)
		return apperrors.ExitErrorGeneric
	}
	if !a.Config.Quiet {
		cli.DisplaySavedFile(out, a.Config.OutputFile)
	}
	return apperrors.ExitSuccess
}
