package orchestration

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/agbru/fibiter/internal/config"
	apperrors "github.com/agbru/fibiter/internal/errors"
	"github.com/agbru/fibiter/internal/fibonacci"
)

// SourcesToRun builds the sources selected by numeric: one backend, or
// every registered backend in sorted order for config.NumericAll.
func SourcesToRun(numeric string, factory *fibonacci.Factory, opts fibonacci.SourceOptions) ([]fibonacci.Source, error) {
	if numeric == config.NumericAll {
		return factory.NewAll(opts)
	}
	src, err := factory.New(numeric, opts)
	if err != nil {
		return nil, err
	}
	return []fibonacci.Source{src}, nil
}

// ExecuteComparison runs every source concurrently for count terms and
// collects their output. A failing source does not stop the others.
func ExecuteComparison(ctx context.Context, sources []fibonacci.Source, count uint64, reporter ProgressReporter, out io.Writer) []SequenceResult {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "orchestration.ExecuteComparison",
		trace.WithAttributes(
			attribute.Int("fibiter.sources", len(sources)),
			attribute.Int64("fibiter.count", int64(count)),
		))
	defer span.End()

	results := make([]SequenceResult, len(sources))
	progressChan := make(chan ProgressUpdate, len(sources)*ProgressBufferSize)

	var displayWg sync.WaitGroup
	displayWg.Add(1)
	go reporter.DisplayProgress(&displayWg, progressChan, len(sources), out)

	var g errgroup.Group
	for i, src := range sources {
		g.Go(func() error {
			start := time.Now()
			terms, err := collect(ctx, src, count, i, progressChan)
			results[i] = SequenceResult{Name: src.Name(), Terms: terms, Duration: time.Since(start), Err: err}
			return nil
		})
	}
	_ = g.Wait()
	close(progressChan)
	displayWg.Wait()

	return results
}

func collect(ctx context.Context, src fibonacci.Source, count uint64, index int, progressChan chan<- ProgressUpdate) ([]fibonacci.Term, error) {
	terms := make([]fibonacci.Term, 0, min(count, 1<<16))
	step := progressStep(count)
	for i := uint64(0); i < count; i++ {
		if err := ctx.Err(); err != nil {
			return terms, err
		}
		t, err := src.Next()
		if err != nil {
			return terms, apperrors.GenerationError{Source: src.Name(), Cause: err}
		}
		terms = append(terms, t)
		if n := i + 1; n%step == 0 || n == count {
			select {
			case progressChan <- ProgressUpdate{SourceIndex: index, Value: float64(n) / float64(count), Index: t.Index}:
			default:
			}
		}
	}
	return terms, nil
}

// Mismatch locates the first term on which two backends disagree.
type Mismatch struct {
	Index       uint64
	Left, Right string
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s and %s disagree at F(%d)", m.Left, m.Right, m.Index)
}

// FindMismatch compares every successful result with the first successful
// one. Results are compared on the terms both produced.
func FindMismatch(results []SequenceResult) (Mismatch, bool) {
	var ref *SequenceResult
	for i := range results {
		r := &results[i]
		if r.Err != nil {
			continue
		}
		if ref == nil {
			ref = r
			continue
		}
		if len(r.Terms) != len(ref.Terms) {
			n := min(len(r.Terms), len(ref.Terms))
			var idx uint64
			if n > 0 {
				idx = ref.Terms[n-1].Index + 1
			}
			return Mismatch{Index: idx, Left: ref.Name, Right: r.Name}, true
		}
		for j := range r.Terms {
			a, b := ref.Terms[j], r.Terms[j]
			if a.Index != b.Index || a.Value.Cmp(b.Value) != 0 {
				return Mismatch{Index: a.Index, Left: ref.Name, Right: r.Name}, true
			}
		}
	}
	return Mismatch{}, false
}

// AnalyzeComparison sorts results (successes first, then by duration),
// presents the comparison table and returns the exit code:
// ExitErrorMismatch when two successful backends disagree, the handler's
// code when every backend failed, ExitSuccess otherwise.
func AnalyzeComparison(results []SequenceResult, opts PresentationOptions, presenter ResultPresenter, handler ErrorHandler, out io.Writer) int {
	sort.SliceStable(results, func(i, j int) bool {
		if (results[i].Err == nil) != (results[j].Err == nil) {
			return results[i].Err == nil
		}
		return results[i].Duration < results[j].Duration
	})

	var firstError error
	successCount := 0
	for _, r := range results {
		if r.Err != nil {
			if firstError == nil {
				firstError = r.Err
			}
			continue
		}
		successCount++
	}

	presenter.PresentComparisonTable(results, out)

	if successCount == 0 {
		fmt.Fprintf(out, "\nGlobal Status: Failure. No backend could produce the sequence.\n")
		return handler.HandleError(firstError, 0, out)
	}

	if m, found := FindMismatch(results); found {
		fmt.Fprintf(out, "\nGlobal Status: CRITICAL ERROR! %s.\n", m)
		return apperrors.ExitErrorMismatch
	}

	fmt.Fprintf(out, "\nGlobal Status: Success. All valid sequences are consistent.\n")
	presenter.PresentSummary(results[0].Summary(), opts, out)
	return apperrors.ExitSuccess
}
