package orchestration

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/agbru/fibiter/internal/errors"
	"github.com/agbru/fibiter/internal/fibonacci"
)

const tracerName = "github.com/agbru/fibiter/internal/orchestration"

// ProgressBufferSize is the capacity of the progress channel. Updates are
// dropped rather than block the pipeline when the reporter falls behind.
const ProgressBufferSize = 16

// DefaultBuffer is used when GenerateOptions.Buffer is zero.
const DefaultBuffer = 64

// GenerateOptions configures a generation run.
type GenerateOptions struct {
	// Count is the number of terms to produce.
	Count uint64
	// Interval, if positive, is the minimum delay between two terms.
	Interval time.Duration
	// Buffer is the capacity of the channel between producer and sink.
	Buffer int
	// Recorder observes every term. Nil means NopRecorder.
	Recorder Recorder
}

// Generate polls src opts.Count times and writes every term to sink.
//
// A producer goroutine polls the source into a buffered channel while the
// caller's sink is fed from a consumer goroutine, so a slow sink never
// stalls the source for longer than the buffer allows. Terms produced
// before a failure are still written and flushed. The returned Summary
// covers what reached the sink, also on error.
//
// Cancellation of ctx stops both goroutines and the context error is
// returned unwrapped. Source failures are wrapped in
// apperrors.GenerationError.
func Generate(ctx context.Context, src fibonacci.Source, opts GenerateOptions, sink Sink, reporter ProgressReporter, out io.Writer) (Summary, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "orchestration.Generate",
		trace.WithAttributes(
			attribute.String("fibiter.source", src.Name()),
			attribute.Int64("fibiter.count", int64(opts.Count)),
		))
	defer span.End()

	rec := opts.Recorder
	if rec == nil {
		rec = NopRecorder{}
	}
	buffer := opts.Buffer
	if buffer <= 0 {
		buffer = DefaultBuffer
	}

	summary := Summary{Source: src.Name()}
	start := time.Now()

	progressChan := make(chan ProgressUpdate, ProgressBufferSize)
	var displayWg sync.WaitGroup
	displayWg.Add(1)
	go reporter.DisplayProgress(&displayWg, progressChan, 1, out)

	g, gctx := errgroup.WithContext(ctx)
	terms := make(chan fibonacci.Term, buffer)

	g.Go(func() error {
		defer close(terms)
		return produce(gctx, src, opts, rec, terms)
	})

	g.Go(func() error {
		step := progressStep(opts.Count)
		for t := range terms {
			if err := sink.WriteTerm(t); err != nil {
				_ = sink.Flush()
				return fmt.Errorf("write F(%d): %w", t.Index, err)
			}
			if summary.Count == 0 {
				summary.FirstIndex = t.Index
			}
			summary.Count++
			summary.LastIndex, summary.Last = t.Index, t.Value
			summary.MaxDigits = max(summary.MaxDigits, t.Digits())
			rec.ObserveTerm(src.Name(), t)

			if summary.Count%step == 0 || summary.Count == opts.Count {
				select {
				case progressChan <- ProgressUpdate{Value: float64(summary.Count) / float64(opts.Count), Index: t.Index}:
				default:
				}
			}
		}
		if err := sink.Flush(); err != nil {
			return fmt.Errorf("flush: %w", err)
		}
		return nil
	})

	err := g.Wait()
	close(progressChan)
	displayWg.Wait()
	summary.Duration = time.Since(start)

	span.SetAttributes(
		attribute.Int64("fibiter.terms_written", int64(summary.Count)),
		attribute.Int("fibiter.max_digits", summary.MaxDigits),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return summary, err
}

// produce polls src into terms until the count is reached, ctx is done or
// the source fails.
func produce(ctx context.Context, src fibonacci.Source, opts GenerateOptions, rec Recorder, terms chan<- fibonacci.Term) error {
	var tick <-chan time.Time
	if opts.Interval > 0 {
		ticker := time.NewTicker(opts.Interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for i := uint64(0); i < opts.Count; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if tick != nil && i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-tick:
			}
		}

		t, err := src.Next()
		if err != nil {
			if apperrors.IsOverflow(err) {
				rec.ObserveOverflow(src.Name())
			}
			return apperrors.GenerationError{Source: src.Name(), Cause: err}
		}

		select {
		case terms <- t:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
