package cli

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/agbru/fibiter/internal/fibonacci"
	"github.com/agbru/fibiter/internal/format"
	"github.com/agbru/fibiter/internal/orchestration"
	"github.com/agbru/fibiter/internal/ui"
)

const (
	// TruncationLimit is the digit count from which text output elides the
	// middle of a value unless verbose.
	TruncationLimit = 100
	// DisplayEdges is the number of digits kept on each side of the elision.
	DisplayEdges = 25
)

// SinkOptions controls how terms are rendered.
type SinkOptions struct {
	// Quiet prints bare values, one per line.
	Quiet bool
	// Verbose disables truncation of long values.
	Verbose bool
	// PadWidth left-pads values with zeros (last-digits mode).
	PadWidth int
	// Color enables ANSI colors in text output.
	Color bool
}

var (
	_ orchestration.Sink = (*TextSink)(nil)
	_ orchestration.Sink = (*JSONSink)(nil)
	_ orchestration.Sink = (*CSVSink)(nil)
	_ orchestration.Sink = MultiSink(nil)
)

// NewSink returns the sink for the named format ("text", "json" or "csv").
func NewSink(name string, w io.Writer, opts SinkOptions) (orchestration.Sink, error) {
	switch name {
	case "text", "":
		return NewTextSink(w, opts), nil
	case "json":
		return NewJSONSink(w, opts), nil
	case "csv":
		return NewCSVSink(w, opts), nil
	default:
		return nil, fmt.Errorf("unknown output format %q", name)
	}
}

func renderValue(t fibonacci.Term, opts SinkOptions) string {
	s := t.Value.String()
	if opts.PadWidth > 0 {
		s = format.PadDigits(s, opts.PadWidth)
	}
	return s
}

// TextSink writes "F(i) = v" lines, or bare values in quiet mode.
type TextSink struct {
	w    *bufio.Writer
	opts SinkOptions
}

func NewTextSink(w io.Writer, opts SinkOptions) *TextSink {
	return &TextSink{w: bufio.NewWriter(w), opts: opts}
}

// WriteTerm writes one line.
func (s *TextSink) WriteTerm(t fibonacci.Term) error {
	v := renderValue(t, s.opts)
	if s.opts.Quiet {
		_, err := fmt.Fprintln(s.w, v)
		return err
	}
	if !s.opts.Verbose && len(v) > TruncationLimit {
		v = format.TruncateDigits(v, DisplayEdges)
	}
	if s.opts.Color {
		_, err := fmt.Fprintf(s.w, "%sF(%d)%s = %s\n", ui.ColorCyan(), t.Index, ui.ColorReset(), v)
		return err
	}
	_, err := fmt.Fprintf(s.w, "F(%d) = %s\n", t.Index, v)
	return err
}

func (s *TextSink) Flush() error { return s.w.Flush() }

// jsonTerm is the wire form of a term. Values are decimal strings so that
// consumers never lose precision.
type jsonTerm struct {
	Index  uint64 `json:"index"`
	Value  string `json:"value"`
	Digits int    `json:"digits"`
}

// JSONSink writes one JSON object per line.
type JSONSink struct {
	w    *bufio.Writer
	enc  *json.Encoder
	opts SinkOptions
}

func NewJSONSink(w io.Writer, opts SinkOptions) *JSONSink {
	bw := bufio.NewWriter(w)
	return &JSONSink{w: bw, enc: json.NewEncoder(bw), opts: opts}
}

func (s *JSONSink) WriteTerm(t fibonacci.Term) error {
	v := renderValue(t, s.opts)
	return s.enc.Encode(jsonTerm{Index: t.Index, Value: v, Digits: t.Digits()})
}

func (s *JSONSink) Flush() error { return s.w.Flush() }

// CSVSink writes an "index,value" header followed by one row per term.
type CSVSink struct {
	w           *csv.Writer
	opts        SinkOptions
	wroteHeader bool
}

func NewCSVSink(w io.Writer, opts SinkOptions) *CSVSink {
	return &CSVSink{w: csv.NewWriter(w), opts: opts}
}

func (s *CSVSink) WriteTerm(t fibonacci.Term) error {
	if !s.wroteHeader {
		if err := s.w.Write([]string{"index", "value"}); err != nil {
			return err
		}
		s.wroteHeader = true
	}
	return s.w.Write([]string{strconv.FormatUint(t.Index, 10), renderValue(t, s.opts)})
}

// Flush writes the header even when no term was written.
func (s *CSVSink) Flush() error {
	if !s.wroteHeader {
		if err := s.w.Write([]string{"index", "value"}); err != nil {
			return err
		}
		s.wroteHeader = true
	}
	s.w.Flush()
	return s.w.Error()
}

// MultiSink fans every term out to several sinks.
type MultiSink []orchestration.Sink

func (m MultiSink) WriteTerm(t fibonacci.Term) error {
	for _, s := range m {
		if err := s.WriteTerm(t); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes every sink and returns the first error.
func (m MultiSink) Flush() error {
	var first error
	for _, s := range m {
		if err := s.Flush(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
