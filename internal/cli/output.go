// # Naming Conventions
//
//   - Display* functions write formatted output to an [io.Writer].
//   - Format* functions return a string without performing I/O.
//   - Write* and Open* functions deal with files on the filesystem.

package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	apperrors "github.com/agbru/fibiter/internal/errors"
	"github.com/agbru/fibiter/internal/fibonacci"
	"github.com/agbru/fibiter/internal/orchestration"
	"github.com/agbru/fibiter/internal/ui"
)

// OutputConfig holds configuration for file output.
type OutputConfig struct {
	// OutputFile is the path to write to (empty for no file output).
	OutputFile string
	// Format is the sink format used in the file.
	Format string
	// PadWidth left-pads values (last-digits mode).
	PadWidth int
}

// FileHeader describes the run recorded in an output file.
type FileHeader struct {
	Source     string
	Start      uint64
	Count      uint64
	Overflow   string
	LastDigits int
}

// writeHeader writes a comment block. Only the text format carries one so
// that JSON and CSV files stay machine-readable.
func writeHeader(w io.Writer, h FileHeader) error {
	_, err := fmt.Fprintf(w, "# Fibonacci sequence\n# Generated: %s\n# Backend: %s\n# Start: %d\n# Count: %d\n",
		time.Now().Format(time.RFC3339), h.Source, h.Start, h.Count)
	if err != nil {
		return err
	}
	if h.Overflow != "" {
		fmt.Fprintf(w, "# Overflow: %s\n", h.Overflow)
	}
	if h.LastDigits > 0 {
		fmt.Fprintf(w, "# Last digits: %d\n", h.LastDigits)
	}
	_, err = fmt.Fprintln(w)
	return err
}

// FileSink writes terms to a file and closes it on Flush.
type FileSink struct {
	f     *os.File
	inner orchestration.Sink
}

// OpenFileSink creates the output file (and its directory) and writes the
// header. Values are never truncated in files.
func OpenFileSink(cfg OutputConfig, h FileHeader) (*FileSink, error) {
	if dir := filepath.Dir(cfg.OutputFile); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, apperrors.WrapError(err, "failed to create directory %s", dir)
		}
	}
	f, err := os.Create(cfg.OutputFile)
	if err != nil {
		return nil, apperrors.WrapError(err, "failed to create output file")
	}

	if cfg.Format == "" || cfg.Format == "text" {
		if err := writeHeader(f, h); err != nil {
			f.Close()
			return nil, apperrors.WrapError(err, "failed to write header")
		}
	}
	inner, err := NewSink(cfg.Format, f, SinkOptions{Verbose: true, PadWidth: cfg.PadWidth})
	if err != nil {
		f.Close()
		return nil, err
	}
	return &FileSink{f: f, inner: inner}, nil
}

func (s *FileSink) WriteTerm(t fibonacci.Term) error { return s.inner.WriteTerm(t) }

// Flush flushes buffered terms and closes the file.
func (s *FileSink) Flush() error {
	if err := s.inner.Flush(); err != nil {
		s.f.Close()
		return err
	}
	return s.f.Close()
}

// WriteSequenceToFile writes a header block and all terms to
// cfg.OutputFile. It does nothing when no file is configured.
func WriteSequenceToFile(terms []fibonacci.Term, h FileHeader, cfg OutputConfig) error {
	if cfg.OutputFile == "" {
		return nil
	}
	fs, err := OpenFileSink(cfg, h)
	if err != nil {
		return err
	}
	for _, t := range terms {
		if err := fs.WriteTerm(t); err != nil {
			fs.Flush()
			return err
		}
	}
	return fs.Flush()
}

// DisplaySavedFile confirms where the sequence was written.
func DisplaySavedFile(out io.Writer, path string) {
	fmt.Fprintf(out, "\n%s✓ Sequence saved to: %s%s%s\n", ui.ColorGreen(), ui.ColorCyan(), path, ui.ColorReset())
}
