// Package config parses command-line flags and FIBITER_* environment
// variables into an AppConfig.
package config

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/spf13/pflag"

	apperrors "github.com/agbru/fibiter/internal/errors"
	"github.com/agbru/fibiter/internal/fibonacci"
)

const (
	// EnvPrefix prefixes every environment variable read by this package.
	EnvPrefix = "FIBITER_"

	// NumericAll selects every registered backend and compares their output.
	NumericAll = "all"

	// MaxLastDigits bounds --last-digits.
	MaxLastDigits = 1000

	DefaultCount   = 10
	DefaultNumeric = "uint64"
	DefaultFormat  = "text"
	DefaultTimeout = time.Minute
)

// Formats lists the accepted values of --format.
var Formats = []string{"text", "json", "csv"}

// AppConfig holds the resolved configuration for a single run.
type AppConfig struct {
	// Count is the number of terms to produce.
	Count uint64
	// Start is the index of the first term.
	Start uint64
	// Numeric names the backend ("uint64", "big", ...) or NumericAll.
	Numeric string
	// Overflow is the policy of fixed-width backends: fail, wrap or saturate.
	Overflow string
	// LastDigits, when non-zero, prints every term modulo 10^LastDigits.
	LastDigits int
	Format     string
	OutputFile string
	Quiet      bool
	Verbose    bool
	NoColor    bool
	Timeout    time.Duration
	// Interval paces term production. Zero means as fast as possible.
	Interval time.Duration
	// Buffer is the channel capacity between producer and writer. Zero
	// selects a value from the CPU count.
	Buffer     int
	TUI        bool
	Serve      string
	LogLevel   string
	Completion string
}

// OverflowPolicy returns the parsed overflow policy. It assumes Validate
// has already accepted the configuration.
func (c AppConfig) OverflowPolicy() fibonacci.OverflowPolicy {
	p, _ := fibonacci.ParseOverflowPolicy(c.Overflow)
	return p
}

// Validate checks the semantic consistency of the configuration.
// numerics is the list of registered backend names.
func (c AppConfig) Validate(numerics []string) error {
	if c.Completion != "" {
		return nil
	}
	if c.Count == 0 && !c.TUI && c.Serve == "" {
		return apperrors.NewConfigError("--count must be greater than zero")
	}
	if c.Timeout <= 0 {
		return apperrors.NewConfigError("--timeout must be positive, got %s", c.Timeout)
	}
	if c.Interval < 0 {
		return apperrors.NewConfigError("--interval cannot be negative")
	}
	if c.Buffer < 0 {
		return apperrors.NewConfigError("--buffer cannot be negative")
	}
	if c.Numeric != NumericAll && !slices.Contains(numerics, c.Numeric) {
		return apperrors.NewConfigError("unknown numeric backend %q (available: %s, %s)",
			c.Numeric, strings.Join(numerics, ", "), NumericAll)
	}
	if _, err := fibonacci.ParseOverflowPolicy(c.Overflow); err != nil {
		return err
	}
	if !slices.Contains(Formats, c.Format) {
		return apperrors.NewConfigError("unknown format %q (available: %s)", c.Format, strings.Join(Formats, ", "))
	}
	if c.LastDigits < 0 || c.LastDigits > MaxLastDigits {
		return apperrors.NewConfigError("--last-digits must be between 0 and %d", MaxLastDigits)
	}
	if c.LastDigits > 0 && c.Numeric == NumericAll {
		return apperrors.NewConfigError("--last-digits cannot be combined with --numeric %s", NumericAll)
	}
	if c.TUI && c.Serve != "" {
		return apperrors.NewConfigError("--tui and --serve are mutually exclusive")
	}
	return nil
}

// ParseConfig parses args (without the program name) into an AppConfig.
// Priority is flags, then FIBITER_* variables, then defaults. The returned
// error is pflag.ErrHelp when help was requested.
func ParseConfig(program string, args []string, errWriter io.Writer, numerics []string) (AppConfig, error) {
	fs := pflag.NewFlagSet(program, pflag.ContinueOnError)
	fs.SetOutput(errWriter)
	fs.SortFlags = false

	cfg := AppConfig{}
	fs.Uint64VarP(&cfg.Count, "count", "n", DefaultCount, "Number of terms to produce.")
	fs.Uint64VarP(&cfg.Start, "start", "s", 0, "Index of the first term.")
	fs.StringVarP(&cfg.Numeric, "numeric", "b", DefaultNumeric,
		fmt.Sprintf("Numeric backend (%s, %s).", strings.Join(numerics, ", "), NumericAll))
	fs.StringVar(&cfg.Overflow, "overflow", fibonacci.OverflowFail.String(),
		fmt.Sprintf("uint64 overflow policy (%s).", strings.Join(fibonacci.OverflowPolicyNames, ", ")))
	fs.IntVarP(&cfg.LastDigits, "last-digits", "k", 0, "Print only the last K decimal digits of each term.")
	fs.StringVarP(&cfg.Format, "format", "f", DefaultFormat, "Output format (text, json, csv).")
	fs.StringVarP(&cfg.OutputFile, "output", "o", "", "Also write the sequence to this file.")
	fs.BoolVarP(&cfg.Quiet, "quiet", "q", false, "Print bare values only.")
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", false, "Print full values and runtime statistics.")
	fs.BoolVar(&cfg.NoColor, "no-color", false, "Disable colored output.")
	fs.DurationVar(&cfg.Timeout, "timeout", DefaultTimeout, "Abort the run after this duration.")
	fs.DurationVar(&cfg.Interval, "interval", 0, "Delay between terms.")
	fs.IntVar(&cfg.Buffer, "buffer", 0, "Pipeline buffer size (0 = automatic).")
	fs.BoolVar(&cfg.TUI, "tui", false, "Stream terms into the interactive dashboard.")
	fs.StringVar(&cfg.Serve, "serve", "", "Serve the sequence over HTTP on this address (e.g. :8080).")
	fs.StringVar(&cfg.LogLevel, "log-level", "info", "Log level (debug, info, warn, error).")
	fs.StringVar(&cfg.Completion, "completion", "", "Print a completion script (bash, zsh, fish, powershell).")

	fs.Usage = func() {
		fmt.Fprintf(errWriter, "Usage: %s [flags]\n\n", program)
		fmt.Fprintf(errWriter, "Prints the Fibonacci sequence 0, 1, 1, 2, 3, ...\n\n")
		fmt.Fprintf(errWriter, "Flags:\n%s\n", fs.FlagUsages())
		fmt.Fprintf(errWriter, "Every flag can also be set through %s<NAME>, e.g. %sCOUNT=20.\n", EnvPrefix, EnvPrefix)
	}

	if err := fs.Parse(args); err != nil {
		return AppConfig{}, err
	}
	if fs.NArg() > 0 {
		return AppConfig{}, apperrors.NewConfigError("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	applyEnvOverrides(&cfg, fs)
	cfg = ApplyAdaptiveDefaults(cfg)

	if err := cfg.Validate(numerics); err != nil {
		fmt.Fprintln(errWriter, "Configuration error:", err)
		return AppConfig{}, err
	}
	return cfg, nil
}
