package apperrors

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// Application exit codes define the standard exit statuses for the application.
const (
	ExitSuccess       = 0   // Indicates successful execution.
	ExitErrorGeneric  = 1   // Indicates a generic error.
	ExitErrorTimeout  = 2   // Indicates the operation timed out.
	ExitErrorMismatch = 3   // Indicates two backends disagreed on a term.
	ExitErrorConfig   = 4   // Indicates a configuration error.
	ExitErrorCanceled = 130 // Indicates the operation was canceled (e.g., SIGINT).
)

// ConfigError represents a user configuration error, such as an invalid flag
// value. The application cannot proceed until the input is corrected.
type ConfigError struct {
	// Message explains the specific configuration error.
	Message string
}

// Error returns the error message for a ConfigError.
func (e ConfigError) Error() string { return e.Message }

// NewConfigError creates a new ConfigError with a formatted message.
//
// Parameters:
//   - format: A format string (see fmt.Sprintf).
//   - a: Arguments to be formatted into the string.
//
// Returns:
//   - error: A new ConfigError instance containing the formatted message.
func NewConfigError(format string, a ...any) error {
	return ConfigError{Message: fmt.Sprintf(format, a...)}
}

// GenerationError wraps a failure raised while producing sequence terms and
// records which backend produced it.
type GenerationError struct {
	// Source is the name of the backend that failed.
	Source string
	// Cause is the underlying error.
	Cause error
}

// Error returns the backend name followed by the cause.
func (e GenerationError) Error() string {
	if e.Source == "" {
		return e.Cause.Error()
	}
	return fmt.Sprintf("%s: %v", e.Source, e.Cause)
}

// Unwrap returns the original wrapped error.
func (e GenerationError) Unwrap() error { return e.Cause }

// OverflowError reports that the term at Index does not fit in a Width-bit
// unsigned integer.
type OverflowError struct {
	Index uint64
	Width int
}

// Error returns a formatted message describing the overflow.
func (e *OverflowError) Error() string {
	return fmt.Sprintf("F(%d) overflows uint%d", e.Index, e.Width)
}

// TimeoutError represents a generation timeout. It captures the operation
// name and the duration limit that was exceeded.
type TimeoutError struct {
	// Operation is the name of the operation that timed out.
	Operation string
	// Limit is the duration after which the operation was considered timed out.
	Limit time.Duration
	// Cause is the underlying context error, if any.
	Cause error
}

// Error returns a formatted message describing the timeout.
func (e TimeoutError) Error() string {
	return fmt.Sprintf("operation %q timed out after %s", e.Operation, e.Limit)
}

// Unwrap returns the underlying context error.
func (e TimeoutError) Unwrap() error { return e.Cause }

// ValidationError represents an input validation failure. It identifies which
// field failed validation and provides a human-readable explanation.
type ValidationError struct {
	// Field is the name of the field that failed validation.
	Field string
	// Message explains the validation failure.
	Message string
}

// Error returns a formatted message describing the validation failure.
func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error for %q: %s", e.Field, e.Message)
}

// WrapError wraps an error with additional context using fmt.Errorf and %w.
//
// Parameters:
//   - err: The error to wrap.
//   - format: A format string for the context message.
//   - args: Arguments for the format string.
//
// Returns:
//   - error: The wrapped error, or nil if err is nil.
func WrapError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// IsContextError checks if the error is a context cancellation or deadline exceeded error.
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// IsOverflow reports whether err carries an *OverflowError.
func IsOverflow(err error) bool {
	var oe *OverflowError
	return errors.As(err, &oe)
}

// ColorProvider supplies the ANSI sequences used when printing errors. A nil
// provider prints plain text.
type ColorProvider interface {
	Red() string
	Yellow() string
	Reset() string
}

// ExitCodeFor maps an error to the process exit code without printing.
func ExitCodeFor(err error) int {
	var cfgErr ConfigError
	var valErr ValidationError
	var timeoutErr TimeoutError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &timeoutErr):
		return ExitErrorTimeout
	case errors.Is(err, context.Canceled):
		return ExitErrorCanceled
	case errors.As(err, &cfgErr), errors.As(err, &valErr):
		return ExitErrorConfig
	default:
		return ExitErrorGeneric
	}
}

// HandleGenerationError prints a one-line description of err and returns the
// matching exit code.
//
// Parameters:
//   - err: The error returned by the generation pipeline.
//   - duration: Time spent before the failure (omitted when zero).
//   - out: Destination for the message.
//   - colors: Optional color provider.
//
// Returns:
//   - int: The exit code to report to the OS.
func HandleGenerationError(err error, duration time.Duration, out io.Writer, colors ColorProvider) int {
	if err == nil {
		return ExitSuccess
	}
	red, yellow, reset := "", "", ""
	if colors != nil {
		red, yellow, reset = colors.Red(), colors.Yellow(), colors.Reset()
	}
	suffix := ""
	if duration > 0 {
		suffix = fmt.Sprintf(" after %s", duration)
	}

	code := ExitCodeFor(err)
	switch code {
	case ExitErrorTimeout:
		var te TimeoutError
		if errors.As(err, &te) {
			fmt.Fprintf(out, "%sStatus: Timeout%s%s. The %s limit of %s was reached before the sequence completed.\n", yellow, suffix, reset, te.Operation, te.Limit)
		} else {
			fmt.Fprintf(out, "%sStatus: Timeout%s%s. The deadline was reached before the sequence completed.\n", yellow, suffix, reset)
		}
	case ExitErrorCanceled:
		fmt.Fprintf(out, "%sStatus: Canceled%s%s.\n", yellow, suffix, reset)
	case ExitErrorConfig:
		fmt.Fprintf(out, "%sConfiguration error: %v%s\n", red, err, reset)
	default:
		if IsOverflow(err) {
			fmt.Fprintf(out, "%sStatus: Overflow%s. %v (use --numeric big or --overflow wrap).%s\n", red, suffix, err, reset)
		} else {
			fmt.Fprintf(out, "%sStatus: Failure%s. %v%s\n", red, suffix, err, reset)
		}
	}
	return code
}
