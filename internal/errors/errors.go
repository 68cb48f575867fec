package apperrors

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// Application exit codes define the standard exit statuses for the application.
// These codes are used to signal the outcome of the program execution to the OS.
const (
	ExitSuccess       = 0   // Indicates successful execution.
	ExitErrorGeneric  = 1   // Indicates a generic error.
	ExitErrorTimeout  = 2   // Indicates the operation timed out.
	ExitErrorRender   = 3   // Indicates a render pass was aborted by a failed row.
	ExitErrorConfig   = 4   // Indicates a configuration error.
	ExitErrorCanceled = 130 // Indicates the operation was canceled (e.g., SIGINT).
)

// ConfigError represents a user configuration error, such as invalid flags or
// values. It indicates that the application cannot proceed due to incorrect user input.
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

// KernelError reports a numeric failure detected while evaluating the
// escape-time kernel for one row (overflow, NaN, precision exhaustion).
// It fails only the row that produced it.
type KernelError struct {
	// Row is the device row whose evaluation failed.
	Row int
	// Cause is the underlying numeric failure.
	Cause error
}

// Error returns a formatted message naming the failed row.
func (e KernelError) Error() string {
	return fmt.Sprintf("kernel computation failed for row %d: %v", e.Row, e.Cause)
}

// Unwrap returns the numeric failure.
func (e KernelError) Unwrap() error { return e.Cause }

// AdmissionTimeoutError is returned when a submitter waited longer than the
// configured admission timeout for space in a saturated pending queue.
type AdmissionTimeoutError struct {
	// Capacity is the pending-queue capacity that was exhausted.
	Capacity int
	// Limit is the admission timeout that elapsed.
	Limit time.Duration
}

// Error returns a formatted message describing the admission timeout.
func (e AdmissionTimeoutError) Error() string {
	return fmt.Sprintf("admission timed out after %s: pending queue full (capacity %d)", e.Limit, e.Capacity)
}

// DuplicateKeyError is returned when a key is submitted while a previous
// submission under the same key is still pending or unretrieved. It is a
// programming error and aborts the render pass.
type DuplicateKeyError struct {
	// Key is the offending correlation key.
	Key any
}

// Error returns a formatted message naming the duplicate key.
func (e DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate submission for key %v: previous result not yet retrieved", e.Key)
}

// InterruptedError is returned when a caller blocked in Submit or Fetch was
// cancelled before the operation completed.
type InterruptedError struct {
	// Operation names the blocking operation ("submit", "fetch").
	Operation string
	// Cause is the context error that interrupted the wait.
	Cause error
}

// Error returns a formatted message describing the interrupted wait.
func (e InterruptedError) Error() string {
	return fmt.Sprintf("%s interrupted: %v", e.Operation, e.Cause)
}

// Unwrap returns the context error, so errors.Is(err, context.Canceled) holds.
func (e InterruptedError) Unwrap() error { return e.Cause }

// RenderError is the single top-level error of an aborted render pass.
type RenderError struct {
	// Pass is the identifier of the aborted pass.
	Pass string
	// Row is the first row whose retrieval failed.
	Row int
	// Cause is the row failure.
	Cause error
}

// Error returns a formatted message naming the pass and the failed row.
func (e RenderError) Error() string {
	return fmt.Sprintf("render pass %s aborted at row %d: %v", e.Pass, e.Row, e.Cause)
}

// Unwrap returns the row failure.
func (e RenderError) Unwrap() error { return e.Cause }

// TimeoutError represents a run timeout. It captures the operation
// name and the duration limit that was exceeded.
type TimeoutError struct {
	// Operation is the name of the operation that timed out.
	Operation string
	// Limit is the duration after which the operation was considered timed out.
	Limit time.Duration
}

// Error returns a formatted message describing the timeout.
func (e TimeoutError) Error() string {
	return fmt.Sprintf("operation %q timed out after %s", e.Operation, e.Limit)
}

// WrapError wraps an error with additional context using fmt.Errorf and %w.
// This allows the wrapped error to be unwrapped with errors.Unwrap() and
// checked with errors.Is() and errors.As().
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

// ColorProvider supplies the escape sequences used to colorize error output.
// A nil ColorProvider prints without color.
type ColorProvider interface {
	Red() string
	Yellow() string
	Reset() string
}

// HandleRenderError prints a render failure and maps it to an exit code.
//
// Parameters:
//   - err: The error returned by the render pass (may be nil).
//   - duration: How long the pass ran before failing.
//   - out: The writer for the message.
//   - colors: Optional color provider.
//
// Returns:
//   - int: The exit code matching the error class.
func HandleRenderError(err error, duration time.Duration, out io.Writer, colors ColorProvider) int {
	if err == nil {
		return ExitSuccess
	}
	red, yellow, reset := "", "", ""
	if colors != nil {
		red, yellow, reset = colors.Red(), colors.Yellow(), colors.Reset()
	}

	var renderErr RenderError
	var configErr ConfigError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		fmt.Fprintf(out, "%sRender timed out after %s%s\n", yellow, duration, reset)
		return ExitErrorTimeout
	case errors.Is(err, context.Canceled):
		fmt.Fprintf(out, "%sRender canceled after %s%s\n", yellow, duration, reset)
		return ExitErrorCanceled
	case errors.As(err, &configErr):
		fmt.Fprintf(out, "%sConfiguration error: %v%s\n", red, err, reset)
		return ExitErrorConfig
	case errors.As(err, &renderErr):
		fmt.Fprintf(out, "%sRender failed: %v%s\n", red, err, reset)
		return ExitErrorRender
	default:
		fmt.Fprintf(out, "%sError: %v%s\n", red, err, reset)
		return ExitErrorGeneric
	}
}
