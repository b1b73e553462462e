package trim

import (
	"errors"
	"fmt"
)

// Sentinel errors for mesh truncation.
var (
	// ErrInvalidMeshSize indicates a target mesh size of zero or less.
	ErrInvalidMeshSize = errors.New("target mesh size must be positive")

	// ErrInconsistentMesh indicates a mesh-indexed section whose extent
	// disagrees with the header mesh size, so no section can be cut safely.
	ErrInconsistentMesh = errors.New("section length disagrees with header mesh size")
)

// TruncationError reports why a document could not be trimmed. The document
// is guaranteed untouched when one is returned.
type TruncationError struct {
	Section string // Section name, "" when the error is not tied to one
	Err     error  // Underlying sentinel error
	Detail  string // Human-readable specifics (expected vs. actual)
}

// Error implements the error interface.
func (e *TruncationError) Error() string {
	msg := e.Err.Error()
	if e.Detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Detail)
	}
	if e.Section != "" {
		return fmt.Sprintf("%s: %s", e.Section, msg)
	}
	return msg
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *TruncationError) Unwrap() error {
	return e.Err
}

// truncErrorf builds a TruncationError with a formatted detail message.
func truncErrorf(section string, err error, format string, args ...any) *TruncationError {
	return &TruncationError{
		Section: section,
		Err:     err,
		Detail:  fmt.Sprintf(format, args...),
	}
}
