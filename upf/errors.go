package upf

import (
	"errors"
	"fmt"
)

// Sentinel errors for parsing and document validation.
var (
	// ErrMissingRoot indicates the input has no <UPF ...> root tag.
	ErrMissingRoot = errors.New("missing UPF root tag")

	// ErrMissingSection indicates a required section was not found.
	ErrMissingSection = errors.New("required section missing")

	// ErrMissingAttr indicates a known section lacks a required attribute.
	ErrMissingAttr = errors.New("required attribute missing")

	// ErrMalformedTag indicates a tag could not be parsed (unterminated,
	// stray content, or an unexpected close tag).
	ErrMalformedTag = errors.New("malformed tag")

	// ErrBadNumber indicates a data token failed to parse as a float.
	ErrBadNumber = errors.New("invalid numeric value")

	// ErrLengthMismatch indicates a declared size does not match the number
	// of values actually present.
	ErrLengthMismatch = errors.New("declared size does not match data")

	// ErrMeshMismatch indicates a mesh-indexed section whose extent differs
	// from the document's mesh length.
	ErrMeshMismatch = errors.New("section length does not match mesh size")
)

// ParseError reports a malformed or inconsistent UPF document. It wraps one
// of the sentinel errors above with enough context to point at the offending
// section.
type ParseError struct {
	Section string // Section name, "" when the error is not tied to one
	Line    int    // 1-based input line number, 0 when unknown
	Err     error  // Underlying sentinel error
	Detail  string // Human-readable specifics (expected vs. actual, token)
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	msg := e.Err.Error()
	if e.Detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Detail)
	}
	switch {
	case e.Section != "" && e.Line > 0:
		return fmt.Sprintf("%s: line %d: %s", e.Section, e.Line, msg)
	case e.Section != "":
		return fmt.Sprintf("%s: %s", e.Section, msg)
	case e.Line > 0:
		return fmt.Sprintf("line %d: %s", e.Line, msg)
	default:
		return msg
	}
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// parseErrorf builds a ParseError with a formatted detail message.
func parseErrorf(section string, line int, err error, format string, args ...any) *ParseError {
	return &ParseError{
		Section: section,
		Line:    line,
		Err:     err,
		Detail:  fmt.Sprintf(format, args...),
	}
}
