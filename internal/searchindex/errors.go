package searchindex

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedIndex is returned when the payload is not valid (or is truncated) JSON
	ErrMalformedIndex = errors.New("malformed search index")

	// ErrMissingField is returned when a record lacks a mandatory key
	ErrMissingField = errors.New("missing required field")

	// ErrUnknownCategory is returned for categories outside the enumeration
	ErrUnknownCategory = errors.New("unknown category")

	// ErrInvalidVariable is returned when writing a table whose variable name is not a JavaScript identifier
	ErrInvalidVariable = errors.New("invalid variable name")
)

// ParseError locates a decoding failure within the input
type ParseError struct {
	Offset int64 // byte offset in the original input, -1 when unknown
	Record int   // record position, -1 when the failure is not record-specific
	Err    error
}

func (e *ParseError) Error() string {
	switch {
	case e.Record >= 0:
		return fmt.Sprintf("search index record %d: %v", e.Record, e.Err)
	case e.Offset >= 0:
		return fmt.Sprintf("search index at byte %d: %v", e.Offset, e.Err)
	default:
		return fmt.Sprintf("search index: %v", e.Err)
	}
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
