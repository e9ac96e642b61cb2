package plate

import (
	"errors"
	"fmt"
)

var (
	// ErrParse indicates a value field that is not a decimal number.
	ErrParse = errors.New("plate: malformed numeric field")
	// ErrMissingColumn indicates the header lacks a required column.
	ErrMissingColumn = errors.New("plate: required column missing from header")
	// ErrEmptyDataset indicates the input held a header but no records.
	ErrEmptyDataset = errors.New("plate: dataset has no measurements")

	errNotDecimal = errors.New("not a finite decimal number")
)

// ParseError reports a value field that could not be parsed.
type ParseError struct {
	Line   int
	Column string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("plate: line %d: column %q: cannot parse %q as number: %v", e.Line, e.Column, e.Value, e.Err)
}

// Unwrap lets errors.Is match both ErrParse and the strconv cause.
func (e *ParseError) Unwrap() []error {
	return []error{ErrParse, e.Err}
}
