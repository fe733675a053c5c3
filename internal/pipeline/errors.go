package pipeline

import (
	"errors"
	"fmt"
	"io/fs"
)

// Errors returned by the pipeline stages. Callers match them with errors.Is.
var (
	ErrMissingColumn  = errors.New("missing required column")
	ErrMalformedValue = errors.New("malformed value")
	ErrEmptyInput     = errors.New("input has no header row")
	ErrInputNotFound  = fmt.Errorf("input file not found: %w", fs.ErrNotExist)
)

// ValueError describes a cell that could not be parsed.
type ValueError struct {
	Line   int
	Column string
	Value  string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("line %d, column %s: cannot parse %q as a number", e.Line, e.Column, e.Value)
}

func (e *ValueError) Unwrap() error { return ErrMalformedValue }
