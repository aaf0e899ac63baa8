package patch

import (
	"errors"
	"fmt"
)

// Errors returned by the parser.
var (
	// ErrMalformed matches every *ParseError.
	ErrMalformed = errors.New("malformed patch")

	// ErrNoPatch indicates the input contains no patch.
	ErrNoPatch = errors.New("no patch found")
)

// ParseError describes malformed patch input.
type ParseError struct {
	// Line is the 1-based line number where the error was detected.
	Line int

	// Msg describes the problem.
	Msg string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("%s at line %d", e.Msg, e.Line)
}

// Is implements error matching for ParseError.
func (e *ParseError) Is(target error) bool {
	return target == ErrMalformed
}
