// Copyright 2020 YourBase Inc.
// SPDX-License-Identifier: BSD-3-Clause

package ini

import (
	"errors"
	"fmt"
)

// Errors returned by tree operations. Use errors.Is to test for them.
var (
	// ErrInvalidArgument is returned when a required input such as a name,
	// path or option value is missing or malformed.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrDuplicateName is returned when adding a section or setting whose name
	// already exists in its owner. Names are compared case-insensitively.
	ErrDuplicateName = errors.New("duplicate name")

	// ErrNotFound is returned when looking up a name that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrOutOfRange is returned for an index outside [0, Len()).
	ErrOutOfRange = errors.New("index out of range")
)

// A ParseError describes a structural problem in a text document. Parsing
// stops at the first ParseError.
type ParseError struct {
	// Line is the 1-based line number where the problem was detected.
	Line int
	// Msg is a human-readable description.
	Msg string
	// Err is an optional underlying error, such as ErrDuplicateName.
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func parseErrorf(line int, format string, args ...interface{}) *ParseError {
	return &ParseError{Line: line, Msg: fmt.Sprintf(format, args...)}
}
