// Package taskerr defines the error taxonomy shared by the task core.
//
// Every failure the core can produce carries one of a small set of codes,
// so callers (MCP tools, CLI) can decide between "report to the user" and
// "something is actually broken" without string matching.
package taskerr

import (
	"errors"
	"fmt"
)

// Code classifies an error.
type Code int

const (
	// Validation covers dangling references, self-references, cycles,
	// and any other dependency-integrity violation.
	Validation Code = iota + 1
	// NotFound means a task, subtask, or tag does not exist.
	NotFound
	// Conflict means a tag name collision on create, rename, or copy.
	Conflict
	// IO means the backing file is missing (outside first run) or unparsable.
	IO
	// Normalization means an externally generated result could not be
	// reduced to any usable subtask.
	Normalization
	// Internal is everything that should not happen.
	Internal
)

var codeNames = map[Code]string{
	Validation:    "validation",
	NotFound:      "not_found",
	Conflict:      "conflict",
	IO:            "io",
	Normalization: "normalization",
	Internal:      "internal",
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "unknown"
}

// Error is a coded error with an optional wrapped cause.
type Error struct {
	Code Code
	Msg  string
	Err  error
}

// New creates a coded error. underlying may be nil.
func New(code Code, msg string, underlying error) *Error {
	return &Error{Code: code, Msg: msg, Err: underlying}
}

// Errorf creates a coded error with a formatted message and no cause.
func Errorf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("[%s] %s", e.Code, e.Msg)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Msg, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsCode reports whether err (or anything it wraps) carries the given code.
func IsCode(err error, code Code) bool {
	var te *Error
	if errors.As(err, &te) {
		return te.Code == code
	}
	return false
}

// CodeOf returns the code carried by err, or Internal for uncoded errors.
func CodeOf(err error) Code {
	var te *Error
	if errors.As(err, &te) {
		return te.Code
	}
	return Internal
}

// Expected reports whether err is a user-facing failure (anything except
// Internal). MCP tools return these as tool errors rather than transport
// errors.
func Expected(err error) bool {
	var te *Error
	if errors.As(err, &te) {
		return te.Code != Internal
	}
	return false
}
