package handler

import (
	"errors"
	"fmt"

	"github.com/dshills/ctrlshell/internal/command"
)

// ErrMissingArgument indicates a command was entered without its argument.
var ErrMissingArgument = errors.New("missing argument")

// UsageError reports a command that cannot run as typed.
type UsageError struct {
	Command command.Kind
	Err     error
}

// MissingArgument returns a UsageError for a command entered without its
// argument.
func MissingArgument(kind command.Kind) *UsageError {
	return &UsageError{Command: kind, Err: ErrMissingArgument}
}

// Error implements the error interface.
func (e *UsageError) Error() string {
	if usage := e.Command.Usage(); usage != "" {
		return fmt.Sprintf("%s: %v (usage: %s)", e.Command, e.Err, usage)
	}
	return fmt.Sprintf("%s: %v", e.Command, e.Err)
}

// Unwrap returns the underlying error.
func (e *UsageError) Unwrap() error {
	return e.Err
}

// Kind names the error in reports.
func (e *UsageError) Kind() string { return "UsageError" }
