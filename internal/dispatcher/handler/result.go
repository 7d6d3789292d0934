package handler

import (
	"fmt"

	"github.com/dshills/ctrlshell/internal/viewmgr"
)

// ResultStatus indicates the outcome of a command.
type ResultStatus uint8

const (
	// StatusOK indicates successful execution.
	StatusOK ResultStatus = iota
	// StatusNoOp indicates the command had no effect.
	StatusNoOp
	// StatusError indicates an error occurred.
	StatusError
	// StatusCancelled indicates the command was cancelled.
	StatusCancelled
)

// String returns a string representation of the status.
func (s ResultStatus) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNoOp:
		return "no-op"
	case StatusError:
		return "error"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Result represents the outcome of handling a command.
type Result struct {
	// Status indicates the result status.
	Status ResultStatus

	// Error contains any error that occurred.
	Error error

	// Message is an optional status message for display.
	Message string

	// View is the generated view showing the output, if any. For errors it
	// is the error report.
	View viewmgr.GeneratedView

	// ChangeDir is the new session working directory (empty if unchanged).
	ChangeDir string

	// Data holds handler-specific return data.
	Data map[string]any
}

// IsOK returns true if the result indicates success.
func (r Result) IsOK() bool {
	return r.Status == StatusOK
}

// IsError returns true if the result indicates an error.
func (r Result) IsError() bool {
	return r.Status == StatusError
}

// SuccessWithMessage creates a successful result with a message.
func SuccessWithMessage(msg string) Result {
	return Result{Status: StatusOK, Message: msg}
}

// Shown creates a successful result for output displayed in view.
func Shown(view viewmgr.GeneratedView) Result {
	return Result{Status: StatusOK, View: view}
}

// NoOp creates a no-operation result.
func NoOp() Result {
	return Result{Status: StatusNoOp}
}

// Error creates an error result.
func Error(err error) Result {
	return Result{Status: StatusError, Error: err}
}

// Errorf creates an error result with a formatted message.
func Errorf(format string, args ...any) Result {
	return Result{
		Status: StatusError,
		Error:  fmt.Errorf(format, args...),
	}
}

// CancelledWithMessage creates a cancelled result with a message.
func CancelledWithMessage(msg string) Result {
	return Result{Status: StatusCancelled, Message: msg}
}

// WithMessage returns a copy of the result with the specified message.
func (r Result) WithMessage(msg string) Result {
	r.Message = msg
	return r
}

// WithChangeDir returns a copy of the result that moves the working directory.
func (r Result) WithChangeDir(dir string) Result {
	r.ChangeDir = dir
	return r
}

// WithData returns a copy of the result with data added.
func (r Result) WithData(key string, value any) Result {
	if r.Data == nil {
		r.Data = make(map[string]any)
	}
	r.Data[key] = value
	return r
}
