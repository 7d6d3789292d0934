package lua

import (
	"errors"
	"fmt"
)

// Errors for Lua state operations.
var (
	// ErrStateClosed is returned when operating on a closed state.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrExecutionTimeout is returned when execution times out.
	ErrExecutionTimeout = errors.New("lua execution timeout")

	// ErrEmptyExpression is returned when there is nothing to evaluate.
	ErrEmptyExpression = errors.New("empty expression")
)

// EvalError reports a compile or runtime failure of evaluated code.
type EvalError struct {
	// Expr is the evaluated text.
	Expr string
	// Message is the Lua error message without the stack traceback.
	Message string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *EvalError) Error() string {
	return fmt.Sprintf("lua: %s", e.Message)
}

// Unwrap returns the underlying error.
func (e *EvalError) Unwrap() error {
	return e.Err
}

// Kind names the error in reports.
func (e *EvalError) Kind() string {
	if errors.Is(e.Err, ErrExecutionTimeout) {
		return "LuaTimeout"
	}
	return "LuaError"
}
