package execctx

import "errors"

// Context validation errors.
var (
	// ErrMissingWindow indicates the host window is required but not set.
	ErrMissingWindow = errors.New("execution context: window is required")

	// ErrMissingViews indicates the view registry is required but not set.
	ErrMissingViews = errors.New("execution context: view registry is required")

	// ErrMissingWorkspace indicates the workspace is required but not set.
	ErrMissingWorkspace = errors.New("execution context: workspace is required")

	// ErrMissingProcesses indicates the process supervisor is required but not set.
	ErrMissingProcesses = errors.New("execution context: process supervisor is required")

	// ErrMissingEvaluator indicates the Lua state is required but not set.
	ErrMissingEvaluator = errors.New("execution context: evaluator is required")
)
