package lua

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// DefaultExecutionTimeout bounds a single evaluation.
const DefaultExecutionTimeout = 2 * time.Second

// State wraps gopher-lua for expression evaluation.
//
// gopher-lua's LState is not goroutine-safe; the mutex serializes every
// access from Go code.
type State struct {
	L *lua.LState

	mu sync.Mutex

	executionTimeout time.Duration

	sandbox *Sandbox

	closed bool
}

// StateOption configures a State.
type StateOption func(*State)

// WithExecutionTimeout sets the execution timeout for evaluations.
// Zero disables the timeout; the caller's context still applies.
func WithExecutionTimeout(d time.Duration) StateOption {
	return func(s *State) {
		s.executionTimeout = d
	}
}

// NewState creates a new sandboxed Lua state.
func NewState(opts ...StateOption) *State {
	state := &State{
		executionTimeout: DefaultExecutionTimeout,
	}
	for _, opt := range opts {
		opt(state)
	}

	L := lua.NewState(lua.Options{
		SkipOpenLibs: true,
	})
	openSafeLibraries(L)

	state.L = L
	state.sandbox = NewSandbox(L)
	state.sandbox.Install()

	return state
}

// Eval evaluates expr and returns its output lines: collected print output
// followed by each returned value rendered with Render.
func (s *State) Eval(ctx context.Context, expr string) ([]string, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, ErrEmptyExpression
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStateClosed
	}

	if s.executionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.executionTimeout)
		defer cancel()
	}

	fn, err := s.L.LoadString("return " + expr)
	if err != nil {
		fn, err = s.L.LoadString(expr)
		if err != nil {
			return nil, newEvalError(expr, err)
		}
	}

	s.L.SetContext(ctx)
	defer s.L.RemoveContext()

	s.sandbox.TakePrinted()
	top := s.L.GetTop()
	s.L.Push(fn)

	if err := s.doWithRecovery(func() error {
		return s.L.PCall(0, lua.MultRet, nil)
	}); err != nil {
		s.L.SetTop(top)
		if ctx.Err() != nil {
			return nil, &EvalError{
				Expr:    expr,
				Message: fmt.Sprintf("execution stopped: %v", ctx.Err()),
				Err:     fmt.Errorf("%w: %w", ErrExecutionTimeout, ctx.Err()),
			}
		}
		return nil, newEvalError(expr, err)
	}

	lines := s.sandbox.TakePrinted()
	for i := top + 1; i <= s.L.GetTop(); i++ {
		lines = append(lines, Render(s.L.Get(i)))
	}
	s.L.SetTop(top)

	return lines, nil
}

// newEvalError strips the traceback from gopher-lua errors.
func newEvalError(expr string, err error) *EvalError {
	msg := err.Error()
	var apiErr *lua.ApiError
	if errors.As(err, &apiErr) && apiErr.Object != nil {
		msg = apiErr.Object.String()
	}
	return &EvalError{Expr: expr, Message: msg, Err: err}
}

// doWithRecovery executes a function with panic recovery.
func (s *State) doWithRecovery(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}

// Close releases all resources associated with the Lua state.
// After Close is called, Eval returns ErrStateClosed.
func (s *State) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.L.Close()
	s.closed = true
	return nil
}
