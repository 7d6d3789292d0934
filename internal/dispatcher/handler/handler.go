// Package handler provides the handler interface and types for command dispatch.
package handler

import (
	"context"

	"github.com/dshills/ctrlshell/internal/command"
	"github.com/dshills/ctrlshell/internal/dispatcher/execctx"
)

// Handler executes one kind of command.
type Handler interface {
	// Handle executes the command and returns a result. Errors are reported
	// through the result, never by panicking.
	Handle(ctx context.Context, cmd command.Command, ec *execctx.ExecutionContext) Result
}

// HandlerFunc is a function adapter for the Handler interface.
type HandlerFunc func(ctx context.Context, cmd command.Command, ec *execctx.ExecutionContext) Result

// Handle implements Handler.Handle.
func (f HandlerFunc) Handle(ctx context.Context, cmd command.Command, ec *execctx.ExecutionContext) Result {
	if f == nil {
		return Errorf("handler function is nil")
	}
	return f(ctx, cmd, ec)
}
