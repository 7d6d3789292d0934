// Package eval evaluates Lua expressions for the "=" command.
package eval

import (
	"context"
	"strings"

	"github.com/dshills/ctrlshell/internal/command"
	"github.com/dshills/ctrlshell/internal/dispatcher/execctx"
	"github.com/dshills/ctrlshell/internal/dispatcher/handler"
)

// NoValueText is shown when a chunk returns nothing and prints nothing.
const NoValueText = "(no value)\n"

// Handler evaluates expressions in the context's Lua state.
type Handler struct{}

// NewHandler creates a new eval handler.
func NewHandler() *Handler {
	return &Handler{}
}

// Handle implements handler.Handler.
func (h *Handler) Handle(ctx context.Context, cmd command.Command, ec *execctx.ExecutionContext) handler.Result {
	if err := ec.Validate(); err != nil {
		return handler.Error(err)
	}
	if ec.Lua == nil {
		return handler.Error(execctx.ErrMissingEvaluator)
	}
	if cmd.Arg == "" {
		return handler.Error(handler.MissingArgument(cmd.Kind))
	}

	lines, err := ec.Lua.Eval(ctx, cmd.Arg)
	if err != nil {
		return handler.Error(err)
	}

	text := NoValueText
	if len(lines) > 0 {
		text = strings.Join(lines, "\n") + "\n"
	}
	view, err := ec.Show("= "+cmd.Arg, text)
	if err != nil {
		return handler.Error(err)
	}
	return handler.Shown(view).WithData("values", len(lines))
}
