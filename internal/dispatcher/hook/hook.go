package hook

import (
	"slices"

	"github.com/dshills/ctrlshell/internal/command"
	"github.com/dshills/ctrlshell/internal/dispatcher/execctx"
	"github.com/dshills/ctrlshell/internal/dispatcher/handler"
)

// Hook is the base interface for all dispatch hooks.
type Hook interface {
	// Name identifies the hook. Registering a second hook with the same
	// name replaces the first.
	Name() string

	// Priority orders hooks. Higher values run first before dispatch and
	// last after it.
	Priority() int
}

// PreDispatchHook runs before a command is routed. It may rewrite the
// command; returning false cancels it.
type PreDispatchHook interface {
	Hook
	PreDispatch(cmd *command.Command, ctx *execctx.ExecutionContext) bool
}

// PostDispatchHook runs after the command's result, including any error
// report, is known. It may modify the result.
type PostDispatchHook interface {
	Hook
	PostDispatch(cmd *command.Command, ctx *execctx.ExecutionContext, result *handler.Result)
}

// KindFilter is implemented by hooks that only apply to some command kinds.
// An empty list applies to every kind.
type KindFilter interface {
	Kinds() []command.Kind
}

// appliesTo reports whether h runs for commands of kind.
func appliesTo(h Hook, kind command.Kind) bool {
	f, ok := h.(KindFilter)
	if !ok {
		return true
	}
	kinds := f.Kinds()
	return len(kinds) == 0 || slices.Contains(kinds, kind)
}
