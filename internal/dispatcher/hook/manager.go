package hook

import (
	"fmt"
	"slices"
	"sync"

	"github.com/dshills/ctrlshell/internal/command"
	"github.com/dshills/ctrlshell/internal/dispatcher/execctx"
	"github.com/dshills/ctrlshell/internal/dispatcher/handler"
	"github.com/dshills/ctrlshell/internal/dispatcher/report"
)

// Manager holds the registered hooks. It is safe for concurrent use.
type Manager struct {
	mu   sync.RWMutex
	pre  []PreDispatchHook
	post []PostDispatchHook
}

// NewManager creates an empty hook manager.
func NewManager() *Manager {
	return &Manager{}
}

// Register adds h to the pre-dispatch list, the post-dispatch list, or both,
// depending on the interfaces it implements. A hook with the same name in a
// list is replaced.
func (m *Manager) Register(h Hook) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if pre, ok := h.(PreDispatchHook); ok {
		m.pre = replaceOrAppend(m.pre, pre)
		slices.SortStableFunc(m.pre, func(a, b PreDispatchHook) int {
			return b.Priority() - a.Priority()
		})
	}
	if post, ok := h.(PostDispatchHook); ok {
		m.post = replaceOrAppend(m.post, post)
		slices.SortStableFunc(m.post, func(a, b PostDispatchHook) int {
			return a.Priority() - b.Priority()
		})
	}
}

func replaceOrAppend[H Hook](hooks []H, h H) []H {
	for i, existing := range hooks {
		if existing.Name() == h.Name() {
			hooks[i] = h
			return hooks
		}
	}
	return append(hooks, h)
}

// RunPre runs the pre-dispatch hooks that apply to cmd, highest priority
// first, and reports whether the command may proceed. It stops at the first
// hook that cancels. A panicking hook stops the run and is returned as an
// error wrapping a *report.PanicError.
func (m *Manager) RunPre(cmd *command.Command, ctx *execctx.ExecutionContext) (proceed bool, err error) {
	m.mu.RLock()
	hooks := slices.Clone(m.pre)
	m.mu.RUnlock()

	for _, h := range hooks {
		if !appliesTo(h, cmd.Kind) {
			continue
		}
		ok, err := runPre(h, cmd, ctx)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// RunPost runs the post-dispatch hooks that apply to cmd, lowest priority
// first. A panicking hook stops the run and is returned as an error wrapping
// a *report.PanicError.
func (m *Manager) RunPost(cmd *command.Command, ctx *execctx.ExecutionContext, result *handler.Result) error {
	m.mu.RLock()
	hooks := slices.Clone(m.post)
	m.mu.RUnlock()

	for _, h := range hooks {
		if !appliesTo(h, cmd.Kind) {
			continue
		}
		if err := runPost(h, cmd, ctx, result); err != nil {
			return err
		}
	}
	return nil
}

func runPre(h PreDispatchHook, cmd *command.Command, ctx *execctx.ExecutionContext) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pre-dispatch hook %s: %w", h.Name(), report.NewPanicError(r))
		}
	}()
	return h.PreDispatch(cmd, ctx), nil
}

func runPost(h PostDispatchHook, cmd *command.Command, ctx *execctx.ExecutionContext, result *handler.Result) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("post-dispatch hook %s: %w", h.Name(), report.NewPanicError(r))
		}
	}()
	h.PostDispatch(cmd, ctx, result)
	return nil
}
