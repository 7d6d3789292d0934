package dispatcher

import (
	"github.com/dshills/ctrlshell/internal/command"
	"github.com/dshills/ctrlshell/internal/dispatcher/execctx"
	"github.com/dshills/ctrlshell/internal/dispatcher/handler"
	"github.com/dshills/ctrlshell/internal/dispatcher/hook"
)

// runPreHooks runs all pre-dispatch hooks.
// Returns false if any hook cancels the command or panics.
func (d *Dispatcher) runPreHooks(cmd *command.Command, ctx *execctx.ExecutionContext) (bool, error) {
	d.hookMu.RLock()
	manager := d.hookManager
	d.hookMu.RUnlock()

	if manager == nil {
		return true, nil
	}
	return manager.RunPre(cmd, ctx)
}

// runPostHooks runs all post-dispatch hooks.
func (d *Dispatcher) runPostHooks(cmd *command.Command, ctx *execctx.ExecutionContext, result *handler.Result) error {
	d.hookMu.RLock()
	manager := d.hookManager
	d.hookMu.RUnlock()

	if manager == nil {
		return nil
	}
	return manager.RunPost(cmd, ctx, result)
}

// EnableHookManager creates and sets a new hook manager if not already set.
// Returns the hook manager.
func (d *Dispatcher) EnableHookManager() *hook.Manager {
	d.hookMu.Lock()
	defer d.hookMu.Unlock()

	if d.hookManager == nil {
		d.hookManager = hook.NewManager()
	}
	return d.hookManager
}
