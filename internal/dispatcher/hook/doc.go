// Package hook runs prioritized callbacks around command dispatch.
//
// Pre-dispatch hooks run before a command is routed, highest priority first,
// and may rewrite or cancel it. Post-dispatch hooks run once the result is
// known, lowest priority first, so high priority hooks see the final result.
// A hook that implements KindFilter only sees the command kinds it lists.
//
// The Manager recovers panics in hooks and returns them as errors wrapping a
// *report.PanicError; the remaining hooks of that phase are skipped.
//
// # Built-in Hooks
//
//	manager := hook.NewManager()
//	manager.Register(hook.NewAuditHook(logger))
//	manager.Register(hook.NewTimingHook(func(kind command.Kind, d time.Duration) {
//	    ...
//	}))
//	history := hook.NewHistoryHook(hook.DefaultHistorySize)
//	manager.Register(history)
package hook
