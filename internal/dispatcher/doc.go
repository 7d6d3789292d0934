// Package dispatcher turns prompt text into command executions.
//
// # Dispatch
//
// Dispatch parses the text with the command package and then:
//
//  1. Closes the active generated view, if there is one, remembering it as
//     the previous view.
//  2. Builds an ExecutionContext with the window, view registry, workspace,
//     settings and working directory.
//  3. Runs pre-dispatch hooks. A hook may rewrite the command or cancel it.
//  4. Routes by command kind with an explicit switch to one of the Handlers.
//  5. Runs the handler, recovering panics when configured to.
//  6. Renders any error into a new generated view labelled with the error
//     kind (see the report package).
//  7. Applies the result's working directory change.
//  8. Runs post-dispatch hooks and records metrics.
//
// Hooks always run under recover. A panicking hook is reported like a
// panicking handler; after a post-dispatch panic the report replaces the
// command's own view.
//
// Dispatch calls are serialized.
//
// # Usage
//
//	session := host.NewSession()
//	d := dispatcher.New(dispatcher.DefaultConfig().WithMetrics(), session)
//	d.SetWorkspace(ws)
//	d.SetProcesses(process.NewSupervisor())
//	d.SetEvaluator(lua.NewState())
//
//	result := d.Dispatch(ctx, "!ls -l")
//
// # Hooks
//
// Hooks are registered on the hook manager. A validation hook can cancel
// commands of chosen kinds:
//
//	hooks := d.EnableHookManager()
//	hooks.Register(hook.NewAuditHook(logger))
//	hooks.Register(hook.NewValidationHook("no-rm", hook.PriorityValidation,
//	    func(cmd *command.Command, ec *execctx.ExecutionContext) error {
//	        if strings.HasPrefix(cmd.Arg, "rm ") {
//	            return errors.New("rm disabled")
//	        }
//	        return nil
//	    }, command.KindShell))
package dispatcher
