// Package dispatcher routes prompt text to command handlers and coordinates
// execution.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/dshills/ctrlshell/internal/command"
	"github.com/dshills/ctrlshell/internal/config"
	"github.com/dshills/ctrlshell/internal/dispatcher/execctx"
	"github.com/dshills/ctrlshell/internal/dispatcher/handler"
	"github.com/dshills/ctrlshell/internal/dispatcher/handlers/eval"
	"github.com/dshills/ctrlshell/internal/dispatcher/handlers/fetch"
	"github.com/dshills/ctrlshell/internal/dispatcher/handlers/help"
	"github.com/dshills/ctrlshell/internal/dispatcher/handlers/navigate"
	"github.com/dshills/ctrlshell/internal/dispatcher/handlers/project"
	"github.com/dshills/ctrlshell/internal/dispatcher/handlers/shell"
	"github.com/dshills/ctrlshell/internal/dispatcher/hook"
	"github.com/dshills/ctrlshell/internal/dispatcher/report"
	"github.com/dshills/ctrlshell/internal/host"
	"github.com/dshills/ctrlshell/internal/integration/process"
	"github.com/dshills/ctrlshell/internal/logging"
	"github.com/dshills/ctrlshell/internal/plugin/lua"
	"github.com/dshills/ctrlshell/internal/project/workspace"
	"github.com/dshills/ctrlshell/internal/viewmgr"
)

// Handlers holds one handler per command family. A nil entry makes its
// commands fail with ErrNoHandler.
type Handlers struct {
	Navigate handler.Handler
	Project  handler.Handler
	Shell    handler.Handler
	Eval     handler.Handler
	Fetch    handler.Handler
	Help     handler.Handler
}

// DefaultHandlers returns the built-in handlers.
func DefaultHandlers() Handlers {
	return Handlers{
		Navigate: navigate.NewHandler(),
		Project:  project.NewHandler(),
		Shell:    shell.NewHandler(),
		Eval:     eval.NewHandler(),
		Fetch:    fetch.NewHandler(),
		Help:     help.NewHandler(),
	}
}

// Dispatcher routes commands to handlers and coordinates execution.
//
// Dispatch calls are serialized: one command runs at a time, so the view
// registry and the working directory only change under the dispatch lock.
type Dispatcher struct {
	// mu serializes Dispatch and guards the fields below it.
	mu sync.Mutex

	window   host.Window
	views    *viewmgr.Registry
	handlers Handlers
	workDir  string

	// Subsystems handed to handlers
	workspace *workspace.Workspace
	settings  *config.Config
	processes *process.Supervisor
	lua       *lua.State
	http      *http.Client
	logger    *logging.Logger

	// Configuration
	config Config

	// Metrics
	metrics *Metrics

	// Hook manager for priority-based hooks
	hookMu      sync.RWMutex
	hookManager *hook.Manager
}

// New creates a dispatcher for window. The dispatcher owns a fresh view
// registry bound to the window and starts in the process working directory.
func New(config Config, window host.Window) *Dispatcher {
	d := &Dispatcher{
		window:   window,
		views:    viewmgr.NewRegistry(window),
		handlers: DefaultHandlers(),
		config:   config,
		logger:   logging.Nop(),
	}
	if wd, err := os.Getwd(); err == nil {
		d.workDir = wd
	}

	if config.EnableMetrics {
		d.metrics = NewMetrics()
	}

	return d
}

// SetHandlers replaces the handler set.
func (d *Dispatcher) SetHandlers(h Handlers) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers = h
}

// SetWorkspace sets the project workspace.
func (d *Dispatcher) SetWorkspace(ws *workspace.Workspace) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.workspace = ws
}

// SetSettings sets the loaded settings.
func (d *Dispatcher) SetSettings(cfg *config.Config) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.settings = cfg
}

// SetProcesses sets the shell process supervisor.
func (d *Dispatcher) SetProcesses(s *process.Supervisor) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.processes = s
}

// SetEvaluator sets the Lua state.
func (d *Dispatcher) SetEvaluator(l *lua.State) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lua = l
}

// SetHTTPClient sets the client used for fetches.
func (d *Dispatcher) SetHTTPClient(c *http.Client) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.http = c
}

// SetLogger sets the logger.
func (d *Dispatcher) SetLogger(l *logging.Logger) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if l == nil {
		l = logging.Nop()
	}
	d.logger = l.WithComponent("dispatcher")
}

// SetWorkDir sets the session working directory.
func (d *Dispatcher) SetWorkDir(dir string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.workDir = dir
}

// WorkDir returns the session working directory.
func (d *Dispatcher) WorkDir() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.workDir
}

// Views returns the generated view registry.
func (d *Dispatcher) Views() *viewmgr.Registry {
	return d.views
}

// Metrics returns the metrics collector (may be nil if disabled).
func (d *Dispatcher) Metrics() *Metrics {
	return d.metrics
}

// Dispatch parses text and executes it.
//
// The generated view that is active when the command arrives is closed
// first. Errors, including recovered panics, never escape: they are rendered
// into a new generated view labelled with the error kind, and the returned
// result carries both the error and that view.
func (d *Dispatcher) Dispatch(ctx context.Context, text string) handler.Result {
	cmd := command.Parse(text)
	if cmd.Kind == command.KindNone {
		return handler.NoOp()
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	startTime := time.Now()

	previous, err := d.views.CloseIfTracked()
	if err != nil {
		d.logger.Warn("close previous view", "view", string(previous.ID), "error", err)
	}

	ec := d.buildContext(previous)

	var result handler.Result
	proceed, err := d.runPreHooks(&cmd, ec)
	switch {
	case err != nil:
		result = d.hookFailed(err)
	case !proceed:
		msg := ec.GetDataString(hook.ValidationErrorKey)
		if msg == "" {
			msg = "cancelled by hook"
		}
		result = handler.CancelledWithMessage(msg)
	default:
		result = d.execute(ctx, cmd, ec)
	}

	if result.IsError() {
		result = d.showReport(result, ec)
	}

	// Process result (working directory)
	d.processResult(result)

	// Run post-dispatch hooks. A failure replaces whatever the command
	// showed with the report.
	if err := d.runPostHooks(&cmd, ec, &result); err != nil {
		if _, cerr := d.views.CloseIfTracked(); cerr != nil {
			d.logger.Warn("close view before hook report", "error", cerr)
		}
		result = d.showReport(d.hookFailed(err), ec)
	}

	duration := time.Since(startTime)
	if d.metrics != nil {
		d.metrics.RecordDispatch(cmd.Kind.String(), duration, result.Status)
	}
	d.log(cmd, result, duration)

	return result
}

// route selects the handler for a command kind.
func (d *Dispatcher) route(kind command.Kind) (handler.Handler, error) {
	var h handler.Handler
	switch kind {
	case command.KindPath:
		h = d.handlers.Navigate
	case command.KindProjectList, command.KindAddFolder, command.KindRemoveFolder, command.KindCloseProject:
		h = d.handlers.Project
	case command.KindShell:
		h = d.handlers.Shell
	case command.KindEval:
		h = d.handlers.Eval
	case command.KindFetch:
		h = d.handlers.Fetch
	case command.KindHelp:
		h = d.handlers.Help
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, kind)
	}
	if h == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoHandler, kind)
	}
	return h, nil
}

// execute routes and runs a command.
func (d *Dispatcher) execute(ctx context.Context, cmd command.Command, ec *execctx.ExecutionContext) handler.Result {
	h, err := d.route(cmd.Kind)
	if err != nil {
		return handler.Error(err)
	}
	if d.config.RecoverFromPanic {
		return d.executeWithRecovery(ctx, h, cmd, ec)
	}
	return h.Handle(ctx, cmd, ec)
}

// executeWithRecovery executes a handler with panic recovery.
func (d *Dispatcher) executeWithRecovery(ctx context.Context, h handler.Handler, cmd command.Command, ec *execctx.ExecutionContext) (result handler.Result) {
	defer func() {
		if r := recover(); r != nil {
			result = handler.Error(report.NewPanicError(r))

			if d.metrics != nil {
				d.metrics.RecordPanic()
			}
		}
	}()

	return h.Handle(ctx, cmd, ec)
}

// hookFailed turns a hook error into a failed result.
func (d *Dispatcher) hookFailed(err error) handler.Result {
	if d.metrics != nil && report.Kind(err) == report.KindPanic {
		d.metrics.RecordPanic()
	}
	return handler.Error(err)
}

// showReport renders a failed result into an error report view.
func (d *Dispatcher) showReport(result handler.Result, ec *execctx.ExecutionContext) handler.Result {
	if result.Error == nil {
		result.Error = errors.New(result.Message)
	}

	kind := report.Kind(result.Error)
	if d.metrics != nil {
		d.metrics.RecordErrorKind(kind)
	}

	view, err := ec.Show(kind, report.Format(result.Error))
	if err != nil {
		d.logger.Error("show error report", "kind", kind, "error", err)
		return result
	}
	result.View = view
	return result
}

// buildContext builds an execution context from current state.
// Must be called with d.mu held.
func (d *Dispatcher) buildContext(previous viewmgr.GeneratedView) *execctx.ExecutionContext {
	ec := execctx.New().
		WithWindow(d.window).
		WithViews(d.views).
		WithWorkspace(d.workspace).
		WithWorkDir(d.workDir)
	if d.settings != nil {
		ec.Config = d.settings
	}
	ec.Processes = d.processes
	ec.Lua = d.lua
	ec.HTTP = d.http
	ec.Logger = d.logger
	ec.Previous = previous
	return ec
}

// processResult applies the side effects a result asks for.
// Must be called with d.mu held.
func (d *Dispatcher) processResult(result handler.Result) {
	if result.ChangeDir != "" {
		d.workDir = result.ChangeDir
	}
}

func (d *Dispatcher) log(cmd command.Command, result handler.Result, duration time.Duration) {
	args := []any{
		"kind", cmd.Kind.String(),
		"status", result.Status.String(),
		"duration", duration,
	}
	if result.IsError() {
		d.logger.Warn("command failed", append(args, "error", result.Error)...)
	} else {
		d.logger.Debug("command dispatched", args...)
	}
}
