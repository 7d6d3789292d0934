// Package app wires ctrlshell's components together and manages the
// application lifecycle.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/ctrlshell/internal/config"
	"github.com/dshills/ctrlshell/internal/dispatcher"
	"github.com/dshills/ctrlshell/internal/dispatcher/handler"
	"github.com/dshills/ctrlshell/internal/dispatcher/hook"
	"github.com/dshills/ctrlshell/internal/host"
	"github.com/dshills/ctrlshell/internal/integration/process"
	"github.com/dshills/ctrlshell/internal/logging"
	"github.com/dshills/ctrlshell/internal/plugin/lua"
	"github.com/dshills/ctrlshell/internal/project/workspace"
	"github.com/dshills/ctrlshell/internal/ui"
)

// Options configures the application.
type Options struct {
	// ConfigPath is the TOML settings file. Empty uses config.DefaultPath.
	ConfigPath string

	// ProjectFile overrides project.file from the settings.
	ProjectFile string

	// Dir is the starting working directory. Empty uses the process one.
	Dir string

	// LogLevel overrides log.level from the settings.
	LogLevel string

	// LogFile overrides log.file from the settings.
	LogFile string

	// LogOutput receives log records instead of the log file.
	LogOutput io.Writer
}

// Application is the central coordinator for all ctrlshell components.
type Application struct {
	mu sync.Mutex

	config     *config.Config
	logger     *logging.Logger
	logFile    *os.File
	session    *host.Session
	dispatcher *dispatcher.Dispatcher
	workspace  *workspace.Workspace
	watcher    *workspace.Watcher
	processes  *process.Supervisor
	lua        *lua.State
	history    *hook.HistoryHook

	// ui is set while Run is active.
	ui *ui.UI

	running      atomic.Bool
	shutdownOnce sync.Once
	shutdownErr  error
	closed       atomic.Bool
}

// New creates an Application. Call Shutdown when done with it.
func New(ctx context.Context, opts Options) (*Application, error) {
	app := &Application{logger: logging.Nop()}
	if err := newBootstrapper(app, opts).bootstrap(ctx); err != nil {
		return nil, err
	}
	app.logger.Info("started", "workdir", app.dispatcher.WorkDir())
	return app, nil
}

// Config returns the effective settings.
func (app *Application) Config() *config.Config {
	return app.config
}

// Dispatcher returns the command dispatcher.
func (app *Application) Dispatcher() *dispatcher.Dispatcher {
	return app.dispatcher
}

// Session returns the host session holding the views.
func (app *Application) Session() *host.Session {
	return app.session
}

// Workspace returns the project workspace.
func (app *Application) Workspace() *workspace.Workspace {
	return app.workspace
}

// History returns the entered command lines, oldest first.
func (app *Application) History() []string {
	return app.history.Entries()
}

// IsRunning reports whether the interactive UI is active.
func (app *Application) IsRunning() bool {
	return app.running.Load()
}

// Exec dispatches a single command line.
func (app *Application) Exec(ctx context.Context, text string) handler.Result {
	if app.closed.Load() {
		return handler.Error(ErrShutdown)
	}
	return app.dispatcher.Dispatch(ctx, text)
}

// ActiveText returns the text of the focused view, or "" when there is none.
func (app *Application) ActiveText() string {
	v, ok := app.session.View(app.session.ActiveView())
	if !ok {
		return ""
	}
	return v.Text
}

// Run opens the terminal and runs the interactive UI until the user quits
// or ctx ends.
func (app *Application) Run(ctx context.Context) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return &InitError{Component: "screen", Err: err}
	}
	return app.RunWithScreen(ctx, screen)
}

// RunWithScreen runs the interactive UI on screen. The screen is initialized
// here and finalized on return.
func (app *Application) RunWithScreen(ctx context.Context, screen tcell.Screen) error {
	if app.closed.Load() {
		return ErrShutdown
	}
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer app.running.Store(false)

	if err := screen.Init(); err != nil {
		return &InitError{Component: "screen", Err: err}
	}
	defer screen.Fini()

	u := ui.New(screen, app.session, app.dispatcher,
		ui.WithHistory(app.history),
		ui.WithLogger(app.logger),
	)
	app.mu.Lock()
	app.ui = u
	app.mu.Unlock()
	defer func() {
		app.mu.Lock()
		app.ui = nil
		app.mu.Unlock()
	}()

	return u.Run(ctx)
}

// refresh redraws the UI after a change made outside the event loop.
func (app *Application) refresh() {
	app.mu.Lock()
	u := app.ui
	app.mu.Unlock()
	if u != nil {
		u.Refresh()
	}
}

// topCommands is how many command kinds the shutdown summary lists.
const topCommands = 3

func summarize(commands []*dispatcher.CommandMetrics, format func(*dispatcher.CommandMetrics) string) []string {
	out := make([]string, len(commands))
	for i, cm := range commands {
		out[i] = format(cm)
	}
	return out
}

// Shutdown releases every component. It is safe to call more than once.
func (app *Application) Shutdown() error {
	app.shutdownOnce.Do(func() {
		app.closed.Store(true)

		if m := app.dispatcher.Metrics(); m != nil {
			snap := m.Snapshot()
			app.logger.Info("shutting down",
				"commands", snap.TotalDispatches,
				"errors", snap.TotalErrors,
				"panics", snap.TotalPanics,
				"average", snap.AverageDuration,
				"top", summarize(m.TopCommands(topCommands), func(cm *dispatcher.CommandMetrics) string {
					return fmt.Sprintf("%s=%d (%.0f%% errors)", cm.Name, cm.DispatchCount, cm.ErrorRate())
				}),
				"slowest", summarize(m.SlowestCommands(topCommands), func(cm *dispatcher.CommandMetrics) string {
					return fmt.Sprintf("%s=%s (max %s)", cm.Name, cm.AverageDuration(), cm.MaxDuration)
				}),
				"error_kinds", m.ErrorKinds(),
			)
		}

		var errs ErrorList
		for _, component := range []string{"workspace", "processes", "lua"} {
			if err := app.closeComponent(component); err != nil {
				errs.Add(&ComponentError{Component: component, Action: "close", Err: err})
			}
		}
		app.logger = logging.Nop()
		if err := app.closeComponent("logger"); err != nil {
			errs.Add(&ComponentError{Component: "logger", Action: "close", Err: err})
		}
		app.shutdownErr = errs.AsError()
	})
	return app.shutdownErr
}
