package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/dshills/ctrlshell/internal/command"
	"github.com/dshills/ctrlshell/internal/config"
	"github.com/dshills/ctrlshell/internal/dispatcher"
	"github.com/dshills/ctrlshell/internal/dispatcher/handlers/fetch"
	"github.com/dshills/ctrlshell/internal/dispatcher/hook"
	"github.com/dshills/ctrlshell/internal/host"
	"github.com/dshills/ctrlshell/internal/integration/process"
	"github.com/dshills/ctrlshell/internal/logging"
	"github.com/dshills/ctrlshell/internal/plugin/lua"
	"github.com/dshills/ctrlshell/internal/project/workspace"
)

// shutdownTimeout bounds how long running shell commands get to exit.
const shutdownTimeout = 2 * time.Second

// bootstrapper handles component initialization with proper cleanup on failure.
type bootstrapper struct {
	app       *Application
	opts      Options
	initOrder []string
}

// newBootstrapper creates a new bootstrapper for the application.
func newBootstrapper(app *Application, opts Options) *bootstrapper {
	return &bootstrapper{
		app:       app,
		opts:      opts,
		initOrder: make([]string, 0, 8),
	}
}

// bootstrap initializes all components in dependency order.
// On failure, it cleans up already-initialized components.
func (b *bootstrapper) bootstrap(ctx context.Context) error {
	steps := []func(context.Context) error{
		b.initConfig,
		b.initLogger,
		b.initDispatcher,
		b.initWorkspace,
		b.initProcesses,
		b.initEvaluator,
		b.initHooks,
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			b.cleanup()
			return err
		}
	}
	return nil
}

// initConfig loads settings and applies command line overrides.
func (b *bootstrapper) initConfig(context.Context) error {
	path := b.opts.ConfigPath
	if path == "" {
		path = config.DefaultPath()
	}

	cfg, err := config.Load(path)
	if err != nil {
		return &InitError{Component: "config", Err: err}
	}

	if b.opts.LogLevel != "" {
		cfg.Log.Level = b.opts.LogLevel
	}
	if b.opts.LogFile != "" {
		cfg.Log.File = b.opts.LogFile
	}
	if b.opts.ProjectFile != "" {
		cfg.Project.File = b.opts.ProjectFile
	}
	if err := cfg.Validate(); err != nil {
		return &InitError{Component: "config", Err: err}
	}

	b.app.config = cfg
	b.initOrder = append(b.initOrder, "config")
	return nil
}

// initLogger opens the log destination. Without a log file, debug logs go
// to the default log path and other levels are discarded.
func (b *bootstrapper) initLogger(context.Context) error {
	out := b.opts.LogOutput
	if out == nil {
		out = io.Discard
		file := b.app.config.Log.File
		if file == "" && b.app.config.Log.Level == "debug" {
			file = config.DefaultLogPath()
		}
		if file != "" {
			f, err := openLogFile(file)
			if err != nil {
				return &InitError{Component: "logger", Err: err}
			}
			b.app.logFile = f
			out = f
		}
	}

	b.app.logger = logging.NewLogger(logging.LoggerConfig{
		Level:  logging.ParseLogLevel(b.app.config.Log.Level),
		Output: out,
		Format: logging.FormatJSON,
	})
	b.initOrder = append(b.initOrder, "logger")
	return nil
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

// initDispatcher creates the session and the dispatcher bound to it.
func (b *bootstrapper) initDispatcher(context.Context) error {
	b.app.session = host.NewSession()

	d := dispatcher.New(dispatcher.DefaultConfig().WithMetrics(), b.app.session)
	d.SetLogger(b.app.logger)
	d.SetSettings(b.app.config)
	d.SetHTTPClient(&http.Client{})

	if b.opts.Dir != "" {
		dir, err := filepath.Abs(b.opts.Dir)
		if err != nil {
			return &InitError{Component: "dispatcher", Err: err}
		}
		info, err := os.Stat(dir)
		if err != nil {
			return &InitError{Component: "dispatcher", Err: err}
		}
		if !info.IsDir() {
			return &InitError{Component: "dispatcher", Err: fmt.Errorf("%s is not a directory", dir)}
		}
		d.SetWorkDir(dir)
	}

	b.app.dispatcher = d
	b.initOrder = append(b.initOrder, "dispatcher")
	return nil
}

// initWorkspace opens the project file, if any, and starts watching it.
func (b *bootstrapper) initWorkspace(ctx context.Context) error {
	ws := workspace.New()
	logger := b.app.logger.WithComponent("workspace")

	if file := b.app.config.Project.File; file != "" {
		if err := ws.Open(ctx, file); err != nil {
			return &InitError{Component: "workspace", Err: err}
		}
		logger.Info("project opened", "file", ws.ProjectFile(), "folders", ws.FolderCount())
	}

	ws.OnChange(func(ev workspace.ChangeEvent) {
		logger.Debug("project changed", "change", ev.Type.String(), "folders", len(ev.Folders))
		b.app.refresh()
	})

	if ws.ProjectFile() != "" && b.app.config.Project.Watch {
		w, err := workspace.Watch(ws, workspace.WithWatchErrorHandler(func(err error) {
			logger.Warn("project watch", "error", err)
		}))
		if err != nil {
			// The project still works without live reload.
			logger.Warn("watch project file", "file", ws.ProjectFile(), "error", err)
		} else {
			b.app.watcher = w
		}
	}

	b.app.workspace = ws
	b.app.dispatcher.SetWorkspace(ws)
	b.initOrder = append(b.initOrder, "workspace")
	return nil
}

// initProcesses creates the shell process supervisor.
func (b *bootstrapper) initProcesses(context.Context) error {
	logger := b.app.logger.WithComponent("process")
	b.app.processes = process.NewSupervisor(
		process.WithOutputLimit(b.app.config.Shell.MaxOutput),
		process.WithProcessExitCallback(func(p *process.Process) {
			logger.Debug("process exited", "id", p.ID, "code", p.ExitCode(), "runtime", p.Runtime())
		}),
	)
	b.app.dispatcher.SetProcesses(b.app.processes)
	b.initOrder = append(b.initOrder, "processes")
	return nil
}

// initEvaluator creates the Lua state used by "=".
func (b *bootstrapper) initEvaluator(context.Context) error {
	b.app.lua = lua.NewState(lua.WithExecutionTimeout(b.app.config.Eval.Timeout.Duration))
	b.app.dispatcher.SetEvaluator(b.app.lua)
	b.initOrder = append(b.initOrder, "lua")
	return nil
}

// initHooks installs the built-in hooks: audit logging, slow command
// warnings, the fetch host policy and command history.
func (b *bootstrapper) initHooks(context.Context) error {
	manager := b.app.dispatcher.EnableHookManager()
	manager.Register(hook.NewAuditHook(b.app.logger.WithComponent("audit")))

	if slow := b.app.config.Log.SlowCommand.Duration; slow > 0 {
		logger := b.app.logger.WithComponent("timing")
		manager.Register(hook.NewTimingHook(func(kind command.Kind, d time.Duration) {
			if d > slow {
				logger.Warn("slow command", "kind", kind.String(), "duration", d, "threshold", slow)
			}
		}))
	}

	manager.Register(hook.NewValidationHook("fetch-hosts", hook.PriorityValidation,
		fetch.AllowHosts(b.app.config.Fetch.AllowedHosts), command.KindFetch))

	b.app.history = hook.NewHistoryHook(hook.DefaultHistorySize)
	manager.Register(b.app.history)

	b.initOrder = append(b.initOrder, "hooks")
	return nil
}

// cleanup performs cleanup in reverse initialization order.
// Called when bootstrap fails partway through.
func (b *bootstrapper) cleanup() {
	for i := len(b.initOrder) - 1; i >= 0; i-- {
		if err := b.app.closeComponent(b.initOrder[i]); err != nil {
			b.app.logger.Warn("cleanup", "component", b.initOrder[i], "error", err)
		}
	}
}

// closeComponent releases a single component.
func (app *Application) closeComponent(component string) error {
	switch component {
	case "logger":
		if app.logFile != nil {
			err := app.logFile.Close()
			app.logFile = nil
			return err
		}
	case "workspace":
		if app.watcher != nil {
			err := app.watcher.Close()
			app.watcher = nil
			return err
		}
	case "processes":
		if app.processes != nil {
			app.processes.Shutdown(shutdownTimeout)
		}
	case "lua":
		if app.lua != nil {
			return app.lua.Close()
		}
	}
	return nil
}
