// Package execctx provides the execution context for command handlers.
package execctx

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/dshills/ctrlshell/internal/config"
	"github.com/dshills/ctrlshell/internal/host"
	"github.com/dshills/ctrlshell/internal/integration/process"
	"github.com/dshills/ctrlshell/internal/logging"
	"github.com/dshills/ctrlshell/internal/plugin/lua"
	"github.com/dshills/ctrlshell/internal/project/workspace"
	"github.com/dshills/ctrlshell/internal/viewmgr"
)

// ExecutionContext provides context for command execution.
// It contains references to every subsystem handlers may need.
type ExecutionContext struct {
	// Window is the host object model.
	Window host.Window

	// Views tracks generated views.
	Views *viewmgr.Registry

	// Workspace holds the project folders.
	Workspace *workspace.Workspace

	// Config holds the loaded settings. Never nil after New.
	Config *config.Config

	// Processes runs shell commands.
	Processes *process.Supervisor

	// Lua evaluates expressions.
	Lua *lua.State

	// HTTP performs fetches.
	HTTP *http.Client

	// Logger is scoped to the dispatch.
	Logger *logging.Logger

	// WorkDir is the session working directory.
	WorkDir string

	// Previous is the generated view that was active when the command was
	// entered. It has already been closed.
	Previous viewmgr.GeneratedView

	// Data holds hook-specific context data.
	Data map[string]any
}

// New creates a new execution context.
func New() *ExecutionContext {
	return &ExecutionContext{
		Config: config.Default(),
		Logger: logging.Nop(),
		Data:   make(map[string]any),
	}
}

// WithWindow returns the context with the window set.
func (ctx *ExecutionContext) WithWindow(w host.Window) *ExecutionContext {
	ctx.Window = w
	return ctx
}

// WithViews returns the context with the view registry set.
func (ctx *ExecutionContext) WithViews(views *viewmgr.Registry) *ExecutionContext {
	ctx.Views = views
	return ctx
}

// WithWorkspace returns the context with the workspace set.
func (ctx *ExecutionContext) WithWorkspace(ws *workspace.Workspace) *ExecutionContext {
	ctx.Workspace = ws
	return ctx
}

// WithWorkDir returns the context with the working directory set.
func (ctx *ExecutionContext) WithWorkDir(dir string) *ExecutionContext {
	ctx.WorkDir = dir
	return ctx
}

// Show creates a generated view labelled label and fills it with text.
func (ctx *ExecutionContext) Show(label, text string) (viewmgr.GeneratedView, error) {
	if ctx.Window == nil {
		return viewmgr.GeneratedView{}, ErrMissingWindow
	}
	if ctx.Views == nil {
		return viewmgr.GeneratedView{}, ErrMissingViews
	}
	view := ctx.Views.Create(label)
	if err := ctx.Window.InsertText(view.ID, 0, text); err != nil {
		return view, err
	}
	return view, nil
}

// Resolve expands a leading "~" and makes path absolute against WorkDir.
func (ctx *ExecutionContext) Resolve(path string) string {
	path = ExpandHome(path)
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	base := ctx.WorkDir
	if base == "" {
		if wd, err := os.Getwd(); err == nil {
			base = wd
		}
	}
	return filepath.Join(base, path)
}

// ExpandHome replaces a leading "~" or "~/" with the user's home directory.
// Other forms, such as "~user", are returned unchanged.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

// SetData sets a context data value.
func (ctx *ExecutionContext) SetData(key string, value any) {
	if ctx.Data == nil {
		ctx.Data = make(map[string]any)
	}
	ctx.Data[key] = value
}

// GetData retrieves a context data value.
func (ctx *ExecutionContext) GetData(key string) (any, bool) {
	if ctx.Data == nil {
		return nil, false
	}
	v, ok := ctx.Data[key]
	return v, ok
}

// GetDataString retrieves a string value from context data.
func (ctx *ExecutionContext) GetDataString(key string) string {
	if v, ok := ctx.GetData(key); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Validate checks that the context has the components every handler needs.
func (ctx *ExecutionContext) Validate() error {
	if ctx.Window == nil {
		return ErrMissingWindow
	}
	if ctx.Views == nil {
		return ErrMissingViews
	}
	return nil
}

// ValidateForProject checks that the context can run project commands.
func (ctx *ExecutionContext) ValidateForProject() error {
	if err := ctx.Validate(); err != nil {
		return err
	}
	if ctx.Workspace == nil {
		return ErrMissingWorkspace
	}
	return nil
}
