// Package navigate handles the fall-through command: any text that is not a
// command names a directory to list or a file to open.
package navigate

import (
	"context"
	"os"

	"github.com/dshills/ctrlshell/internal/command"
	"github.com/dshills/ctrlshell/internal/dispatcher/execctx"
	"github.com/dshills/ctrlshell/internal/dispatcher/handler"
	"github.com/dshills/ctrlshell/internal/listing"
)

// Handler lists directories and opens files.
type Handler struct {
	listing listing.Options
}

// NewHandler creates a new navigation handler.
func NewHandler() *Handler {
	return &Handler{}
}

// Handle implements handler.Handler.
func (h *Handler) Handle(ctx context.Context, cmd command.Command, ec *execctx.ExecutionContext) handler.Result {
	if err := ec.Validate(); err != nil {
		return handler.Error(err)
	}
	if cmd.Arg == "" {
		return handler.Error(handler.MissingArgument(command.KindPath))
	}

	target := h.resolve(cmd.Arg, ec)

	info, err := os.Stat(target)
	if err == nil && info.IsDir() {
		return h.list(target, ec)
	}
	return h.open(target, ec)
}

// resolve maps the typed text to an absolute path. Right after the project
// listing, a folder's display name selects that folder.
func (h *Handler) resolve(text string, ec *execctx.ExecutionContext) string {
	if ec.Previous.IsProjectListing() && ec.Workspace != nil {
		if folder, ok := ec.Workspace.FindByName(text); ok {
			return folder.Path
		}
	}
	return ec.Resolve(text)
}

// list shows dir and makes it the working directory.
func (h *Handler) list(dir string, ec *execctx.ExecutionContext) handler.Result {
	text, err := listing.Directory(dir, h.listing)
	if err != nil {
		return handler.Error(err)
	}
	view, err := ec.Show(dir, text)
	if err != nil {
		return handler.Error(err)
	}
	return handler.Shown(view).WithChangeDir(dir)
}

// open opens path in a file view, creating an unsaved view for a missing file.
func (h *Handler) open(path string, ec *execctx.ExecutionContext) handler.Result {
	id, err := ec.Window.OpenFile(path)
	if err != nil {
		return handler.Error(err)
	}
	return handler.SuccessWithMessage("opened " + path).WithData("view", string(id))
}
