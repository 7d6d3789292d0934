// Package project handles the project folder commands: list, add, remove
// and close.
package project

import (
	"context"
	"fmt"

	"github.com/dshills/ctrlshell/internal/command"
	"github.com/dshills/ctrlshell/internal/dispatcher/execctx"
	"github.com/dshills/ctrlshell/internal/dispatcher/handler"
	"github.com/dshills/ctrlshell/internal/listing"
	"github.com/dshills/ctrlshell/internal/viewmgr"
)

// EmptyProjectText is shown when the project has no folders.
const EmptyProjectText = "No project folders. Add one with \"+ <dir>\".\n"

// Handler implements the project commands.
type Handler struct {
	listing listing.Options
}

// NewHandler creates a new project handler.
func NewHandler() *Handler {
	return &Handler{}
}

// Handle implements handler.Handler.
func (h *Handler) Handle(ctx context.Context, cmd command.Command, ec *execctx.ExecutionContext) handler.Result {
	if err := ec.ValidateForProject(); err != nil {
		return handler.Error(err)
	}

	switch cmd.Kind {
	case command.KindProjectList:
		return h.show(ec, "")
	case command.KindAddFolder:
		return h.add(ctx, cmd, ec)
	case command.KindRemoveFolder:
		return h.remove(ctx, cmd, ec)
	case command.KindCloseProject:
		return h.close(ctx, ec)
	default:
		return handler.Errorf("project: unsupported command %s", cmd.Kind)
	}
}

// show renders every folder's listing into the project listing view.
func (h *Handler) show(ec *execctx.ExecutionContext, msg string) handler.Result {
	text := EmptyProjectText
	if roots := ec.Workspace.Roots(); len(roots) > 0 {
		var err error
		text, err = listing.Directories(roots, h.listing)
		if err != nil {
			return handler.Error(err)
		}
	}

	view, err := ec.Show(viewmgr.ProjectListingLabel, text)
	if err != nil {
		return handler.Error(err)
	}
	return handler.Shown(view).WithMessage(msg)
}

func (h *Handler) add(ctx context.Context, cmd command.Command, ec *execctx.ExecutionContext) handler.Result {
	if cmd.Arg == "" {
		return handler.Error(handler.MissingArgument(cmd.Kind))
	}

	folder, err := ec.Workspace.AddFolder(ctx, ec.Resolve(cmd.Arg))
	if err != nil {
		return handler.Error(err)
	}
	if err := h.persist(ctx, ec); err != nil {
		return handler.Error(err)
	}
	return h.show(ec, "added "+folder.Name)
}

func (h *Handler) remove(ctx context.Context, cmd command.Command, ec *execctx.ExecutionContext) handler.Result {
	if cmd.Arg == "" {
		return handler.Error(handler.MissingArgument(cmd.Kind))
	}

	target := cmd.Arg
	if _, ok := ec.Workspace.FindByName(target); !ok {
		target = ec.Resolve(target)
	}

	folder, err := ec.Workspace.RemoveFolder(ctx, target)
	if err != nil {
		return handler.Error(err)
	}
	if err := h.persist(ctx, ec); err != nil {
		return handler.Error(err)
	}
	return h.show(ec, "removed "+folder.Name)
}

func (h *Handler) close(ctx context.Context, ec *execctx.ExecutionContext) handler.Result {
	n := ec.Workspace.FolderCount()
	if err := ec.Workspace.Close(ctx); err != nil {
		return handler.Error(err)
	}
	return handler.SuccessWithMessage(fmt.Sprintf("project closed (%d folders)", n))
}

// persist writes the folder list back when a project file is attached.
func (h *Handler) persist(ctx context.Context, ec *execctx.ExecutionContext) error {
	if ec.Workspace.ProjectFile() == "" {
		return nil
	}
	if err := ec.Workspace.Persist(ctx); err != nil {
		return fmt.Errorf("save project: %w", err)
	}
	return nil
}
