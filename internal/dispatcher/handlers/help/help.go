// Package help shows the command table.
package help

import (
	"context"
	"fmt"
	"strings"

	"github.com/dshills/ctrlshell/internal/command"
	"github.com/dshills/ctrlshell/internal/dispatcher/execctx"
	"github.com/dshills/ctrlshell/internal/dispatcher/handler"
)

// Label is the help view's label.
const Label = "Help"

// Handler shows usage for every prompt form.
type Handler struct{}

// NewHandler creates a new help handler.
func NewHandler() *Handler {
	return &Handler{}
}

// Handle implements handler.Handler.
func (h *Handler) Handle(ctx context.Context, cmd command.Command, ec *execctx.ExecutionContext) handler.Result {
	if err := ec.Validate(); err != nil {
		return handler.Error(err)
	}
	view, err := ec.Show(Label, Text())
	if err != nil {
		return handler.Error(err)
	}
	return handler.Shown(view)
}

// Text renders the usage table with aligned columns.
func Text() string {
	usages := command.Usages()

	width := 0
	for _, u := range usages {
		width = max(width, len(u.Syntax))
	}

	var b strings.Builder
	b.WriteString("Commands\n\n")
	for _, u := range usages {
		fmt.Fprintf(&b, "  %-*s  %s\n", width, u.Syntax, u.Description)
	}
	b.WriteString("\nTab and Shift-Tab switch views. Ctrl-W closes the current view. Ctrl-Q quits.\n")
	return b.String()
}
