package execctx

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dshills/ctrlshell/internal/host"
	"github.com/dshills/ctrlshell/internal/project/workspace"
	"github.com/dshills/ctrlshell/internal/viewmgr"
)

func TestNew(t *testing.T) {
	ctx := New()

	if ctx.Config == nil {
		t.Error("expected default config")
	}
	if ctx.Logger == nil {
		t.Error("expected a logger")
	}
	if ctx.Data == nil {
		t.Error("expected Data map to be initialized")
	}
}

func TestValidate(t *testing.T) {
	ctx := New()
	if !errors.Is(ctx.Validate(), ErrMissingWindow) {
		t.Error("expected ErrMissingWindow")
	}

	session := host.NewSession()
	ctx.WithWindow(session)
	if !errors.Is(ctx.Validate(), ErrMissingViews) {
		t.Error("expected ErrMissingViews")
	}

	ctx.WithViews(viewmgr.NewRegistry(session))
	if err := ctx.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
	if !errors.Is(ctx.ValidateForProject(), ErrMissingWorkspace) {
		t.Error("expected ErrMissingWorkspace")
	}

	ctx.WithWorkspace(workspace.New())
	if err := ctx.ValidateForProject(); err != nil {
		t.Errorf("ValidateForProject() = %v", err)
	}
}

func TestShow(t *testing.T) {
	session := host.NewSession()
	ctx := New().WithWindow(session).WithViews(viewmgr.NewRegistry(session))

	view, err := ctx.Show("label", "hello")
	if err != nil {
		t.Fatalf("Show() error = %v", err)
	}
	if view.Label != "label" || view.ID.IsZero() {
		t.Errorf("unexpected view %+v", view)
	}
	if got := ctx.Views.Query(); got != view {
		t.Errorf("Query() = %+v, want %+v", got, view)
	}
	v, ok := session.View(view.ID)
	if !ok || v.Text != "hello" {
		t.Errorf("view text = %q", v.Text)
	}

	if _, err := New().Show("x", "y"); !errors.Is(err, ErrMissingWindow) {
		t.Errorf("expected ErrMissingWindow, got %v", err)
	}
}

func TestResolve(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	ctx := New().WithWorkDir("/work")

	tests := []struct {
		in   string
		want string
	}{
		{"sub", "/work/sub"},
		{"../x", "/x"},
		{"/abs/./p", "/abs/p"},
		{"~", home},
		{"~/docs", filepath.Join(home, "docs")},
		{"~other", "/work/~other"},
	}
	for _, tt := range tests {
		if got := ctx.Resolve(tt.in); got != tt.want {
			t.Errorf("Resolve(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestData(t *testing.T) {
	ctx := &ExecutionContext{}
	if _, ok := ctx.GetData("k"); ok {
		t.Error("expected no data")
	}
	ctx.SetData("k", "v")
	ctx.SetData("n", 1)
	if ctx.GetDataString("k") != "v" {
		t.Error("GetDataString(k) mismatch")
	}
	if ctx.GetDataString("n") != "" {
		t.Error("non-string values read as empty")
	}
}
