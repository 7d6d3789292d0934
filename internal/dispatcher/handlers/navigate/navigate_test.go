package navigate

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dshills/ctrlshell/internal/command"
	"github.com/dshills/ctrlshell/internal/dispatcher/execctx"
	"github.com/dshills/ctrlshell/internal/dispatcher/handler"
	"github.com/dshills/ctrlshell/internal/host"
	"github.com/dshills/ctrlshell/internal/project/workspace"
	"github.com/dshills/ctrlshell/internal/viewmgr"
)

func newContext(t *testing.T, dir string) (*execctx.ExecutionContext, *host.Session) {
	t.Helper()
	session := host.NewSession()
	ec := execctx.New().
		WithWindow(session).
		WithViews(viewmgr.NewRegistry(session)).
		WithWorkspace(workspace.New()).
		WithWorkDir(dir)
	return ec, session
}

func TestListDirectory(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	ec, session := newContext(t, root)

	result := NewHandler().Handle(context.Background(), command.Parse("sub"), ec)
	if !result.IsOK() {
		t.Fatalf("Handle() = %v, %v", result.Status, result.Error)
	}
	if result.ChangeDir != sub {
		t.Errorf("ChangeDir = %q, want %q", result.ChangeDir, sub)
	}
	if result.View.Label != sub {
		t.Errorf("label = %q, want %q", result.View.Label, sub)
	}
	v, _ := session.View(result.View.ID)
	if !strings.Contains(v.Text, "|   sub   |") || !strings.Contains(v.Text, "["+sub+"]") {
		t.Errorf("unexpected listing:\n%s", v.Text)
	}
	if session.ActiveView() != result.View.ID {
		t.Error("listing view should be focused")
	}
}

func TestOpenFile(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "notes.txt")
	if err := os.WriteFile(file, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	ec, session := newContext(t, root)

	result := NewHandler().Handle(context.Background(), command.Parse("notes.txt"), ec)
	if !result.IsOK() {
		t.Fatalf("Handle() error = %v", result.Error)
	}
	if !result.View.IsZero() || result.ChangeDir != "" {
		t.Error("opening a file creates no generated view and keeps the directory")
	}
	viewID, _ := result.Data["view"].(string)
	v, ok := session.View(host.ViewID(viewID))
	if !ok || v.Path != file || v.Text != "hello" {
		t.Errorf("unexpected view %+v", v)
	}
}

func TestOpenMissingFileCreatesView(t *testing.T) {
	root := t.TempDir()
	ec, session := newContext(t, root)

	result := NewHandler().Handle(context.Background(), command.Parse("new.go"), ec)
	if !result.IsOK() {
		t.Fatalf("Handle() error = %v", result.Error)
	}
	v, ok := session.View(session.ActiveView())
	if !ok || v.Path != filepath.Join(root, "new.go") || v.Text != "" {
		t.Errorf("unexpected view %+v", v)
	}
}

func TestProjectFolderNameAfterListing(t *testing.T) {
	root := t.TempDir()
	folder := filepath.Join(root, "deep", "alpha")
	if err := os.MkdirAll(folder, 0o755); err != nil {
		t.Fatal(err)
	}
	ec, _ := newContext(t, t.TempDir())
	if _, err := ec.Workspace.AddFolder(context.Background(), folder); err != nil {
		t.Fatal(err)
	}

	// Without the project listing, "alpha" is relative to the work dir.
	result := NewHandler().Handle(context.Background(), command.Parse("alpha"), ec)
	if result.ChangeDir != "" {
		t.Errorf("did not expect a directory change, got %q", result.ChangeDir)
	}

	ec.Previous = viewmgr.GeneratedView{ID: "old", Label: viewmgr.ProjectListingLabel}
	result = NewHandler().Handle(context.Background(), command.Parse("alpha"), ec)
	if result.ChangeDir != folder {
		t.Errorf("ChangeDir = %q, want %q", result.ChangeDir, folder)
	}
}

func TestErrors(t *testing.T) {
	ec, _ := newContext(t, t.TempDir())

	result := NewHandler().Handle(context.Background(), command.Command{Kind: command.KindPath}, ec)
	if !errors.Is(result.Error, handler.ErrMissingArgument) {
		t.Errorf("expected ErrMissingArgument, got %v", result.Error)
	}

	result = NewHandler().Handle(context.Background(), command.Parse("x"), execctx.New())
	if !errors.Is(result.Error, execctx.ErrMissingWindow) {
		t.Errorf("expected ErrMissingWindow, got %v", result.Error)
	}
}
