package help

import (
	"context"
	"strings"
	"testing"

	"github.com/dshills/ctrlshell/internal/command"
	"github.com/dshills/ctrlshell/internal/dispatcher/execctx"
	"github.com/dshills/ctrlshell/internal/host"
	"github.com/dshills/ctrlshell/internal/viewmgr"
)

func TestHelpShowsEveryUsage(t *testing.T) {
	session := host.NewSession()
	ec := execctx.New().WithWindow(session).WithViews(viewmgr.NewRegistry(session))

	for _, text := range []string{"?", ":help"} {
		result := NewHandler().Handle(context.Background(), command.Parse(text), ec)
		if !result.IsOK() {
			t.Fatalf("%s: %v", text, result.Error)
		}
		if result.View.Label != Label {
			t.Errorf("label = %q", result.View.Label)
		}
		v, _ := session.View(result.View.ID)
		for _, u := range command.Usages() {
			if !strings.Contains(v.Text, u.Syntax) {
				t.Errorf("help is missing %q", u.Syntax)
			}
		}
	}
}

func TestTextAligned(t *testing.T) {
	col := -1
	for _, line := range strings.Split(Text(), "\n") {
		if !strings.HasPrefix(line, "  ") {
			continue
		}
		for _, u := range command.Usages() {
			if strings.HasPrefix(line, "  "+u.Syntax+" ") && strings.HasSuffix(line, u.Description) {
				at := strings.Index(line, u.Description)
				if col >= 0 && at != col {
					t.Errorf("description column %d, want %d: %q", at, col, line)
				}
				col = at
			}
		}
	}
	if col < 0 {
		t.Fatal("no usage rows found")
	}
}
