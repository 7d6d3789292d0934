package viewmgr_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/dshills/ctrlshell/internal/host"
	"github.com/dshills/ctrlshell/internal/viewmgr"
)

func TestCreateThenQuery(t *testing.T) {
	w := host.NewSession()
	r := viewmgr.NewRegistry(w)

	created := r.Create("/tmp")
	if created.IsZero() {
		t.Fatal("expected a tracked view")
	}

	got := r.Query()
	if got != created {
		t.Errorf("Query() = %+v, want %+v", got, created)
	}
	if got.Label != "/tmp" {
		t.Errorf("expected label /tmp, got %q", got.Label)
	}
}

func TestCloseThenQueryReturnsSentinel(t *testing.T) {
	w := host.NewSession()
	r := viewmgr.NewRegistry(w)
	created := r.Create("out")

	closed, err := r.Close()
	if err != nil {
		t.Fatal(err)
	}
	if closed != created {
		t.Errorf("Close() = %+v, want %+v", closed, created)
	}
	if got := r.Query(); !got.IsZero() {
		t.Errorf("expected no tracked view, got %+v", got)
	}
	if _, ok := w.View(created.ID); ok {
		t.Error("expected the window to have closed the view")
	}
	if r.Len() != 0 {
		t.Errorf("expected empty registry, got %d entries", r.Len())
	}
}

func TestCloseWithoutTrackedView(t *testing.T) {
	w := host.NewSession()
	r := viewmgr.NewRegistry(w)

	if _, err := r.Close(); !errors.Is(err, viewmgr.ErrNoTrackedView) {
		t.Errorf("expected ErrNoTrackedView, got %v", err)
	}

	// A view the registry did not create is never closed by it.
	r.Create("generated")
	user := w.NewScratchView("user buffer")

	if got := r.Query(); !got.IsZero() {
		t.Errorf("expected untracked active view, got %+v", got)
	}
	if _, err := r.Close(); !errors.Is(err, viewmgr.ErrNoTrackedView) {
		t.Errorf("expected ErrNoTrackedView, got %v", err)
	}
	if _, ok := w.View(user); !ok {
		t.Error("user view must survive")
	}
}

func TestCloseIfTracked(t *testing.T) {
	w := host.NewSession()
	r := viewmgr.NewRegistry(w)

	closed, err := r.CloseIfTracked()
	if err != nil || !closed.IsZero() {
		t.Errorf("expected no-op, got %+v, %v", closed, err)
	}

	r.Create("out")
	closed, err = r.CloseIfTracked()
	if err != nil {
		t.Fatal(err)
	}
	if closed.Label != "out" {
		t.Errorf("expected to close %q, got %+v", "out", closed)
	}
}

func TestExternalCloseIsForgotten(t *testing.T) {
	w := host.NewSession()
	r := viewmgr.NewRegistry(w)

	first := r.Create("first")
	second := r.Create("second")

	if err := w.CloseView(first.ID); err != nil {
		t.Fatal(err)
	}
	if r.Len() != 1 {
		t.Errorf("expected 1 tracked view after external close, got %d", r.Len())
	}
	if got := r.Query(); got != second {
		t.Errorf("Query() = %+v, want %+v", got, second)
	}
}

func TestManyExternalClosesAreAllForgotten(t *testing.T) {
	tests := []struct {
		name  string
		views int
	}{
		{"few", 3},
		{"more than a small queue", 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := host.NewSession()
			r := viewmgr.NewRegistry(w)

			ids := make([]host.ViewID, 0, tt.views)
			for range tt.views {
				ids = append(ids, r.Create("out").ID)
			}
			// No registry call between the closes, so every id stays queued.
			for _, id := range ids {
				if err := w.CloseView(id); err != nil {
					t.Fatal(err)
				}
			}
			if n := r.Len(); n != 0 {
				t.Errorf("Len() = %d after closing every view, want 0", n)
			}
		})
	}
}

func TestConcurrentForget(t *testing.T) {
	w := host.NewSession()
	r := viewmgr.NewRegistry(w)

	ids := make([]host.ViewID, 0, 100)
	for range 100 {
		ids = append(ids, r.Create("out").ID)
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Forget(id)
		}()
	}
	wg.Wait()

	if n := r.Len(); n != 0 {
		t.Errorf("Len() = %d, want 0", n)
	}
}

func TestProjectListingSentinel(t *testing.T) {
	w := host.NewSession()
	r := viewmgr.NewRegistry(w)

	if (viewmgr.GeneratedView{}).IsProjectListing() {
		t.Error("zero value must not be the project listing")
	}
	if !r.Create(viewmgr.ProjectListingLabel).IsProjectListing() {
		t.Error("expected project listing view")
	}
}
