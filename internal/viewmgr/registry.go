// Package viewmgr tracks the output views generated by commands.
//
// The registry is a two-state machine. In NoTrackedView, the window's active
// view is not one the registry created. In TrackedView(id, label), it is.
// Create always moves to TrackedView; Close is only valid from TrackedView
// and returns to NoTrackedView. The dispatcher closes the tracked view before
// running the next command, so each command's output replaces the last.
package viewmgr

import (
	"errors"
	"sync"

	"github.com/dshills/ctrlshell/internal/host"
)

// ProjectListingLabel labels the view that lists the project folders.
// A path typed while that view is active is first matched against folder
// names.
const ProjectListingLabel = "// Project Folders //"

// ErrNoTrackedView indicates Close was called while the active view is not a
// generated view.
var ErrNoTrackedView = errors.New("viewmgr: active view is not a generated view")

// GeneratedView identifies a view created by the registry.
// The zero value means no tracked view.
type GeneratedView struct {
	ID    host.ViewID
	Label string
}

// IsZero reports whether g is the "no tracked view" sentinel.
func (g GeneratedView) IsZero() bool {
	return g.ID.IsZero()
}

// IsProjectListing reports whether g is the project folder listing.
func (g GeneratedView) IsProjectListing() bool {
	return !g.IsZero() && g.Label == ProjectListingLabel
}

// Registry maps generated view ids to labels.
//
// Registry is not safe for concurrent use; commands are serialized by the
// dispatcher. Forget is the exception, see its doc.
type Registry struct {
	window host.Window
	views  map[host.ViewID]string

	// pending holds ids passed to Forget that drain has not applied yet.
	mu      sync.Mutex
	pending []host.ViewID
}

// NewRegistry creates a registry bound to a window. Views the window closes
// on its own are forgotten the next time the registry is used.
func NewRegistry(window host.Window) *Registry {
	r := &Registry{
		window: window,
		views:  make(map[host.ViewID]string),
	}
	window.OnClose(r.Forget)
	return r
}

// Create opens a scratch view named label and tracks it.
func (r *Registry) Create(label string) GeneratedView {
	r.drain()

	id := r.window.NewScratchView(label)
	r.views[id] = label
	return GeneratedView{ID: id, Label: label}
}

// Query returns the active view when it is tracked, and the zero value
// otherwise.
func (r *Registry) Query() GeneratedView {
	r.drain()

	id := r.window.ActiveView()
	if label, ok := r.views[id]; ok {
		return GeneratedView{ID: id, Label: label}
	}
	return GeneratedView{}
}

// Close deregisters the active view and asks the window to close it.
func (r *Registry) Close() (GeneratedView, error) {
	current := r.Query()
	if current.IsZero() {
		return GeneratedView{}, ErrNoTrackedView
	}

	delete(r.views, current.ID)
	if err := r.window.CloseView(current.ID); err != nil {
		return current, err
	}
	r.drain()
	return current, nil
}

// CloseIfTracked closes the active view when it is tracked and does nothing
// otherwise. The returned view is zero when nothing was closed.
func (r *Registry) CloseIfTracked() (GeneratedView, error) {
	if r.Query().IsZero() {
		return GeneratedView{}, nil
	}
	return r.Close()
}

// Forget queues removal of id. It may be called from any goroutine, which
// lets it serve as a window close callback. Queued ids are applied the next
// time the registry is used; none are dropped.
func (r *Registry) Forget(id host.ViewID) {
	r.mu.Lock()
	r.pending = append(r.pending, id)
	r.mu.Unlock()
}

// Len returns the number of tracked views.
func (r *Registry) Len() int {
	r.drain()
	return len(r.views)
}

func (r *Registry) drain() {
	r.mu.Lock()
	pending := r.pending
	r.pending = nil
	r.mu.Unlock()

	for _, id := range pending {
		delete(r.views, id)
	}
}
