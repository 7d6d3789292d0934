// Package host defines the window object model commands are written against
// and provides an in-memory implementation of it.
//
// A Window owns views. Some views are backed by files, others are scratch
// buffers that are never saved. Commands create scratch views to display
// their output, open files, and close views; the terminal front end renders
// whatever view is active.
package host

import "errors"

// Host errors.
var (
	// ErrViewNotFound indicates the view id is not known to the window.
	ErrViewNotFound = errors.New("host: view not found")
)

// ViewID is an opaque view handle assigned by the window.
// The zero value identifies no view.
type ViewID string

// IsZero reports whether id identifies no view.
func (id ViewID) IsZero() bool {
	return id == ""
}

// View is a snapshot of a view's state.
type View struct {
	// ID is the handle assigned when the view was created.
	ID ViewID

	// Name is the display name (tab title).
	Name string

	// Path is the backing file. Empty for scratch views.
	Path string

	// Scratch views are never saved and never prompt about changes.
	Scratch bool

	// Text is the buffer content.
	Text string
}

// Window is the host object model.
type Window interface {
	// ActiveView returns the focused view, or the zero ViewID.
	ActiveView() ViewID

	// NewScratchView creates a scratch view with the given name and focuses it.
	NewScratchView(name string) ViewID

	// InsertText inserts text at a byte offset. The offset is clamped to the
	// buffer bounds.
	InsertText(id ViewID, point int, text string) error

	// CloseView closes a view. Focus moves to the most recently created
	// remaining view.
	CloseView(id ViewID) error

	// OpenFile opens a file view, or focuses it when it is already open.
	// A path that does not exist yields an empty view for that path.
	OpenFile(path string) (ViewID, error)

	// Focus makes a view active.
	Focus(id ViewID) error

	// View returns a snapshot of one view.
	View(id ViewID) (View, bool)

	// Views returns snapshots of all views in creation order.
	Views() []View

	// OnClose registers a callback run after any view is closed.
	OnClose(fn func(ViewID))
}
