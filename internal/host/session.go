package host

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// ErrIsDirectory indicates OpenFile was given a directory.
var ErrIsDirectory = errors.New("host: path is a directory")

// Session is an in-memory Window. It is safe for concurrent use.
type Session struct {
	mu     sync.RWMutex
	views  []*View
	active ViewID

	newID   func() ViewID
	onClose []func(ViewID)
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithIDGenerator replaces the UUID based view id generator.
func WithIDGenerator(fn func() ViewID) SessionOption {
	return func(s *Session) {
		s.newID = fn
	}
}

// NewSession creates an empty session.
func NewSession(opts ...SessionOption) *Session {
	s := &Session{
		newID: func() ViewID { return ViewID(uuid.NewString()) },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ActiveView implements Window.
func (s *Session) ActiveView() ViewID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// NewScratchView implements Window.
func (s *Session) NewScratchView(name string) ViewID {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := &View{ID: s.newID(), Name: name, Scratch: true}
	s.views = append(s.views, v)
	s.active = v.ID
	return v.ID
}

// InsertText implements Window.
func (s *Session) InsertText(id ViewID, point int, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := s.find(id)
	if v == nil {
		return fmt.Errorf("insert into %s: %w", id, ErrViewNotFound)
	}
	if point < 0 {
		point = 0
	}
	if point > len(v.Text) {
		point = len(v.Text)
	}
	v.Text = v.Text[:point] + text + v.Text[point:]
	return nil
}

// CloseView implements Window.
func (s *Session) CloseView(id ViewID) error {
	s.mu.Lock()
	idx := s.index(id)
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("close %s: %w", id, ErrViewNotFound)
	}
	s.views = append(s.views[:idx], s.views[idx+1:]...)
	if s.active == id {
		s.active = ""
		if n := len(s.views); n > 0 {
			s.active = s.views[n-1].ID
		}
	}

	callbacks := make([]func(ViewID), len(s.onClose))
	copy(callbacks, s.onClose)
	s.mu.Unlock()

	for _, cb := range callbacks {
		cb(id)
	}
	return nil
}

// OpenFile implements Window.
func (s *Session) OpenFile(path string) (ViewID, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	for _, v := range s.views {
		if v.Path == abs {
			s.active = v.ID
			s.mu.Unlock()
			return v.ID, nil
		}
	}
	s.mu.Unlock()

	info, err := os.Stat(abs)
	var text string
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// New file; it only exists on disk once saved.
	case err != nil:
		return "", err
	case info.IsDir():
		return "", fmt.Errorf("open %s: %w", abs, ErrIsDirectory)
	default:
		data, err := os.ReadFile(abs)
		if err != nil {
			return "", err
		}
		text = string(data)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	v := &View{ID: s.newID(), Name: filepath.Base(abs), Path: abs, Text: text}
	s.views = append(s.views, v)
	s.active = v.ID
	return v.ID, nil
}

// Focus implements Window.
func (s *Session) Focus(id ViewID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.find(id) == nil {
		return fmt.Errorf("focus %s: %w", id, ErrViewNotFound)
	}
	s.active = id
	return nil
}

// View implements Window.
func (s *Session) View(id ViewID) (View, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v := s.find(id)
	if v == nil {
		return View{}, false
	}
	return *v, true
}

// Views implements Window.
func (s *Session) Views() []View {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]View, len(s.views))
	for i, v := range s.views {
		out[i] = *v
	}
	return out
}

// OnClose implements Window.
func (s *Session) OnClose(fn func(ViewID)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onClose = append(s.onClose, fn)
}

// Cycle focuses the view delta positions away from the active one,
// wrapping around. It returns the newly active view.
func (s *Session) Cycle(delta int) ViewID {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.views)
	if n == 0 {
		return ""
	}
	idx := s.index(s.active)
	if idx < 0 {
		idx = 0
	}
	idx = ((idx+delta)%n + n) % n
	s.active = s.views[idx].ID
	return s.active
}

func (s *Session) find(id ViewID) *View {
	if idx := s.index(id); idx >= 0 {
		return s.views[idx]
	}
	return nil
}

func (s *Session) index(id ViewID) int {
	if id.IsZero() {
		return -1
	}
	for i, v := range s.views {
		if v.ID == id {
			return i
		}
	}
	return -1
}
