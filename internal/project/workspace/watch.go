package workspace

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultWatchDelay coalesces the bursts of events editors produce when
// saving (truncate+write, or write-to-temp+rename).
const DefaultWatchDelay = 150 * time.Millisecond

// ErrWatcherClosed indicates the watcher has been closed.
var ErrWatcherClosed = errors.New("project watcher is closed")

// Watcher reloads a Workspace when its project file changes on disk.
//
// The file's directory is watched rather than the file itself so that
// replace-by-rename saves are seen.
type Watcher struct {
	ws      *Workspace
	file    string
	delay   time.Duration
	onError func(error)

	watcher *fsnotify.Watcher

	mu      sync.Mutex
	timer   *time.Timer
	closed  bool
	closeCh chan struct{}
	wg      sync.WaitGroup
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithWatchDelay sets the debounce delay.
func WithWatchDelay(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.delay = d
		}
	}
}

// WithWatchErrorHandler receives watch and reload errors.
func WithWatchErrorHandler(fn func(error)) WatcherOption {
	return func(w *Watcher) {
		w.onError = fn
	}
}

// Watch starts watching the workspace's project file.
func Watch(ws *Workspace, opts ...WatcherOption) (*Watcher, error) {
	file := ws.ProjectFile()
	if file == "" {
		return nil, ErrNoProjectFile
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(file)); err != nil {
		_ = fsw.Close()
		return nil, err
	}

	w := &Watcher{
		ws:      ws,
		file:    file,
		delay:   DefaultWatchDelay,
		onError: func(error) {},
		watcher: fsw,
		closeCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	w.wg.Add(1)
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.closeCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.file {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.schedule()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.onError(err)
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.delay, w.reload)
}

func (w *Watcher) reload() {
	// The project may have been closed or switched since the event.
	if w.ws.ProjectFile() != w.file {
		return
	}
	if err := w.ws.Reload(context.Background()); err != nil {
		w.onError(err)
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrWatcherClosed
	}
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	close(w.closeCh)
	err := w.watcher.Close()
	w.wg.Wait()
	return err
}
