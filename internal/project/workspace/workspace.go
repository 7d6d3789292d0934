// Package workspace manages the project's folder list.
//
// A project is an ordered list of root folders. It may be attached to a
// project file, a JSON document (comments allowed) with a "folders" array;
// changes are written back to it and external edits to it are picked up by a
// Watcher.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Common errors.
var (
	ErrFolderNotFound  = errors.New("folder not found in project")
	ErrFolderExists    = errors.New("folder already in project")
	ErrInvalidPath     = errors.New("invalid folder path")
	ErrNoProjectFile   = errors.New("project has no project file")
	ErrAmbiguousFolder = errors.New("folder name matches more than one folder")
)

// FolderError records a failed folder operation.
type FolderError struct {
	Op     string
	Folder string
	Err    error
}

// Error implements the error interface.
func (e *FolderError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Folder, e.Err)
}

// Unwrap returns the underlying error.
func (e *FolderError) Unwrap() error {
	return e.Err
}

// Kind names the failure for error reports.
func (e *FolderError) Kind() string {
	switch {
	case errors.Is(e.Err, ErrFolderNotFound):
		return "FolderNotFound"
	case errors.Is(e.Err, ErrFolderExists):
		return "FolderExists"
	case errors.Is(e.Err, ErrInvalidPath):
		return "InvalidPath"
	case errors.Is(e.Err, ErrAmbiguousFolder):
		return "AmbiguousFolder"
	default:
		return "FolderError"
	}
}

// Folder is one project root.
type Folder struct {
	// Path is the absolute, cleaned directory path.
	Path string
	// Name is the display name. Defaults to the base name of Path.
	Name string
}

// NewFolder builds a folder for an absolute path.
func NewFolder(path, name string) Folder {
	path = filepath.Clean(path)
	if name == "" {
		name = filepath.Base(path)
	}
	return Folder{Path: path, Name: name}
}

// ChangeType indicates the type of project change.
type ChangeType int

const (
	// ChangeFolderAdded indicates a folder was added.
	ChangeFolderAdded ChangeType = iota
	// ChangeFolderRemoved indicates a folder was removed.
	ChangeFolderRemoved
	// ChangeReloaded indicates the folder list was replaced from the project file.
	ChangeReloaded
	// ChangeClosed indicates the project was closed.
	ChangeClosed
)

// String returns the change name.
func (c ChangeType) String() string {
	switch c {
	case ChangeFolderAdded:
		return "added"
	case ChangeFolderRemoved:
		return "removed"
	case ChangeReloaded:
		return "reloaded"
	case ChangeClosed:
		return "closed"
	default:
		return fmt.Sprintf("change(%d)", int(c))
	}
}

// ChangeEvent represents a project change.
type ChangeEvent struct {
	Type    ChangeType
	Folders []Folder
}

// Workspace is the project folder list. It is safe for concurrent use.
type Workspace struct {
	mu       sync.RWMutex
	folders  []Folder
	file     string
	onChange []func(ChangeEvent)
}

// New creates an empty project.
func New() *Workspace {
	return &Workspace{folders: make([]Folder, 0)}
}

// NewFromPaths creates a project from folder paths.
func NewFromPaths(paths ...string) (*Workspace, error) {
	ws := New()
	for _, path := range paths {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil, err
		}
		ws.folders = append(ws.folders, NewFolder(absPath, ""))
	}
	return ws, nil
}

// Open attaches a project file and loads its folders. A missing file is
// created on the next Persist.
func (w *Workspace) Open(ctx context.Context, projectFile string) error {
	absPath, err := filepath.Abs(projectFile)
	if err != nil {
		return err
	}

	folders, err := LoadProjectFile(absPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	w.mu.Lock()
	w.file = absPath
	w.folders = folders
	w.mu.Unlock()

	w.notify(ChangeEvent{Type: ChangeReloaded, Folders: folders})
	return nil
}

// Reload re-reads the attached project file.
func (w *Workspace) Reload(ctx context.Context) error {
	w.mu.RLock()
	file := w.file
	w.mu.RUnlock()

	if file == "" {
		return ErrNoProjectFile
	}

	folders, err := LoadProjectFile(file)
	if err != nil {
		return err
	}

	w.mu.Lock()
	w.folders = folders
	w.mu.Unlock()

	w.notify(ChangeEvent{Type: ChangeReloaded, Folders: folders})
	return nil
}

// Persist writes the folder list to the attached project file.
// It returns ErrNoProjectFile when none is attached.
func (w *Workspace) Persist(ctx context.Context) error {
	w.mu.RLock()
	file := w.file
	folders := make([]Folder, len(w.folders))
	copy(folders, w.folders)
	w.mu.RUnlock()

	if file == "" {
		return ErrNoProjectFile
	}
	return SaveProjectFile(file, folders)
}

// Close clears the folder list and detaches the project file.
func (w *Workspace) Close(ctx context.Context) error {
	w.mu.Lock()
	closed := w.folders
	w.folders = make([]Folder, 0)
	w.file = ""
	w.mu.Unlock()

	w.notify(ChangeEvent{Type: ChangeClosed, Folders: closed})
	return nil
}

// ProjectFile returns the attached project file, or "".
func (w *Workspace) ProjectFile() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.file
}

// Folders returns all project folders in order.
func (w *Workspace) Folders() []Folder {
	w.mu.RLock()
	defer w.mu.RUnlock()

	result := make([]Folder, len(w.folders))
	copy(result, w.folders)
	return result
}

// Roots returns all folder paths in order.
func (w *Workspace) Roots() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	paths := make([]string, len(w.folders))
	for i, f := range w.folders {
		paths[i] = f.Path
	}
	return paths
}

// FolderCount returns the number of folders.
func (w *Workspace) FolderCount() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.folders)
}

// FindByName returns the first folder whose display name is name.
func (w *Workspace) FindByName(name string) (Folder, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	for _, f := range w.folders {
		if f.Name == name {
			return f, true
		}
	}
	return Folder{}, false
}

// AddFolder adds an existing directory to the project.
func (w *Workspace) AddFolder(ctx context.Context, path string) (Folder, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return Folder{}, err
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return Folder{}, &FolderError{Op: "add", Folder: absPath, Err: err}
	}
	if !info.IsDir() {
		return Folder{}, &FolderError{Op: "add", Folder: absPath, Err: fmt.Errorf("%w: not a directory", ErrInvalidPath)}
	}

	folder := NewFolder(absPath, "")

	w.mu.Lock()
	for _, f := range w.folders {
		if f.Path == folder.Path {
			w.mu.Unlock()
			return Folder{}, &FolderError{Op: "add", Folder: folder.Path, Err: ErrFolderExists}
		}
	}
	w.folders = append(w.folders, folder)
	w.mu.Unlock()

	w.notify(ChangeEvent{Type: ChangeFolderAdded, Folders: []Folder{folder}})
	return folder, nil
}

// RemoveFolder removes a folder by display name or by path. A name shared by
// several folders must be given as a path.
func (w *Workspace) RemoveFolder(ctx context.Context, nameOrPath string) (Folder, error) {
	w.mu.Lock()

	idx, err := w.indexOf(nameOrPath)
	if err != nil {
		w.mu.Unlock()
		return Folder{}, err
	}

	removed := w.folders[idx]
	w.folders = append(w.folders[:idx], w.folders[idx+1:]...)
	w.mu.Unlock()

	w.notify(ChangeEvent{Type: ChangeFolderRemoved, Folders: []Folder{removed}})
	return removed, nil
}

// indexOf must be called with the lock held.
func (w *Workspace) indexOf(nameOrPath string) (int, error) {
	idx := -1
	for i, f := range w.folders {
		if f.Name == nameOrPath {
			if idx >= 0 {
				return -1, &FolderError{Op: "remove", Folder: nameOrPath, Err: ErrAmbiguousFolder}
			}
			idx = i
		}
	}
	if idx >= 0 {
		return idx, nil
	}

	absPath, err := filepath.Abs(nameOrPath)
	if err != nil {
		return -1, err
	}
	for i, f := range w.folders {
		if f.Path == absPath {
			return i, nil
		}
	}
	return -1, &FolderError{Op: "remove", Folder: nameOrPath, Err: ErrFolderNotFound}
}

// OnChange registers a callback for project changes.
func (w *Workspace) OnChange(fn func(ChangeEvent)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = append(w.onChange, fn)
}

func (w *Workspace) notify(event ChangeEvent) {
	w.mu.RLock()
	callbacks := make([]func(ChangeEvent), len(w.onChange))
	copy(callbacks, w.onChange)
	w.mu.RUnlock()

	for _, cb := range callbacks {
		cb(event)
	}
}
