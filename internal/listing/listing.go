// Package listing renders directory listings for generated views.
package listing

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// ErrNotDirectory is returned when the listed path is not a directory.
var ErrNotDirectory = errors.New("listing: not a directory")

// Entry is one row of a listing.
type Entry struct {
	Name    string
	Mode    fs.FileMode
	Size    int64
	ModTime time.Time
	// Target is the link target for symbolic links.
	Target string
}

// Options controls rendering.
type Options struct {
	// Now is the reference time for choosing the date format.
	// Zero means time.Now().
	Now time.Time
}

// Read returns the entries of dir including "." and "..", sorted by name.
func Read(dir string) ([]Entry, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, dir)
	}

	dirents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(dirents)+2)
	entries = append(entries, entryFromInfo(".", info))
	if parent, err := os.Stat(filepath.Dir(dir)); err == nil {
		entries = append(entries, entryFromInfo("..", parent))
	}

	for _, d := range dirents {
		fi, err := d.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			continue
		}
		e := entryFromInfo(d.Name(), fi)
		if fi.Mode()&fs.ModeSymlink != 0 {
			if target, err := os.Readlink(filepath.Join(dir, d.Name())); err == nil {
				e.Target = target
			}
		}
		entries = append(entries, e)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})
	return entries, nil
}

func entryFromInfo(name string, fi fs.FileInfo) Entry {
	return Entry{
		Name:    name,
		Mode:    fi.Mode(),
		Size:    fi.Size(),
		ModTime: fi.ModTime(),
	}
}

// Directory renders the listing of dir: a boxed header with the directory's
// base name, the absolute path in brackets, a blank line and one row per
// entry.
func Directory(dir string, opts Options) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	entries, err := Read(abs)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	writeHeader(&b, abs)
	writeRows(&b, entries, opts)
	return b.String(), nil
}

// Directories renders each listing in turn, separated by a blank line.
func Directories(dirs []string, opts Options) (string, error) {
	parts := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		text, err := Directory(dir, opts)
		if err != nil {
			return "", err
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, "\n"), nil
}

func writeHeader(b *strings.Builder, abs string) {
	name := filepath.Base(abs)
	rule := strings.Repeat("-", len(name)+8)
	fmt.Fprintf(b, "%s\n|   %s   |\n%s\n", rule, name, rule)
	fmt.Fprintf(b, "[%s]\n\n", abs)
}

func writeRows(b *strings.Builder, entries []Entry, opts Options) {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	sizes := make([]string, len(entries))
	width := 0
	for i, e := range entries {
		sizes[i] = humanize.Bytes(uint64(max(e.Size, 0)))
		width = max(width, len(sizes[i]))
	}

	for i, e := range entries {
		name := e.Name
		if e.Target != "" {
			name += " -> " + e.Target
		}
		fmt.Fprintf(b, "%s  %*s  %s  %s\n", e.Mode, width, sizes[i], formatTime(e.ModTime, now), name)
	}
}

// formatTime follows ls: recent files show the time of day, older or future
// ones show the year.
func formatTime(t, now time.Time) string {
	const halfYear = 182 * 24 * time.Hour
	if t.After(now) || now.Sub(t) > halfYear {
		return t.Format("Jan _2  2006")
	}
	return t.Format("Jan _2 15:04")
}
