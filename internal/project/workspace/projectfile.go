package workspace

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"
	"github.com/tidwall/jsonc"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

// ErrInvalidProjectFile indicates the project file is not valid JSON.
var ErrInvalidProjectFile = errors.New("invalid project file")

// ProjectFileExt is the conventional project file extension.
const ProjectFileExt = ".ctrlshell-project"

// folderEntry is the on-disk shape of one folder.
type folderEntry struct {
	Path string `json:"path"`
	Name string `json:"name,omitempty"`
}

// LoadProjectFile reads the folders of a project file. Comments and trailing
// commas are allowed. Relative folder paths resolve against the file's
// directory.
func LoadProjectFile(path string) ([]Folder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseProjectFile(path, data)
}

func parseProjectFile(path string, data []byte) ([]Folder, error) {
	stripped := jsonc.ToJSON(data)
	if len(bytes.TrimSpace(stripped)) == 0 {
		return make([]Folder, 0), nil
	}
	if !gjson.ValidBytes(stripped) {
		return nil, fmt.Errorf("%s: %w", path, ErrInvalidProjectFile)
	}

	baseDir := filepath.Dir(path)
	folders := make([]Folder, 0)
	seen := make(map[string]bool)

	gjson.GetBytes(stripped, "folders").ForEach(func(_, entry gjson.Result) bool {
		folderPath := entry.Get("path").String()
		if folderPath == "" {
			return true
		}
		if !filepath.IsAbs(folderPath) {
			folderPath = filepath.Join(baseDir, filepath.FromSlash(folderPath))
		}
		folder := NewFolder(folderPath, entry.Get("name").String())
		if !seen[folder.Path] {
			seen[folder.Path] = true
			folders = append(folders, folder)
		}
		return true
	})

	return folders, nil
}

// SaveProjectFile writes folders into the project file's "folders" key.
// Other keys in an existing file are preserved; comments are not.
func SaveProjectFile(path string, folders []Folder) error {
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		data = []byte("{}")
	case err != nil:
		return err
	default:
		data = jsonc.ToJSON(data)
		if len(bytes.TrimSpace(data)) == 0 {
			data = []byte("{}")
		}
		if !gjson.ValidBytes(data) {
			return fmt.Errorf("%s: %w", path, ErrInvalidProjectFile)
		}
	}

	baseDir := filepath.Dir(path)
	entries := make([]folderEntry, len(folders))
	for i, folder := range folders {
		relPath, err := filepath.Rel(baseDir, folder.Path)
		if err != nil {
			relPath = folder.Path
		}
		entry := folderEntry{Path: filepath.ToSlash(relPath)}
		if folder.Name != filepath.Base(folder.Path) {
			entry.Name = folder.Name
		}
		entries[i] = entry
	}

	out, err := sjson.SetBytes(data, "folders", entries)
	if err != nil {
		return fmt.Errorf("encode project file %s: %w", path, err)
	}

	return os.WriteFile(path, pretty.Pretty(out), 0o644)
}
