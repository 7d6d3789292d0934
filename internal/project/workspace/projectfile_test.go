package workspace

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/tidwall/gjson"
)

func TestLoadProjectFileWithComments(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "p"+ProjectFileExt)
	content := `{
	// project roots
	"folders": [
		{"path": "src"},
		{"path": "/opt/shared", "name": "shared"},
		{"path": "src"},   /* duplicate */
		{"name": "no path"},
	],
}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	folders, err := LoadProjectFile(path)
	if err != nil {
		t.Fatalf("LoadProjectFile: %v", err)
	}

	want := []Folder{
		{Path: filepath.Join(root, "src"), Name: "src"},
		{Path: "/opt/shared", Name: "shared"},
	}
	if len(folders) != len(want) {
		t.Fatalf("got %d folders, want %d: %+v", len(folders), len(want), folders)
	}
	for i := range want {
		if folders[i] != want[i] {
			t.Errorf("folder %d = %+v, want %+v", i, folders[i], want[i])
		}
	}
}

func TestLoadProjectFileEmptyAndInvalid(t *testing.T) {
	root := t.TempDir()

	empty := filepath.Join(root, "empty"+ProjectFileExt)
	if err := os.WriteFile(empty, []byte("  \n"), 0o644); err != nil {
		t.Fatal(err)
	}
	folders, err := LoadProjectFile(empty)
	if err != nil || len(folders) != 0 {
		t.Errorf("empty file: %v, %v", folders, err)
	}

	invalid := filepath.Join(root, "bad"+ProjectFileExt)
	if err := os.WriteFile(invalid, []byte(`{"folders": [`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadProjectFile(invalid); !errors.Is(err, ErrInvalidProjectFile) {
		t.Errorf("expected ErrInvalidProjectFile, got %v", err)
	}

	if _, err := LoadProjectFile(filepath.Join(root, "missing")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestSaveProjectFileKeepsOtherKeys(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "p"+ProjectFileExt)
	content := `{
	// settings survive, comments do not
	"settings": {"tab_size": 4},
	"folders": [{"path": "old"}]
}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	folders := []Folder{
		NewFolder(filepath.Join(root, "src"), ""),
		NewFolder("/elsewhere/lib", "vendor lib"),
	}
	if err := SaveProjectFile(path, folders); err != nil {
		t.Fatalf("SaveProjectFile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := gjson.GetBytes(data, "settings.tab_size").Int(); got != 4 {
		t.Errorf("settings.tab_size = %d, want 4", got)
	}
	if got := gjson.GetBytes(data, "folders.0.path").String(); got != "src" {
		t.Errorf("folders.0.path = %q, want relative %q", got, "src")
	}
	if gjson.GetBytes(data, "folders.0.name").Exists() {
		t.Error("default names should not be written")
	}
	if got := gjson.GetBytes(data, "folders.1.name").String(); got != "vendor lib" {
		t.Errorf("folders.1.name = %q", got)
	}

	reloaded, err := LoadProjectFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(reloaded) != 2 || reloaded[0] != folders[0] || reloaded[1] != folders[1] {
		t.Errorf("round trip mismatch: %+v", reloaded)
	}
}
