package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dgallion1/contextcat/internal/vault"
)

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s != Default() {
		t.Errorf("expected defaults, got %+v", s)
	}
	if !s.FilterType {
		t.Error("expected glob mode by default")
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "settings.toml")
	want := Settings{SelectedFolder: "notes/daily", InputtedFolder: "projects", FilterType: false}

	if err := Save(path, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("expected temp file to be gone")
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	if err := os.WriteFile(path, []byte("inputted_folder = \"projects\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.InputtedFolder != "projects" {
		t.Errorf("expected %q, got %q", "projects", s.InputtedFolder)
	}
	if !s.FilterType {
		t.Error("expected filter_type to keep its default")
	}
}

func TestLoad_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	if err := os.WriteFile(path, []byte("filter_type = maybe\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestFilter(t *testing.T) {
	s := Settings{SelectedFolder: "a", InputtedFolder: "b", FilterType: true}
	f := s.Filter()
	if f.Mode != vault.ModeGlob || f.GlobPattern != "b" {
		t.Errorf("expected glob filter on %q, got %+v", "b", f)
	}

	s.FilterType = false
	f = s.Filter()
	if f.Mode != vault.ModeFolderTree || f.FolderPath != "a" {
		t.Errorf("expected folder filter on %q, got %+v", "a", f)
	}
}

func TestStore_Update(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "settings.toml"))

	got, err := store.Update(func(s *Settings) { s.SelectedFolder = "notes" })
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.SelectedFolder != "notes" || !got.FilterType {
		t.Errorf("expected defaults plus folder, got %+v", got)
	}

	reloaded, err := store.Get()
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if reloaded != got {
		t.Errorf("expected %+v, got %+v", got, reloaded)
	}
}
