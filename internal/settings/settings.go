// Package settings persists the user's source selection between runs.
package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/dgallion1/contextcat/internal/vault"
)

// Settings selects the source documents for aggregation.
type Settings struct {
	SelectedFolder string `toml:"selected_folder" json:"selected_folder"` // folder-tree root
	InputtedFolder string `toml:"inputted_folder" json:"inputted_folder"` // glob pattern fragment
	FilterType     bool   `toml:"filter_type" json:"filter_type"`         // true selects glob mode
}

// Default returns the settings used when nothing has been saved.
func Default() Settings {
	return Settings{FilterType: true}
}

// Filter converts s to the vault's filter form.
func (s Settings) Filter() vault.FilterConfig {
	if s.FilterType {
		return vault.FilterConfig{Mode: vault.ModeGlob, GlobPattern: s.InputtedFolder}
	}
	return vault.FilterConfig{Mode: vault.ModeFolderTree, FolderPath: s.SelectedFolder}
}

// Load reads settings from path. A missing file yields Default. Keys absent
// from the file keep their default values.
func Load(path string) (Settings, error) {
	s := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s, nil
		}
		return s, fmt.Errorf("read settings: %w", err)
	}
	if err := toml.Unmarshal(data, &s); err != nil {
		return Default(), fmt.Errorf("parse settings %s: %w", path, err)
	}
	return s, nil
}

// Save writes s to path, creating parent directories as needed.
func Save(path string, s Settings) error {
	data, err := toml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create settings dir: %w", err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

// Store serializes access to a settings file shared by concurrent callers.
type Store struct {
	mu   sync.Mutex
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the settings file location.
func (s *Store) Path() string {
	return s.path
}

// Get loads the current settings.
func (s *Store) Get() (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Load(s.path)
}

// Put replaces the stored settings.
func (s *Store) Put(v Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Save(s.path, v)
}

// Update applies fn to the current settings and stores the result.
func (s *Store) Update(fn func(*Settings)) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, err := Load(s.path)
	if err != nil {
		return v, err
	}
	fn(&v)
	return v, Save(s.path, v)
}
