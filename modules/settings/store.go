package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"sigs.k8s.io/yaml"
)

// Preferences are the user choices that survive restarts.
type Preferences struct {
	Volume       int      `json:"volume"`
	OutputDevice string   `json:"outputDevice,omitempty"`
	Locale       string   `json:"locale,omitempty"`
	Folders      []string `json:"folders,omitempty"`
}

func DefaultPreferences() Preferences {
	return Preferences{Volume: 80}
}

type Store interface {
	Load() (Preferences, error)
	Save(Preferences) error
}

// YAMLStore keeps Preferences in a YAML file.
type YAMLStore struct {
	path string

	mu     sync.Mutex
	cached *Preferences
}

func NewYAMLStore(s *Settings) *YAMLStore {
	return &YAMLStore{path: s.PreferencesPath}
}

func (s *YAMLStore) Path() string {
	return s.path
}

// Load returns the stored preferences, or the defaults when nothing has been
// saved yet.
func (s *YAMLStore) Load() (Preferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != nil {
		return clonePreferences(*s.cached), nil
	}
	if s.path == "" {
		return DefaultPreferences(), nil
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultPreferences(), nil
	}
	if err != nil {
		return Preferences{}, fmt.Errorf("settings: read preferences: %w", err)
	}

	p := DefaultPreferences()
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Preferences{}, fmt.Errorf("settings: decode %s: %w", s.path, err)
	}
	s.cached = &p
	return clonePreferences(p), nil
}

func (s *YAMLStore) Save(p Preferences) error {
	if p.Volume < 0 || p.Volume > 100 {
		return fmt.Errorf("settings: volume %d out of range [0,100]", p.Volume)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path != "" {
		data, err := yaml.Marshal(p)
		if err != nil {
			return fmt.Errorf("settings: encode preferences: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
			return fmt.Errorf("settings: create %s: %w", filepath.Dir(s.path), err)
		}
		if err := os.WriteFile(s.path, data, 0o644); err != nil {
			return fmt.Errorf("settings: write preferences: %w", err)
		}
	}
	saved := clonePreferences(p)
	s.cached = &saved
	return nil
}

func clonePreferences(p Preferences) Preferences {
	if p.Folders != nil {
		p.Folders = append([]string(nil), p.Folders...)
	}
	return p
}
