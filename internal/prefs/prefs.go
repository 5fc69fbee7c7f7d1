// Package prefs persists sleuth's interactive preferences in
// ~/.config/sleuth/prefs.toml: the colour theme and the last log filter.
package prefs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/aitool/sleuth/internal/config"
)

// Prefs holds user preferences.
type Prefs struct {
	Theme  string      `toml:"theme"`
	Filter FilterPrefs `toml:"filter"`
}

// FilterPrefs remembers the last applied log filter. Time ranges are not
// kept; they rarely make sense across sessions.
type FilterPrefs struct {
	Level string `toml:"level,omitempty"`
	Tag   string `toml:"tag,omitempty"`
}

const (
	defaultPrefsPath = "~/.config/sleuth/prefs.toml"
	defaultTheme     = "Kanagawa"
)

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// Load reads preferences from path. Any problem reading or parsing the file
// yields defaults; preferences are never worth failing start-up for.
func Load(path string) Prefs {
	p := Prefs{Theme: defaultTheme}

	resolved, err := resolvePath(path)
	if err != nil {
		return p
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return p
	}
	if err := toml.Unmarshal(data, &p); err != nil {
		return Prefs{Theme: defaultTheme}
	}
	p.Theme = strings.TrimSpace(p.Theme)
	if p.Theme == "" {
		p.Theme = defaultTheme
	}
	p.Filter.Level = strings.TrimSpace(p.Filter.Level)
	p.Filter.Tag = strings.TrimSpace(p.Filter.Tag)
	return p
}

// Save writes preferences to path, creating directories as needed.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}
	data, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}
	if err := os.WriteFile(resolved, data, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		path = defaultPrefsPath
	}
	return config.ExpandPath(path)
}
