// Package manifest handles brio.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Manifest represents a brio.toml project configuration.
type Manifest struct {
	Project Project `toml:"project"`
	Build   Build   `toml:"build"`

	// Dir is the directory containing the brio.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// Build configures compilation and execution.
type Build struct {
	Output string `toml:"output"`
	Entry  string `toml:"entry"`
	Steps  int    `toml:"steps"`
}

// Load parses a brio.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, "brio.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	if m.Build.Entry == "" {
		m.Build.Entry = "main.brio"
	}

	return &m, nil
}

// FindAndLoad walks up from startDir to find a brio.toml file, then loads
// and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, "brio.toml")
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// EntryPath returns the absolute path of the entry source file.
func (m *Manifest) EntryPath() string {
	return filepath.Join(m.Dir, m.Build.Entry)
}

// OutputDir returns where compiled assembly lands. An empty output
// setting keeps artifacts next to their sources.
func (m *Manifest) OutputDir() string {
	if m.Build.Output == "" {
		return ""
	}
	return filepath.Join(m.Dir, m.Build.Output)
}
