// Package config loads the optional .ksymtypes.toml project file that
// supplies defaults for the ksymtypes CLI, mirroring how protosort locates
// and merges its own .protosort.toml.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the decoded .ksymtypes.toml file.
type Config struct {
	Jobs   int    `toml:"jobs"`
	Output string `toml:"output"`
}

// FindConfigFile walks up from the current directory looking for
// .ksymtypes.toml, stopping at the repository root (a directory
// containing .git) or the filesystem root.
func FindConfigFile() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		candidate := filepath.Join(dir, ".ksymtypes.toml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return ""
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Load reads and parses a .ksymtypes.toml file.
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Merge applies cfg's values onto jobs/output, but only for fields the
// caller didn't already set explicitly via CLI flags (tracked in
// explicitFlags, keyed by flag name).
func Merge(jobs *int, output *string, cfg *Config, explicitFlags map[string]bool) {
	if cfg == nil {
		return
	}
	if cfg.Jobs > 0 && !explicitFlags["jobs"] {
		*jobs = cfg.Jobs
	}
	if cfg.Output != "" && !explicitFlags["output"] {
		*output = cfg.Output
	}
}
