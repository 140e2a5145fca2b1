// Package config loads project-level scan settings from loctree.yml.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// StackHint names an auto-detected project type (spec §4.1).
type StackHint string

const (
	StackRust   StackHint = "rust"
	StackTS     StackHint = "ts"
	StackPython StackHint = "python"
	StackGo     StackHint = "go"
	StackTauri  StackHint = "tauri"
)

// ProjectConfig holds the options spec §4.1 enumerates as recognized scan
// configuration, loaded from loctree.yml/loctree.yaml at the scan root. A
// missing file is not an error — Load returns a zero-value config.
type ProjectConfig struct {
	Extensions             []string  `yaml:"extensions,omitempty"`
	IgnorePatterns         []string  `yaml:"ignorePatterns,omitempty"`
	IncludeHidden          bool      `yaml:"includeHidden,omitempty"`
	IncludeIgnored         bool      `yaml:"includeIgnored,omitempty"`
	ExtraPyRoots           []string  `yaml:"extraPyRoots,omitempty"`
	StackHint              StackHint `yaml:"stackHint,omitempty"`
	CacheRoot              string    `yaml:"cacheRoot,omitempty"`
	IncludeDynamicInCycles bool      `yaml:"includeDynamicInCycles,omitempty"`
	Verbose                bool      `yaml:"verbose,omitempty"`
}

// Load attempts to read loctree.yml or loctree.yaml from dir. Returns a
// zero-value config (not an error) if no config file exists.
func Load(dir string) (*ProjectConfig, error) {
	for _, name := range []string{"loctree.yml", "loctree.yaml"} {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var cfg ProjectConfig
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
		return &cfg, nil
	}
	return &ProjectConfig{}, nil
}
