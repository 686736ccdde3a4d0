// Package shell is the top-level orchestration facade spec.md §1 item 5
// describes: "config load, run-string, source file, prompt, history hooks".
// It wires internal/interp, internal/history, and internal/completion
// together into something cmd/gosh's CLI can drive directly.
package shell

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Profile is the optional YAML rc file's shape: default `set`/`shopt`
// options, PATH entries, and aliases applied before any script or
// interactive input runs (AMBIENT STACK "Configuration": "the shell facade
// loads an optional rc/profile file in YAML for default shopt/set options,
// PATH, and aliases").
//
// Grounded on the task-runner-style YAML configs in the pack (job/task maps
// with nested string/bool/slice fields, e.g. other_examples' pipeline
// config), adapted to gosh's flatter shell-profile shape.
type Profile struct {
	SetOptions   map[string]bool   `yaml:"set,omitempty"`
	ShoptOptions map[string]bool   `yaml:"shopt,omitempty"`
	Path         []string          `yaml:"path,omitempty"`
	Aliases      map[string]string `yaml:"aliases,omitempty"`
	Env          map[string]string `yaml:"env,omitempty"`
	HistFile     string            `yaml:"histfile,omitempty"`
	HistSize     int               `yaml:"histsize,omitempty"`
	HistControl  string            `yaml:"histcontrol,omitempty"`
	PS1          string            `yaml:"ps1,omitempty"`
	CompletionConfig string        `yaml:"completion_config,omitempty"`
}

// LoadProfile reads and parses a YAML rc file at path. A missing file is not
// an error: callers treat it as an empty Profile (no rc file configured, or
// `--norc`).
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Profile{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading rc file %s: %w", path, err)
	}
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing rc file %s: %w", path, err)
	}
	return &p, nil
}

// DefaultRCPath returns "$HOME/.goshrc", gosh's default profile location
// absent an explicit --rcfile.
func DefaultRCPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".goshrc"
	}
	return home + "/.goshrc"
}

// DefaultHistFile returns "$HOME/.gosh_history", HISTFILE's default absent
// an explicit override (spec.md §6: "HISTFILE: Location for interactive
// history persistence").
func DefaultHistFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".gosh_history"
	}
	return home + "/.gosh_history"
}
