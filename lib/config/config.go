// Package config loads the optional webcmp.yaml project file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/mod/modfile"
	"gopkg.in/yaml.v3"
)

// FileName is the project configuration file looked up in a directory.
const FileName = "webcmp.yaml"

// Defaults applied by Resolve.
const (
	DefaultSuffix       = "_wc.go"
	DefaultDeclarations = "components.d.ts"
	DefaultGetTimeout   = 2 * time.Second
)

// Config represents the optional webcmp.yaml configuration.
type Config struct {
	Generate Generate `yaml:"generate"`
	Runtime  Runtime  `yaml:"runtime"`
}

// Generate configures code generation.
type Generate struct {
	// Suffix of generated Go files.
	Suffix string `yaml:"suffix,omitempty"`
	// Declarations is the per-package TypeScript declaration file name.
	// "-" disables declaration output.
	Declarations string `yaml:"declarations,omitempty"`
	DryRun       bool   `yaml:"dryRun,omitempty"`
}

// Runtime configures component instances.
type Runtime struct {
	// GetTimeout bounds how long a property read waits for the component.
	GetTimeout time.Duration `yaml:"getTimeout,omitempty"`
	// Verbosity is the logr verbosity enabled for runtime diagnostics.
	Verbosity int `yaml:"verbosity,omitempty"`
}

// Resolved contains resolved configuration values.
type Resolved struct {
	Root       string
	ModulePath string
	Generate   Generate
	Runtime    Runtime
}

// LoadOptional reads webcmp.yaml from dir if present. A missing file yields
// an empty Config.
func LoadOptional(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", FileName, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", FileName, err)
	}

	return &cfg, nil
}

// Resolve loads webcmp.yaml (if present) and fills in defaults. The module
// path comes from the nearest go.mod at or above dir; it is empty when there
// is none.
func Resolve(dir string) (*Resolved, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	cfg, err := LoadOptional(abs)
	if err != nil {
		return nil, err
	}

	root, modulePath, err := findModule(abs)
	if err != nil {
		return nil, err
	}
	if root == "" {
		root = abs
	}

	gen := cfg.Generate
	if gen.Suffix == "" {
		gen.Suffix = DefaultSuffix
	}
	if gen.Declarations == "" {
		gen.Declarations = DefaultDeclarations
	}

	rt := cfg.Runtime
	if rt.GetTimeout <= 0 {
		rt.GetTimeout = DefaultGetTimeout
	}

	return &Resolved{
		Root:       root,
		ModulePath: modulePath,
		Generate:   gen,
		Runtime:    rt,
	}, nil
}

func findModule(dir string) (root, path string, err error) {
	for d := dir; ; d = filepath.Dir(d) {
		gomod := filepath.Join(d, "go.mod")
		data, err := os.ReadFile(gomod)
		if err == nil {
			mod := modfile.ModulePath(data)
			if mod == "" {
				return "", "", fmt.Errorf("%s: missing module directive", gomod)
			}
			return d, mod, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", "", fmt.Errorf("failed to read go.mod: %w", err)
		}
		if parent := filepath.Dir(d); parent == d {
			return "", "", nil
		}
	}
}
