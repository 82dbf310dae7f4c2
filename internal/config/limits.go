package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Limits is the resource budget consumed by the engine at evaluation time.
// All fields are optional; the zero value of a field disables that check.
type Limits struct {
	MaxOperations uint64 `yaml:"max_operations"`
	MaxCallDepth  int    `yaml:"max_call_depth"`
	MaxModules    int    `yaml:"max_modules"`
	MaxExprDepth  int    `yaml:"max_expr_depth"`
	MaxStringSize int    `yaml:"max_string_size"`
	MaxArraySize  int    `yaml:"max_array_size"`
	MaxMapSize    int    `yaml:"max_map_size"`
}

// Options holds engine capability flags, decided at construction time.
// A disabled capability is a configuration choice: the corresponding
// component is simply not installed, there is no per-call-site branching.
type Options struct {
	DisableClosures bool `yaml:"disable_closures"`
	DisableDebugger bool `yaml:"disable_debugger"`
	DisableModules  bool `yaml:"disable_modules"`
}

// File is the on-disk shape of an engine configuration document.
type File struct {
	Limits  Limits  `yaml:"limits"`
	Options Options `yaml:"options"`
}

// DefaultLimits returns the limits applied by engine.New.
func DefaultLimits() Limits {
	return Limits{
		MaxOperations: DefaultMaxOperations,
		MaxCallDepth:  DefaultMaxCallDepth,
		MaxModules:    DefaultMaxModules,
		MaxExprDepth:  DefaultMaxExprDepth,
		MaxStringSize: DefaultMaxStringSize,
		MaxArraySize:  DefaultMaxArraySize,
		MaxMapSize:    DefaultMaxMapSize,
	}
}

// Load parses a YAML configuration document. Missing fields keep their
// defaults so a file may specify only the limits it cares about.
func Load(data []byte) (File, error) {
	f := File{Limits: DefaultLimits()}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("invalid engine config: %w", err)
	}
	if f.Limits.MaxCallDepth < 0 || f.Limits.MaxModules < 0 {
		return File{}, fmt.Errorf("invalid engine config: negative limit")
	}
	return f, nil
}

// LoadFile reads and parses a YAML configuration file.
func LoadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, err
	}
	return Load(data)
}
