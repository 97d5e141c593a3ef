// Package config handles loading compiler configuration from files and the
// environment.
//
// Configuration can be specified in a JSON file named valtypes.config.json or
// .valtypesrc.json, or in a YAML file named valtypes.yaml or .valtypesrc.yaml.
// The config file is searched for in the current directory and parent
// directories. VALTYPES_* environment variables override the file, and
// command line flags override both.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xyproto/env/v2"
	"gopkg.in/yaml.v3"

	"github.com/HugoDaniel/valtypes/internal/compiler"
	"github.com/HugoDaniel/valtypes/internal/helpers"
)

// Config represents the configuration file structure.
// All fields are optional and will use default values if not specified.
type Config struct {
	// Target is the output language level, "es5" or "es2015"
	Target string `json:"target,omitempty" yaml:"target,omitempty"`

	// MinifyWhitespace removes unnecessary whitespace and newlines
	MinifyWhitespace *bool `json:"minifyWhitespace,omitempty" yaml:"minifyWhitespace,omitempty"`

	// MinifyIdentifiers renames local bindings to shorter names
	MinifyIdentifiers *bool `json:"minifyIdentifiers,omitempty" yaml:"minifyIdentifiers,omitempty"`

	// MangleTopLevel also renames top-level bindings
	MangleTopLevel *bool `json:"mangleTopLevel,omitempty" yaml:"mangleTopLevel,omitempty"`

	// EmitRuntime prepends the support library to the output
	EmitRuntime *bool `json:"emitRuntime,omitempty" yaml:"emitRuntime,omitempty"`

	// KeepNames lists identifier names that should not be renamed
	KeepNames []string `json:"keepNames,omitempty" yaml:"keepNames,omitempty"`

	// HelperPrefix is prepended to every helper name
	HelperPrefix string `json:"helperPrefix,omitempty" yaml:"helperPrefix,omitempty"`

	// Helpers overrides individual helper names
	Helpers HelperNames `json:"helpers,omitempty" yaml:"helpers,omitempty"`
}

// HelperNames names the support library functions. Empty fields keep the
// defaults.
type HelperNames struct {
	Equals        string `json:"structuralEquals,omitempty" yaml:"structuralEquals,omitempty"`
	StrictEquals  string `json:"structuralStrictEquals,omitempty" yaml:"structuralStrictEquals,omitempty"`
	Freeze        string `json:"freeze,omitempty" yaml:"freeze,omitempty"`
	PersistentSet string `json:"persistentSet,omitempty" yaml:"persistentSet,omitempty"`
}

// ConfigFileNames are the names searched for config files, in order of preference.
var ConfigFileNames = []string{
	"valtypes.config.json",
	".valtypesrc.json",
	"valtypes.yaml",
	".valtypesrc.yaml",
}

// Environment variables read by ApplyEnv.
const (
	EnvTarget       = "VALTYPES_TARGET"
	EnvMinify       = "VALTYPES_MINIFY"
	EnvEmitRuntime  = "VALTYPES_EMIT_RUNTIME"
	EnvHelperPrefix = "VALTYPES_HELPER_PREFIX"
)

// Load searches for a config file starting from the given directory
// and walking up to parent directories. Returns nil if no config file is found.
func Load(startDir string) (*Config, string, error) {
	dir := startDir
	for {
		for _, name := range ConfigFileNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				cfg, err := LoadFile(path)
				return cfg, path, err
			}
		}

		// Move to parent directory
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root, no config found
			return nil, "", nil
		}
		dir = parent
	}
}

// LoadFile loads configuration from a specific file path. Files ending in
// .yaml or .yml are YAML, anything else JSON.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Target != "" {
		if _, ok := compiler.ParseTarget(c.Target); !ok {
			return fmt.Errorf("unknown target %q (expected es5 or es2015)", c.Target)
		}
	}
	return nil
}

// ApplyEnv overrides fields with the VALTYPES_* environment variables that
// are set. VALTYPES_MINIFY turns whitespace and identifier minification on or
// off together.
func (c *Config) ApplyEnv() error {
	if env.Has(EnvTarget) {
		c.Target = env.Str(EnvTarget)
	}
	if env.Has(EnvMinify) {
		minify := env.Bool(EnvMinify)
		c.MinifyWhitespace = &minify
		c.MinifyIdentifiers = &minify
	}
	if env.Has(EnvEmitRuntime) {
		emit := env.Bool(EnvEmitRuntime)
		c.EmitRuntime = &emit
	}
	if env.Has(EnvHelperPrefix) {
		c.HelperPrefix = env.Str(EnvHelperPrefix)
	}
	if err := c.validate(); err != nil {
		return fmt.Errorf("%s: %w", EnvTarget, err)
	}
	return nil
}

// ToOptions converts a Config to compiler.Options, using defaults for unset fields.
func (c *Config) ToOptions() compiler.Options {
	opts := compiler.DefaultOptions()

	if target, ok := compiler.ParseTarget(c.Target); ok {
		opts.Target = target
	}
	if c.MinifyWhitespace != nil {
		opts.MinifyWhitespace = *c.MinifyWhitespace
	}
	if c.MinifyIdentifiers != nil {
		opts.MinifyIdentifiers = *c.MinifyIdentifiers
	}
	if c.MangleTopLevel != nil {
		opts.MangleTopLevel = *c.MangleTopLevel
	}
	if c.EmitRuntime != nil {
		opts.EmitRuntime = *c.EmitRuntime
	}
	if len(c.KeepNames) > 0 {
		opts.KeepNames = c.KeepNames
	}
	opts.Helpers = c.helperNames()

	return opts
}

// helperNames applies the explicit names, then the prefix to all four.
func (c *Config) helperNames() helpers.Names {
	names := helpers.Names{
		Equals:        c.Helpers.Equals,
		StrictEquals:  c.Helpers.StrictEquals,
		Freeze:        c.Helpers.Freeze,
		PersistentSet: c.Helpers.PersistentSet,
	}.Fill()
	if c.HelperPrefix != "" {
		names = names.WithPrefix(c.HelperPrefix)
	}
	return names
}

// MergeOptions combines config file options with CLI options.
// CLI options take precedence over config file options.
type MergeOptions struct {
	// CLI flags (nil means not specified on CLI)
	Target            *string
	MinifyWhitespace  *bool
	MinifyIdentifiers *bool
	EmitRuntime       *bool
	KeepNames         []string
}

// Merge merges CLI options with config file options.
// CLI options override config file options when specified.
func (c *Config) Merge(cli MergeOptions) (compiler.Options, error) {
	opts := c.ToOptions()

	// CLI overrides
	if cli.Target != nil {
		target, ok := compiler.ParseTarget(*cli.Target)
		if !ok {
			return opts, fmt.Errorf("unknown target %q (expected es5 or es2015)", *cli.Target)
		}
		opts.Target = target
	}
	if cli.MinifyWhitespace != nil {
		opts.MinifyWhitespace = *cli.MinifyWhitespace
	}
	if cli.MinifyIdentifiers != nil {
		opts.MinifyIdentifiers = *cli.MinifyIdentifiers
	}
	if cli.EmitRuntime != nil {
		opts.EmitRuntime = *cli.EmitRuntime
	}
	if len(cli.KeepNames) > 0 {
		// Append CLI keep names to config keep names
		opts.KeepNames = append(append([]string{}, opts.KeepNames...), cli.KeepNames...)
	}

	return opts, nil
}
