// Package config handles loading wizc configuration from files.
//
// Configuration can be specified in a JSON file named wizc.json or .wizcrc.
// The config file is searched for in the current directory and parent directories.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/ChanTsune/wizc/internal/pipeline"
)

// Config represents the configuration file structure.
// All fields are optional and will use default values if not specified.
type Config struct {
	// DisableMangling turns off symbol mangling globally, as though every
	// declaration carried `no_mangle`.
	DisableMangling *bool `json:"disableMangling,omitempty"`

	// KeepNames lists qualified declaration names that should not be
	// mangled even without an explicit `no_mangle` annotation.
	KeepNames []string `json:"keepNames,omitempty"`
}

// ConfigFileNames are the names searched for config files, in order of preference.
var ConfigFileNames = []string{
	"wizc.json",
	".wizcrc",
	".wizcrc.json",
}

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

// LoadFile loads configuration from a specific file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ToOptions converts a Config to pipeline.Options, using defaults for unset fields.
func (c *Config) ToOptions() pipeline.Options {
	opts := pipeline.DefaultOptions()

	if c.DisableMangling != nil {
		opts.DisableMangling = *c.DisableMangling
	}
	if len(c.KeepNames) > 0 {
		opts.KeepNames = c.KeepNames
	}

	return opts
}

// MergeOptions combines config file options with CLI options.
// CLI options take precedence over config file options.
type MergeOptions struct {
	// CLI flags (nil means not specified on CLI)
	DisableMangling *bool
	NoMangle        bool // shorthand for --no-mangle, forces DisableMangling true
	KeepNames       []string
}

// Merge merges CLI options with config file options.
// CLI options override config file options when specified.
func (c *Config) Merge(cli MergeOptions) pipeline.Options {
	opts := c.ToOptions()

	// CLI overrides
	if cli.DisableMangling != nil {
		opts.DisableMangling = *cli.DisableMangling
	}
	if cli.NoMangle {
		opts.DisableMangling = true
	}
	if len(cli.KeepNames) > 0 {
		// Append CLI keep names to config keep names
		opts.KeepNames = append(opts.KeepNames, cli.KeepNames...)
	}

	return opts
}
