package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/invopop/jsonschema"
	"github.com/sirupsen/logrus"
)

// DefaultPath is the config file name probed in the working directory
// when no file is named explicitly.
const DefaultPath = "upftrim.toml"

// Config holds the settings for a trimming run. Values left out of the
// config file keep their defaults.
type Config struct {
	// Mesh is the target mesh size files are trimmed to.
	Mesh int `toml:"mesh" json:"mesh" jsonschema:"minimum=1,description=Target radial mesh size"`

	// Glob selects the input files inside the input directory.
	Glob string `toml:"glob" json:"glob" jsonschema:"description=Filename pattern matched against input files"`

	// Jobs is the number of files processed concurrently.
	Jobs int `toml:"jobs" json:"jobs" jsonschema:"minimum=1,description=Number of files processed concurrently"`

	// Note controls the provenance note appended to PP_INFO.
	Note bool `toml:"note" json:"note" jsonschema:"description=Append a provenance note to PP_INFO after trimming"`

	// FailFast stops a batch at the first file that cannot be processed.
	FailFast bool `toml:"fail_fast" json:"fail_fast" jsonschema:"description=Stop the batch at the first failure"`

	// LogLevel is a logrus level name: panic, fatal, error, warn, info,
	// debug, or trace.
	LogLevel string `toml:"log_level" json:"log_level" jsonschema:"description=Logging verbosity"`

	// SectionsFile points at a YAML file with extra section definitions
	// for dialects beyond stock UPF 2.0.1.
	SectionsFile string `toml:"sections_file" json:"sections_file,omitempty" jsonschema:"description=YAML file with additional section definitions"`
}

// Default returns the built-in configuration: mesh 600, one job, notes on.
func Default() Config {
	return Config{
		Mesh:     600,
		Glob:     "*.upf",
		Jobs:     1,
		Note:     true,
		LogLevel: "info",
	}
}

// Load reads a TOML config file, overlaying it on the defaults. Unknown
// keys are rejected so typos do not silently fall back to defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return cfg, fmt.Errorf("load config: unknown keys: %s", strings.Join(keys, ", "))
	}
	return cfg, nil
}

// LoadDefault loads DefaultPath from the working directory. A missing
// file is not an error; the defaults are returned unchanged.
func LoadDefault() (Config, error) {
	if _, err := os.Stat(DefaultPath); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(DefaultPath)
}

// Validate checks the configuration for values no run could use.
func (c Config) Validate() error {
	if c.Mesh <= 0 {
		return fmt.Errorf("mesh must be positive, got %d", c.Mesh)
	}
	if c.Jobs < 1 {
		return fmt.Errorf("jobs must be at least 1, got %d", c.Jobs)
	}
	if c.Glob == "" {
		return fmt.Errorf("glob must not be empty")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}

// Schema returns the JSON schema for the config file, for editor
// integration and validation tooling.
func Schema() ([]byte, error) {
	s := jsonschema.Reflect(&Config{})
	out, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal config schema: %w", err)
	}
	return out, nil
}
