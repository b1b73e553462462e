// Package config loads trimming run settings from TOML and user-supplied
// section definitions from YAML.
package config
