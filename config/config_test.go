package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhubonan/dojo-upf-trim/upf"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 600, cfg.Mesh)
	assert.Equal(t, "*.upf", cfg.Glob)
	assert.Equal(t, 1, cfg.Jobs)
	assert.True(t, cfg.Note)
	assert.Equal(t, "info", cfg.LogLevel)
	require.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	path := writeFile(t, "upftrim.toml", `
mesh = 300
jobs = 4
log_level = "debug"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 300, cfg.Mesh)
	assert.Equal(t, 4, cfg.Jobs)
	assert.Equal(t, "debug", cfg.LogLevel)
	// Keys absent from the file keep their defaults.
	assert.Equal(t, "*.upf", cfg.Glob)
	assert.True(t, cfg.Note)
}

func TestLoadUnknownKey(t *testing.T) {
	path := writeFile(t, "upftrim.toml", "mehs = 300\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown keys")
	assert.Contains(t, err.Error(), "mehs")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}

func TestLoadDefault(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := LoadDefault()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	require.NoError(t, os.WriteFile(DefaultPath, []byte("mesh = 123\n"), 0o644))
	cfg, err = LoadDefault()
	require.NoError(t, err)
	assert.Equal(t, 123, cfg.Mesh)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"zero mesh", func(c *Config) { c.Mesh = 0 }, "mesh must be positive"},
		{"negative mesh", func(c *Config) { c.Mesh = -1 }, "mesh must be positive"},
		{"zero jobs", func(c *Config) { c.Jobs = 0 }, "jobs must be at least 1"},
		{"empty glob", func(c *Config) { c.Glob = "" }, "glob must not be empty"},
		{"bad log level", func(c *Config) { c.LogLevel = "chatty" }, "log_level"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestParseSections(t *testing.T) {
	rules, err := ParseSections([]byte(`
sections:
  - name: PP_GIPAW_VLOCAL
    kind: array
    mesh: values
  - name: PP_OVERLAP
    kind: matrix
    mesh: rows
    rows_from: mesh_size
    cols_from: number_of_proj
    columns: 8
`))
	require.NoError(t, err)
	require.Len(t, rules, 2)

	table, err := BuildTable(rules)
	require.NoError(t, err)

	def, ok := table.Lookup("PP_GIPAW_VLOCAL")
	require.True(t, ok)
	assert.Equal(t, upf.KindArray1D, def.Kind)
	assert.Equal(t, upf.MeshValues, def.Mesh)

	def, ok = table.Lookup("PP_OVERLAP.3")
	require.True(t, ok)
	assert.Equal(t, upf.KindArray2D, def.Kind)
	assert.Equal(t, upf.MeshRows, def.Mesh)
	assert.Equal(t, 8, def.Columns)

	// The stock entries are still there.
	_, ok = table.Lookup("PP_R")
	assert.True(t, ok)
}

func TestSectionRuleErrors(t *testing.T) {
	tests := []struct {
		name    string
		rule    SectionRule
		wantErr string
	}{
		{"unknown kind", SectionRule{Name: "PP_X", Kind: "blob"}, `unknown kind "blob"`},
		{"unknown mesh", SectionRule{Name: "PP_X", Kind: "array", Mesh: "diagonal"}, `unknown mesh axis "diagonal"`},
		{"matrix without dims", SectionRule{Name: "PP_X", Kind: "matrix"}, "rows/cols"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := BuildTable([]SectionRule{tc.rule})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoadSections(t *testing.T) {
	path := writeFile(t, "sections.yaml", `
sections:
  - name: PP_PAW
    kind: container
`)
	rules, err := LoadSections(path)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "PP_PAW", rules[0].Name)

	_, err = LoadSections(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestSchema(t *testing.T) {
	out, err := Schema()
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal(out, &schema))
	assert.Contains(t, schema, "$schema")
}
