package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/zhubonan/dojo-upf-trim/upf"
)

// SectionRule is one user-supplied section definition. It mirrors
// upf.SectionDef with string-typed enums so rules read naturally in YAML:
//
//	sections:
//	  - name: PP_GIPAW_VLOCAL
//	    kind: array
//	    mesh: values
type SectionRule struct {
	Name     string `yaml:"name" json:"name"`
	Kind     string `yaml:"kind" json:"kind"`
	Mesh     string `yaml:"mesh,omitempty" json:"mesh,omitempty"`
	RowsFrom string `yaml:"rows_from,omitempty" json:"rows_from,omitempty"`
	ColsFrom string `yaml:"cols_from,omitempty" json:"cols_from,omitempty"`
	Columns  int    `yaml:"columns,omitempty" json:"columns,omitempty"`
	Required bool   `yaml:"required,omitempty" json:"required,omitempty"`
}

type sectionsFile struct {
	Sections []SectionRule `yaml:"sections"`
}

// LoadSections reads section rules from a YAML file.
func LoadSections(path string) ([]SectionRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load sections: %w", err)
	}
	rules, err := ParseSections(data)
	if err != nil {
		return nil, fmt.Errorf("load sections: %w", err)
	}
	return rules, nil
}

// ParseSections parses section rules from YAML text.
func ParseSections(data []byte) ([]SectionRule, error) {
	var f sectionsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse sections: %w", err)
	}
	return f.Sections, nil
}

// Def converts the rule to an upf.SectionDef.
func (r SectionRule) Def() (upf.SectionDef, error) {
	def := upf.SectionDef{
		Family:   r.Name,
		RowsFrom: r.RowsFrom,
		ColsFrom: r.ColsFrom,
		Columns:  r.Columns,
		Required: r.Required,
	}

	switch r.Kind {
	case "attributes":
		def.Kind = upf.KindAttributes
	case "array":
		def.Kind = upf.KindArray1D
	case "matrix":
		def.Kind = upf.KindArray2D
	case "container":
		def.Kind = upf.KindContainer
	case "verbatim":
		def.Kind = upf.KindVerbatim
	default:
		return def, fmt.Errorf("section %s: unknown kind %q", r.Name, r.Kind)
	}

	switch r.Mesh {
	case "", "none":
		def.Mesh = upf.MeshNone
	case "values":
		def.Mesh = upf.MeshValues
	case "rows":
		def.Mesh = upf.MeshRows
	case "cols":
		def.Mesh = upf.MeshCols
	default:
		return def, fmt.Errorf("section %s: unknown mesh axis %q", r.Name, r.Mesh)
	}
	return def, nil
}

// BuildTable extends the default section table with the given rules.
func BuildTable(rules []SectionRule) (*upf.Table, error) {
	table := upf.DefaultTable()
	for _, r := range rules {
		def, err := r.Def()
		if err != nil {
			return nil, err
		}
		if err := table.Add(def); err != nil {
			return nil, fmt.Errorf("section %s: %w", r.Name, err)
		}
	}
	return table, nil
}
