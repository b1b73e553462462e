package upf

import (
	"fmt"
	"sort"
)

// DefaultColumns is the per-line value count used when a data section
// carries no columns attribute.
const DefaultColumns = 4

// SectionDef describes one tag family: its payload kind, its relation to
// the radial mesh, and how to recover its shape. The parser classifies every
// section it meets through a Table of these, and the trimmer touches only
// what the table marks as mesh-indexed.
type SectionDef struct {
	// Family is the base tag name, e.g. "PP_BETA" for PP_BETA.1, PP_BETA.2.
	Family string

	// Kind is the payload shape for sections of this family.
	Kind Kind

	// Mesh is the axis indexed by the radial mesh, or MeshNone.
	Mesh MeshAxis

	// Required makes parsing fail when no section of this family is
	// present.
	Required bool

	// RowsFrom and ColsFrom name the PP_HEADER attributes that give a
	// KindArray2D section its dimensions.
	RowsFrom string
	ColsFrom string

	// Columns is the serialization line width fallback when the section
	// has no columns attribute. Zero means DefaultColumns.
	Columns int
}

// Table maps tag families to their SectionDef. Sections of unknown families
// are preserved verbatim and never modified.
type Table struct {
	defs map[string]SectionDef
}

// NewTable creates an empty table. Most callers want DefaultTable.
func NewTable() *Table {
	return &Table{defs: make(map[string]SectionDef)}
}

// DefaultTable returns a fresh table describing the UPF 2.0.1 sections
// produced for the PseudoDojo pseudopotentials. The caller may extend or
// override entries without affecting other tables.
func DefaultTable() *Table {
	t := NewTable()
	for _, def := range []SectionDef{
		{Family: "PP_INFO", Kind: KindVerbatim},
		{Family: "PP_HEADER", Kind: KindAttributes, Required: true},
		{Family: "PP_MESH", Kind: KindContainer, Required: true},
		{Family: "PP_R", Kind: KindArray1D, Mesh: MeshValues, Required: true},
		{Family: "PP_RAB", Kind: KindArray1D, Mesh: MeshValues, Required: true},
		{Family: "PP_LOCAL", Kind: KindArray1D, Mesh: MeshValues},
		{Family: "PP_NLCC", Kind: KindArray1D, Mesh: MeshValues},
		{Family: "PP_NONLOCAL", Kind: KindContainer},
		{Family: "PP_BETA", Kind: KindArray1D, Mesh: MeshValues},
		{Family: "PP_DIJ", Kind: KindArray2D, RowsFrom: "number_of_proj", ColsFrom: "number_of_proj"},
		{Family: "PP_PSWFC", Kind: KindContainer},
		{Family: "PP_CHI", Kind: KindArray1D, Mesh: MeshValues},
		{Family: "PP_RHOATOM", Kind: KindArray1D, Mesh: MeshValues},
	} {
		// The built-in entries are valid by construction.
		if err := t.Add(def); err != nil {
			panic(fmt.Sprintf("upf: bad built-in section def %s: %v", def.Family, err))
		}
	}
	return t
}

// Add registers a definition, replacing any existing entry for the same
// family. It rejects definitions the parser could not act on.
func (t *Table) Add(def SectionDef) error {
	if def.Family == "" {
		return fmt.Errorf("section def has empty family")
	}
	switch def.Kind {
	case KindArray2D:
		if def.RowsFrom == "" || def.ColsFrom == "" {
			return fmt.Errorf("section def %s: matrix kind needs rows/cols attribute sources", def.Family)
		}
	case KindArray1D, KindAttributes, KindContainer, KindVerbatim:
	default:
		return fmt.Errorf("section def %s: kind %s cannot be declared", def.Family, def.Kind)
	}
	switch {
	case def.Mesh == MeshValues && def.Kind != KindArray1D:
		return fmt.Errorf("section def %s: mesh axis values requires array kind", def.Family)
	case (def.Mesh == MeshRows || def.Mesh == MeshCols) && def.Kind != KindArray2D:
		return fmt.Errorf("section def %s: mesh axis %s requires matrix kind", def.Family, def.Mesh)
	}
	t.defs[def.Family] = def
	return nil
}

// Lookup resolves a section instance name to its family definition.
func (t *Table) Lookup(name string) (SectionDef, bool) {
	def, ok := t.defs[Family(name)]
	return def, ok
}

// Families returns all registered family names, sorted for stable output.
func (t *Table) Families() []string {
	names := make([]string, 0, len(t.defs))
	for name := range t.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Required returns the families that must appear in a valid document,
// sorted.
func (t *Table) Required() []string {
	var names []string
	for name, def := range t.defs {
		if def.Required {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// columns returns the serialization line width for a section: its columns
// attribute when present and positive, then the family fallback, then
// DefaultColumns.
func (t *Table) columns(s *Section) int {
	if v, err := s.IntAttr("columns"); err == nil && v > 0 {
		return v
	}
	if def, ok := t.Lookup(s.Name); ok && def.Columns > 0 {
		return def.Columns
	}
	return DefaultColumns
}
