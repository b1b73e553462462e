package upf

import (
	"strconv"
	"strings"
)

// Document is one parsed UPF file: an ordered tree of sections plus the
// format version from the <UPF> root tag. A Document is owned by a single
// file's processing run; it is never shared between files or goroutines.
type Document struct {
	// Version is the UPF root tag's version attribute, e.g. "2.0.1".
	Version string

	// Sections holds the top-level sections in file order.
	Sections []*Section

	table *Table
}

// Table returns the section table the document was parsed with.
func (d *Document) Table() *Table {
	if d.table == nil {
		d.table = DefaultTable()
	}
	return d.table
}

// Walk visits every section in document order, depth first. The visitor
// returns false to stop the walk.
func (d *Document) Walk(fn func(*Section) bool) {
	for _, s := range d.Sections {
		if !s.walk(fn) {
			return
		}
	}
}

// Find returns the first section with the given instance name, searching
// depth first, or nil.
func (d *Document) Find(name string) *Section {
	var found *Section
	d.Walk(func(s *Section) bool {
		if s.Name == name {
			found = s
			return false
		}
		return true
	})
	return found
}

// FindFamily returns all sections of the given tag family in document
// order.
func (d *Document) FindFamily(family string) []*Section {
	var out []*Section
	d.Walk(func(s *Section) bool {
		if s.Family() == family {
			out = append(out, s)
		}
		return true
	})
	return out
}

// Header returns the PP_HEADER section, or nil.
func (d *Document) Header() *Section {
	return d.Find("PP_HEADER")
}

// MeshLength returns the document's authoritative mesh length, read from
// the PP_HEADER mesh_size attribute.
func (d *Document) MeshLength() (int, error) {
	h := d.Header()
	if h == nil {
		return 0, parseErrorf("PP_HEADER", 0, ErrMissingSection, "no header to read mesh_size from")
	}
	return h.IntAttr("mesh_size")
}

// MeshSections returns every section whose mesh axis is set, in document
// order. These are exactly the sections truncation shortens.
func (d *Document) MeshSections() []*Section {
	var out []*Section
	d.Walk(func(s *Section) bool {
		if s.Mesh != MeshNone {
			out = append(out, s)
		}
		return true
	})
	return out
}

// Validate checks the document's internal consistency: every required
// family is present, every declared size matches the data actually held,
// and every mesh-indexed section's extent equals the header mesh length.
// It returns a *ParseError describing the first violation found.
func (d *Document) Validate() error {
	for _, family := range d.Table().Required() {
		if len(d.FindFamily(family)) == 0 {
			return parseErrorf(family, 0, ErrMissingSection, "document has no %s", family)
		}
	}

	mesh, err := d.MeshLength()
	if err != nil {
		return err
	}

	var verr error
	d.Walk(func(s *Section) bool {
		verr = s.validate(mesh)
		return verr == nil
	})
	if verr != nil {
		return verr
	}

	// PP_MESH may duplicate the mesh length in its own attribute.
	if m := d.Find("PP_MESH"); m != nil {
		if v, ok := m.Attr("mesh"); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return parseErrorf(m.Name, 0, ErrBadNumber, "attribute mesh=%q", v)
			}
			if n != mesh {
				return parseErrorf(m.Name, 0, ErrMeshMismatch, "mesh=%d, header mesh_size=%d", n, mesh)
			}
		}
	}
	return nil
}

// validate checks a single section's declared size and mesh extent against
// the document mesh length.
func (s *Section) validate(mesh int) error {
	switch s.Kind {
	case KindArray1D:
		declared, err := s.IntAttr("size")
		if err != nil {
			return err
		}
		if declared != len(s.Values) {
			return parseErrorf(s.Name, 0, ErrLengthMismatch, "size=%d, found %d values", declared, len(s.Values))
		}
		if s.Mesh == MeshValues && len(s.Values) != mesh {
			return parseErrorf(s.Name, 0, ErrMeshMismatch, "mesh_size=%d, found %d values", mesh, len(s.Values))
		}
	case KindArray2D:
		declared, err := s.IntAttr("size")
		if err != nil {
			return err
		}
		if declared != len(s.Values) {
			return parseErrorf(s.Name, 0, ErrLengthMismatch, "size=%d, found %d values", declared, len(s.Values))
		}
		if s.RowCount*s.ColCount != len(s.Values) {
			return parseErrorf(s.Name, 0, ErrLengthMismatch, "%dx%d dimensions, found %d values", s.RowCount, s.ColCount, len(s.Values))
		}
		if s.Mesh != MeshNone && s.Len() != mesh {
			return parseErrorf(s.Name, 0, ErrMeshMismatch, "mesh_size=%d, mesh axis has %d entries", mesh, s.Len())
		}
	}
	return nil
}
