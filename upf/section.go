package upf

import (
	"strconv"
	"strings"
)

// Kind classifies a section's payload, resolved once at parse time.
type Kind int

const (
	// KindAttributes is a scalar attribute set with no data payload
	// (PP_HEADER).
	KindAttributes Kind = iota

	// KindArray1D is a one-dimensional numeric array (PP_R, PP_LOCAL, ...).
	KindArray1D

	// KindArray2D is a two-dimensional numeric array stored row-major
	// (PP_DIJ).
	KindArray2D

	// KindContainer fences nested child sections (PP_MESH, PP_NONLOCAL).
	KindContainer

	// KindVerbatim is an opaque text block preserved byte for byte
	// (PP_INFO, unrecognized sections).
	KindVerbatim

	// KindComment is a <!-- ... --> block between sections.
	KindComment
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindAttributes:
		return "attributes"
	case KindArray1D:
		return "array"
	case KindArray2D:
		return "matrix"
	case KindContainer:
		return "container"
	case KindVerbatim:
		return "verbatim"
	case KindComment:
		return "comment"
	default:
		return "unknown"
	}
}

// MeshAxis declares which axis of a section, if any, is indexed by the
// radial mesh. Truncation shortens exactly that axis.
type MeshAxis int

const (
	// MeshNone marks a section independent of the mesh.
	MeshNone MeshAxis = iota

	// MeshValues marks a one-dimensional array indexed by mesh point.
	MeshValues

	// MeshRows marks a two-dimensional array whose rows are mesh points.
	MeshRows

	// MeshCols marks a two-dimensional array whose columns are mesh points.
	MeshCols
)

// String returns the axis name.
func (a MeshAxis) String() string {
	switch a {
	case MeshNone:
		return "none"
	case MeshValues:
		return "values"
	case MeshRows:
		return "rows"
	case MeshCols:
		return "cols"
	default:
		return "unknown"
	}
}

// Attr is a single key="value" attribute. Order is significant and is
// preserved through serialization.
type Attr struct {
	Key   string
	Value string
}

// Section is one tagged block of a UPF document.
type Section struct {
	// Name is the instance name as written, e.g. "PP_BETA.1".
	Name string

	// Kind selects which payload fields below are meaningful.
	Kind Kind

	// Mesh is the section's mesh axis, resolved from the table at parse
	// time.
	Mesh MeshAxis

	// Attrs holds the opening tag's attributes in written order.
	Attrs []Attr

	// Values holds numeric data for KindArray1D and KindArray2D. For 2D
	// sections the layout is row-major with RowCount x ColCount entries.
	Values []float64

	// RowCount and ColCount are the logical dimensions of a KindArray2D
	// payload.
	RowCount int
	ColCount int

	// Children holds nested sections for KindContainer, in file order.
	Children []*Section

	// Raw holds the body lines of KindVerbatim and the full comment lines
	// of KindComment.
	Raw []string

	// RawOpen holds the verbatim opening tag lines of a KindVerbatim
	// section so unrecognized sections round-trip untouched.
	RawOpen []string

	// SelfClosing records whether the tag was written as <NAME .../>.
	SelfClosing bool
}

// Family returns the tag family for a section name: the base name before the
// first dot. "PP_BETA.1" and "PP_BETA.2" both belong to family "PP_BETA".
func Family(name string) string {
	if i := strings.IndexByte(name, '.'); i >= 0 {
		return name[:i]
	}
	return name
}

// Family returns the section's tag family.
func (s *Section) Family() string {
	return Family(s.Name)
}

// Attr returns the value of the named attribute and whether it is present.
func (s *Section) Attr(key string) (string, bool) {
	for _, a := range s.Attrs {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// IntAttr returns the named attribute parsed as an integer. UPF writers pad
// numeric attributes with spaces (size="  1358"), so the value is trimmed
// before parsing.
func (s *Section) IntAttr(key string) (int, error) {
	v, ok := s.Attr(key)
	if !ok {
		return 0, parseErrorf(s.Name, 0, ErrMissingAttr, "%s", key)
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, parseErrorf(s.Name, 0, ErrBadNumber, "attribute %s=%q", key, v)
	}
	return n, nil
}

// SetAttr sets the named attribute, replacing it in place when present and
// appending it otherwise.
func (s *Section) SetAttr(key, value string) {
	for i, a := range s.Attrs {
		if a.Key == key {
			s.Attrs[i].Value = value
			return
		}
	}
	s.Attrs = append(s.Attrs, Attr{Key: key, Value: value})
}

// SetIntAttr sets the named attribute to an unpadded integer value.
func (s *Section) SetIntAttr(key string, n int) {
	s.SetAttr(key, strconv.Itoa(n))
}

// Len returns the extent of the section's mesh axis: the value count for a
// one-dimensional array and the mesh-axis dimension for a two-dimensional
// one. It returns 0 for sections without numeric payload.
func (s *Section) Len() int {
	switch s.Kind {
	case KindArray1D:
		return len(s.Values)
	case KindArray2D:
		switch s.Mesh {
		case MeshRows:
			return s.RowCount
		case MeshCols:
			return s.ColCount
		default:
			return len(s.Values)
		}
	default:
		return 0
	}
}

// At returns the element at row r, column c of a KindArray2D section.
func (s *Section) At(r, c int) float64 {
	return s.Values[r*s.ColCount+c]
}

// Find returns the first descendant section (including s itself) with the
// given instance name, or nil.
func (s *Section) Find(name string) *Section {
	if s.Name == name {
		return s
	}
	for _, c := range s.Children {
		if found := c.Find(name); found != nil {
			return found
		}
	}
	return nil
}

// walk visits s and its descendants in document order. The visitor returns
// false to stop the walk.
func (s *Section) walk(fn func(*Section) bool) bool {
	if !fn(s) {
		return false
	}
	for _, c := range s.Children {
		if !c.walk(fn) {
			return false
		}
	}
	return true
}
