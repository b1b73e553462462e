package trim

import (
	"fmt"
	"time"

	"github.com/zhubonan/dojo-upf-trim/upf"
)

// Trimmer cuts the radial mesh of UPF documents down to a target size. The
// zero value is not usable; construct with New.
type Trimmer struct {
	note bool
	now  func() time.Time
}

// New creates a Trimmer that records a provenance note in PP_INFO, stamped
// with the wall clock time of each trim.
func New() *Trimmer {
	return &Trimmer{
		note: true,
		now:  time.Now,
	}
}

// WithNote controls whether a provenance note is appended to PP_INFO after
// a successful trim.
func (t *Trimmer) WithNote(enabled bool) *Trimmer {
	t.note = enabled
	return t
}

// WithTimestamp pins the provenance note's timestamp, making output
// reproducible across runs.
func (t *Trimmer) WithTimestamp(at time.Time) *Trimmer {
	t.now = func() time.Time { return at }
	return t
}

// Result describes the outcome of one trim.
type Result struct {
	// MeshBefore is the mesh length read from the header before trimming.
	MeshBefore int

	// MeshAfter is the mesh length after trimming. Equal to MeshBefore
	// when no trim was needed.
	MeshAfter int

	// Trimmed reports whether the document was modified.
	Trimmed bool

	// Sections lists the names of the sections that were shortened, in
	// document order.
	Sections []string
}

// Trim cuts every mesh-indexed section of doc to at most maxMesh points and
// updates the size bookkeeping attributes to match. A document already at
// or below the target is returned untouched with Trimmed false.
//
// All mesh-indexed sections are checked against the header mesh size before
// anything is modified: on error the document is always left exactly as it
// was.
func (t *Trimmer) Trim(doc *upf.Document, maxMesh int) (*Result, error) {
	if maxMesh <= 0 {
		return nil, truncErrorf("", ErrInvalidMeshSize, "got %d", maxMesh)
	}

	length, err := doc.MeshLength()
	if err != nil {
		return nil, fmt.Errorf("read mesh length: %w", err)
	}
	if maxMesh >= length {
		return &Result{MeshBefore: length, MeshAfter: length}, nil
	}

	sections := doc.MeshSections()
	for _, s := range sections {
		if s.Len() != length {
			return nil, truncErrorf(s.Name, ErrInconsistentMesh, "header mesh_size=%d, section has %d", length, s.Len())
		}
	}

	res := &Result{MeshBefore: length, MeshAfter: maxMesh, Trimmed: true}
	for _, s := range sections {
		cut(s, maxMesh)
		res.Sections = append(res.Sections, s.Name)
	}

	doc.Header().SetIntAttr("mesh_size", maxMesh)
	if m := doc.Find("PP_MESH"); m != nil {
		if _, ok := m.Attr("mesh"); ok {
			m.SetIntAttr("mesh", maxMesh)
		}
	}

	if t.note {
		appendNote(doc, maxMesh, t.now())
	}
	return res, nil
}

// cut shortens the section's mesh axis to n points and updates its size
// attribute. The caller has already checked that the axis is longer than n.
func cut(s *upf.Section, n int) {
	switch s.Mesh {
	case upf.MeshValues:
		s.Values = s.Values[:n]
		s.SetIntAttr("size", n)
	case upf.MeshRows:
		// Row-major layout: the first n rows are a prefix of the data.
		s.Values = s.Values[:n*s.ColCount]
		s.RowCount = n
		s.SetIntAttr("size", n*s.ColCount)
	case upf.MeshCols:
		// Keep the first n columns of each row, packing rows forward.
		for r := 0; r < s.RowCount; r++ {
			copy(s.Values[r*n:(r+1)*n], s.Values[r*s.ColCount:r*s.ColCount+n])
		}
		s.Values = s.Values[:s.RowCount*n]
		s.ColCount = n
		s.SetIntAttr("size", s.RowCount*n)
	}
}
