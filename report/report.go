package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/invopop/jsonschema"

	"github.com/zhubonan/dojo-upf-trim/upf"
)

// Report summarizes one pseudopotential file: the header identity fields
// plus a flat listing of its sections.
type Report struct {
	// File is the source path, when known.
	File string `json:"file,omitempty"`

	// Version is the UPF format version.
	Version string `json:"version"`

	Element        string  `json:"element"`
	PseudoType     string  `json:"pseudo_type"`
	Functional     string  `json:"functional,omitempty"`
	Relativistic   string  `json:"relativistic,omitempty"`
	ZValence       float64 `json:"z_valence"`
	CoreCorrection bool    `json:"core_correction"`

	// MeshSize is the radial mesh length from the header.
	MeshSize int `json:"mesh_size"`

	Projectors    int `json:"projectors"`
	Wavefunctions int `json:"wavefunctions"`

	// Sections lists every section in document order, containers included.
	Sections []SectionInfo `json:"sections"`
}

// SectionInfo describes one section of the document.
type SectionInfo struct {
	Name string `json:"name"`
	Kind string `json:"kind"`

	// MeshIndexed marks sections whose length follows the radial mesh.
	MeshIndexed bool `json:"mesh_indexed"`

	// Length is the extent of the mesh axis for data sections, zero
	// otherwise.
	Length int `json:"length,omitempty"`

	// Rows and Cols are set for matrix sections.
	Rows int `json:"rows,omitempty"`
	Cols int `json:"cols,omitempty"`
}

// FromDocument builds a report for a parsed document.
func FromDocument(doc *upf.Document) (*Report, error) {
	h := doc.Header()
	if h == nil {
		return nil, fmt.Errorf("document has no PP_HEADER")
	}
	mesh, err := doc.MeshLength()
	if err != nil {
		return nil, fmt.Errorf("read mesh length: %w", err)
	}

	r := &Report{
		Version:  doc.Version,
		MeshSize: mesh,
	}
	r.Element, _ = attr(h, "element")
	r.PseudoType, _ = attr(h, "pseudo_type")
	r.Functional, _ = attr(h, "functional")
	r.Relativistic, _ = attr(h, "relativistic")
	if v, ok := attr(h, "core_correction"); ok {
		r.CoreCorrection = v == "T" || strings.EqualFold(v, "true")
	}
	if v, ok := attr(h, "z_valence"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("parse z_valence %q: %v", v, err)
		}
		r.ZValence = f
	}
	if _, ok := h.Attr("number_of_proj"); ok {
		if r.Projectors, err = h.IntAttr("number_of_proj"); err != nil {
			return nil, err
		}
	}
	if _, ok := h.Attr("number_of_wfc"); ok {
		if r.Wavefunctions, err = h.IntAttr("number_of_wfc"); err != nil {
			return nil, err
		}
	}

	doc.Walk(func(s *upf.Section) bool {
		if s.Kind == upf.KindComment {
			return true
		}
		info := SectionInfo{
			Name:        s.Name,
			Kind:        s.Kind.String(),
			MeshIndexed: s.Mesh != upf.MeshNone,
			Length:      s.Len(),
		}
		if s.Kind == upf.KindArray2D {
			info.Rows, info.Cols = s.RowCount, s.ColCount
		}
		r.Sections = append(r.Sections, info)
		return true
	})
	return r, nil
}

// attr reads a header attribute with surrounding padding removed.
func attr(s *upf.Section, key string) (string, bool) {
	v, ok := s.Attr(key)
	return strings.TrimSpace(v), ok
}

// JSON renders the report as indented JSON.
func (r *Report) JSON() ([]byte, error) {
	out, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	return out, nil
}

// Render writes a human-readable summary to w.
func (r *Report) Render(w io.Writer) error {
	tw := &errWriter{w: w}
	if r.File != "" {
		tw.printf("file            %s\n", r.File)
	}
	tw.printf("format          UPF %s\n", r.Version)
	tw.printf("element         %s\n", r.Element)
	tw.printf("pseudo type     %s\n", r.PseudoType)
	if r.Functional != "" {
		tw.printf("functional      %s\n", r.Functional)
	}
	if r.Relativistic != "" {
		tw.printf("relativistic    %s\n", r.Relativistic)
	}
	tw.printf("z valence       %g\n", r.ZValence)
	tw.printf("core correction %t\n", r.CoreCorrection)
	tw.printf("mesh size       %d\n", r.MeshSize)
	tw.printf("projectors      %d\n", r.Projectors)
	tw.printf("wavefunctions   %d\n", r.Wavefunctions)
	tw.printf("sections:\n")
	for _, s := range r.Sections {
		mark := " "
		if s.MeshIndexed {
			mark = "*"
		}
		switch {
		case s.Rows > 0:
			tw.printf("  %s %-16s %-10s %dx%d\n", mark, s.Name, s.Kind, s.Rows, s.Cols)
		case s.Length > 0:
			tw.printf("  %s %-16s %-10s %d\n", mark, s.Name, s.Kind, s.Length)
		default:
			tw.printf("  %s %-16s %s\n", mark, s.Name, s.Kind)
		}
	}
	tw.printf("(* = sized by the radial mesh)\n")
	return tw.err
}

type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

// Schema returns the JSON schema for serialized reports.
func Schema() ([]byte, error) {
	s := jsonschema.Reflect(&Report{})
	out, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal report schema: %w", err)
	}
	return out, nil
}
