package upf

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

// attrThreshold is the attribute count above which an opening tag is
// written one attribute per line.
const attrThreshold = 4

// Serialize renders the document as UPF text. The output is normalized:
// numeric values are printed as %20.13E, tags start at column zero, and
// attribute-only sections are self-closing. Serializing a document, parsing
// the result, and serializing again yields identical bytes.
func (d *Document) Serialize() []byte {
	var buf bytes.Buffer
	_, _ = d.WriteTo(&buf)
	return buf.Bytes()
}

// WriteTo writes the serialized document to w, implementing io.WriterTo.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	if d.Version != "" {
		cw.line(`<UPF version="` + d.Version + `">`)
	} else {
		cw.line("<UPF>")
	}
	for _, s := range d.Sections {
		d.writeSection(cw, s)
	}
	cw.line("</UPF>")
	return cw.n, cw.err
}

func (d *Document) writeSection(cw *countingWriter, s *Section) {
	switch s.Kind {
	case KindComment:
		for _, l := range s.Raw {
			cw.line(l)
		}
	case KindVerbatim:
		for _, l := range s.RawOpen {
			cw.line(l)
		}
		if s.SelfClosing {
			return
		}
		for _, l := range s.Raw {
			cw.line(l)
		}
		cw.line("</" + s.Name + ">")
	case KindAttributes:
		d.writeOpenTag(cw, s, true)
	case KindContainer:
		if s.SelfClosing && len(s.Children) == 0 {
			d.writeOpenTag(cw, s, true)
			return
		}
		d.writeOpenTag(cw, s, false)
		for _, c := range s.Children {
			d.writeSection(cw, c)
		}
		cw.line("</" + s.Name + ">")
	case KindArray1D, KindArray2D:
		d.writeOpenTag(cw, s, false)
		d.writeValues(cw, s)
		cw.line("</" + s.Name + ">")
	}
}

func (d *Document) writeOpenTag(cw *countingWriter, s *Section, selfClose bool) {
	end := ">"
	if selfClose {
		end = "/>"
	}
	if len(s.Attrs) > attrThreshold {
		cw.line("<" + s.Name)
		for i, a := range s.Attrs {
			suffix := ""
			if i == len(s.Attrs)-1 {
				suffix = end
			}
			cw.line(`    ` + a.Key + `="` + a.Value + `"` + suffix)
		}
		return
	}
	var b strings.Builder
	b.WriteString("<")
	b.WriteString(s.Name)
	for _, a := range s.Attrs {
		b.WriteString(" ")
		b.WriteString(a.Key)
		b.WriteString(`="`)
		b.WriteString(a.Value)
		b.WriteString(`"`)
	}
	b.WriteString(end)
	cw.line(b.String())
}

func (d *Document) writeValues(cw *countingWriter, s *Section) {
	cols := d.Table().columns(s)
	var b strings.Builder
	for i, v := range s.Values {
		if i%cols != 0 {
			b.WriteByte(' ')
		}
		// 13 decimals matches ONCVPSP output and is within float64's 15
		// significant digits, so reparsing reproduces the same bytes.
		fmt.Fprintf(&b, "%20.13E", v)
		if (i+1)%cols == 0 || i == len(s.Values)-1 {
			cw.line(b.String())
			b.Reset()
		}
	}
}

// countingWriter tracks bytes written and latches the first error so
// callers check once at the end.
type countingWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (cw *countingWriter) line(s string) {
	if cw.err != nil {
		return
	}
	n, err := io.WriteString(cw.w, s)
	cw.n += int64(n)
	if err != nil {
		cw.err = err
		return
	}
	n, err = io.WriteString(cw.w, "\n")
	cw.n += int64(n)
	cw.err = err
}
