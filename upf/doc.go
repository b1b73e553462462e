// Package upf parses and serializes UPF (Unified Pseudopotential Format)
// files.
//
// UPF is a tag-delimited text format: named sections fenced by <PP_XXX ...>
// and </PP_XXX> tags, carrying either key="value" attributes, whitespace-
// separated numeric data, nested child sections, or free text. This package
// targets the attribute-tagged variant emitted by ONCVPSP for the PseudoDojo
// tables (<UPF version="2.0.1">).
//
// Core types:
//   - Document: An ordered tree of sections plus the UPF version
//   - Section: One tagged block, classified by Kind at parse time
//   - Table: Maps tag families (PP_R, PP_BETA, ...) to their shape and
//     mesh role
//
// Example usage:
//
//	doc, err := upf.Parse(data)
//	if err != nil {
//	    // *upf.ParseError carries the section name and line number
//	}
//
//	mesh, _ := doc.MeshLength()
//	for _, s := range doc.MeshSections() {
//	    fmt.Printf("%s: %d points\n", s.Name, s.Len())
//	}
//
//	out := doc.Serialize()
//
// Serialization normalizes whitespace and numeric formatting but preserves
// section order, attribute order, and free-text blocks byte for byte.
// Serializing the result of parsing serialized output reproduces the same
// bytes, so trimmed files are stable under repeated processing.
//
// The package performs no filesystem access; callers own all I/O.
package upf
