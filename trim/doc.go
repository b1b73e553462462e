// Package trim shortens the radial mesh of parsed UPF documents.
//
// PseudoDojo pseudopotentials carry dense radial meshes that extend far
// beyond the range plane-wave codes ever sample. Trimming keeps the first N
// points of every mesh-indexed section, updates the header and per-section
// size attributes, and records a provenance note in PP_INFO:
//
//	doc, _ := upf.Parse(data)
//	res, err := trim.New().Trim(doc, 600)
//
// Documents already at or below the target are left untouched. On error the
// document is never partially modified.
package trim
