// Package upftrim trims UPF pseudopotential files down to a fixed radial
// mesh size.
//
// PseudoDojo pseudopotentials are tabulated on a constant-spacing radial
// mesh that extends well beyond the 6 bohr cut-off radius abinit applies
// internally. CASTEP and other consumers have no such cut-off, so the same
// UPF file yields slightly different results in different codes. upftrim
// rewrites UPF files with every mesh-indexed data block truncated to a
// chosen number of mesh points, so that all consumers see identical data.
//
// Each subpackage can be used independently:
//
//   - upf: Parse and serialize the UPF tag-delimited format
//   - trim: Truncate a parsed document to a maximum mesh size
//   - config: Tool configuration and section-table overrides
//   - pipeline: Batch processing, atomic output, directory watching
//   - report: Inspection reports and their JSON schema
//
// # Quick Start
//
// Trim a document in memory:
//
//	import (
//	    "github.com/zhubonan/dojo-upf-trim/trim"
//	    "github.com/zhubonan/dojo-upf-trim/upf"
//	)
//
//	doc, err := upf.Parse(data)
//	result, err := trim.ToMesh(doc, 600)
//	out := doc.Serialize()
//
// Process a directory:
//
//	import "github.com/zhubonan/dojo-upf-trim/pipeline"
//
//	runner := pipeline.NewRunner(600)
//	batch := pipeline.NewBatch(runner, "psp/in", "psp/out")
//	summary, err := batch.Run(ctx)
//
// # Design Philosophy
//
//   - The core (upf, trim) never touches the filesystem; all I/O lives in
//     pipeline and the CLI
//   - Documents are owned by a single file's processing run and never shared
//   - Serialization is a fixed point: serializing a parsed serialization
//     reproduces the bytes exactly
//   - Which blocks are mesh-indexed is data, not code: a section table keyed
//     by tag family drives both parsing and trimming
package upftrim
