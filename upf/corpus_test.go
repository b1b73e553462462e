package upf

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/rogpeppe/go-internal/txtar"
)

// TestCorpusRoundTrip runs every pseudopotential in the testdata corpus
// through parse, serialize, reparse, serialize and requires the two
// serializations to be byte-identical.
func TestCorpusRoundTrip(t *testing.T) {
	ar, err := txtar.ParseFile(filepath.Join("testdata", "roundtrip.txtar"))
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if len(ar.Files) == 0 {
		t.Fatal("corpus is empty")
	}

	for _, f := range ar.Files {
		t.Run(f.Name, func(t *testing.T) {
			doc, err := Parse(f.Data)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			mesh, err := doc.MeshLength()
			if err != nil || mesh <= 0 {
				t.Fatalf("MeshLength = %d, %v", mesh, err)
			}

			first := doc.Serialize()
			doc2, err := Parse(first)
			if err != nil {
				t.Fatalf("reparse: %v", err)
			}
			second := doc2.Serialize()
			if !bytes.Equal(first, second) {
				t.Error("serialization is not a fixed point")
			}
		})
	}
}
