package trim

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	upftrim "github.com/zhubonan/dojo-upf-trim"
	"github.com/zhubonan/dojo-upf-trim/upf"
)

// genUPF builds a valid single-projector pseudopotential with the given
// mesh length, including a non-mesh matrix section and an opaque block that
// trimming must never touch.
func genUPF(mesh int) []byte {
	var b strings.Builder
	b.WriteString("<UPF version=\"2.0.1\">\n")
	b.WriteString("<PP_INFO>\nGenerated for trim testing\n</PP_INFO>\n")
	fmt.Fprintf(&b, "<PP_HEADER element=\"Si\" z_valence=\"4.0\" mesh_size=\"%d\" number_of_wfc=\"1\" number_of_proj=\"1\"/>\n", mesh)

	array := func(name string, f func(i int) float64) {
		fmt.Fprintf(&b, "<%s type=\"real\" size=\"%d\" columns=\"4\">\n", name, mesh)
		for i := 0; i < mesh; i++ {
			fmt.Fprintf(&b, " %.6E", f(i))
			if (i+1)%4 == 0 || i == mesh-1 {
				b.WriteString("\n")
			}
		}
		fmt.Fprintf(&b, "</%s>\n", name)
	}

	fmt.Fprintf(&b, "<PP_MESH mesh=\"%d\">\n", mesh)
	array("PP_R", func(i int) float64 { return 0.01 * float64(i) })
	array("PP_RAB", func(i int) float64 { return 0.01 })
	b.WriteString("</PP_MESH>\n")
	array("PP_LOCAL", func(i int) float64 { return -4.0 + 0.5*float64(i) })
	b.WriteString("<PP_NONLOCAL>\n")
	array("PP_BETA.1", func(i int) float64 { return 0.1 * float64(i) })
	b.WriteString("<PP_DIJ type=\"real\" size=\"1\" columns=\"4\">\n 1.250000E+00\n</PP_DIJ>\n")
	b.WriteString("</PP_NONLOCAL>\n")
	array("PP_RHOATOM", func(i int) float64 { return 4.0 / float64(mesh) })
	b.WriteString("<PP_CUSTOM_BLOB flavor=\"opaque\">\nuntouched payload\n</PP_CUSTOM_BLOB>\n")
	b.WriteString("</UPF>\n")
	return []byte(b.String())
}

func mustParse(t *testing.T, data []byte) *upf.Document {
	t.Helper()
	doc, err := upf.Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return doc
}

func TestTrim(t *testing.T) {
	doc := mustParse(t, genUPF(12))
	r := doc.Find("PP_R")
	prefix := append([]float64(nil), r.Values[:8]...)

	res, err := New().WithNote(false).Trim(doc, 8)
	if err != nil {
		t.Fatalf("Trim: %v", err)
	}

	if !res.Trimmed || res.MeshBefore != 12 || res.MeshAfter != 8 {
		t.Errorf("result = %+v, want trimmed 12 -> 8", res)
	}
	wantSections := []string{"PP_R", "PP_RAB", "PP_LOCAL", "PP_BETA.1", "PP_RHOATOM"}
	if diff := cmp.Diff(wantSections, res.Sections); diff != "" {
		t.Errorf("trimmed sections mismatch (-want +got):\n%s", diff)
	}

	if mesh, _ := doc.MeshLength(); mesh != 8 {
		t.Errorf("MeshLength = %d, want 8", mesh)
	}
	if diff := cmp.Diff(prefix, r.Values); diff != "" {
		t.Errorf("PP_R is not a prefix of the original (-want +got):\n%s", diff)
	}
	if v, _ := r.Attr("size"); v != "8" {
		t.Errorf("PP_R size attribute = %q, want \"8\"", v)
	}
	if v, _ := doc.Find("PP_MESH").Attr("mesh"); v != "8" {
		t.Errorf("PP_MESH mesh attribute = %q, want \"8\"", v)
	}
	if dij := doc.Find("PP_DIJ"); len(dij.Values) != 1 {
		t.Errorf("PP_DIJ values = %v, want untouched", dij.Values)
	}

	// The trimmed document is internally consistent again.
	if err := doc.Validate(); err != nil {
		t.Errorf("Validate after trim: %v", err)
	}
}

func TestTrimNoOp(t *testing.T) {
	for _, target := range []int{8, 100} {
		doc := mustParse(t, genUPF(8))
		before := doc.Serialize()

		res, err := New().Trim(doc, target)
		if err != nil {
			t.Fatalf("Trim to %d: %v", target, err)
		}
		if res.Trimmed || res.MeshBefore != 8 || res.MeshAfter != 8 {
			t.Errorf("Trim to %d: result = %+v, want untouched", target, res)
		}
		if !bytes.Equal(before, doc.Serialize()) {
			t.Errorf("Trim to %d modified a document it should not touch", target)
		}
	}
}

func TestTrimInvalidTarget(t *testing.T) {
	for _, target := range []int{0, -5} {
		doc := mustParse(t, genUPF(8))
		before := doc.Serialize()

		_, err := New().Trim(doc, target)
		if !errors.Is(err, ErrInvalidMeshSize) {
			t.Errorf("Trim to %d: error = %v, want %v", target, err, ErrInvalidMeshSize)
		}
		var te *TruncationError
		if !errors.As(err, &te) {
			t.Errorf("Trim to %d: error %T does not unwrap to *TruncationError", target, err)
		}
		if !bytes.Equal(before, doc.Serialize()) {
			t.Errorf("Trim to %d modified the document", target)
		}
	}
}

func TestTrimInconsistentDoc(t *testing.T) {
	doc := mustParse(t, genUPF(12))
	rho := doc.Find("PP_RHOATOM")
	rho.Values = rho.Values[:10]
	rho.SetIntAttr("size", 10)
	before := doc.Serialize()

	_, err := New().Trim(doc, 8)
	if !errors.Is(err, ErrInconsistentMesh) {
		t.Fatalf("error = %v, want %v", err, ErrInconsistentMesh)
	}
	var te *TruncationError
	if !errors.As(err, &te) || te.Section != "PP_RHOATOM" {
		t.Errorf("error = %+v, want TruncationError for PP_RHOATOM", err)
	}

	// Nothing was cut: the failed trim left every section alone.
	if !bytes.Equal(before, doc.Serialize()) {
		t.Error("failed trim partially modified the document")
	}
}

func TestTrimMatrixSections(t *testing.T) {
	table := upf.DefaultTable()
	for _, def := range []upf.SectionDef{
		{Family: "PP_GRID", Kind: upf.KindArray2D, Mesh: upf.MeshRows, RowsFrom: "mesh_size", ColsFrom: "number_of_proj"},
		{Family: "PP_GRIDT", Kind: upf.KindArray2D, Mesh: upf.MeshCols, RowsFrom: "number_of_proj", ColsFrom: "mesh_size"},
	} {
		if err := table.Add(def); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	var g strings.Builder
	for _, name := range []string{"PP_GRID", "PP_GRIDT"} {
		fmt.Fprintf(&g, "<%s type=\"real\" size=\"6\" columns=\"4\">\n", name)
		for i := 0; i < 6; i++ {
			fmt.Fprintf(&g, " %.6E\n", float64(i+1))
		}
		fmt.Fprintf(&g, "</%s>\n", name)
	}
	input := strings.Replace(string(genUPF(6)), "</UPF>", g.String()+"</UPF>", 1)

	doc, err := upf.NewParser().WithTable(table).Parse([]byte(input))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := New().WithNote(false).Trim(doc, 4); err != nil {
		t.Fatalf("Trim: %v", err)
	}

	grid := doc.Find("PP_GRID")
	if grid.RowCount != 4 || grid.ColCount != 1 || len(grid.Values) != 4 {
		t.Errorf("PP_GRID = %dx%d with %d values, want 4x1", grid.RowCount, grid.ColCount, len(grid.Values))
	}
	gridT := doc.Find("PP_GRIDT")
	if gridT.RowCount != 1 || gridT.ColCount != 4 || len(gridT.Values) != 4 {
		t.Errorf("PP_GRIDT = %dx%d with %d values, want 1x4", gridT.RowCount, gridT.ColCount, len(gridT.Values))
	}
	if err := doc.Validate(); err != nil {
		t.Errorf("Validate after trim: %v", err)
	}
}

func TestCut(t *testing.T) {
	tests := []struct {
		name       string
		section    *upf.Section
		n          int
		wantValues []float64
		wantSize   string
	}{
		{
			name: "values axis",
			section: &upf.Section{
				Name: "PP_LOCAL", Kind: upf.KindArray1D, Mesh: upf.MeshValues,
				Attrs:  []upf.Attr{{Key: "size", Value: "6"}},
				Values: []float64{1, 2, 3, 4, 5, 6},
			},
			n:          4,
			wantValues: []float64{1, 2, 3, 4},
			wantSize:   "4",
		},
		{
			name: "rows axis",
			section: &upf.Section{
				Name: "PP_GRID", Kind: upf.KindArray2D, Mesh: upf.MeshRows,
				RowCount: 3, ColCount: 2,
				Attrs:  []upf.Attr{{Key: "size", Value: "6"}},
				Values: []float64{1, 2, 3, 4, 5, 6},
			},
			n:          2,
			wantValues: []float64{1, 2, 3, 4},
			wantSize:   "4",
		},
		{
			name: "cols axis",
			section: &upf.Section{
				Name: "PP_GRIDT", Kind: upf.KindArray2D, Mesh: upf.MeshCols,
				RowCount: 2, ColCount: 3,
				Attrs:  []upf.Attr{{Key: "size", Value: "6"}},
				Values: []float64{1, 2, 3, 4, 5, 6},
			},
			n:          2,
			wantValues: []float64{1, 2, 4, 5},
			wantSize:   "4",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cut(tc.section, tc.n)
			if diff := cmp.Diff(tc.wantValues, tc.section.Values); diff != "" {
				t.Errorf("values mismatch (-want +got):\n%s", diff)
			}
			if v, _ := tc.section.Attr("size"); v != tc.wantSize {
				t.Errorf("size attribute = %q, want %q", v, tc.wantSize)
			}
			if tc.section.Len() != tc.n {
				t.Errorf("Len = %d, want %d", tc.section.Len(), tc.n)
			}
		})
	}
}

func TestTrimNote(t *testing.T) {
	at := time.Date(2018, 5, 9, 12, 0, 0, 0, time.UTC)

	doc := mustParse(t, genUPF(12))
	if _, err := New().WithTimestamp(at).Trim(doc, 8); err != nil {
		t.Fatalf("Trim: %v", err)
	}

	info := doc.Find("PP_INFO")
	want := []string{
		"Generated for trim testing",
		"",
		"NOTE!!!!",
		"This file is trimmed with a mesh size of 8 from the original version.",
		fmt.Sprintf("Trimming performed at 2018-05-09T12:00:00Z by dojo-upf-trim version %s", upftrim.Version),
	}
	if diff := cmp.Diff(want, info.Raw); diff != "" {
		t.Errorf("PP_INFO body mismatch (-want +got):\n%s", diff)
	}

	// The pinned timestamp makes repeated runs byte-identical.
	doc2 := mustParse(t, genUPF(12))
	if _, err := New().WithTimestamp(at).Trim(doc2, 8); err != nil {
		t.Fatalf("Trim: %v", err)
	}
	if !bytes.Equal(doc.Serialize(), doc2.Serialize()) {
		t.Error("trims with a pinned timestamp are not reproducible")
	}
}

func TestTrimWithoutNote(t *testing.T) {
	doc := mustParse(t, genUPF(12))
	if _, err := New().WithNote(false).Trim(doc, 8); err != nil {
		t.Fatalf("Trim: %v", err)
	}
	info := doc.Find("PP_INFO")
	if len(info.Raw) != 1 || info.Raw[0] != "Generated for trim testing" {
		t.Errorf("PP_INFO body = %q, want untouched", info.Raw)
	}
}

func TestTrimNoteCreatesInfo(t *testing.T) {
	input := strings.Replace(string(genUPF(12)), "<PP_INFO>\nGenerated for trim testing\n</PP_INFO>\n", "", 1)
	doc := mustParse(t, []byte(input))
	if doc.Find("PP_INFO") != nil {
		t.Fatal("fixture still has PP_INFO")
	}

	if _, err := New().WithTimestamp(time.Unix(0, 0).UTC()).Trim(doc, 8); err != nil {
		t.Fatalf("Trim: %v", err)
	}
	info := doc.Find("PP_INFO")
	if info == nil {
		t.Fatal("trim did not create PP_INFO")
	}
	if doc.Sections[0] != info {
		t.Error("created PP_INFO is not the first section")
	}
	if len(info.Raw) != 4 || info.Raw[1] != "NOTE!!!!" {
		t.Errorf("PP_INFO body = %q", info.Raw)
	}
}

func TestTrimNoteSelfClosingInfo(t *testing.T) {
	input := strings.Replace(string(genUPF(12)), "<PP_INFO>\nGenerated for trim testing\n</PP_INFO>\n", "<PP_INFO/>\n", 1)
	doc := mustParse(t, []byte(input))

	if _, err := New().WithTimestamp(time.Unix(0, 0).UTC()).Trim(doc, 8); err != nil {
		t.Fatalf("Trim: %v", err)
	}

	// The note must reach the serialized output, not just the section.
	out := doc.Serialize()
	if !bytes.Contains(out, []byte("NOTE!!!!")) {
		t.Fatalf("serialized output lacks the note:\n%s", out)
	}

	doc2, err := upf.Parse(out)
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	info := doc2.Find("PP_INFO")
	if info == nil {
		t.Fatal("reparsed document has no PP_INFO")
	}
	if len(info.Raw) != 4 || info.Raw[1] != "NOTE!!!!" {
		t.Errorf("PP_INFO body = %q", info.Raw)
	}
}

func TestTrimLongMesh(t *testing.T) {
	doc := mustParse(t, genUPF(800))
	r := doc.Find("PP_R")
	prefix := append([]float64(nil), r.Values[:600]...)
	blob := append([]string(nil), doc.Find("PP_CUSTOM_BLOB").Raw...)

	res, err := ToMesh(doc, 600)
	if err != nil {
		t.Fatalf("ToMesh: %v", err)
	}
	if res.MeshBefore != 800 || res.MeshAfter != 600 {
		t.Errorf("result = %+v, want 800 -> 600", res)
	}

	if diff := cmp.Diff(prefix, r.Values); diff != "" {
		t.Errorf("PP_R prefix mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(blob, doc.Find("PP_CUSTOM_BLOB").Raw); diff != "" {
		t.Errorf("opaque section changed (-want +got):\n%s", diff)
	}

	// The trimmed document survives a serialize/reparse cycle.
	doc2, err := upf.Parse(doc.Serialize())
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if mesh, _ := doc2.MeshLength(); mesh != 600 {
		t.Errorf("reparsed MeshLength = %d, want 600", mesh)
	}
}

func BenchmarkTrim(b *testing.B) {
	data := genUPF(800)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		doc, err := upf.Parse(data)
		if err != nil {
			b.Fatal(err)
		}
		if _, err := New().WithNote(false).Trim(doc, 600); err != nil {
			b.Fatal(err)
		}
	}
}
