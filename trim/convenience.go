package trim

import "github.com/zhubonan/dojo-upf-trim/upf"

// ToMesh trims doc to at most maxMesh points using a default Trimmer.
func ToMesh(doc *upf.Document, maxMesh int) (*Result, error) {
	return New().Trim(doc, maxMesh)
}
