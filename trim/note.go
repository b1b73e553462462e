package trim

import (
	"fmt"
	"strings"
	"time"

	upftrim "github.com/zhubonan/dojo-upf-trim"
	"github.com/zhubonan/dojo-upf-trim/upf"
)

// noteTool is the name recorded in the PP_INFO provenance note.
const noteTool = "dojo-upf-trim"

// appendNote records the trim in the document's PP_INFO block, following
// the note layout established by the original PseudoDojo trimming scripts.
// A PP_INFO section is created when the document has none.
func appendNote(doc *upf.Document, mesh int, at time.Time) {
	info := doc.Find("PP_INFO")
	if info == nil {
		info = &upf.Section{
			Name:    "PP_INFO",
			Kind:    upf.KindVerbatim,
			RawOpen: []string{"<PP_INFO>"},
		}
		doc.Sections = append([]*upf.Section{info}, doc.Sections...)
	}
	if info.SelfClosing {
		// A self-closed <PP_INFO/> has no body when serialized; reopen it
		// as a tag pair so the appended lines are emitted.
		last := len(info.RawOpen) - 1
		if i := strings.LastIndex(info.RawOpen[last], "/>"); i >= 0 {
			info.RawOpen[last] = info.RawOpen[last][:i] + info.RawOpen[last][i+1:]
		}
		info.SelfClosing = false
	}
	info.Raw = append(info.Raw,
		"",
		"NOTE!!!!",
		fmt.Sprintf("This file is trimmed with a mesh size of %d from the original version.", mesh),
		fmt.Sprintf("Trimming performed at %s by %s version %s", at.Format(time.RFC3339), noteTool, upftrim.Version),
	)
}
