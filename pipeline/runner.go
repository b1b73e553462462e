package pipeline

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/zhubonan/dojo-upf-trim/trim"
	"github.com/zhubonan/dojo-upf-trim/upf"
)

// Runner trims individual pseudopotential files to a target mesh size. A
// single Runner is shared by all workers of a batch; it holds no per-file
// state.
type Runner struct {
	mesh   int
	table  *upf.Table
	note   bool
	at     *time.Time
	dryRun bool
	log    logrus.FieldLogger
}

// NewRunner creates a Runner targeting the given mesh size, using the
// default section table and writing a provenance note on each trim.
func NewRunner(mesh int) *Runner {
	return &Runner{
		mesh: mesh,
		note: true,
		log:  logrus.StandardLogger(),
	}
}

// WithTable sets a custom section table for parsing.
func (r *Runner) WithTable(t *upf.Table) *Runner {
	r.table = t
	return r
}

// WithNote controls the PP_INFO provenance note.
func (r *Runner) WithNote(enabled bool) *Runner {
	r.note = enabled
	return r
}

// WithTimestamp pins the provenance note timestamp so repeated runs produce
// byte-identical output.
func (r *Runner) WithTimestamp(at time.Time) *Runner {
	r.at = &at
	return r
}

// WithDryRun makes ProcessFile report what it would do without writing
// output files.
func (r *Runner) WithDryRun(enabled bool) *Runner {
	r.dryRun = enabled
	return r
}

// WithLogger sets the logger used for per-file progress.
func (r *Runner) WithLogger(log logrus.FieldLogger) *Runner {
	if log != nil {
		r.log = log
	}
	return r
}

// Process trims one file held in memory and returns its serialized form.
// The input bytes are never modified.
func (r *Runner) Process(data []byte) ([]byte, *trim.Result, error) {
	parser := upf.NewParser()
	if r.table != nil {
		parser.WithTable(r.table)
	}
	doc, err := parser.Parse(data)
	if err != nil {
		return nil, nil, fmt.Errorf("parse: %w", err)
	}

	trimmer := trim.New().WithNote(r.note)
	if r.at != nil {
		trimmer.WithTimestamp(*r.at)
	}
	res, err := trimmer.Trim(doc, r.mesh)
	if err != nil {
		return nil, nil, fmt.Errorf("trim: %w", err)
	}
	return doc.Serialize(), res, nil
}

// ProcessFile trims inPath into outPath. The output appears atomically:
// either the complete trimmed file is written or outPath is left alone.
func (r *Runner) ProcessFile(inPath, outPath string) (*trim.Result, error) {
	data, err := os.ReadFile(inPath)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	out, res, err := r.Process(data)
	if err != nil {
		return nil, err
	}

	log := r.log.WithFields(logrus.Fields{
		"file": inPath,
		"mesh": fmt.Sprintf("%d -> %d", res.MeshBefore, res.MeshAfter),
	})
	if res.Trimmed {
		log.WithField("sections", strings.Join(res.Sections, " ")).Debug("sections truncated")
	}
	if r.dryRun {
		log.Info("dry run, output not written")
		return res, nil
	}
	if err := writeFileAtomic(outPath, out, 0o644); err != nil {
		return nil, err
	}

	if res.Trimmed {
		log.Info("trimmed")
	} else {
		log.Info("copied, already at or below target mesh")
	}
	return res, nil
}
