package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/zhubonan/dojo-upf-trim/trim"
)

// Batch trims every matching file of an input directory into an output
// directory, processing files concurrently.
type Batch struct {
	runner   *Runner
	inDir    string
	outDir   string
	glob     string
	jobs     int
	failFast bool
	log      logrus.FieldLogger
}

// NewBatch creates a Batch over inDir writing to outDir, matching *.upf
// with one worker.
func NewBatch(runner *Runner, inDir, outDir string) *Batch {
	return &Batch{
		runner: runner,
		inDir:  inDir,
		outDir: outDir,
		glob:   "*.upf",
		jobs:   1,
		log:    logrus.StandardLogger(),
	}
}

// WithGlob sets the filename pattern matched inside the input directory.
func (b *Batch) WithGlob(glob string) *Batch {
	if glob != "" {
		b.glob = glob
	}
	return b
}

// WithJobs sets the number of files processed concurrently.
func (b *Batch) WithJobs(jobs int) *Batch {
	if jobs > 0 {
		b.jobs = jobs
	}
	return b
}

// WithFailFast stops the batch at the first file that fails.
func (b *Batch) WithFailFast(enabled bool) *Batch {
	b.failFast = enabled
	return b
}

// WithLogger sets the logger used for batch progress.
func (b *Batch) WithLogger(log logrus.FieldLogger) *Batch {
	if log != nil {
		b.log = log
	}
	return b
}

// Failure records one file that could not be processed.
type Failure struct {
	File string
	Err  error
}

// Summary aggregates a batch run. Per-file errors land in Failures; they do
// not abort the batch unless fail-fast is on.
type Summary struct {
	// Processed counts the files attempted.
	Processed int

	// Trimmed counts files whose mesh was cut.
	Trimmed int

	// Skipped counts files already at or below the target mesh, copied
	// through unchanged.
	Skipped int

	// Failed counts files that could not be processed.
	Failed int

	Failures []Failure
}

// Ok reports whether every attempted file succeeded.
func (s *Summary) Ok() bool {
	return s.Failed == 0
}

// Run processes every matching file. File order is deterministic. The
// returned error covers setup problems and context cancellation; per-file
// failures are reported through the summary.
func (b *Batch) Run(ctx context.Context) (*Summary, error) {
	matches, err := filepath.Glob(filepath.Join(b.inDir, b.glob))
	if err != nil {
		return nil, fmt.Errorf("glob inputs: %w", err)
	}
	if len(matches) == 0 {
		b.log.WithField("dir", b.inDir).Warn("no files matched")
		return &Summary{}, nil
	}
	if err := os.MkdirAll(b.outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	type outcome struct {
		res *trim.Result
		err error
	}
	outcomes := make([]outcome, len(matches))

	group, runCtx := errgroup.WithContext(ctx)
	group.SetLimit(b.jobs)
	for i, in := range matches {
		i, in := i, in
		group.Go(func() error {
			if runCtx.Err() != nil {
				// The batch stopped; leave the outcome unattempted.
				return nil
			}
			out := filepath.Join(b.outDir, filepath.Base(in))
			res, err := b.runner.ProcessFile(in, out)
			outcomes[i] = outcome{res: res, err: err}
			if err != nil {
				b.log.WithField("file", in).WithError(err).Error("processing failed")
				if b.failFast {
					return err
				}
			}
			return nil
		})
	}
	// A task error is a fail-fast per-file failure, already recorded in its
	// outcome; waiting only fences the goroutines.
	_ = group.Wait()

	sum := &Summary{}
	for i, o := range outcomes {
		if o.res == nil && o.err == nil {
			// Never attempted: the batch stopped before reaching it.
			continue
		}
		sum.Processed++
		switch {
		case o.err != nil:
			sum.Failed++
			sum.Failures = append(sum.Failures, Failure{File: matches[i], Err: o.err})
		case o.res.Trimmed:
			sum.Trimmed++
		default:
			sum.Skipped++
		}
	}

	b.log.WithFields(logrus.Fields{
		"processed": sum.Processed,
		"trimmed":   sum.Trimmed,
		"skipped":   sum.Skipped,
		"failed":    sum.Failed,
	}).Info("batch finished")

	if err := ctx.Err(); err != nil {
		return sum, err
	}
	return sum, nil
}
