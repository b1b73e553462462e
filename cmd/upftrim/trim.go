package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/zhubonan/dojo-upf-trim/config"
	"github.com/zhubonan/dojo-upf-trim/pipeline"
)

func (a *app) newTrimCmd() *cobra.Command {
	var (
		mesh     int
		glob     string
		jobs     int
		noNote   bool
		failFast bool
		dryRun   bool
		watch    bool
	)

	cmd := &cobra.Command{
		Use:   "trim IN_DIR OUT_DIR",
		Short: "Trim every matching file from IN_DIR into OUT_DIR",
		Long: `trim reads every file in IN_DIR matching the glob, cuts its radial mesh
down to the target size, and writes the result under the same name into
OUT_DIR. Files already at or below the target are copied through
unchanged. Output files appear atomically.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("mesh") {
				cfg.Mesh = mesh
			}
			if flags.Changed("glob") {
				cfg.Glob = glob
			}
			if flags.Changed("jobs") {
				cfg.Jobs = jobs
			}
			if flags.Changed("no-note") {
				cfg.Note = !noNote
			}
			if flags.Changed("fail-fast") {
				cfg.FailFast = failFast
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			flags.Visit(func(f *pflag.Flag) {
				a.log.WithField(f.Name, f.Value.String()).Debug("flag set")
			})

			table, err := a.sectionTable(cfg)
			if err != nil {
				return err
			}
			runner := pipeline.NewRunner(cfg.Mesh).
				WithNote(cfg.Note).
				WithDryRun(dryRun).
				WithLogger(a.log)
			if table != nil {
				runner.WithTable(table)
			}
			batch := pipeline.NewBatch(runner, args[0], args[1]).
				WithGlob(cfg.Glob).
				WithJobs(cfg.Jobs).
				WithFailFast(cfg.FailFast).
				WithLogger(a.log)

			if watch {
				ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer stop()
				if err := batch.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
					return err
				}
				return nil
			}

			sum, err := batch.Run(cmd.Context())
			if err != nil {
				return err
			}
			if !sum.Ok() {
				return fmt.Errorf("%d of %d files failed", sum.Failed, sum.Processed)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.IntVarP(&mesh, "mesh", "m", config.Default().Mesh, "target mesh size")
	f.StringVarP(&glob, "glob", "g", config.Default().Glob, "input filename pattern")
	f.IntVarP(&jobs, "jobs", "j", 1, "files processed concurrently")
	f.BoolVar(&noNote, "no-note", false, "do not append the provenance note to PP_INFO")
	f.BoolVar(&failFast, "fail-fast", false, "stop at the first file that fails")
	f.BoolVarP(&dryRun, "dry-run", "n", false, "report what would be trimmed without writing")
	f.BoolVarP(&watch, "watch", "w", false, "keep watching IN_DIR and trim files as they appear")
	return cmd
}
