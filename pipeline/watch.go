package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDelay batches the burst of filesystem events a single file copy
// produces into one processing pass.
const debounceDelay = 200 * time.Millisecond

// Watch processes the input directory once, then keeps watching it and
// trims files as they appear or change. It returns when ctx is cancelled.
// The output directory must be distinct from the input directory: writing
// into the watched directory would retrigger the watcher on its own output.
func (b *Batch) Watch(ctx context.Context) error {
	inAbs, err := filepath.Abs(b.inDir)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", b.inDir, err)
	}
	outAbs, err := filepath.Abs(b.outDir)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", b.outDir, err)
	}
	if inAbs == outAbs {
		return fmt.Errorf("watch %s: output directory is the watched input directory", b.inDir)
	}

	if _, err := b.Run(ctx); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(b.inDir); err != nil {
		return fmt.Errorf("watch %s: %w", b.inDir, err)
	}
	b.log.WithField("dir", b.inDir).Info("watching for new files")

	pending := make(map[string]struct{})
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Write) {
				continue
			}
			if match, _ := filepath.Match(b.glob, filepath.Base(ev.Name)); !match {
				continue
			}
			pending[ev.Name] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(debounceDelay)
				fire = timer.C
			} else {
				timer.Reset(debounceDelay)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			b.log.WithError(err).Warn("watch error")

		case <-fire:
			for in := range pending {
				out := filepath.Join(b.outDir, filepath.Base(in))
				if _, err := b.runner.ProcessFile(in, out); err != nil {
					b.log.WithField("file", in).WithError(err).Error("processing failed")
				}
			}
			pending = make(map[string]struct{})
			timer, fire = nil, nil
		}
	}
}
