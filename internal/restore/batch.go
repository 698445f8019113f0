package restore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"

	"github.com/erinpentecost/restore/internal/hue"
	"github.com/erinpentecost/restore/internal/imageio"
	"github.com/erinpentecost/restore/internal/logging"
	"golang.org/x/sync/errgroup"
)

// ErrOutputConflict marks jobs that would write over another job's output
// or over an input of the batch.
var ErrOutputConflict = errors.New("output path conflicts")

// Job restores one file.
type Job struct {
	Input  string
	Output string
}

type Result struct {
	Job Job
	Err error
}

// Batch runs jobs on a bounded pool of workers. Jobs share nothing, and a
// failed job never stops the others.
type Batch struct {
	// Workers caps concurrent jobs. Values below 1 use one per CPU.
	Workers int
	Process func(ctx context.Context, job Job) error
}

// Run processes every job and returns one Result per job, in input order.
// Jobs not yet started when ctx is cancelled fail with ctx.Err(). Jobs whose
// output is shared with another job or names an input fail with
// ErrOutputConflict without running.
func (b *Batch) Run(ctx context.Context, jobs []Job) []Result {
	workers := b.Workers
	if workers < 1 {
		workers = runtime.NumCPU()
	}

	bad := conflicts(jobs)
	results := make([]Result, len(jobs))
	var g errgroup.Group
	g.SetLimit(workers)
	for i, job := range jobs {
		results[i].Job = job
		if err, ok := bad[i]; ok {
			logging.Logger().Warn("skipping job", "input", job.Input, "err", err)
			results[i].Err = fmt.Errorf("restore %q: %w", job.Input, err)
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			if err := b.Process(ctx, job); err != nil {
				logging.Logger().Warn("restore failed", "input", job.Input, "err", err)
				results[i].Err = fmt.Errorf("restore %q: %w", job.Input, err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func conflicts(jobs []Job) map[int]error {
	key := func(p string) string {
		if abs, err := filepath.Abs(p); err == nil {
			return abs
		}
		return filepath.Clean(p)
	}
	inputs := map[string]bool{}
	outputs := map[string][]int{}
	for i, job := range jobs {
		inputs[key(job.Input)] = true
		if job.Output != "" {
			k := key(job.Output)
			outputs[k] = append(outputs[k], i)
		}
	}

	bad := map[int]error{}
	for out, idx := range outputs {
		for _, i := range idx {
			switch {
			case inputs[out]:
				bad[i] = fmt.Errorf("%w: %q is an input", ErrOutputConflict, jobs[i].Output)
			case len(idx) > 1:
				bad[i] = fmt.Errorf("%w: %q is written by %d jobs", ErrOutputConflict, jobs[i].Output, len(idx))
			}
		}
	}
	return bad
}

// Failures joins the errors of every failed result, or returns nil.
func Failures(results []Result) error {
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return errors.Join(errs...)
}

// FileProcessor loads, restores and saves image files.
type FileProcessor struct {
	Config Config
	// Quality is the JPEG quality of written files (1-100).
	Quality int
}

func (p *FileProcessor) Process(ctx context.Context, job Job) error {
	logging.Logger().Info("processing", "input", job.Input, "output", job.Output)
	img, md, err := imageio.Load(job.Input)
	if err != nil {
		return err
	}
	restored, err := Restore(img, p.Config)
	if err != nil {
		return err
	}
	if log := logging.Logger(); log.Enabled(ctx, slog.LevelDebug) {
		before, after := hue.Measure(img), hue.Measure(restored)
		log.Debug("colour cast", "input", job.Input,
			"hue_before", before.Hue, "strength_before", before.Strength,
			"hue_after", after.Hue, "strength_after", after.Strength)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return imageio.Save(job.Output, restored, md, p.Quality)
}
