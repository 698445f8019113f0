package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"

	"github.com/spf13/pflag"
	"go.coder.com/cli"

	"github.com/erinpentecost/restore/internal/imageio"
	"github.com/erinpentecost/restore/internal/logging"
	"github.com/erinpentecost/restore/internal/restore"
)

type runCmd struct {
	low, high             float64
	lowTarget, highTarget float64
	padLow, padHigh       float64
	invert                bool
	jobs                  int
	quality               int
	out                   string
	config                string
	verbose               bool
}

func (c *runCmd) Spec() cli.CommandSpec {
	return cli.CommandSpec{
		Name:  "run",
		Usage: "[flags] <file> [files...]",
		Desc:  "Restore the given files (glob patterns allowed) and write them as JPEGs.",
	}
}

func (c *runCmd) RegisterFlags(fl *pflag.FlagSet) {
	fl.Float64Var(&c.low, "low", restore.DefaultLow, "Lower quantile to adjust curves to (0-1).")
	fl.Float64Var(&c.high, "high", restore.DefaultHigh, "Upper quantile to adjust curves to (0-1).")
	fl.Float64Var(&c.lowTarget, "low-target", 0, "Output value for the lower quantile (0-1). Replaces padding.")
	fl.Float64Var(&c.highTarget, "high-target", 1, "Output value for the upper quantile (0-1). Replaces padding.")
	fl.Float64Var(&c.padLow, "pad-low", restore.DefaultPadLow, "Additional padding below the histogram (0-255).")
	fl.Float64Var(&c.padHigh, "pad-high", restore.DefaultPadHigh, "Additional padding above the histogram (0-255).")
	fl.BoolVarP(&c.invert, "invert", "i", false, "Invert colors (for negatives).")
	fl.IntVarP(&c.jobs, "jobs", "j", runtime.NumCPU(), "Number of files to restore in parallel.")
	fl.IntVar(&c.quality, "quality", imageio.DefaultQuality, "JPEG quality (1-100).")
	fl.StringVarP(&c.out, "out", "o", "", "Directory to place reconstructed images into.")
	fl.StringVar(&c.config, "config", "", "YAML file with restore settings. Flags override it.")
	fl.BoolVarP(&c.verbose, "verbose", "v", false, "Log per-channel curves.")
}

func (c *runCmd) Run(fl *pflag.FlagSet) {
	setupLogging(c.verbose)
	if fl.NArg() == 0 {
		fl.Usage()
		os.Exit(2)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := c.restore(ctx, fl, fl.Args()); err != nil {
		logging.Logger().Error("restore failed", "err", err)
		os.Exit(1)
	}
}

// options collects the settings from the config file and every flag the
// user set explicitly.
func (c *runCmd) options(fl *pflag.FlagSet) (restore.Options, error) {
	opts := restore.Options{}
	if c.config != "" {
		var err error
		if opts, err = restore.LoadOptions(c.config); err != nil {
			return restore.Options{}, err
		}
	}
	flags := restore.Options{}
	for name, dst := range map[string]**float64{
		"low":         &flags.Low,
		"high":        &flags.High,
		"low-target":  &flags.LowTarget,
		"high-target": &flags.HighTarget,
		"pad-low":     &flags.PadLow,
		"pad-high":    &flags.PadHigh,
	} {
		if fl.Changed(name) {
			v, err := fl.GetFloat64(name)
			if err != nil {
				return restore.Options{}, fmt.Errorf("flag %q: %w", name, err)
			}
			*dst = &v
		}
	}
	if fl.Changed("invert") {
		flags.Invert = &c.invert
	}
	return opts.Merge(flags), nil
}

func (c *runCmd) restore(ctx context.Context, fl *pflag.FlagSet, patterns []string) error {
	opts, err := c.options(fl)
	if err != nil {
		return err
	}
	cfg, err := opts.Config()
	if err != nil {
		return err
	}
	if c.quality < 1 || c.quality > 100 {
		return fmt.Errorf("quality %d outside 1-100", c.quality)
	}

	files, err := imageio.Expand(patterns)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return errors.New("no input files")
	}
	jobs := make([]restore.Job, 0, len(files))
	for _, f := range files {
		out, err := imageio.OutputPath(f, c.out)
		if err != nil {
			return err
		}
		jobs = append(jobs, restore.Job{Input: f, Output: out})
	}

	p := &restore.FileProcessor{Config: cfg, Quality: c.quality}
	b := &restore.Batch{Workers: c.jobs, Process: p.Process}
	results := b.Run(ctx, jobs)

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	logging.Logger().Info("done", "restored", len(results)-failed, "failed", failed)
	return restore.Failures(results)
}
