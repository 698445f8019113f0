package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"go.coder.com/cli"

	"github.com/erinpentecost/restore/internal/histogram"
	"github.com/erinpentecost/restore/internal/hue"
	"github.com/erinpentecost/restore/internal/imageio"
	"github.com/erinpentecost/restore/internal/logging"
)

type histCmd struct {
	out     string
	bins    int
	width   int
	height  int
	verbose bool
}

func (c *histCmd) Spec() cli.CommandSpec {
	return cli.CommandSpec{
		Name:  "hist",
		Usage: "[flags] <file>",
		Desc:  "Plot the histogram of each color channel to a PNG.",
	}
}

func (c *histCmd) RegisterFlags(fl *pflag.FlagSet) {
	fl.StringVarP(&c.out, "out", "o", "", "PNG to write (default <name>_hist.png next to the input).")
	fl.IntVar(&c.bins, "bins", 50, "Number of histogram bins.")
	fl.IntVar(&c.width, "width", 800, "Plot width in pixels.")
	fl.IntVar(&c.height, "height", 400, "Plot height in pixels.")
	fl.BoolVarP(&c.verbose, "verbose", "v", false, "Verbose logging.")
}

func (c *histCmd) Run(fl *pflag.FlagSet) {
	setupLogging(c.verbose)
	if fl.NArg() != 1 {
		fl.Usage()
		os.Exit(2)
	}
	if err := c.plot(fl.Arg(0)); err != nil {
		logging.Logger().Error("histogram failed", "err", err)
		os.Exit(1)
	}
}

func (c *histCmd) plot(input string) error {
	img, _, err := imageio.Load(input)
	if err != nil {
		return err
	}
	h, err := histogram.Compute(img, c.bins)
	if err != nil {
		return err
	}
	plot, err := histogram.Render(h, c.width, c.height)
	if err != nil {
		return fmt.Errorf("render %q: %w", input, err)
	}

	out := c.out
	if out == "" {
		out = strings.TrimSuffix(input, filepath.Ext(input)) + "_hist.png"
	}
	if err := histogram.SavePNG(out, plot); err != nil {
		return err
	}
	cast := hue.Measure(img)
	logging.Logger().Info("wrote histogram", "input", input, "output", out,
		"cast_hue", cast.Hue, "cast_strength", cast.Strength)
	return nil
}
