package main

import (
	"log/slog"
	"os"

	"github.com/spf13/pflag"
	"go.coder.com/cli"

	"github.com/erinpentecost/restore/internal/logging"
)

type rootCmd struct{}

func (r *rootCmd) Spec() cli.CommandSpec {
	return cli.CommandSpec{
		Name:  "restore",
		Usage: "[subcommand] [flags]",
		Desc:  "Automagically reconstruct scans of old photographs.",
	}
}

func (r *rootCmd) Run(fl *pflag.FlagSet) {
	fl.Usage()
	os.Exit(2)
}

func (r *rootCmd) Subcommands() []cli.Command {
	return []cli.Command{
		&runCmd{},
		&histCmd{},
	}
}

func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logging.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func main() {
	cli.RunRoot(&rootCmd{})
}
