// Package app wires the kfeat CLI: flag parsing, region loading,
// pipeline execution, and artifact persistence, mapped onto process
// exit codes.
package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/nate-d-olson/laytr/internal/cli"
	"github.com/nate-d-olson/laytr/internal/genome"
	"github.com/nate-d-olson/laytr/internal/matrix"
	"github.com/nate-d-olson/laytr/internal/pipeline"
	"github.com/nate-d-olson/laytr/internal/regions"
	"github.com/nate-d-olson/laytr/internal/version"
)

// Exit codes: 0 ok, 2 usage/input errors, 3 runtime errors, 130 canceled.
func RunContext(parent context.Context, argv []string, stdout, stderr io.Writer) int {
	fs := cli.NewFlagSet("kfeat")
	fs.SetOutput(io.Discard)

	if len(argv) == 0 {
		argv = []string{"-h"}
	}

	opts, err := cli.ParseArgs(fs, argv)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			fs.SetOutput(stdout)
			fs.Usage()
			return 0
		}
		_, _ = fmt.Fprintln(stderr, err)
		fs.SetOutput(stderr)
		fs.Usage()
		return 2
	}

	if opts.Version {
		_, _ = fmt.Fprintf(stdout, "kfeat version %s\n", version.Version)
		return 0
	}

	log := logrus.New()
	log.SetOutput(stderr)
	if opts.Quiet {
		log.SetLevel(logrus.WarnLevel)
	}

	regs, err := regions.Load(opts.RegionsFile)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 2
	}
	if len(regs) == 0 {
		_, _ = fmt.Fprintf(stderr, "no regions in %s\n", opts.RegionsFile)
		return 2
	}
	log.Infof("loaded %d regions from %s", len(regs), opts.RegionsFile)

	cfg := pipeline.Config{
		K:         opts.K,
		Normalize: opts.Normalize,
		Workers:   opts.Threads,
	}

	var (
		prog *mpb.Progress
		bar  *mpb.Bar
	)
	if !opts.Quiet {
		prog = mpb.New(mpb.WithOutput(stderr), mpb.WithWidth(48))
		bar = prog.AddBar(int64(len(regs)),
			mpb.PrependDecorators(
				decor.Name("featurizing "),
				decor.CountersNoUnit("%d / %d"),
			),
			mpb.AppendDecorators(decor.Percentage()),
		)
		cfg.Progress = func() { bar.Increment() }
	}

	start := time.Now()
	m, perr := pipeline.Run(parent, cfg, regs, genome.Opener(opts.Reference))
	if bar != nil {
		if perr != nil {
			bar.Abort(true)
		}
		prog.Wait()
	}
	if perr != nil {
		if errors.Is(perr, context.Canceled) {
			return 130
		}
		_, _ = fmt.Fprintln(stderr, perr)
		return 3
	}

	if err := matrix.Save(opts.Output, opts.Format, m); err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 3
	}

	rows, cols := m.Dims()
	log.Infof("wrote %dx%d %s matrix to %s in %s",
		rows, cols, opts.Format, opts.Output, time.Since(start).Round(time.Millisecond))
	return 0
}

// Run is RunContext with a background context.
func Run(argv []string, stdout, stderr io.Writer) int {
	return RunContext(context.Background(), argv, stdout, stderr)
}
