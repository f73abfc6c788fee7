package main

import (
	"fmt"

	"github.com/standardbeagle/chi32/internal/debug"
	chierrors "github.com/standardbeagle/chi32/internal/errors"
	"github.com/standardbeagle/chi32/internal/strategy"
	"github.com/standardbeagle/chi32/internal/walker"

	"github.com/urfave/cli/v2"
)

// walkCommand renders one heatmap per generator and prints their summaries
func walkCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	opts := walker.Options{
		Steps:      cfg.Walker.Steps,
		ScaleShift: cfg.Walker.ScaleShift,
		Seed:       walker.DefaultSeed,
		Generators: cfg.Walker.Generators,
		OutDir:     cfg.Walker.OutDir,
	}

	if c.IsSet("steps") {
		opts.Steps = c.Uint64("steps")
	}
	if opts.Steps == 0 {
		return chierrors.NewArgumentError("steps", "0", fmt.Errorf("must be positive"))
	}
	if c.IsSet("scale-shift") {
		opts.ScaleShift = c.Int("scale-shift")
		if opts.ScaleShift < 0 || opts.ScaleShift > 30 {
			return chierrors.NewArgumentError("scale-shift", fmt.Sprint(opts.ScaleShift), fmt.Errorf("must be between 0 and 30"))
		}
	}
	if out := c.String("out"); out != "" {
		opts.OutDir = out
	}
	if gens := c.StringSlice("generators"); len(gens) > 0 {
		opts.Generators = gens
	}
	if seedArg := c.String("seed"); seedArg != "" {
		seed, err := strategy.ParseSeed(seedArg)
		if err != nil {
			return chierrors.NewArgumentError("seed", seedArg, err)
		}
		opts.Seed = uint64(seed)
	}

	debug.LogWalk("walking %d steps per generator, seed 0x%016X\n", opts.Steps, opts.Seed)
	summaries, err := walker.Run(c.Context, opts)
	if err != nil {
		return err
	}

	if c.Bool("json") {
		return writeJSON(c.App.Writer, summaries)
	}
	walker.WriteSummaries(c.App.Writer, summaries)
	return nil
}
