package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/standardbeagle/chi32/internal/battery"
	"github.com/standardbeagle/chi32/internal/debug"
	chierrors "github.com/standardbeagle/chi32/internal/errors"
	"github.com/standardbeagle/chi32/internal/stream"
	"github.com/standardbeagle/chi32/internal/strategy"

	"github.com/urfave/cli/v2"
)

// parseSourceArgs builds a source from seed, phase and strategy arguments.
// Seeds accept unsigned decimal; phases must fit a signed 64-bit integer.
func parseSourceArgs(seedArg, phaseArg, strategyArg string, seedParser func(string) (int64, error)) (*strategy.Source, error) {
	seed, err := seedParser(seedArg)
	if err != nil {
		return nil, chierrors.NewArgumentError("seed", seedArg, err)
	}
	phase, err := strategy.ParsePhase(phaseArg)
	if err != nil {
		return nil, chierrors.NewArgumentError("phase", phaseArg, err)
	}
	kind, err := strategy.ParseName(strategyArg)
	if err != nil {
		return nil, chierrors.NewArgumentError("strategy", strategyArg, err)
	}
	return strategy.NewSource(kind, seed, phase), nil
}

// batteryCommand runs a battery on the source named by positional arguments:
// <Battery> <seed> <phase> [strategy], or <seed> <phase> with the configured battery.
func batteryCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	args := c.Args().Slice()
	name := cfg.Battery.Default
	strategyArg := strategy.Sequential.String()
	switch len(args) {
	case 2:
		// seed and phase only; battery from config
	case 3:
		name, args = args[0], args[1:]
	case 4:
		name, strategyArg, args = args[0], args[3], args[1:3]
	default:
		return usageError(c)
	}

	b, err := battery.Lookup(name)
	if err != nil {
		return err
	}
	src, err := parseSourceArgs(args[0], args[1], strategyArg, strategy.ParseSeed)
	if err != nil {
		return err
	}

	workers := cfg.Battery.Workers
	if c.IsSet("workers") {
		workers = c.Int("workers")
	}

	debug.LogBattery("running %s on %s with %d workers\n", b.Name, src.Describe(), workers)
	report, err := battery.NewRunner(workers).Run(c.Context, b, src)
	if err != nil {
		return fmt.Errorf("battery %s interrupted: %w", b.Name, err)
	}

	if c.Bool("json") {
		if err := report.WriteJSON(c.App.Writer); err != nil {
			return err
		}
	} else {
		report.WriteText(c.App.Writer)
	}

	if failed := report.Failed(); len(failed) > 0 {
		return fmt.Errorf("%d of %d tests failed", len(failed), len(report.Results))
	}
	return nil
}

// streamCommand writes raw values to stdout until --count is reached, the
// reader closes the pipe or the process is interrupted
func streamCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	src, err := parseSourceArgs(c.String("seed"), c.String("phase"), c.String("strategy"), strategy.ParsePhase)
	if err != nil {
		return err
	}

	bufferSize := cfg.Stream.BufferSize
	if c.IsSet("buffer-size") {
		bufferSize = c.Int("buffer-size")
	}

	debug.LogStream("streaming %s\n", src.Describe())
	res, err := stream.NewEmitter(bufferSize).Run(c.Context, c.App.Writer, src, c.Uint64("count"))
	if err != nil {
		if errors.Is(err, context.Canceled) {
			debug.LogStream("interrupted after %d values\n", res.Values)
			return nil
		}
		return err
	}
	return nil
}
