package main

import (
	"fmt"
	"strings"

	"github.com/standardbeagle/chi32/internal/canonical"
	chierrors "github.com/standardbeagle/chi32/internal/errors"
	"github.com/standardbeagle/chi32/internal/strategy"
	"github.com/standardbeagle/chi32/pkg/chi32"

	"github.com/urfave/cli/v2"
)

// deriveCommand prints DeriveValueAt for one or more consecutive indices
func deriveCommand(c *cli.Context) error {
	if c.NArg() != 2 {
		return usageError(c)
	}

	selector, err := strategy.ParsePhase(c.Args().Get(0))
	if err != nil {
		return chierrors.NewArgumentError("selector", c.Args().Get(0), err)
	}
	index, err := strategy.ParsePhase(c.Args().Get(1))
	if err != nil {
		return chierrors.NewArgumentError("index", c.Args().Get(1), err)
	}
	count := c.Int("count")
	if count < 1 {
		return chierrors.NewArgumentError("count", fmt.Sprint(count), fmt.Errorf("must be at least 1"))
	}

	w := c.App.Writer
	fmt.Fprintf(w, "%-18s %-18s %-10s %10s %11s\n", "Selector", "Index", "Hex", "Unsigned", "Signed")
	for i := 0; i < count; i++ {
		idx := index + int64(i)
		v := chi32.DeriveValueAt(selector, idx)
		fmt.Fprintf(w, "0x%016X 0x%016X 0x%08X %10d %11d\n", uint64(selector), uint64(idx), uint32(v), uint32(v), v)
	}
	return nil
}

// generateCommand writes reference vectors from the built-in or manifest definitions
func generateCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	outDir := c.String("out")
	if outDir == "" {
		outDir = cfg.Canonical.OutDir
	}

	defs := canonical.DefaultDefinitions()
	if path := c.String("definitions"); path != "" {
		if defs, err = canonical.LoadManifest(path); err != nil {
			return err
		}
	}

	cases, err := canonical.Generate(c.Context, defs, outDir, cfg.Canonical.MetaFile)
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}

	w := c.App.Writer
	for _, cs := range cases {
		fmt.Fprintf(w, "  %-24s %-10s seed=%d phase=%d length=%d -> %s\n",
			cs.Name, cs.Strategy, cs.Seed, cs.Phase, cs.Length, cs.File)
	}
	fmt.Fprintf(w, "Wrote %d canonical cases to %s\n", len(cases), outDir)
	return nil
}

// verifyCommand runs every matched metadata table and fails if any case did not pass
func verifyCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	maxMismatches := cfg.Canonical.MaxMismatches
	if c.IsSet("max-mismatches") {
		maxMismatches = c.Int("max-mismatches")
		if maxMismatches < 0 {
			return chierrors.NewArgumentError("max-mismatches", fmt.Sprint(maxMismatches), fmt.Errorf("must not be negative"))
		}
	}

	pattern := c.String("meta")
	if pattern == "" {
		pattern = cfg.MetaPath()
	}
	paths, err := canonical.DiscoverMeta(pattern, cfg.Canonical.MetaFile)
	if err != nil {
		return err
	}

	runner := canonical.NewRunner(maxMismatches)
	reports := make([]*canonical.Report, 0, len(paths))
	var failed []string
	for _, path := range paths {
		report, err := runner.Run(c.Context, path)
		if err != nil {
			return fmt.Errorf("verification of %s failed: %w", path, err)
		}
		if !report.Passed() {
			failed = append(failed, path)
		}
		reports = append(reports, report)
	}

	if c.Bool("json") {
		if err := writeJSON(c.App.Writer, reports); err != nil {
			return err
		}
	} else {
		for i, report := range reports {
			if i > 0 {
				fmt.Fprintln(c.App.Writer)
			}
			report.WriteText(c.App.Writer)
		}
	}

	if len(failed) > 0 {
		return fmt.Errorf("%d of %d metadata tables failed verification: %s",
			len(failed), len(reports), strings.Join(failed, ", "))
	}
	return nil
}

func usageError(c *cli.Context) error {
	return chierrors.NewArgumentError("arguments", strings.Join(c.Args().Slice(), " "),
		fmt.Errorf("usage: %s %s %s", c.App.Name, c.Command.Name, c.Command.ArgsUsage))
}
