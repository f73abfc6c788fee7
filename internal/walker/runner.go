package walker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/chi32/internal/debug"
	chierrors "github.com/standardbeagle/chi32/internal/errors"
)

// Options configures a batch of walks.
type Options struct {
	Steps      uint64
	ScaleShift int
	Seed       uint64
	Generators []string // empty means every registered generator
	OutDir     string   // empty skips writing images
	Workers    int      // 0 means one goroutine per generator
}

// Run walks every selected generator concurrently and returns summaries in
// the order the generators were named. Images are written as
// <OutDir>/<name>_walker.png.
func Run(ctx context.Context, opts Options) ([]Summary, error) {
	names := opts.Generators
	if len(names) == 0 {
		names = GeneratorNames()
	}

	// Each walk owns its image file, so a generator may be listed only once.
	seen := make(map[string]bool, len(names))
	sims := make([]*Simulation, len(names))
	for i, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		if seen[key] {
			return nil, chierrors.NewArgumentError("generator", name, fmt.Errorf("listed more than once"))
		}
		seen[key] = true
		gen, err := NewGenerator(name, opts.Seed)
		if err != nil {
			return nil, err
		}
		sims[i] = NewSimulation(name, gen, opts.Steps, opts.ScaleShift)
	}

	if opts.OutDir != "" {
		if err := os.MkdirAll(opts.OutDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	summaries := make([]Summary, len(sims))
	g, gctx := errgroup.WithContext(ctx)
	if opts.Workers > 0 {
		g.SetLimit(opts.Workers)
	}

	for i, sim := range sims {
		g.Go(func() error {
			start := time.Now()
			if err := sim.Run(gctx); err != nil {
				return fmt.Errorf("%s: %w", sim.Name(), err)
			}
			debug.LogWalk("%s: %d steps in %s\n", sim.Name(), sim.Steps(), time.Since(start))

			summary, err := sim.Summarize()
			if err != nil {
				return err
			}
			if opts.OutDir != "" {
				summary.Image = filepath.Join(opts.OutDir, sim.Name()+"_walker.png")
				if err := sim.SavePNG(summary.Image); err != nil {
					return err
				}
			}
			summaries[i] = summary
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return summaries, nil
}
