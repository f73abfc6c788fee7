package battery

import (
	"context"
	"fmt"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/chi32/internal/debug"
	"github.com/standardbeagle/chi32/internal/strategy"
)

// p-value bounds. A test fails outside [FailThreshold, 1-FailThreshold] and
// is suspicious outside [SuspectThreshold, 1-SuspectThreshold].
const (
	FailThreshold    = 1e-6
	SuspectThreshold = 1e-3
)

// Verdict classifies a p-value.
type Verdict string

const (
	VerdictPass    Verdict = "pass"
	VerdictSuspect Verdict = "suspect"
	VerdictFail    Verdict = "fail"
)

// Classify maps a p-value to a verdict. NaN always fails.
func Classify(p float64) Verdict {
	switch {
	case math.IsNaN(p), p < FailThreshold, p > 1-FailThreshold:
		return VerdictFail
	case p <= SuspectThreshold, p >= 1-SuspectThreshold:
		return VerdictSuspect
	default:
		return VerdictPass
	}
}

// Result is the outcome of one test.
type Result struct {
	Test      string        `json:"test"`
	Samples   int           `json:"samples"`
	Statistic float64       `json:"statistic"`
	PValue    float64       `json:"p_value"`
	Verdict   Verdict       `json:"verdict"`
	Duration  time.Duration `json:"duration_ns"`
}

// Runner executes batteries with bounded concurrency.
type Runner struct {
	Workers int // 0 means one goroutine per test
}

// NewRunner creates a runner limited to workers concurrent tests.
func NewRunner(workers int) *Runner {
	return &Runner{Workers: workers}
}

// Run executes every test of b. Each test draws from its own clone of src, so
// every test sees the stream from src's current position and src itself is
// left untouched. The first error cancels the remaining tests.
func (r *Runner) Run(ctx context.Context, b *Battery, src *strategy.Source) (*Report, error) {
	start := time.Now()
	report := &Report{
		Generator: src.Describe(),
		Battery:   b.Name,
		Results:   make([]Result, len(b.Tests)),
	}

	g, gctx := errgroup.WithContext(ctx)
	if r.Workers > 0 {
		g.SetLimit(r.Workers)
	}

	for i, test := range b.Tests {
		gen := src.Clone()
		g.Go(func() error {
			testStart := time.Now()
			debug.LogBattery("%s: starting %s with %d samples\n", b.Name, test.Name, test.Samples)

			stat, p, err := test.Run(gctx, gen, test.Samples)
			if err != nil {
				return fmt.Errorf("%s: %w", test.Name, err)
			}

			report.Results[i] = Result{
				Test:      test.Name,
				Samples:   test.Samples,
				Statistic: stat,
				PValue:    p,
				Verdict:   Classify(p),
				Duration:  time.Since(testStart),
			}
			debug.LogBattery("%s: %s p=%.4g\n", b.Name, test.Name, p)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	report.Duration = time.Since(start)
	return report, nil
}
