package canonical

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/standardbeagle/chi32/internal/debug"
)

// Status is the outcome of a single case.
type Status string

const (
	StatusPass    Status = "pass"
	StatusFail    Status = "fail"
	StatusSkipped Status = "skipped"
)

// Mismatch records one position where the generator disagreed with the reference.
type Mismatch struct {
	Position int    `json:"position"`
	Selector int64  `json:"selector"`
	Index    int64  `json:"index"`
	Expected uint32 `json:"expected"`
	Actual   uint32 `json:"actual"`
}

// Result is the verification outcome of one case.
type Result struct {
	Case          Case       `json:"case"`
	Status        Status     `json:"status"`
	MismatchCount int        `json:"mismatch_count"`
	Mismatches    []Mismatch `json:"mismatches,omitempty"`
	Fingerprint   string     `json:"fingerprint,omitempty"`
	TrailingBytes int        `json:"trailing_bytes,omitempty"`
	Error         string     `json:"error,omitempty"`
	err           error
}

// Err returns the error that caused the case to be skipped.
func (r Result) Err() error { return r.err }

// Compare drives the case's strategy source over expected and collects every
// mismatch. Only the first maxMismatches are kept in full; all are counted.
func Compare(c Case, expected []uint32, maxMismatches int) Result {
	result := Result{Case: c, Status: StatusPass}
	src := c.NewSource()

	for i, want := range expected {
		selector, index := src.Position()
		got := src.Next()
		if got == want {
			continue
		}
		if result.MismatchCount < maxMismatches {
			result.Mismatches = append(result.Mismatches, Mismatch{
				Position: i,
				Selector: selector,
				Index:    index,
				Expected: want,
				Actual:   got,
			})
		}
		result.MismatchCount++
	}

	if result.MismatchCount > 0 {
		result.Status = StatusFail
	}
	return result
}

// Runner verifies metadata tables against the generator.
type Runner struct {
	MaxMismatches int
}

// NewRunner creates a runner that keeps up to maxMismatches mismatches per case.
func NewRunner(maxMismatches int) *Runner {
	return &Runner{MaxMismatches: maxMismatches}
}

// Run verifies every case listed in the metadata table at metaPath. Reference
// files are resolved relative to the table. Unusable rows and unreadable data
// are recorded in the report and the remaining cases still run.
func (r *Runner) Run(ctx context.Context, metaPath string) (*Report, error) {
	start := time.Now()

	cases, rowErrs, err := LoadMeta(metaPath)
	if err != nil {
		return nil, err
	}
	debug.LogCanonical("parsed %d cases from %s (%d rows skipped)\n", len(cases), metaPath, len(rowErrs))

	report := &Report{MetaPath: metaPath, rowErrs: rowErrs}
	for _, rowErr := range rowErrs {
		report.RowErrors = append(report.RowErrors, rowErr.Error())
	}

	dir := filepath.Dir(metaPath)
	for _, c := range cases {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Results = append(report.Results, r.RunCase(dir, c))
	}

	report.Duration = time.Since(start)
	if err := report.Err(); err != nil {
		debug.LogCanonical("%s: %v\n", metaPath, err)
	}
	return report, nil
}

// RunCase loads the reference data for c from dir and compares it.
func (r *Runner) RunCase(dir string, c Case) Result {
	ref, err := LoadReference(dir, c)
	if err != nil {
		debug.LogCanonical("skipping %s: %v\n", c.Name, err)
		return Result{Case: c, Status: StatusSkipped, Error: err.Error(), err: err}
	}

	result := Compare(c, ref.Values, r.MaxMismatches)
	result.Fingerprint = fmt.Sprintf("%016x", ref.Fingerprint)
	result.TrailingBytes = ref.TrailingBytes
	debug.LogCanonical("%s: %s (%d mismatches)\n", c.Name, result.Status, result.MismatchCount)
	return result
}
