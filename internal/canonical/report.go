package canonical

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	chierrors "github.com/standardbeagle/chi32/internal/errors"
)

// Report summarizes verification of one metadata table.
type Report struct {
	MetaPath  string        `json:"meta_path"`
	Results   []Result      `json:"results"`
	RowErrors []string      `json:"row_errors,omitempty"`
	Duration  time.Duration `json:"duration_ns"`

	rowErrs []error
}

// Passed reports whether every case passed and no rows were rejected.
// A table that yields no cases never passes.
func (r *Report) Passed() bool {
	if len(r.Results) == 0 || len(r.RowErrors) > 0 {
		return false
	}
	for _, res := range r.Results {
		if res.Status != StatusPass {
			return false
		}
	}
	return true
}

// Err collects the row and data errors behind rejected rows and skipped
// cases. Mismatches are not errors. Returns nil when there are none.
func (r *Report) Err() error {
	errs := append([]error(nil), r.rowErrs...)
	for _, res := range r.Results {
		errs = append(errs, res.err)
	}
	return chierrors.NewMultiError(errs).ErrorOrNil()
}

// Counts returns how many cases passed, failed and were skipped.
func (r *Report) Counts() (passed, failed, skipped int) {
	for _, res := range r.Results {
		switch res.Status {
		case StatusPass:
			passed++
		case StatusFail:
			failed++
		case StatusSkipped:
			skipped++
		}
	}
	return passed, failed, skipped
}

// WriteJSON writes the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteText writes a human-readable report.
func (r *Report) WriteText(w io.Writer) {
	fmt.Fprintf(w, "CHI32 canonical reference tests: %s\n", r.MetaPath)
	for _, rowErr := range r.RowErrors {
		fmt.Fprintf(w, "  WARNING: skipped row: %s\n", rowErr)
	}

	for _, res := range r.Results {
		c := res.Case
		fmt.Fprintf(w, "\n--- %s (%s, seed=0x%016X, phase=0x%016X, length=%d) ---\n",
			c.Name, c.Strategy, uint64(c.Seed), uint64(c.Phase), c.Length)

		switch res.Status {
		case StatusSkipped:
			fmt.Fprintf(w, "  SKIP: %s\n", res.Error)
			continue
		case StatusPass:
			fmt.Fprintf(w, "  PASS: %d values verified (xxh64 %s)\n", c.Length, res.Fingerprint)
		case StatusFail:
			writeMismatches(w, res)
			fmt.Fprintf(w, "  FAIL: %d mismatch(es) in %d values\n", res.MismatchCount, c.Length)
		}
		if res.TrailingBytes > 0 {
			fmt.Fprintf(w, "  WARNING: %d trailing bytes after the expected values\n", res.TrailingBytes)
		}
	}

	passed, failed, skipped := r.Counts()
	fmt.Fprintf(w, "\n%d passed, %d failed, %d skipped in %s\n", passed, failed, skipped, r.Duration.Round(time.Millisecond))
	if r.Passed() {
		fmt.Fprintln(w, "All CHI32 canonical tests PASSED.")
	} else {
		fmt.Fprintln(w, "One or more CHI32 canonical tests FAILED.")
	}
}

func writeMismatches(w io.Writer, res Result) {
	label := res.Case.Strategy.String()
	heading := strings.ToUpper(label[:1]) + label[1:]
	for _, m := range res.Mismatches {
		fmt.Fprintf(w, "    MISMATCH (%s) at position %d (selector 0x%016X, index 0x%016X):\n",
			heading, m.Position, uint64(m.Selector), uint64(m.Index))
		fmt.Fprintf(w, "      Expected: 0x%08X (%d)\n", m.Expected, m.Expected)
		fmt.Fprintf(w, "      Actual:   0x%08X (%d)\n", m.Actual, m.Actual)
	}
	if res.MismatchCount > len(res.Mismatches) {
		fmt.Fprintf(w, "    (further %s mismatches suppressed...)\n", label)
	}
}
