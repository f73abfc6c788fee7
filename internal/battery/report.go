package battery

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// Report collects the results of one battery run.
type Report struct {
	Generator string        `json:"generator"`
	Battery   string        `json:"battery"`
	Results   []Result      `json:"results"`
	Duration  time.Duration `json:"duration_ns"`
}

// Failed returns the results whose verdict is fail.
func (r *Report) Failed() []Result {
	return r.filter(VerdictFail)
}

// Suspect returns the results whose verdict is suspect.
func (r *Report) Suspect() []Result {
	return r.filter(VerdictSuspect)
}

func (r *Report) filter(v Verdict) []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Verdict == v {
			out = append(out, res)
		}
	}
	return out
}

// Passed reports whether no test failed. Suspicious p-values do not fail a run.
func (r *Report) Passed() bool {
	return len(r.Failed()) == 0
}

// WriteJSON writes the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteText writes per-test lines followed by a summary block.
func (r *Report) WriteText(w io.Writer) {
	fmt.Fprintf(w, "%-28s %10s %14s %12s\n", "Test", "Samples", "Statistic", "p-value")
	fmt.Fprintln(w, strings.Repeat("-", 67))
	for _, res := range r.Results {
		mark := ""
		if res.Verdict != VerdictPass {
			mark = "  <- " + string(res.Verdict)
		}
		fmt.Fprintf(w, "%-28s %10d %14.4f %12s%s\n", res.Test, res.Samples, res.Statistic, formatPValue(res.PValue), mark)
	}

	fmt.Fprintf(w, "\n========= Summary results of %s =========\n\n", r.Battery)
	fmt.Fprintf(w, " Generator:            %s\n", r.Generator)
	fmt.Fprintf(w, " Number of statistics: %d\n", len(r.Results))
	fmt.Fprintf(w, " Total time:           %s\n\n", r.Duration.Round(time.Millisecond))

	outside := append(r.Failed(), r.Suspect()...)
	if len(outside) == 0 {
		fmt.Fprintln(w, " All tests were passed")
		return
	}

	fmt.Fprintf(w, " The following tests gave p-values outside [%.4g, %.4g]:\n", SuspectThreshold, 1-SuspectThreshold)
	fmt.Fprintf(w, " (eps means a value < %.0e):\n\n", FailThreshold)
	for _, res := range outside {
		fmt.Fprintf(w, "   %-28s %s\n", res.Test, formatPValue(res.PValue))
	}
}

func formatPValue(p float64) string {
	switch {
	case p < FailThreshold:
		return "eps"
	case p > 1-FailThreshold:
		return "1 - eps"
	default:
		return fmt.Sprintf("%.4f", p)
	}
}
