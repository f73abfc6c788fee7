package walker

import (
	"fmt"
	"io"
	"math"

	"github.com/montanaflynn/stats"
)

// Summary describes the visit distribution of a finished walk.
type Summary struct {
	Name         string  `json:"name"`
	Steps        uint64  `json:"steps"`
	Visited      int     `json:"visited_cells"`
	Mean         float64 `json:"mean"`
	StdDev       float64 `json:"std_dev"`
	CV           float64 `json:"cv"`
	Median       float64 `json:"median"`
	Max          float64 `json:"max"`
	Displacement float64 `json:"displacement"` // final distance from the origin over sqrt(steps)
	Image        string  `json:"image,omitempty"`
}

// Summarize computes statistics over the grid cells the walker visited.
func (s *Simulation) Summarize() (Summary, error) {
	sum := Summary{Name: s.name, Steps: s.Progress()}

	counts := make(stats.Float64Data, 0, 1024)
	for _, v := range s.visits {
		if v > 0 {
			counts = append(counts, float64(v))
		}
	}
	sum.Visited = len(counts)

	if sum.Steps > 0 {
		x, y := float64(s.x), float64(s.y)
		sum.Displacement = math.Hypot(x, y) / math.Sqrt(float64(sum.Steps))
	}
	if len(counts) == 0 {
		return sum, nil
	}

	var err error
	if sum.Mean, err = stats.Mean(counts); err != nil {
		return sum, fmt.Errorf("%s: mean: %w", s.name, err)
	}
	if sum.StdDev, err = stats.StandardDeviationPopulation(counts); err != nil {
		return sum, fmt.Errorf("%s: standard deviation: %w", s.name, err)
	}
	if sum.Median, err = stats.Median(counts); err != nil {
		return sum, fmt.Errorf("%s: median: %w", s.name, err)
	}
	if sum.Max, err = stats.Max(counts); err != nil {
		return sum, fmt.Errorf("%s: max: %w", s.name, err)
	}
	if sum.Mean > 0 {
		sum.CV = sum.StdDev / sum.Mean
	}
	return sum, nil
}

// WriteSummaries prints one row per walk.
func WriteSummaries(w io.Writer, summaries []Summary) {
	fmt.Fprintf(w, "%-16s %12s %9s %10s %10s %7s %8s %8s  %s\n",
		"Generator", "Steps", "Visited", "Mean", "StdDev", "CV", "Median", "Disp", "Image")
	for _, s := range summaries {
		fmt.Fprintf(w, "%-16s %12d %9d %10.2f %10.2f %7.3f %8.0f %8.3f  %s\n",
			s.Name, s.Steps, s.Visited, s.Mean, s.StdDev, s.CV, s.Median, s.Displacement, s.Image)
	}
}
