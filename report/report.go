// Package report formats benchmark summaries for the console.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"slices"

	"github.com/weiihann/maxmin/harness"
)

// Separator is printed after every one-line run report.
const Separator = "---------------------------------------------"

// Line writes the one-line report for a single run.
func Line(w io.Writer, s *harness.Summary) error {
	_, err := fmt.Fprintf(w,
		"%s: Average time for finding the maximum of every minimum "+
			"on %d x %d Matrix is %f\n\n%s\n",
		s.Mode.Title(), s.Size, s.Size, s.MeanSec, Separator,
	)

	return err
}

// Generate writes a markdown comparison table for the given summaries.
func Generate(w io.Writer, summaries []*harness.Summary) error {
	if len(summaries) == 0 {
		return fmt.Errorf("no results to report")
	}

	slowest := findSlowest(summaries)

	fmt.Fprintln(w, "## Benchmark Results")
	fmt.Fprintln(w)

	if checkResults(summaries) {
		fmt.Fprintln(w, "Max of row minima: **all match**")
	} else {
		fmt.Fprintln(w, "Max of row minima: **MISMATCH**")

		for _, s := range summaries {
			fmt.Fprintf(w, "  - %s: %v\n", label(s), s.Results)
		}
	}

	fmt.Fprintln(w)

	fmt.Fprintln(w, "| Run | Matrix | Threads | Samples | Mean "+
		"| StdDev | Min | Max | CPU Util | Speedup |")
	fmt.Fprintln(w, "|-----|--------|---------|---------|------"+
		"|--------|-----|-----|----------|---------|")

	for _, s := range summaries {
		speedup := 1.0
		if slowest > 0 && s.MeanSec > 0 {
			speedup = slowest / s.MeanSec
		}

		fmt.Fprintf(w, "| %s | %d x %d | %s | %d | %s | %s | %s | %s | %s | %.2fx |\n",
			label(s),
			s.Size, s.Size,
			formatThreads(s.Threads),
			s.Samples,
			formatSeconds(s.MeanSec),
			formatSeconds(s.StdDevSec),
			formatSeconds(s.MinSec),
			formatSeconds(s.MaxSec),
			formatUtil(s.CPUSec, s.WallSec),
			speedup,
		)
	}

	return nil
}

// GenerateJSON writes summaries as JSON to w.
func GenerateJSON(w io.Writer, summaries []*harness.Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(summaries)
}

func label(s *harness.Summary) string {
	if s.Strategy == "" {
		return string(s.Mode)
	}

	return fmt.Sprintf("%s/%s/%s", s.Mode, s.Strategy, s.Schedule)
}

// checkResults reports whether every run produced the same per-sample
// values. Runs with different seeds or sizes are not comparable and are
// treated as matching.
func checkResults(summaries []*harness.Summary) bool {
	if len(summaries) < 2 {
		return true
	}

	first := summaries[0]
	for _, s := range summaries[1:] {
		if s.Seed != first.Seed || s.Size != first.Size {
			continue
		}

		if !slices.Equal(s.Results, first.Results) {
			return false
		}
	}

	return true
}

func findSlowest(summaries []*harness.Summary) float64 {
	slowest := 0.0
	for _, s := range summaries {
		slowest = math.Max(slowest, s.MeanSec)
	}

	return slowest
}

func formatThreads(n int) string {
	if n == 0 {
		return "-"
	}

	return fmt.Sprintf("%d", n)
}

func formatSeconds(sec float64) string {
	switch {
	case sec == 0:
		return "0"
	case sec < 1e-3:
		return fmt.Sprintf("%.1fµs", sec*1e6)
	case sec < 1:
		return fmt.Sprintf("%.2fms", sec*1e3)
	default:
		return fmt.Sprintf("%.2fs", sec)
	}
}

func formatUtil(cpu, wall float64) string {
	if cpu == 0 || wall == 0 {
		return "-"
	}

	return fmt.Sprintf("%.0f%%", cpu/wall*100)
}
