// Package harness runs benchmark samples through an aggregator and collects
// timing statistics.
package harness

import (
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats accumulates elapsed time across completed samples.
type Stats struct {
	Total   time.Duration
	Count   int
	seconds []float64
}

// Add records one completed sample.
func (s *Stats) Add(d time.Duration) {
	s.Total += d
	s.Count++
	s.seconds = append(s.seconds, d.Seconds())
}

// Mean returns Total / Count, or zero before any sample completes.
func (s *Stats) Mean() time.Duration {
	if s.Count == 0 {
		return 0
	}

	return s.Total / time.Duration(s.Count)
}

// Summary holds the structured output of one run.
type Summary struct {
	Mode      Mode    `json:"mode"`
	Strategy  string  `json:"strategy,omitempty"`
	Schedule  string  `json:"schedule,omitempty"`
	Size      int     `json:"size"`
	Threads   int     `json:"threads"`
	Samples   int     `json:"samples"`
	Seed      int64   `json:"seed"`
	Results   []int32 `json:"results"`
	MeanSec   float64 `json:"mean_sec"`
	StdDevSec float64 `json:"stddev_sec"`
	MinSec    float64 `json:"min_sec"`
	MaxSec    float64 `json:"max_sec"`
	TotalSec  float64 `json:"total_sec"`
	WallSec   float64 `json:"wall_sec"`
	CPUSec    float64 `json:"cpu_sec"`
	ResultLog string  `json:"result_log,omitempty"`

	// LogErr is set when the result log could not be written. The
	// timings are still valid.
	LogErr error `json:"-"`
}

// fill copies the aggregate statistics of s into sum.
func (sum *Summary) fill(s *Stats) {
	sum.Samples = s.Count
	sum.TotalSec = s.Total.Seconds()
	sum.MeanSec = s.Mean().Seconds()

	if s.Count == 0 {
		return
	}

	sum.MinSec = floats.Min(s.seconds)
	sum.MaxSec = floats.Max(s.seconds)

	if s.Count > 1 {
		sum.StdDevSec = stat.StdDev(s.seconds, nil)
	}
}
