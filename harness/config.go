package harness

import (
	"errors"
	"fmt"

	"github.com/weiihann/maxmin/matrix"
	"github.com/weiihann/maxmin/reduce"
)

// DefaultThreads is the worker count used when none is given.
const DefaultThreads = 32

// DefaultResultLog is the file serial runs write their per-sample results to.
const DefaultResultLog = "serial_max.txt"

var (
	// ErrInvalidDimension is returned for a matrix size outside
	// [1, matrix.MaxSize].
	ErrInvalidDimension = matrix.ErrInvalidDimension
	// ErrInvalidSampleCount is returned for a non-positive sample count.
	ErrInvalidSampleCount = errors.New("sample count must be positive")
	// ErrInvalidThreadCount is returned for a non-positive thread count.
	ErrInvalidThreadCount = errors.New("thread count must be positive")
	// ErrInvalidMode is returned for an unknown run mode.
	ErrInvalidMode = errors.New("unknown mode")
)

// Mode selects the aggregator a run uses.
type Mode string

const (
	ModeSerial   Mode = "serial"
	ModeParallel Mode = "parallel"
)

// Title returns the capitalised mode name used in console reports.
func (m Mode) Title() string {
	switch m {
	case ModeSerial:
		return "Serial"
	case ModeParallel:
		return "Parallel"
	default:
		return string(m)
	}
}

// Config holds the parameters of one run. It is not modified while the
// run is in progress.
type Config struct {
	Mode    Mode
	Samples int
	Size    int
	Threads int
	// Seed is the base seed; sample i uses Seed+i. Zero means the wall
	// clock at the start of the run.
	Seed     int64
	Strategy reduce.Strategy
	Schedule reduce.Schedule
	// ResultLog is the per-sample result file for serial runs. Empty
	// disables it.
	ResultLog string
}

// Validate checks cfg before any matrix work begins. Threads is only
// checked in parallel mode; a thread count above Size is valid and leaves
// workers idle.
func (cfg Config) Validate() error {
	switch cfg.Mode {
	case ModeSerial, ModeParallel:
	default:
		return fmt.Errorf("%w %q", ErrInvalidMode, cfg.Mode)
	}

	if cfg.Samples <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidSampleCount, cfg.Samples)
	}

	if err := matrix.CheckSize(cfg.Size); err != nil {
		return err
	}

	if cfg.Mode == ModeParallel && cfg.Threads <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidThreadCount, cfg.Threads)
	}

	if cfg.Strategy != "" {
		if _, err := reduce.ParseStrategy(string(cfg.Strategy)); err != nil {
			return err
		}
	}

	if cfg.Schedule != "" {
		if _, err := reduce.ParseSchedule(string(cfg.Schedule)); err != nil {
			return err
		}
	}

	return nil
}
