// Package reduce computes the maximum of row minima over a matrix, either
// with a single sequential scan or across a worker pool.
package reduce

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/weiihann/maxmin/matrix"
)

var (
	// ErrEmptyRow is returned by RowMin for a zero-length row.
	ErrEmptyRow = errors.New("row is empty")
	// ErrEmptyMatrix is returned when reducing a nil or zero-sized matrix.
	ErrEmptyMatrix = errors.New("matrix is empty")
	// ErrWorkerFailed wraps a failure raised inside a pool worker. The
	// sample's result is discarded.
	ErrWorkerFailed = errors.New("worker failed")
)

// Result is the outcome of reducing one matrix.
type Result struct {
	Elapsed time.Duration
	MaxMin  int32
}

// Aggregator reduces a matrix to the maximum of its row minima.
type Aggregator interface {
	Name() string
	Reduce(m *matrix.Matrix) (Result, error)
}

// RowMin returns the smallest element of row.
func RowMin(row []int32) (int32, error) {
	if len(row) == 0 {
		return 0, ErrEmptyRow
	}

	v := row[0]
	for _, x := range row[1:] {
		if x < v {
			v = x
		}
	}

	return v, nil
}

func checkMatrix(m *matrix.Matrix) error {
	if m == nil || m.N <= 0 {
		return ErrEmptyMatrix
	}

	return nil
}

// Serial scans rows in order on the calling goroutine.
type Serial struct{}

// Name implements Aggregator.
func (Serial) Name() string { return "serial" }

// Reduce implements Aggregator. Elapsed covers only the row scan.
func (Serial) Reduce(m *matrix.Matrix) (Result, error) {
	if err := checkMatrix(m); err != nil {
		return Result{}, err
	}

	acc := int32(math.MinInt32)

	start := time.Now()

	for i := range m.N {
		v, err := RowMin(m.Row(i))
		if err != nil {
			return Result{}, fmt.Errorf("row %d: %w", i, err)
		}

		if v > acc {
			acc = v
		}
	}

	elapsed := time.Since(start)

	return Result{Elapsed: elapsed, MaxMin: acc}, nil
}

func wrapWorkerErr(err error) error {
	return fmt.Errorf("%w: %w", ErrWorkerFailed, err)
}
