// Package matrix generates the square integer matrices reduced by the
// benchmark. A Matrix is one contiguous buffer indexed by row stride.
package matrix

import (
	"errors"
	"fmt"
	mrand "math/rand"
	"time"
)

// MaxValue is the exclusive upper bound of generated cell values.
const MaxValue = 30000

// MaxSize is the largest accepted matrix size. A MaxSize x MaxSize matrix
// takes 16 GiB; larger requests are rejected instead of exhausting memory.
const MaxSize = 1 << 16

// ErrInvalidDimension is returned for a matrix size outside [1, MaxSize].
var ErrInvalidDimension = errors.New("invalid matrix size")

// Matrix is an N x N grid of int32 stored row-major in a single slice.
type Matrix struct {
	N    int
	data []int32
}

// New allocates a zeroed n x n matrix.
func New(n int) (*Matrix, error) {
	if err := CheckSize(n); err != nil {
		return nil, err
	}

	return &Matrix{N: n, data: make([]int32, n*n)}, nil
}

// FromRows builds a Matrix from a square slice of rows.
func FromRows(rows [][]int32) (*Matrix, error) {
	n := len(rows)

	m, err := New(n)
	if err != nil {
		return nil, err
	}

	for i, row := range rows {
		if len(row) != n {
			return nil, fmt.Errorf(
				"row %d has %d columns, want %d", i, len(row), n,
			)
		}

		copy(m.Row(i), row)
	}

	return m, nil
}

// CheckSize reports whether an n x n matrix can be allocated.
func CheckSize(n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: got %d, must be positive", ErrInvalidDimension, n)
	}

	if n > MaxSize {
		return fmt.Errorf("%w: got %d, limit is %d", ErrInvalidDimension, n, MaxSize)
	}

	return nil
}

// Row returns row i as a slice aliasing the matrix buffer.
func (m *Matrix) Row(i int) []int32 {
	off := i * m.N

	return m.data[off : off+m.N : off+m.N]
}

// Set stores v at row i, column j.
func (m *Matrix) Set(i, j int, v int32) {
	m.data[i*m.N+j] = v
}

// Config controls matrix generation.
type Config struct {
	Size int
	// Seed is the base seed. Zero means the wall clock at generation time.
	Seed int64
}

// Generator produces freshly seeded matrices, one per sample.
type Generator struct {
	cfg Config
	now func() time.Time
}

// NewGenerator creates a Generator from the given Config.
func NewGenerator(cfg Config) *Generator {
	return &Generator{cfg: cfg, now: time.Now}
}

// SeedFor returns the seed used for the sample at offset.
func (g *Generator) SeedFor(offset int64) int64 {
	base := g.cfg.Seed
	if base == 0 {
		base = g.now().UnixNano()
	}

	return base + offset
}

// Generate returns a new matrix filled uniformly from [0, MaxValue).
// offset is added to the base seed so that samples generated within the
// same clock tick still differ.
func (g *Generator) Generate(offset int64) (*Matrix, error) {
	m, err := New(g.cfg.Size)
	if err != nil {
		return nil, err
	}

	rng := mrand.New(mrand.NewSource(g.SeedFor(offset)))
	for i := range m.data {
		m.data[i] = rng.Int31n(MaxValue)
	}

	return m, nil
}
