package reduce

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/weiihann/maxmin/matrix"
	"github.com/weiihann/maxmin/pool"
)

// Strategy selects how workers combine their row minima.
type Strategy string

const (
	// StrategyLocked folds every row minimum into one shared accumulator
	// under a mutex. The lock covers only the compare-and-update.
	StrategyLocked Strategy = "locked"
	// StrategyPartials gives each worker its own accumulator and merges
	// them on the calling goroutine after the barrier.
	StrategyPartials Strategy = "partials"
)

// Schedule selects how rows are handed to workers.
type Schedule string

const (
	// ScheduleStatic gives each worker one contiguous block of rows.
	ScheduleStatic Schedule = "static"
	// ScheduleDynamic hands out rows one at a time from a shared counter.
	ScheduleDynamic Schedule = "dynamic"
)

// ParseStrategy parses a strategy name.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyLocked, StrategyPartials:
		return Strategy(s), nil
	default:
		return "", fmt.Errorf("unknown strategy %q (want locked or partials)", s)
	}
}

// ParseSchedule parses a schedule name.
func ParseSchedule(s string) (Schedule, error) {
	switch Schedule(s) {
	case ScheduleStatic, ScheduleDynamic:
		return Schedule(s), nil
	default:
		return "", fmt.Errorf("unknown schedule %q (want static or dynamic)", s)
	}
}

// Option configures a Parallel aggregator.
type Option func(*Parallel)

// WithStrategy sets the combine strategy.
func WithStrategy(s Strategy) Option {
	return func(p *Parallel) { p.strategy = s }
}

// WithSchedule sets the row schedule.
func WithSchedule(s Schedule) Option {
	return func(p *Parallel) { p.schedule = s }
}

// Parallel reduces rows concurrently on a worker pool. The pool is borrowed,
// not owned: the caller closes it.
type Parallel struct {
	pool     *pool.Pool
	strategy Strategy
	schedule Schedule
}

// NewParallel returns a Parallel aggregator running on p. Defaults are
// StrategyLocked and ScheduleStatic.
func NewParallel(p *pool.Pool, opts ...Option) *Parallel {
	agg := &Parallel{
		pool:     p,
		strategy: StrategyLocked,
		schedule: ScheduleStatic,
	}

	for _, opt := range opts {
		opt(agg)
	}

	return agg
}

// Name implements Aggregator.
func (p *Parallel) Name() string { return "parallel" }

// Threads returns the worker count of the underlying pool.
func (p *Parallel) Threads() int { return p.pool.NumWorkers() }

// Reduce implements Aggregator. Elapsed runs from just before dispatch to
// just after every worker has finished.
func (p *Parallel) Reduce(m *matrix.Matrix) (Result, error) {
	if err := checkMatrix(m); err != nil {
		return Result{}, err
	}

	switch p.strategy {
	case StrategyPartials:
		return p.reducePartials(m)
	default:
		return p.reduceLocked(m)
	}
}

func (p *Parallel) reduceLocked(m *matrix.Matrix) (Result, error) {
	var (
		mu  sync.Mutex
		acc = int32(math.MinInt32)
	)

	fold := func(_ int, v int32) {
		mu.Lock()
		if v > acc {
			acc = v
		}
		mu.Unlock()
	}

	start := time.Now()
	err := p.dispatch(m, fold)
	elapsed := time.Since(start)

	if err != nil {
		return Result{}, wrapWorkerErr(err)
	}

	return Result{Elapsed: elapsed, MaxMin: acc}, nil
}

// partial is padded to its own cache line so neighbouring workers do not
// contend on writes.
type partial struct {
	v int32
	_ [60]byte
}

func (p *Parallel) reducePartials(m *matrix.Matrix) (Result, error) {
	partials := make([]partial, p.pool.NumWorkers())
	for i := range partials {
		partials[i].v = math.MinInt32
	}

	fold := func(worker int, v int32) {
		if v > partials[worker].v {
			partials[worker].v = v
		}
	}

	start := time.Now()

	err := p.dispatch(m, fold)
	if err != nil {
		return Result{}, wrapWorkerErr(err)
	}

	acc := int32(math.MinInt32)
	for _, part := range partials {
		acc = max(acc, part.v)
	}

	elapsed := time.Since(start)

	return Result{Elapsed: elapsed, MaxMin: acc}, nil
}

// dispatch computes each row minimum on the pool and passes it to fold
// together with the worker slot that produced it. The first row error is
// returned after the barrier; rows already folded are discarded by the caller.
func (p *Parallel) dispatch(m *matrix.Matrix, fold func(worker int, v int32)) error {
	var (
		once   sync.Once
		rowErr error
	)

	row := func(worker, i int) bool {
		v, err := RowMin(m.Row(i))
		if err != nil {
			once.Do(func() { rowErr = fmt.Errorf("row %d: %w", i, err) })

			return false
		}

		fold(worker, v)

		return true
	}

	var err error
	if p.schedule == ScheduleDynamic {
		err = p.pool.ParallelForAtomic(m.N, func(worker, i int) {
			row(worker, i)
		})
	} else {
		err = p.pool.ParallelFor(m.N, func(worker, start, end int) {
			for i := start; i < end; i++ {
				if !row(worker, i) {
					return
				}
			}
		})
	}

	if err != nil {
		return err
	}

	return rowErr
}
