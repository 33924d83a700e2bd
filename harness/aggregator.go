package harness

import (
	"fmt"
	"log/slog"

	"github.com/weiihann/maxmin/pool"
	"github.com/weiihann/maxmin/reduce"
)

// poolFor returns a pool with the given worker count, reusing the current
// one when the count is unchanged.
func (r *Runner) poolFor(threads int) (*pool.Pool, error) {
	if r.pool != nil && r.pool.NumWorkers() == threads {
		return r.pool, nil
	}

	p, err := pool.New(threads)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidThreadCount, err)
	}

	if r.pool != nil {
		r.Logger.Info("replacing worker pool",
			slog.Int("old_threads", r.pool.NumWorkers()),
			slog.Int("threads", threads),
		)
		r.pool.Close()
	} else {
		r.Logger.Info("worker pool created", slog.Int("threads", threads))
	}

	r.pool = p

	return p, nil
}

// aggregator returns the aggregator for cfg.Mode.
func (r *Runner) aggregator(cfg Config) (reduce.Aggregator, error) {
	if cfg.Mode == ModeSerial {
		return reduce.Serial{}, nil
	}

	p, err := r.poolFor(cfg.Threads)
	if err != nil {
		return nil, err
	}

	var opts []reduce.Option
	if cfg.Strategy != "" {
		opts = append(opts, reduce.WithStrategy(cfg.Strategy))
	}
	if cfg.Schedule != "" {
		opts = append(opts, reduce.WithSchedule(cfg.Schedule))
	}

	return reduce.NewParallel(p, opts...), nil
}
