package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/weiihann/maxmin/matrix"
	"github.com/weiihann/maxmin/pool"
	"github.com/weiihann/maxmin/reduce"
)

// Runner executes benchmark runs. It keeps one worker pool alive between
// parallel runs and replaces it when the thread count changes.
type Runner struct {
	Logger *slog.Logger

	pool *pool.Pool
	now  func() time.Time
}

// NewRunner creates a Runner that logs to logger.
func NewRunner(logger *slog.Logger) *Runner {
	return &Runner{Logger: logger, now: time.Now}
}

// Close releases the worker pool.
func (r *Runner) Close() {
	if r.pool != nil {
		r.pool.Close()
		r.pool = nil
	}
}

func (cfg Config) withDefaults() Config {
	if cfg.Mode != ModeParallel {
		cfg.Strategy = ""
		cfg.Schedule = ""

		return cfg
	}

	if cfg.Strategy == "" {
		cfg.Strategy = reduce.StrategyLocked
	}
	if cfg.Schedule == "" {
		cfg.Schedule = reduce.ScheduleStatic
	}

	return cfg
}

// Run validates cfg, then generates, reduces and discards one matrix per
// sample, strictly one after another. Configuration errors are returned
// before any matrix is generated. A result log failure is not fatal: it
// is logged and reported in Summary.LogErr.
func (r *Runner) Run(ctx context.Context, cfg Config) (*Summary, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg = cfg.withDefaults()

	if cfg.Seed == 0 {
		cfg.Seed = r.now().UnixNano()
	}

	logger := r.Logger.With(slog.String("mode", string(cfg.Mode)))

	agg, err := r.aggregator(cfg)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		Mode:     cfg.Mode,
		Strategy: string(cfg.Strategy),
		Schedule: string(cfg.Schedule),
		Size:     cfg.Size,
		Seed:     cfg.Seed,
		Results:  make([]int32, 0, cfg.Samples),
	}
	if cfg.Mode == ModeParallel {
		summary.Threads = cfg.Threads
	}

	var rlog *resultLog
	if cfg.Mode == ModeSerial && cfg.ResultLog != "" {
		rlog, err = openResultLog(cfg.ResultLog)
		if err != nil {
			logger.Warn("result log disabled",
				slog.String("error", err.Error()),
			)
			summary.LogErr = err
		} else {
			summary.ResultLog = cfg.ResultLog
		}
	}

	logger.InfoContext(ctx, "starting run",
		slog.Int("samples", cfg.Samples),
		slog.Int("size", cfg.Size),
		slog.Int("threads", summary.Threads),
		slog.Int64("seed", cfg.Seed),
	)

	gen := matrix.NewGenerator(matrix.Config{Size: cfg.Size, Seed: cfg.Seed})

	var stats Stats

	wallStart := time.Now()
	cpuStart := processCPUTime()

	for i := range cfg.Samples {
		if err := ctx.Err(); err != nil {
			closeLog(logger, rlog, summary)

			return nil, fmt.Errorf("run interrupted after %d samples: %w", i, err)
		}

		m, err := gen.Generate(int64(i))
		if err != nil {
			closeLog(logger, rlog, summary)

			return nil, fmt.Errorf("generate sample %d: %w", i, err)
		}

		res, err := agg.Reduce(m)
		if err != nil {
			logWorkerPanic(logger, i, err)
			closeLog(logger, rlog, summary)

			return nil, fmt.Errorf("reduce sample %d: %w", i, err)
		}

		stats.Add(res.Elapsed)
		summary.Results = append(summary.Results, res.MaxMin)

		if rlog != nil {
			rlog.record(res.MaxMin)
		}

		logger.Debug("sample done",
			slog.Int("sample", i),
			slog.Duration("elapsed", res.Elapsed),
			slog.Int("max_min", int(res.MaxMin)),
		)
	}

	summary.CPUSec = (processCPUTime() - cpuStart).Seconds()
	summary.WallSec = time.Since(wallStart).Seconds()
	summary.fill(&stats)

	closeLog(logger, rlog, summary)

	logger.InfoContext(ctx, "run finished",
		slog.Duration("mean", stats.Mean()),
		slog.Duration("total", stats.Total),
	)

	return summary, nil
}

func closeLog(logger *slog.Logger, rlog *resultLog, summary *Summary) {
	if rlog == nil {
		return
	}

	if err := rlog.close(); err != nil {
		logger.Warn("failed to write result log",
			slog.String("error", err.Error()),
		)
		summary.LogErr = err
	}
}

// logWorkerPanic logs the goroutine stack of a recovered worker panic. The
// returned error only carries the panic value.
func logWorkerPanic(logger *slog.Logger, sample int, err error) {
	var perr *pool.PanicError
	if !errors.As(err, &perr) {
		return
	}

	logger.Debug("worker panic",
		slog.Int("sample", sample),
		slog.Any("value", perr.Value),
		slog.String("stack", string(perr.Stack)),
	)
}
