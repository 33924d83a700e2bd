// Package main provides the CLI entry point for maxmin, a benchmark that
// compares a serial and a worker-pool scan for the maximum of row minima
// of a random square matrix.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"github.com/weiihann/maxmin/harness"
	"github.com/weiihann/maxmin/reduce"
	"github.com/weiihann/maxmin/report"
)

func main() {
	level := new(slog.LevelVar)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := newRootCmd(logger, level)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd(logger *slog.Logger, level *slog.LevelVar) *cobra.Command {
	var (
		verbose   bool
		resultLog string
	)

	root := &cobra.Command{
		Use:   "maxmin",
		Short: "Serial vs. parallel max-of-row-minima benchmark",
		Long: `Maxmin generates random square matrices and measures how long it
takes to find the maximum of the row minima, either with a single
sequential scan or with a fixed pool of workers.

Without a subcommand it starts an interactive menu.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			if verbose {
				level.Set(slog.LevelDebug)
			}
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Keep info logs from interleaving with the prompts.
			if !verbose {
				level.Set(slog.LevelWarn)
			}

			runner := harness.NewRunner(logger)
			defer runner.Close()

			m := newMenu(cmd.InOrStdin(), cmd.OutOrStdout(), runner, resultLog)

			return m.loop(cmd.Context())
		},
	}

	pflags := root.PersistentFlags()
	pflags.BoolVarP(&verbose, "verbose", "v", false,
		"Log progress and per-sample timings to stderr")
	pflags.StringVar(&resultLog, "result-log", harness.DefaultResultLog,
		"File receiving one result per sample in serial mode (empty disables)")

	root.AddCommand(
		newModeCmd(logger, harness.ModeSerial, &resultLog),
		newModeCmd(logger, harness.ModeParallel, &resultLog),
		newCompareCmd(logger, &resultLog),
	)

	return root
}

type runFlags struct {
	samples    int
	size       int
	threads    int
	seed       int64
	strategy   string
	schedule   string
	outputJSON bool
}

func (f *runFlags) bind(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.IntVar(&f.samples, "samples", 1,
		"Number of independent samples to average")
	flags.IntVar(&f.size, "size", 1000,
		"Matrix size n (the matrix is n x n)")
	flags.IntVar(&f.threads, "threads", harness.DefaultThreads,
		"Worker pool size for parallel runs")
	flags.Int64Var(&f.seed, "seed", 0,
		"Base random seed; sample i uses seed+i (0 = use current time)")
	flags.StringVar(&f.strategy, "strategy", string(reduce.StrategyLocked),
		"Parallel combine strategy: locked, partials")
	flags.StringVar(&f.schedule, "schedule", string(reduce.ScheduleStatic),
		"Parallel row schedule: static, dynamic")
	flags.BoolVar(&f.outputJSON, "json", false,
		"Output results as JSON instead of text")
}

func (f *runFlags) config(mode harness.Mode, resultLog string) (harness.Config, error) {
	strategy, err := reduce.ParseStrategy(f.strategy)
	if err != nil {
		return harness.Config{}, err
	}

	schedule, err := reduce.ParseSchedule(f.schedule)
	if err != nil {
		return harness.Config{}, err
	}

	return harness.Config{
		Mode:      mode,
		Samples:   f.samples,
		Size:      f.size,
		Threads:   f.threads,
		Seed:      f.seed,
		Strategy:  strategy,
		Schedule:  schedule,
		ResultLog: resultLog,
	}, nil
}

func newModeCmd(logger *slog.Logger, mode harness.Mode, resultLog *string) *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   string(mode),
		Short: fmt.Sprintf("Run the %s benchmark", mode),
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.config(mode, *resultLog)
			if err != nil {
				return err
			}

			runner := harness.NewRunner(logger)
			defer runner.Close()

			summary, err := runner.Run(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("%s run: %w", mode, err)
			}

			return writeSummaries(cmd.OutOrStdout(), cmd.ErrOrStderr(),
				flags.outputJSON, summary)
		},
	}

	flags.bind(cmd)

	return cmd
}

func newCompareCmd(logger *slog.Logger, resultLog *string) *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Run serial and parallel on the same matrices and compare",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if flags.seed == 0 {
				flags.seed = time.Now().UnixNano()
			}

			runner := harness.NewRunner(logger)
			defer runner.Close()

			summaries := make([]*harness.Summary, 0, 2)

			for _, mode := range []harness.Mode{harness.ModeSerial, harness.ModeParallel} {
				cfg, err := flags.config(mode, *resultLog)
				if err != nil {
					return err
				}

				summary, err := runner.Run(cmd.Context(), cfg)
				if err != nil {
					return fmt.Errorf("%s run: %w", mode, err)
				}

				warnLog(cmd.ErrOrStderr(), summary)
				summaries = append(summaries, summary)
			}

			if flags.outputJSON {
				return report.GenerateJSON(cmd.OutOrStdout(), summaries)
			}

			return report.Generate(cmd.OutOrStdout(), summaries)
		},
	}

	flags.bind(cmd)

	return cmd
}

func writeSummaries(
	out, errOut io.Writer,
	outputJSON bool,
	summary *harness.Summary,
) error {
	warnLog(errOut, summary)

	if outputJSON {
		return report.GenerateJSON(out, []*harness.Summary{summary})
	}

	return report.Line(out, summary)
}

// warnLog tells the user that the result log was skipped. The run itself
// still succeeded.
func warnLog(w io.Writer, summary *harness.Summary) {
	if summary.LogErr != nil {
		fmt.Fprintf(w, "Warning: results not saved: %v\n", summary.LogErr)
	}
}
