package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/weiihann/maxmin/harness"
	"github.com/weiihann/maxmin/report"
)

const menuPrompt = `Enter one of the options given below
	1 - For serial program
	2 - For parallel program
	3 - Exit
`

// errInvalidInput marks a line that is not an integer.
var errInvalidInput = errors.New("invalid input")

// menu is the interactive console loop. The last valid thread count is
// kept as the default for the next run.
type menu struct {
	lines     <-chan string
	out       io.Writer
	runner    *harness.Runner
	resultLog string
	threads   int
}

func newMenu(in io.Reader, out io.Writer, runner *harness.Runner, resultLog string) *menu {
	lines := make(chan string)
	go readLines(bufio.NewReader(in), lines)

	return &menu{
		lines:     lines,
		out:       out,
		runner:    runner,
		resultLog: resultLog,
		threads:   harness.DefaultThreads,
	}
}

// readLines feeds lines into ch until the reader fails, then closes ch.
// A blocked terminal read cannot be interrupted, so it lives on its own
// goroutine and prompts select on it against the context.
func readLines(r *bufio.Reader, ch chan<- string) {
	defer close(ch)

	for {
		text, err := r.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || text == "") {
			return
		}

		ch <- text

		if err != nil {
			return
		}
	}
}

// loop runs until the user picks Exit, input ends, or ctx is canceled.
func (m *menu) loop(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		fmt.Fprint(m.out, menuPrompt)

		selection, _, err := m.readInt(ctx)
		if done(ctx, err) {
			return nil
		}
		if err != nil {
			fmt.Fprintln(m.out, "Invalid selection.")

			continue
		}

		var mode harness.Mode

		switch selection {
		case 1:
			mode = harness.ModeSerial
		case 2:
			mode = harness.ModeParallel
		case 3:
			return nil
		default:
			fmt.Fprintln(m.out, "Invalid selection.")

			continue
		}

		cfg, err := m.readConfig(ctx, mode)
		if done(ctx, err) {
			return nil
		}

		var ierr *inputError
		if errors.As(err, &ierr) {
			fmt.Fprintf(m.out, "Invalid input for %s.\n", ierr.field)

			continue
		}

		m.run(ctx, cfg)
	}
}

func (m *menu) readConfig(ctx context.Context, mode harness.Mode) (harness.Config, error) {
	cfg := harness.Config{Mode: mode, ResultLog: m.resultLog}

	fmt.Fprint(m.out, "Enter sample size: ")

	samples, _, err := m.readInt(ctx)
	if err != nil {
		return cfg, inputErr("sample size", err)
	}

	fmt.Fprint(m.out, "Enter matrixSize: ")

	size, _, err := m.readInt(ctx)
	if err != nil {
		return cfg, inputErr("matrixSize", err)
	}

	fmt.Fprintf(m.out, "Enter the number of threads (default is %d): ", m.threads)

	threads, blank, err := m.readInt(ctx)
	if err != nil {
		return cfg, inputErr("number of threads", err)
	}

	if blank {
		threads = m.threads
	} else if threads > 0 {
		m.threads = threads
	}

	cfg.Samples = samples
	cfg.Size = size
	cfg.Threads = threads

	return cfg, nil
}

// inputError reports a prompt answer that is not an integer.
type inputError struct {
	field string
}

func (e *inputError) Error() string {
	return "invalid input for " + e.field
}

// done reports whether the menu should stop: input ended or ctx was canceled.
func done(ctx context.Context, err error) bool {
	return errors.Is(err, io.EOF) || ctx.Err() != nil
}

func inputErr(field string, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	return &inputError{field: field}
}

func (m *menu) run(ctx context.Context, cfg harness.Config) {
	summary, err := m.runner.Run(ctx, cfg)
	if err != nil {
		fmt.Fprintf(m.out, "Error: %v\n", err)

		return
	}

	warnLog(m.out, summary)

	if err := report.Line(m.out, summary); err != nil {
		fmt.Fprintf(m.out, "Error: %v\n", err)
	}
}

// readInt waits for one line and parses it as an integer. blank is true for
// an empty line, which is not an error. It returns io.EOF once input ends and
// ctx.Err() if ctx is canceled first.
func (m *menu) readInt(ctx context.Context) (n int, blank bool, err error) {
	var text string

	select {
	case <-ctx.Done():
		return 0, false, ctx.Err()
	case l, ok := <-m.lines:
		if !ok {
			return 0, false, io.EOF
		}

		text = strings.TrimSpace(l)
	}

	if text == "" {
		return 0, true, nil
	}

	n, err = strconv.Atoi(text)
	if err != nil {
		return 0, false, errInvalidInput
	}

	return n, false, nil
}
