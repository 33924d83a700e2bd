package harness

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
)

// ErrResultLog wraps failures to open or write the result log.
var ErrResultLog = errors.New("result log")

// resultLog writes one decimal result per line. After the first failure it
// stops writing and keeps the error.
type resultLog struct {
	path string
	f    *os.File
	w    *bufio.Writer
	err  error
	buf  []byte
}

func openResultLog(path string) (*resultLog, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrResultLog, path, err)
	}

	return &resultLog{path: path, f: f, w: bufio.NewWriter(f)}, nil
}

func (l *resultLog) record(v int32) {
	if l.err != nil {
		return
	}

	l.buf = strconv.AppendInt(l.buf[:0], int64(v), 10)
	l.buf = append(l.buf, '\n')

	if _, err := l.w.Write(l.buf); err != nil {
		l.err = fmt.Errorf("%w: write %s: %w", ErrResultLog, l.path, err)
	}
}

// close flushes and closes the file and returns the first error seen.
func (l *resultLog) close() error {
	if err := l.w.Flush(); err != nil && l.err == nil {
		l.err = fmt.Errorf("%w: flush %s: %w", ErrResultLog, l.path, err)
	}

	if err := l.f.Close(); err != nil && l.err == nil {
		l.err = fmt.Errorf("%w: close %s: %w", ErrResultLog, l.path, err)
	}

	return l.err
}
