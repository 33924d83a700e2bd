package pool

import (
	"errors"
	"sync/atomic"
	"testing"
)

func newPool(t *testing.T, workers int) *Pool {
	t.Helper()

	p, err := New(workers)
	if err != nil {
		t.Fatalf("New(%d) failed: %v", workers, err)
	}
	t.Cleanup(p.Close)

	return p
}

func TestNew(t *testing.T) {
	p := newPool(t, 4)

	if p.NumWorkers() != 4 {
		t.Errorf("NumWorkers() = %d, want 4", p.NumWorkers())
	}
}

func TestNewInvalid(t *testing.T) {
	for _, n := range []int{0, -1} {
		_, err := New(n)
		if !errors.Is(err, ErrInvalidWorkers) {
			t.Errorf("New(%d) error = %v, want ErrInvalidWorkers", n, err)
		}
	}
}

func TestParallelFor(t *testing.T) {
	p := newPool(t, 4)

	n := 100
	results := make([]int, n)

	err := p.ParallelFor(n, func(_, start, end int) {
		for i := start; i < end; i++ {
			results[i] = i * 2
		}
	})
	if err != nil {
		t.Fatalf("ParallelFor failed: %v", err)
	}

	for i := range n {
		if results[i] != i*2 {
			t.Errorf("results[%d] = %d, want %d", i, results[i], i*2)
		}
	}
}

func TestParallelForWorkerSlots(t *testing.T) {
	p := newPool(t, 4)

	var seen [4]atomic.Int32

	err := p.ParallelFor(10, func(worker, _, _ int) {
		seen[worker].Add(1)
	})
	if err != nil {
		t.Fatalf("ParallelFor failed: %v", err)
	}

	for w := range seen {
		if got := seen[w].Load(); got != 1 {
			t.Errorf("worker %d ran %d chunks, want 1", w, got)
		}
	}
}

func TestParallelForAtomic(t *testing.T) {
	p := newPool(t, 4)

	n := 100
	results := make([]int, n)

	err := p.ParallelForAtomic(n, func(_, i int) {
		results[i] = i * 2
	})
	if err != nil {
		t.Fatalf("ParallelForAtomic failed: %v", err)
	}

	for i := range n {
		if results[i] != i*2 {
			t.Errorf("results[%d] = %d, want %d", i, results[i], i*2)
		}
	}
}

func TestParallelForSmallN(t *testing.T) {
	p := newPool(t, 8)

	// Fewer items than workers: extra workers stay idle.
	n := 3
	var count atomic.Int32

	err := p.ParallelFor(n, func(_, start, end int) {
		count.Add(int32(end - start))
	})
	if err != nil {
		t.Fatalf("ParallelFor failed: %v", err)
	}

	if count.Load() != int32(n) {
		t.Errorf("count = %d, want %d", count.Load(), n)
	}
}

func TestParallelForZeroN(t *testing.T) {
	p := newPool(t, 4)

	var called bool
	err := p.ParallelFor(0, func(_, _, _ int) {
		called = true
	})
	if err != nil {
		t.Fatalf("ParallelFor failed: %v", err)
	}

	if called {
		t.Error("ParallelFor with n=0 should not call fn")
	}
}

func TestParallelForPanic(t *testing.T) {
	p := newPool(t, 4)

	var done atomic.Int32

	err := p.ParallelFor(8, func(_, start, end int) {
		if start == 0 {
			panic("boom")
		}
		done.Add(int32(end - start))
	})

	var perr *PanicError
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v, want *PanicError", err)
	}
	if perr.Value != "boom" {
		t.Errorf("panic value = %v, want boom", perr.Value)
	}

	// The other chunks still ran before the error was returned.
	if done.Load() != 6 {
		t.Errorf("completed items = %d, want 6", done.Load())
	}
}

func TestParallelForAtomicPanic(t *testing.T) {
	p := newPool(t, 3)

	err := p.ParallelForAtomic(30, func(_, i int) {
		if i == 17 {
			panic("row 17")
		}
	})

	var perr *PanicError
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v, want *PanicError", err)
	}
}

func TestSingleWorkerPanicRecovered(t *testing.T) {
	p := newPool(t, 1)

	err := p.ParallelFor(5, func(_, _, _ int) {
		panic("inline")
	})
	if err == nil {
		t.Fatal("expected error from inline panic")
	}
}

func TestCloseMultipleTimes(t *testing.T) {
	p, err := New(4)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	p.Close()
	p.Close()
}

func TestUseAfterClose(t *testing.T) {
	p, err := New(4)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	p.Close()

	// A closed pool falls back to sequential execution.
	var sum atomic.Int64
	err = p.ParallelFor(10, func(_, start, end int) {
		for i := start; i < end; i++ {
			sum.Add(int64(i))
		}
	})
	if err != nil {
		t.Fatalf("ParallelFor failed: %v", err)
	}

	if sum.Load() != 45 {
		t.Errorf("sum = %d, want 45", sum.Load())
	}
}
