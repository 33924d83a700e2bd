// Package pool provides a persistent, reusable worker pool for row-parallel
// reductions. A Pool is created once and reused across many samples, so the
// cost of spawning workers is paid outside the timed region.
//
// Usage:
//
//	p, err := pool.New(32)
//	if err != nil {
//	    return err
//	}
//	defer p.Close()
//
//	err = p.ParallelFor(rows, func(worker, start, end int) {
//	    processRows(start, end)
//	})
package pool

import (
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// ErrInvalidWorkers is returned by New for a non-positive worker count.
var ErrInvalidWorkers = errors.New("worker count must be positive")

// PanicError reports a panic raised inside a work item. The remaining
// work items still run to completion before it is returned.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("worker panic: %v", e.Value)
}

// Pool is a persistent worker pool. Workers are spawned once at creation
// and live until Close is called.
type Pool struct {
	numWorkers int
	workC      chan workItem
	closeOnce  sync.Once
	closed     atomic.Bool
}

type workItem struct {
	fn      func()
	barrier *sync.WaitGroup
	fail    *failure
}

// failure keeps the first panic observed during one dispatch.
type failure struct {
	once sync.Once
	err  error
}

func (f *failure) set(err error) {
	f.once.Do(func() { f.err = err })
}

// New creates a pool with numWorkers persistent workers.
func New(numWorkers int) (*Pool, error) {
	if numWorkers <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidWorkers, numWorkers)
	}

	p := &Pool{
		numWorkers: numWorkers,
		workC:      make(chan workItem, numWorkers*2),
	}

	for range numWorkers {
		go p.worker()
	}

	return p, nil
}

func (p *Pool) worker() {
	for item := range p.workC {
		item.run()
	}
}

func (it workItem) run() {
	defer it.barrier.Done()
	defer func() {
		if r := recover(); r != nil {
			it.fail.set(&PanicError{Value: r, Stack: debug.Stack()})
		}
	}()

	it.fn()
}

// runInline executes fn on the calling goroutine with the same panic
// handling as a pooled work item.
func runInline(fn func()) error {
	var (
		wg   sync.WaitGroup
		fail failure
	)

	wg.Add(1)
	workItem{fn: fn, barrier: &wg, fail: &fail}.run()

	return fail.err
}

// NumWorkers returns the number of workers in the pool.
func (p *Pool) NumWorkers() int {
	return p.numWorkers
}

// Close shuts down the pool. Pending work completes first. Close is safe
// to call more than once but must not race with a dispatch.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		close(p.workC)
	})
}

// ParallelFor splits [0, n) into at most NumWorkers contiguous chunks and
// runs fn(worker, start, end) for each chunk. worker is the chunk's slot in
// [0, NumWorkers). Blocks until every chunk is done.
//
// When n is smaller than the worker count the extra workers stay idle.
func (p *Pool) ParallelFor(n int, fn func(worker, start, end int)) error {
	if n <= 0 {
		return nil
	}

	workers := min(p.numWorkers, n)
	if workers == 1 || p.closed.Load() {
		return runInline(func() { fn(0, 0, n) })
	}

	chunkSize := (n + workers - 1) / workers

	var (
		wg   sync.WaitGroup
		fail failure
	)

	wg.Add(workers)

	for w := range workers {
		start := w * chunkSize
		end := min(start+chunkSize, n)
		if start >= n {
			wg.Done()

			continue
		}

		p.workC <- workItem{
			fn:      func() { fn(w, start, end) },
			barrier: &wg,
			fail:    &fail,
		}
	}

	wg.Wait()

	return fail.err
}

// ParallelForAtomic runs fn(worker, i) for every i in [0, n), handing out
// indices through a shared atomic counter so that fast workers take more
// rows. Blocks until every index is done.
func (p *Pool) ParallelForAtomic(n int, fn func(worker, i int)) error {
	if n <= 0 {
		return nil
	}

	workers := min(p.numWorkers, n)
	if workers == 1 || p.closed.Load() {
		return runInline(func() {
			for i := range n {
				fn(0, i)
			}
		})
	}

	var (
		next atomic.Int64
		wg   sync.WaitGroup
		fail failure
	)

	wg.Add(workers)

	for w := range workers {
		p.workC <- workItem{
			fn: func() {
				for {
					i := int(next.Add(1)) - 1
					if i >= n {
						return
					}
					fn(w, i)
				}
			},
			barrier: &wg,
			fail:    &fail,
		}
	}

	wg.Wait()

	return fail.err
}
