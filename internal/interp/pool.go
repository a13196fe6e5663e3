// Package interp provides a reference InterpretState (spec.md §6) built
// around a small set of example tool wrappers (spec.md §9.5: ping/pong,
// in_range, errorwrapper, a yices stub) plus the worker pool that runs
// them off the goroutine that dispatched them. Adapted from the teacher's
// internal/parallel.WorkerPool: that pool's dynamic up/down scaling and
// deadlock detector exist to bound miniKanren's unbounded parallel search,
// which this Datalog core has no equivalent of (every wrapper invocation
// is one bounded external call), so this version keeps the fixed-size
// worker loop and panic-safe task execution and drops the scaling
// machinery.
package interp

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/evidentialbus/etbcore/internal/obs"
)

// Pool runs wrapper jobs on a fixed number of goroutines, so a slow or
// hanging external tool call does not run on the goroutine that dispatched
// it. Submit still blocks while the task queue is full, and each job calls
// back into the inference engine from its worker goroutine.
type Pool struct {
	tasks  chan func()
	logger *obs.Logger
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
	stopCh chan struct{}
}

// NewPool creates a Pool with the given number of workers. size <= 0
// defaults to runtime.NumCPU(). A nil logger discards panic diagnostics.
func NewPool(size int, logger *obs.Logger) *Pool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	if logger == nil {
		logger = obs.Nop()
	}
	p := &Pool{
		tasks:  make(chan func(), size*4),
		logger: logger,
		stopCh: make(chan struct{}),
	}
	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case task, ok := <-p.tasks:
			if !ok {
				return
			}
			p.runSafely(task)
		case <-p.stopCh:
			return
		}
	}
}

func (p *Pool) runSafely(task func()) {
	defer func() {
		if r := recover(); r != nil {
			// A wrapper that panics should not take the whole pool down;
			// the caller already has no result from this job and moves on,
			// but the panic is still the only diagnostic this job produces.
			p.logger.ProgrammerError("wrapper job panicked", "panic", r)
		}
	}()
	task()
}

// Submit queues task for execution on a worker goroutine. While the queue
// is full it waits, returning ctx.Err() if ctx is cancelled first, or an
// error if the pool is closed first. While the queue has room the task may
// be queued even if ctx is already cancelled or the pool already closed.
func (p *Pool) Submit(ctx context.Context, task func()) error {
	select {
	case p.tasks <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-p.stopCh:
		return fmt.Errorf("interp: pool is closed")
	}
}

// Close signals the workers to stop and waits for the jobs they are
// running to finish. Tasks still waiting in the queue are not run.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.stopCh)
	p.mu.Unlock()
	p.wg.Wait()
}
