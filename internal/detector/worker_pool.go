package detector

import (
	"context"
	"runtime"
	"sync"
)

// WorkerPool bounds concurrent heavy analysis to the available CPU cores
type WorkerPool struct {
	workers  int
	jobQueue chan func()
	started  sync.Once
	stopped  sync.Once
}

// NewWorkerPool creates a worker pool; workers <= 0 uses the CPU count
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &WorkerPool{
		workers:  workers,
		jobQueue: make(chan func(), workers*2),
	}
}

// Start launches the workers; subsequent calls are no-ops
func (wp *WorkerPool) Start() {
	wp.started.Do(func() {
		for i := 0; i < wp.workers; i++ {
			go wp.worker()
		}
	})
}

func (wp *WorkerPool) worker() {
	for job := range wp.jobQueue {
		job()
	}
}

// Submit enqueues a job. When the queue is full it waits until a slot
// opens or the context ends, so a saturated pool cannot hold a caller
// past its deadline.
func (wp *WorkerPool) Submit(ctx context.Context, job func()) error {
	select {
	case wp.jobQueue <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close shuts the pool down; queued jobs still run
func (wp *WorkerPool) Close() {
	wp.stopped.Do(func() {
		close(wp.jobQueue)
	})
}
