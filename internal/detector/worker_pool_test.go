package detector

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestWorkerPool_RunsSubmittedJobs(t *testing.T) {
	pool := NewWorkerPool(4)
	pool.Start()
	defer pool.Close()

	ctx := context.Background()
	var counter int64
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		if err := pool.Submit(ctx, func() {
			defer wg.Done()
			atomic.AddInt64(&counter, 1)
		}); err != nil {
			t.Fatalf("Expected submit to succeed, got %v", err)
		}
	}
	wg.Wait()

	if got := atomic.LoadInt64(&counter); got != 100 {
		t.Errorf("Expected 100 jobs executed, got %d", got)
	}
}

func TestWorkerPool_DefaultWorkerCount(t *testing.T) {
	pool := NewWorkerPool(0)
	if pool.workers < 1 {
		t.Errorf("Expected at least one worker, got %d", pool.workers)
	}
	pool.Start()
	pool.Close()
}

func TestWorkerPool_StartIsIdempotent(t *testing.T) {
	pool := NewWorkerPool(2)
	pool.Start()
	pool.Start()
	defer pool.Close()

	done := make(chan struct{})
	if err := pool.Submit(context.Background(), func() { close(done) }); err != nil {
		t.Fatalf("Expected submit to succeed, got %v", err)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Expected job to run after repeated Start calls")
	}
}

func TestWorkerPool_SubmitHonorsContextWhenSaturated(t *testing.T) {
	pool := NewWorkerPool(1)
	pool.Start()
	defer pool.Close()

	// Park the worker and fill every queue slot so the next submit
	// has to wait on the context.
	release := make(chan struct{})
	defer close(release)
	ctx := context.Background()
	pool.Submit(ctx, func() { <-release })
	for i := 0; i < cap(pool.jobQueue); i++ {
		pool.Submit(ctx, func() {})
	}

	deadline, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if err := pool.Submit(deadline, func() {}); err != context.DeadlineExceeded {
		t.Errorf("Expected context.DeadlineExceeded from a saturated pool, got %v", err)
	}
}

func TestWorkerPool_CloseDrainsQueue(t *testing.T) {
	pool := NewWorkerPool(1)
	pool.Start()

	ctx := context.Background()
	var counter int64
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		pool.Submit(ctx, func() {
			defer wg.Done()
			atomic.AddInt64(&counter, 1)
		})
	}
	pool.Close()
	pool.Close() // second close is a no-op
	wg.Wait()

	if got := atomic.LoadInt64(&counter); got != 10 {
		t.Errorf("Expected queued jobs to finish after Close, got %d", got)
	}
}
