package service

import (
	"context"
	"sync"
)

// Runner owns a fixed pool of Workers sharing the same queues and client
// pool and satisfies domain.WorkerPort
type Runner struct {
	Workers []*Worker
}

// NewRunner wraps an already-wired set of Workers
func NewRunner(workers []*Worker) *Runner {
	return &Runner{Workers: workers}
}

// Run starts every worker and blocks until ctx is cancelled or Stop is
// called, then waits for all loops to return
func (r *Runner) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	wg.Add(len(r.Workers))
	for _, w := range r.Workers {
		w := w
		go func() {
			defer wg.Done()
			w.Run(ctx)
		}()
	}

	<-ctx.Done()
	r.Stop()
	wg.Wait()
	return ctx.Err()
}

// Stop signals every worker to exit at its next loop iteration
func (r *Runner) Stop() {
	for _, w := range r.Workers {
		w.Shutdown()
	}
}
