// Package service implements the worker loop (C6): lease acquisition, ready
// queue consumption, fetch, and terminal step dispatch, per spec section 4.6
package service

import (
	"context"
	"sync/atomic"
	"time"

	"swearjar/internal/platform/logger"
	"swearjar/internal/services/bridge/domain"
	"swearjar/internal/services/bridge/fetch"
	"swearjar/internal/services/bridge/guardrails"
	"swearjar/internal/services/bridge/leases"
	"swearjar/internal/services/bridge/queue"
)

// Strategy is the terminal step a worker runs once a public document has
// been fetched. Mode A (bulk reconcile) and mode B (handler dispatch) are
// both just strategies composed onto the same loop, per spec section 9
type Strategy interface {
	OnPublicItem(ctx context.Context, localDoc *domain.Document, publicDoc domain.Document, priority int, item domain.QueueItem)
}

// Flusher is implemented by strategies that own a buffer needing a forced
// flush on shutdown (mode A)
type Flusher interface {
	Flush(ctx context.Context)
}

// Worker runs one instance of the C6 loop. Many Workers share the same
// Ready/Retry queues, ClientPool, and InfoStore
type Worker struct {
	Leases *leases.Manager
	Fetch  *fetch.Fetcher
	Ready  *queue.PriorityQueue[domain.QueueItem]
	Strategy Strategy

	// Retry re-enqueues an item whose local-store read failed in mode A
	Retry *guardrails.RetryPolicy

	// Timeshift logs how stale a fetched document is; purely observational
	Timeshift *guardrails.Timeshift

	// Store is consulted before every fetch in mode A to read the prior local
	// copy; left nil in mode B, where it is never used
	Store domain.StorageRepo

	Resource     string
	Mode         domain.Mode
	QueueTimeout time.Duration
	WorkerSleep  time.Duration

	Sleep func(time.Duration)

	exit int32
}

// NewWorker wires a Worker from its collaborators
func NewWorker(lm *leases.Manager, f *fetch.Fetcher, ready *queue.PriorityQueue[domain.QueueItem], strategy Strategy, store domain.StorageRepo, retry *guardrails.RetryPolicy, timeshift *guardrails.Timeshift, cfg domain.Config) *Worker {
	return &Worker{
		Leases: lm, Fetch: f, Ready: ready, Strategy: strategy, Store: store, Retry: retry, Timeshift: timeshift,
		Resource: cfg.Resource, Mode: cfg.Mode,
		QueueTimeout: cfg.QueueTimeout, WorkerSleep: cfg.WorkerSleep,
		Sleep: time.Sleep,
	}
}

// Shutdown flips the exit flag; the loop observes it at its next iteration
// check and, for mode A, forces one final flush before returning
func (w *Worker) Shutdown() {
	atomic.StoreInt32(&w.exit, 1)
}

func (w *Worker) shouldExit() bool {
	return atomic.LoadInt32(&w.exit) == 1
}

// Run executes the loop of spec section 4.6 until Shutdown is called or ctx
// is cancelled. It returns once the loop has exited and, in mode A, after
// the forced final flush completes
func (w *Worker) Run(ctx context.Context) {
	defer w.finalFlush(ctx)

	for !w.shouldExit() {
		if ctx.Err() != nil {
			return
		}

		lease, ok := w.Leases.Acquire(ctx, w.QueueTimeout)
		if !ok {
			w.sleep(ctx, w.WorkerSleep)
			continue
		}

		item, priority, ok := w.Ready.TryPop(w.QueueTimeout)
		if !ok {
			w.Leases.Release(ctx, lease, 0)
			w.sleep(ctx, w.WorkerSleep)
			continue
		}

		var localDoc *domain.Document
		if w.Mode == domain.ModeBulk && w.Store != nil {
			doc, found, err := w.Store.GetDoc(ctx, item.ID)
			if err != nil {
				w.Leases.Release(ctx, lease, 0)
				logger.C(ctx).Error().Str("message_id", "exceptions").Err(err).
					Msgf("store exception reading local copy of %s", item.ID)
				if w.Retry != nil {
					w.Retry.EnqueueRetry(ctx, item, 0)
				}
				continue
			}
			if found {
				localDoc = &doc
			}
		}

		publicDoc, ok := w.Fetch.Fetch(ctx, lease, item)
		if !ok {
			continue
		}
		if w.Timeshift != nil {
			w.Timeshift.Log(ctx, publicDoc)
		}

		w.Strategy.OnPublicItem(ctx, localDoc, publicDoc, priority, item)
	}
}

func (w *Worker) finalFlush(ctx context.Context) {
	if w.Mode != domain.ModeBulk {
		return
	}
	if fl, ok := w.Strategy.(Flusher); ok {
		fl.Flush(ctx)
	}
}

func (w *Worker) sleep(ctx context.Context, d time.Duration) {
	sleepFn := w.Sleep
	if sleepFn == nil {
		sleepFn = time.Sleep
	}
	done := make(chan struct{})
	go func() { sleepFn(d); close(done) }()
	select {
	case <-done:
	case <-ctx.Done():
	}
}
