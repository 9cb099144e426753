// Package guardrails holds cross-cutting safety helpers for the bridge
// worker: the bounded retry policy (C3) and the timeshift log
package guardrails

import (
	"context"
	"time"

	"swearjar/internal/platform/logger"
	"swearjar/internal/services/bridge/domain"
	"swearjar/internal/services/bridge/queue"
)

// RetryPolicy implements spec section 4.3's enqueue_retry operation
type RetryPolicy struct {
	RetryQueue          *queue.PriorityQueue[domain.QueueItem]
	RetriesCount        int
	RetryDefaultTimeout time.Duration
	Resource            string
	Sleep               func(time.Duration)
}

// NewRetryPolicy wires a RetryPolicy over an existing retry queue
func NewRetryPolicy(rq *queue.PriorityQueue[domain.QueueItem], retriesCount int, base time.Duration, resource string) *RetryPolicy {
	return &RetryPolicy{RetryQueue: rq, RetriesCount: retriesCount, RetryDefaultTimeout: base, Resource: resource, Sleep: time.Sleep}
}

// EnqueueRetry decides whether to retry, re-prioritize, delay, or drop, per
// spec section 4.3. statusCode is 0 when the failure carries no HTTP status
func (p *RetryPolicy) EnqueueRetry(ctx context.Context, item domain.QueueItem, statusCode int) {
	priority := item.Priority
	retries := item.Retries()

	if retries > p.RetriesCount && statusCode != 429 {
		logger.C(ctx).Error().
			Str("message_id", "dropped_documents").
			Str("id", item.ID).
			Int("retries_count", p.RetriesCount).
			Msgf("%s %s reached limit retries count %d and dropped from retry_queue", singular(p.Resource), item.ID, p.RetriesCount)
		return
	}

	timeout := time.Duration(0)
	if statusCode != 429 {
		timeout = p.RetryDefaultTimeout * time.Duration(retries)
		priority++
	}

	if timeout > 0 {
		p.sleep(ctx, timeout)
	}

	item.Priority = priority
	p.RetryQueue.Push(priority, item)
	logger.C(ctx).Info().
		Str("message_id", "add_to_retry").
		Str("id", item.ID).
		Int("priority", priority).
		Msgf("put to 'retry_queue' %s: %s", singular(p.Resource), item.ID)
}

func (p *RetryPolicy) sleep(ctx context.Context, d time.Duration) {
	sleepFn := p.Sleep
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

func singular(resource string) string {
	if len(resource) > 0 && resource[len(resource)-1] == 's' {
		return resource[:len(resource)-1]
	}
	return resource
}
