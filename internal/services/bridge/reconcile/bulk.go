// Package reconcile implements the mode A bulk reconciler (C5a): it
// coalesces fetched documents into a per-worker buffer and flushes them to
// the store with version-compare dedup (spec section 4.5a)
package reconcile

import (
	"context"
	"time"

	"swearjar/internal/platform/logger"
	"swearjar/internal/services/bridge/domain"
	"swearjar/internal/services/bridge/guardrails"
)

// Bulk is the per-worker bulk buffer. It is unshared and requires no
// synchronization (spec section 4.6's per-worker ownership note)
type Bulk struct {
	Store domain.StorageRepo
	Retry *guardrails.RetryPolicy

	ResourceSingularTitle string // e.g. "Tender", stamped into doc_type
	ResourceSingular      string // e.g. "tender", used in log messages
	BulkSaveLimit         int
	BulkSaveInterval      time.Duration
	Now                   func() time.Time

	buffer        map[domain.RID]domain.Document
	priorityCache map[domain.RID]int
	windowStart   time.Time
}

// NewBulk wires a Bulk reconciler
func NewBulk(store domain.StorageRepo, retry *guardrails.RetryPolicy, resourceSingularTitle, resourceSingular string, limit int, interval time.Duration) *Bulk {
	b := &Bulk{
		Store: store, Retry: retry,
		ResourceSingularTitle: resourceSingularTitle,
		ResourceSingular:      resourceSingular,
		BulkSaveLimit:         limit, BulkSaveInterval: interval,
		Now: time.Now,
	}
	b.reset()
	return b
}

func (b *Bulk) reset() {
	b.buffer = map[domain.RID]domain.Document{}
	b.priorityCache = map[domain.RID]int{}
	b.windowStart = b.now()
}

func (b *Bulk) now() time.Time {
	if b.Now == nil {
		return time.Now()
	}
	return b.Now()
}

// Add implements spec section 4.5a's add operation. localDoc may be nil
// (absent local copy)
func (b *Bulk) Add(localDoc *domain.Document, publicDoc domain.Document, priority int) {
	if publicDoc.Fields == nil {
		publicDoc.Fields = map[string]any{}
	}
	publicDoc.Fields["doc_type"] = b.ResourceSingularTitle
	publicDoc.Fields["_id"] = publicDoc.ID

	if localDoc != nil {
		for k, v := range localDoc.Service() {
			publicDoc.Fields[k] = v
		}
	}

	existing, ok := b.buffer[publicDoc.ID]
	switch {
	case !ok:
		b.buffer[publicDoc.ID] = publicDoc
		b.priorityCache[publicDoc.ID] = priority
	case publicDoc.DateModified.After(existing.DateModified):
		b.buffer[publicDoc.ID] = publicDoc
		if priority < b.priorityCache[publicDoc.ID] {
			b.priorityCache[publicDoc.ID] = priority
		}
	default:
		// existing is equal-or-newer: discard the incoming copy
	}
}

// FlushIfDue reports whether any of the three flush triggers hold, and
// flushes when they do. shutdown forces a flush regardless of size/time
func (b *Bulk) FlushIfDue(ctx context.Context, shutdown bool) {
	due := shutdown ||
		len(b.buffer) > b.BulkSaveLimit ||
		b.now().Sub(b.windowStart) > b.BulkSaveInterval
	if due {
		b.Flush(ctx)
	}
}

// Flush implements spec section 4.5a's flush operation
func (b *Bulk) Flush(ctx context.Context) {
	if len(b.buffer) == 0 {
		b.reset()
		return
	}

	results, err := b.Store.SaveBulk(ctx, b.buffer)
	if err != nil {
		for id, priority := range b.priorityCache {
			b.Retry.EnqueueRetry(ctx, domain.QueueItem{ID: id, Priority: priority}, 0)
		}
		logger.C(ctx).Error().Str("message_id", "exceptions").Err(err).
			Msg("store exception while saving bulk, re-enqueued buffered documents")
		b.reset()
		return
	}

	for _, r := range results {
		switch {
		case r.Success && len(r.Revision) >= 2 && r.Revision[:2] == "1-":
			logger.C(ctx).Info().Str("message_id", "save_documents").Str("id", r.ID).
				Msgf("save %s %s", b.ResourceSingular, r.ID)
		case r.Success:
			logger.C(ctx).Info().Str("message_id", "update_documents").Str("id", r.ID).
				Msgf("update %s %s", b.ResourceSingular, r.ID)
		case r.Err != nil && r.Err.Error() == "New doc with oldest dateModified.":
			logger.C(ctx).Debug().Str("message_id", "skipped").Str("id", r.ID).
				Msgf("ignored %s %s with reason: %s", b.ResourceSingular, r.ID, r.Err.Error())
		default:
			priority := b.priorityCache[r.ID]
			b.Retry.EnqueueRetry(ctx, domain.QueueItem{ID: r.ID, Priority: priority}, 0)
			reason := ""
			if r.Err != nil {
				reason = r.Err.Error()
			}
			logger.C(ctx).Error().Str("id", r.ID).
				Msgf("put to retry queue %s %s with reason: %s", b.ResourceSingular, r.ID, reason)
		}
	}

	b.reset()
}
