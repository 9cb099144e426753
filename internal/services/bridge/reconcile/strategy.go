package reconcile

import (
	"context"

	"swearjar/internal/services/bridge/domain"
)

// Strategy adapts a Bulk reconciler to the worker loop's terminal-step
// capability (spec section 9's composition guidance), wiring add +
// flush_if_due into a single call per fetched document
type Strategy struct {
	Bulk *Bulk
}

// NewStrategy wraps bulk as a worker-loop strategy
func NewStrategy(bulk *Bulk) *Strategy {
	return &Strategy{Bulk: bulk}
}

// OnPublicItem implements spec section 4.6 step 5's mode A branch
func (s *Strategy) OnPublicItem(ctx context.Context, localDoc *domain.Document, publicDoc domain.Document, priority int, _ domain.QueueItem) {
	s.Bulk.Add(localDoc, publicDoc, priority)
	s.Bulk.FlushIfDue(ctx, false)
}

// Flush forces the buffer to flush regardless of size or time, used by the
// worker loop on shutdown
func (s *Strategy) Flush(ctx context.Context) {
	s.Bulk.Flush(ctx)
}
