package dispatch

import (
	"context"

	"swearjar/internal/services/bridge/domain"
)

// Strategy adapts a Dispatcher to the worker loop's terminal-step capability
// (spec section 9's composition guidance)
type Strategy struct {
	Dispatcher *Dispatcher
}

// NewStrategy wraps dispatcher as a worker-loop strategy
func NewStrategy(dispatcher *Dispatcher) *Strategy {
	return &Strategy{Dispatcher: dispatcher}
}

// OnPublicItem implements spec section 4.6 step 5's mode B branch. localDoc
// is always nil in mode B and is ignored
func (s *Strategy) OnPublicItem(ctx context.Context, _ *domain.Document, publicDoc domain.Document, priority int, item domain.QueueItem) {
	s.Dispatcher.Dispatch(ctx, publicDoc, priority, item)
}
