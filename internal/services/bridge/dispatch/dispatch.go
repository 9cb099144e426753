// Package dispatch implements the mode B handler dispatcher (C5b): it routes
// a fetched document to a registered domain handler keyed by
// procurementMethodType (spec section 4.5b)
package dispatch

import (
	"context"
	"errors"

	"swearjar/internal/platform/logger"
	"swearjar/internal/services/bridge/domain"
	"swearjar/internal/services/bridge/guardrails"
)

// Dispatcher routes public documents to a process-wide handler registry
type Dispatcher struct {
	Registry domain.HandlerRegistry
	Retry    *guardrails.RetryPolicy
	Resource string
}

// NewDispatcher wires a Dispatcher over an existing handler registry
func NewDispatcher(registry domain.HandlerRegistry, retry *guardrails.RetryPolicy, resource string) *Dispatcher {
	return &Dispatcher{Registry: registry, Retry: retry, Resource: resource}
}

// Dispatch implements spec section 4.5b. The lease has already been released
// by C4; an unroutable item is dropped without a retry, per that section
func (d *Dispatcher) Dispatch(ctx context.Context, publicDoc domain.Document, priority int, item domain.QueueItem) {
	handler, ok := d.Registry.Lookup(item.ProcurementMethodType)
	if !ok {
		logger.C(ctx).Error().Str("message_id", "critical").
			Str("id", item.ID).Str("procurement_method_type", item.ProcurementMethodType).
			Msgf("no handler registered for procurementMethodType %q, skipping %s %s", item.ProcurementMethodType, singular(d.Resource), item.ID)
		return
	}

	if err := handler.ProcessResource(ctx, publicDoc); err != nil {
		logger.C(ctx).Error().Str("message_id", "exceptions").Err(err).
			Msgf("handler failed processing %s %s", singular(d.Resource), item.ID)
		item.Priority = priority
		d.Retry.EnqueueRetry(ctx, item, statusOf(err))
		return
	}
}

func statusOf(err error) int {
	var rf *domain.RequestFailedError
	if errors.As(err, &rf) {
		return rf.Status
	}
	return 0
}

func singular(resource string) string {
	if len(resource) > 0 && resource[len(resource)-1] == 's' {
		return resource[:len(resource)-1]
	}
	return resource
}
