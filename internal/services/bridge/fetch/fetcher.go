// Package fetch performs one upstream fetch per queued item, classifies the
// outcome, and updates the client's adaptive rate state (spec section 4.4)
package fetch

import (
	"context"
	"errors"
	"time"

	"swearjar/internal/platform/logger"
	"swearjar/internal/services/bridge/domain"
	"swearjar/internal/services/bridge/guardrails"
	"swearjar/internal/services/bridge/leases"
)

// Fetcher performs fetches and pairs every call with exactly one lease
// release and at most one retry enqueue (spec section 4.4's invariant)
type Fetcher struct {
	Leases *leases.Manager
	Retry  *guardrails.RetryPolicy

	ClientIncStep              time.Duration
	ClientDecStep              time.Duration
	DropThresholdClientCookies time.Duration

	Resource string
	Now      func() time.Time
}

// NewFetcher wires a Fetcher from its collaborators
func NewFetcher(lm *leases.Manager, retry *guardrails.RetryPolicy, incStep, decStep, dropThreshold time.Duration, resource string) *Fetcher {
	return &Fetcher{
		Leases: lm, Retry: retry,
		ClientIncStep: incStep, ClientDecStep: decStep, DropThresholdClientCookies: dropThreshold,
		Resource: resource, Now: time.Now,
	}
}

// Fetch implements spec section 4.4. It always releases lease exactly once
// before returning. It returns ok=false when the fetch is terminally
// handled (archived, or a retry was already enqueued) and the worker
// simply continues its loop
func (f *Fetcher) Fetch(ctx context.Context, lease *domain.Lease, item domain.QueueItem) (domain.Document, bool) {
	now := f.Now
	if now == nil {
		now = time.Now
	}

	start := now()
	doc, err := lease.Transport.GetResourceItem(ctx, item.ID)
	elapsed := now().Sub(start)

	if err == nil {
		f.Leases.Info.RecordSuccess(lease.ID, now(), elapsed, lease.RequestInterval)
		if lease.RequestInterval > 0 {
			lease.RequestInterval -= f.ClientDecStep
			if lease.RequestInterval < 0 {
				lease.RequestInterval = 0
			}
		}
		f.Leases.Release(ctx, lease, 0)
		logger.C(ctx).Debug().Str("id", doc.ID).Time("date_modified", doc.DateModified).
			Msgf("received from API %s: %s", singular(f.Resource), doc.ID)
		return doc, true
	}

	f.Leases.Info.RecordSuccess(lease.ID, now(), elapsed, lease.RequestInterval)

	switch {
	case errors.Is(err, domain.ErrArchived):
		f.Leases.Release(ctx, lease, 0)
		logger.C(ctx).Info().Msgf("%s %s archived.", titleSingular(f.Resource), item.ID)
		return domain.Document{}, false

	case errors.Is(err, domain.ErrInvalidResponse):
		f.Leases.Release(ctx, lease, 0)
		logger.C(ctx).Error().Str("message_id", "exceptions").Err(err).
			Msgf("error while getting %s %s from public", singular(f.Resource), item.ID)
		f.Retry.EnqueueRetry(ctx, item, 0)
		return domain.Document{}, false

	case domain.IsTooManyRequests(err):
		delay := f.adjustThrottle(lease)
		f.Leases.Release(ctx, lease, delay)
		logger.C(ctx).Warn().Str("message_id", "exceptions").Err(err).
			Msgf("request failed while getting %s %s from public with status 429", singular(f.Resource), item.ID)
		f.Retry.EnqueueRetry(ctx, item, 429)
		return domain.Document{}, false

	case isRequestFailed(err):
		f.Leases.Release(ctx, lease, 0)
		status := statusOf(err)
		logger.C(ctx).Error().Str("message_id", "exceptions").Err(err).
			Msgf("request failed while getting %s %s from public with status %d", singular(f.Resource), item.ID, status)
		f.Retry.EnqueueRetry(ctx, item, status)
		return domain.Document{}, false

	case errors.Is(err, domain.ErrResourceNotFound):
		lease.Transport.ClearCookies()
		f.Leases.Release(ctx, lease, 0)
		logger.C(ctx).Error().Str("message_id", "not_found_docs").Err(err).
			Msgf("resource not found %s at public: %s", singular(f.Resource), item.ID)
		f.Retry.EnqueueRetry(ctx, item, 0)
		return domain.Document{}, false

	default:
		f.Leases.Release(ctx, lease, 0)
		logger.C(ctx).Error().Str("message_id", "exceptions").Err(err).
			Msgf("error while getting resource item %s %s from public", singular(f.Resource), item.ID)
		f.Retry.EnqueueRetry(ctx, item, 0)
		return domain.Document{}, false
	}
}

// adjustThrottle implements the 429 throttle adjustment of spec section 4.4
// and returns the release delay
func (f *Fetcher) adjustThrottle(lease *domain.Lease) time.Duration {
	if lease.RequestInterval > f.DropThresholdClientCookies {
		lease.Transport.ClearCookies()
		lease.RequestInterval = 0
	} else {
		lease.RequestInterval += f.ClientIncStep
	}
	return lease.RequestInterval
}

func isRequestFailed(err error) bool {
	var rf *domain.RequestFailedError
	return errors.As(err, &rf)
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

func titleSingular(resource string) string {
	s := singular(resource)
	if s == "" {
		return s
	}
	return string(s[0]-('a'-'A')) + s[1:]
}
