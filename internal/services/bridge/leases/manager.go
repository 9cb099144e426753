package leases

import (
	"context"
	"time"

	"swearjar/internal/platform/logger"
	"swearjar/internal/services/bridge/domain"
	"swearjar/internal/services/bridge/queue"
)

// Manager implements the client lease manager operations from spec section 4.2
type Manager struct {
	Pool  *queue.ClientPool
	Info  *InfoStore
	Sleep func(time.Duration) // injected for tests; defaults to time.Sleep
}

// NewManager wires a Manager over an existing pool and info store
func NewManager(pool *queue.ClientPool, info *InfoStore) *Manager {
	return &Manager{Pool: pool, Info: info, Sleep: time.Sleep}
}

// Acquire implements spec section 4.2's acquire operation. It returns
// ok=false (the "none" outcome) when the pool is empty, the timed pop times
// out, or a flagged cookie renewal fails
func (m *Manager) Acquire(ctx context.Context, queueTimeout time.Duration) (*domain.Lease, bool) {
	lease, ok := m.Pool.TryGet(queueTimeout)
	if !ok {
		return nil, false
	}

	if m.Info.DropCookies(lease.ID) {
		if err := lease.Transport.RenewCookies(ctx); err != nil {
			m.Pool.Put(lease)
			logger.C(ctx).Error().Str("message_id", "put_client").Err(err).
				Str("client_id", lease.ID).Msg("while renewing cookies caught exception")
			return nil, false
		}
		m.Info.Reset(lease.ID)
		lease.RequestInterval = 0
		lease.NotActualCount = 0
		logger.C(ctx).Debug().Str("client_id", lease.ID).Msg("drop lazy api_client cookies")
	}

	logger.C(ctx).Debug().
		Str("message_id", "get_client").
		Str("client_id", lease.ID).
		Dur("requests_timeout", lease.RequestInterval).
		Msg("get api client")

	if lease.RequestInterval > 0 {
		m.sleep(ctx, lease.RequestInterval)
	}
	return lease, true
}

// Release returns lease to the pool, optionally deferring its reappearance
// by delay (used after a 429 throttle adjustment, spec section 4.2)
func (m *Manager) Release(ctx context.Context, lease *domain.Lease, delay time.Duration) {
	if delay > 0 {
		m.Pool.PutDelayed(lease, delay)
	} else {
		m.Pool.Put(lease)
	}
	logger.C(ctx).Debug().Str("message_id", "put_client").Str("client_id", lease.ID).Msg("put api client")
}

func (m *Manager) sleep(ctx context.Context, d time.Duration) {
	sleepFn := m.Sleep
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
