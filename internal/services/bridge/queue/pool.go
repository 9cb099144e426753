package queue

import (
	"time"

	"swearjar/internal/services/bridge/domain"
)

// ClientPool is the FIFO pool of client leases (spec section 4.1). It is
// bounded by the number of configured clients; Put never blocks because the
// channel is sized to the configured client count up front
type ClientPool struct {
	ch chan *domain.Lease
}

// NewClientPool returns a pool sized for n clients
func NewClientPool(n int) *ClientPool {
	return &ClientPool{ch: make(chan *domain.Lease, n)}
}

// Put returns a lease to the pool immediately
func (p *ClientPool) Put(l *domain.Lease) {
	p.ch <- l
}

// PutDelayed returns a lease to the pool after delay, without blocking the
// caller. Used after a 429 that adjusted request_interval (spec section 4.2)
func (p *ClientPool) PutDelayed(l *domain.Lease, delay time.Duration) {
	if delay <= 0 {
		p.Put(l)
		return
	}
	time.AfterFunc(delay, func() { p.Put(l) })
}

// TryGet performs a timed pop, returning ok=false on timeout (spec section
// 4.2 step 1-2: observed-empty or timed-pop-timeout both yield none)
func (p *ClientPool) TryGet(timeout time.Duration) (*domain.Lease, bool) {
	if len(p.ch) == 0 {
		return nil, false
	}
	select {
	case l := <-p.ch:
		return l, true
	case <-time.After(timeout):
		return nil, false
	}
}

// Len reports the number of leases currently sitting in the pool
func (p *ClientPool) Len() int { return len(p.ch) }
