// Package leases implements the client lease manager (spec section 4.2):
// checking out and returning API clients, cookie refresh, and the
// process-wide per-client rate state that drives adaptive throttling
package leases

import (
	"sync"
	"time"

	"swearjar/internal/services/bridge/domain"
)

// InfoStore is the process-wide client-info mapping keyed by client id
// (spec section 3). Entries are mutated only by the worker holding the
// matching lease, except DropCookies which a controller may set; a relaxed
// read of that flag is acceptable per spec section 5, so InfoStore still
// guards it with a mutex for race-safety without claiming anything stronger
type InfoStore struct {
	mu   sync.Mutex
	data map[string]*domain.ClientInfo
}

// NewInfoStore returns an empty store
func NewInfoStore() *InfoStore {
	return &InfoStore{data: map[string]*domain.ClientInfo{}}
}

// Ensure returns the info record for id, creating a zero-value one if absent
func (s *InfoStore) Ensure(id string) *domain.ClientInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	ci, ok := s.data[id]
	if !ok {
		ci = &domain.ClientInfo{RequestDurations: map[time.Time]time.Duration{}}
		s.data[id] = ci
	}
	return ci
}

// DropCookies reports whether id's info is flagged for a cookie reset
func (s *InfoStore) DropCookies(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	ci, ok := s.data[id]
	return ok && ci.DropCookies
}

// SetDropCookies flags id for a cookie reset on its next acquire; this is
// the one mutation a controller outside the lease holder may perform
func (s *InfoStore) SetDropCookies(id string, v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ci, ok := s.data[id]
	if !ok {
		ci = &domain.ClientInfo{RequestDurations: map[time.Time]time.Duration{}}
		s.data[id] = ci
	}
	ci.DropCookies = v
}

// Reset replaces id's info with a fresh zero record, used after a
// successful cookie renewal (spec section 4.2 step 3a)
func (s *InfoStore) Reset(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[id] = &domain.ClientInfo{RequestDurations: map[time.Time]time.Duration{}}
}

// RecordSuccess stamps a successful fetch's duration and interval (spec
// section 4.4 step 3)
func (s *InfoStore) RecordSuccess(id string, at time.Time, elapsed, interval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ci, ok := s.data[id]
	if !ok {
		ci = &domain.ClientInfo{RequestDurations: map[time.Time]time.Duration{}}
		s.data[id] = ci
	}
	ci.RequestDurations[at] = elapsed
	ci.RequestInterval = interval
}
