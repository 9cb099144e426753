// Package domain holds the core business types and ports for the bridge service
package domain

import (
	"strings"
	"time"
)

// RID is the opaque identifier of a resource item (tender, agreement, ...).
// Unique within a resource kind
type RID = string

// Document is an upstream or local resource document. It always carries at
// least ID and DateModified; Fields holds every other opaque key so they can
// be round-tripped without the bridge knowing their shape
type Document struct {
	ID           RID
	DateModified time.Time

	// Fields carries every other key present on the document, including
	// service keys (leading "_") such as _rev, which the bridge must
	// preserve across merges but never interpret
	Fields map[string]any
}

// Service returns every key of Fields that begins with "_" (store-level
// metadata such as revision markers)
func (d Document) Service() map[string]any {
	out := map[string]any{}
	for k, v := range d.Fields {
		if len(k) > 0 && k[0] == '_' {
			out[k] = v
		}
	}
	return out
}

// QueueItem is one (priority, payload) entry as described by spec section 3.
// Payload carries either a bare RID (bulk mode) or a partial record (dispatch
// mode); only ProcurementMethodType is consulted by the dispatcher
type QueueItem struct {
	Priority              int
	ID                    RID
	ProcurementMethodType string
}

// IsRetry reports whether the item's priority encodes a retry (>= 1000)
func (q QueueItem) IsRetry() bool { return q.Priority >= 1000 }

// Retries returns the retry count encoded in Priority, or the raw priority
// when it is not a retry priority (mirrors the original's arithmetic exactly)
func (q QueueItem) Retries() int {
	if q.Priority >= 1000 {
		return q.Priority - 1000
	}
	return q.Priority
}

// Lease is exclusive access to one API client transport for one upstream call
type Lease struct {
	ID              string
	Transport       Transport
	RequestInterval time.Duration

	// NotActualCount is reset on cookie refresh; carried but not consulted,
	// per spec section 9's open question on its unclear intended use
	NotActualCount int
}

// ClientInfo is the process-wide, per-client rate/cookie state. It is
// mutated only by the worker currently holding the matching Lease, except
// for DropCookies which a controller may set out of band
type ClientInfo struct {
	DropCookies     bool
	RequestDurations map[time.Time]time.Duration
	RequestInterval time.Duration
	AvgDuration     time.Duration
}

// Mode selects the worker's terminal step
type Mode string

const (
	// ModeBulk reconciles fetched documents into the local store (C5a)
	ModeBulk Mode = "bulk"

	// ModeDispatch routes fetched documents to a registered handler (C5b)
	ModeDispatch Mode = "dispatch"
)

// Config bundles every tunable named in spec section 6
type Config struct {
	Resource string // plural resource kind, e.g. "tenders"
	BaseURL  string // public procurement API base URL
	Mode     Mode

	Workers int
	Clients int

	ClientIncStepTimeout        time.Duration
	ClientDecStepTimeout        time.Duration
	DropThresholdClientCookies  time.Duration
	WorkerSleep                 time.Duration
	RetryDefaultTimeout         time.Duration
	RetriesCount                int
	QueueTimeout                time.Duration
	BulkSaveLimit                int
	BulkSaveInterval             time.Duration

	// Timezone used only for human-readable timeshift logging (default Europe/Kiev)
	Timezone string
}

// ResourceSingular returns the singular form used in log messages (the
// resource kind without its trailing "s"); the case is left unchanged
func (c Config) ResourceSingular() string {
	if len(c.Resource) == 0 {
		return c.Resource
	}
	if c.Resource[len(c.Resource)-1] == 's' {
		return c.Resource[:len(c.Resource)-1]
	}
	return c.Resource
}

// ResourceSingularTitle returns the title-cased singular form stamped into
// doc_type, e.g. "tenders" -> "Tender"
func (c Config) ResourceSingularTitle() string {
	s := c.ResourceSingular()
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
