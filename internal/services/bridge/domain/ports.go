package domain

import "context"

// Transport is the per-lease capability exposed by an API client, consumed
// only through this interface (construction and cookie lifecycle are out of
// scope per spec section 1)
type Transport interface {
	// GetResourceItem fetches the full document for rid. Errors must be one
	// of the sentinel kinds in this package (ErrArchived, ErrInvalidResponse,
	// RequestFailedError, ErrResourceNotFound) or get classified as Other
	GetResourceItem(ctx context.Context, rid RID) (Document, error)

	// RenewCookies refreshes the session; called when the controller has
	// flagged the client's ClientInfo.DropCookies
	RenewCookies(ctx context.Context) error

	// ClearCookies drops the current session cookies (used on 429 hard
	// reset and on resource_not_found per spec section 4.4)
	ClearCookies()
}

// BulkResult is one outcome row from StorageRepo.SaveBulk, matching the
// (success, id, revision-or-error) shape in spec section 6
type BulkResult struct {
	Success bool
	ID      RID

	// Revision is set when Success is true; a value beginning with "1-"
	// denotes a newly created document
	Revision string

	// Err is set when Success is false
	Err error
}

// StorageRepo is the local store port used in bulk mode (C5a)
type StorageRepo interface {
	// GetDoc returns the local copy of rid, or (Document{}, false, nil) if absent
	GetDoc(ctx context.Context, rid RID) (doc Document, ok bool, err error)

	// SaveBulk writes every document in docs and reports one BulkResult per id.
	// The store owns its own conflict detection (last-write-wins on DateModified)
	SaveBulk(ctx context.Context, docs map[RID]Document) ([]BulkResult, error)
}

// Handler is a domain handler capability keyed by procurementMethodType (C5b)
type Handler interface {
	ProcessResource(ctx context.Context, doc Document) error
}

// HandlerRegistry resolves a Handler by procurementMethodType, falling back
// to a "common" handler
type HandlerRegistry interface {
	// Lookup returns the handler registered for tag, or ok=false if neither
	// tag nor the "common" fallback exists
	Lookup(tag string) (Handler, bool)
}

// RegistrarPort lets out-of-module code install per-type handlers (mode B
// only); handler construction is out of scope per spec section 1
type RegistrarPort interface {
	Register(tag string, h Handler)
}

// WorkerPort is the module's public entrypoint: it runs every configured
// worker loop until ctx is cancelled or Stop is called
type WorkerPort interface {
	Run(ctx context.Context) error
	Stop()
}
