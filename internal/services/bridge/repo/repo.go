// Package repo provides a Postgres-backed domain.StorageRepo for the bridge
// service. Documents keep a CouchDB-flavored revision string even though the
// store underneath is relational, so upstream classification of "new" versus
// "updated" (spec section 4.5a) stays unchanged
package repo

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"swearjar/internal/modkit/repokit"
	"swearjar/internal/services/bridge/domain"
)

type (
	// PG is a Postgres binder for domain.StorageRepo
	PG      struct{ Resource string }
	queries struct {
		q        repokit.Queryer
		resource string
	}
)

// NewPG returns a Postgres binder for domain.StorageRepo, scoped to one
// resource kind (its table rows are partitioned by the resource column)
func NewPG(resource string) repokit.Binder[domain.StorageRepo] { return PG{Resource: resource} }

// Bind implements repokit.Binder
func (p PG) Bind(q repokit.Queryer) domain.StorageRepo {
	return &queries{q: q, resource: p.Resource}
}

// GetDoc implements domain.StorageRepo
func (r *queries) GetDoc(ctx context.Context, rid domain.RID) (domain.Document, bool, error) {
	row := r.q.QueryRow(ctx, `
		SELECT rev, date_modified, fields
		FROM bridge_documents
		WHERE resource = $1 AND id = $2
	`, r.resource, rid)

	var rev string
	var dateModified time.Time
	var rawFields []byte
	if err := row.Scan(&rev, &dateModified, &rawFields); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Document{}, false, nil
		}
		return domain.Document{}, false, fmt.Errorf("bridge repo: get doc %s: %w", rid, err)
	}

	fields := map[string]any{}
	if len(rawFields) > 0 {
		if err := json.Unmarshal(rawFields, &fields); err != nil {
			return domain.Document{}, false, fmt.Errorf("bridge repo: decode doc %s: %w", rid, err)
		}
	}
	fields["_rev"] = rev

	return domain.Document{ID: rid, DateModified: dateModified, Fields: fields}, true, nil
}

// SaveBulk implements domain.StorageRepo. Each document is upserted inside
// one row-locking statement so concurrent workers racing on the same id
// (spec section 8 scenario 5) resolve by dateModified: the loser's write is
// rejected with the exact message the reconciler matches on
func (r *queries) SaveBulk(ctx context.Context, docs map[domain.RID]domain.Document) ([]domain.BulkResult, error) {
	results := make([]domain.BulkResult, 0, len(docs))

	for id, doc := range docs {
		res, err := r.saveOne(ctx, id, doc)
		if err != nil {
			return nil, fmt.Errorf("bridge repo: save bulk: %w", err)
		}
		results = append(results, res)
	}
	return results, nil
}

func (r *queries) saveOne(ctx context.Context, id domain.RID, doc domain.Document) (domain.BulkResult, error) {
	fields := map[string]any{}
	for k, v := range doc.Fields {
		if k == "_rev" {
			continue
		}
		fields[k] = v
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return domain.BulkResult{}, fmt.Errorf("encode doc %s: %w", id, err)
	}

	var existingRev string
	var existingModified time.Time
	row := r.q.QueryRow(ctx, `
		SELECT rev, date_modified FROM bridge_documents
		WHERE resource = $1 AND id = $2
		FOR UPDATE
	`, r.resource, id)
	scanErr := row.Scan(&existingRev, &existingModified)

	switch {
	case scanErr != nil && errors.Is(scanErr, pgx.ErrNoRows):
		rev := nextRevision("")
		if _, err := r.q.Exec(ctx, `
			INSERT INTO bridge_documents (resource, id, rev, date_modified, fields)
			VALUES ($1, $2, $3, $4, $5)
		`, r.resource, id, rev, doc.DateModified, raw); err != nil {
			return domain.BulkResult{Success: false, ID: id, Err: err}, nil
		}
		return domain.BulkResult{Success: true, ID: id, Revision: rev}, nil

	case scanErr != nil:
		return domain.BulkResult{}, fmt.Errorf("read existing doc %s: %w", id, scanErr)

	case !doc.DateModified.After(existingModified):
		return domain.BulkResult{Success: false, ID: id, Err: errNewDocOldestDateModified}, nil

	default:
		rev := nextRevision(existingRev)
		if _, err := r.q.Exec(ctx, `
			UPDATE bridge_documents
			SET rev = $3, date_modified = $4, fields = $5
			WHERE resource = $1 AND id = $2
		`, r.resource, id, rev, doc.DateModified, raw); err != nil {
			return domain.BulkResult{Success: false, ID: id, Err: err}, nil
		}
		return domain.BulkResult{Success: true, ID: id, Revision: rev}, nil
	}
}

// errNewDocOldestDateModified is the exact sentinel message the bulk
// reconciler matches against (spec section 4.5a step 3)
var errNewDocOldestDateModified = &staleWriteError{}

type staleWriteError struct{}

func (*staleWriteError) Error() string { return "New doc with oldest dateModified." }

// nextRevision produces a CouchDB-shaped "N-hash" revision string. An empty
// prior revision yields generation 1, the prefix the bulk reconciler checks
// to distinguish a newly created document from an update
func nextRevision(prior string) string {
	gen := 1
	if prior != "" {
		if idx := strings.IndexByte(prior, '-'); idx > 0 {
			if n, err := strconv.Atoi(prior[:idx]); err == nil {
				gen = n + 1
			}
		}
	}
	sum := md5.Sum([]byte(prior + strconv.FormatInt(time.Now().UnixNano(), 10)))
	return fmt.Sprintf("%d-%s", gen, hex.EncodeToString(sum[:])[:8])
}
