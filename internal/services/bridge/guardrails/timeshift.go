package guardrails

import (
	"context"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"swearjar/internal/platform/logger"
	"swearjar/internal/services/bridge/domain"
)

// DefaultTimezone matches spec section 6: the operating timezone defaults
// to Europe/Kiev when unset, and is used only for human-readable logging
const DefaultTimezone = "Europe/Kiev"

// Timeshift computes and logs how far behind now a document's dateModified
// is, purely for observability (spec section 6's DOCUMENT_TIMESHIFT extra).
// It never participates in ordering decisions
type Timeshift struct {
	Loc      *time.Location
	Resource string
	printer  *message.Printer
}

// NewTimeshift loads tzName (falling back to DefaultTimezone on any error)
// and prepares a locale-aware printer for the log message
func NewTimeshift(resource, tzName string) *Timeshift {
	if tzName == "" {
		tzName = DefaultTimezone
	}
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		loc, _ = time.LoadLocation(DefaultTimezone)
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Timeshift{Loc: loc, Resource: resource, printer: message.NewPrinter(language.English)}
}

// Log emits a debug log with the elapsed seconds between now (in Loc) and
// doc.DateModified
func (t *Timeshift) Log(ctx context.Context, doc domain.Document) {
	ts := time.Now().In(t.Loc).Sub(doc.DateModified).Seconds()
	logger.C(ctx).Debug().
		Float64("document_timeshift", ts).
		Str("id", doc.ID).
		Msg(t.printer.Sprintf("%s %s timeshift is %.3f sec.", singular(t.Resource), doc.ID, ts))
}
