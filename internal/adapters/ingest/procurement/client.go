// Package procurement implements the bridge domain.Transport port over the
// public procurement API: a session-cookie-authenticated HTTP client that
// performs exactly one attempt per call and leaves retry/backoff decisions
// to the caller (spec section 4.4 owns that policy, not the transport)
package procurement

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	perr "swearjar/internal/platform/errors"
	"swearjar/internal/platform/logger"
	"swearjar/internal/services/bridge/domain"
)

const (
	defaultTimeout = 30 * time.Second
	defaultUA      = "swearjar-bridge"
)

// Options configures the Client
type Options struct {
	BaseURL   string
	Resource  string // plural resource kind, used to build the item path
	UserAgent string
	Timeout   time.Duration
}

// Client is a minimal procurement API client with a clearable cookie jar
type Client struct {
	http *http.Client
	jar  *cookiejar.Jar
	opts Options
	log  logger.Logger
}

// NewClient creates a new Client with sane defaults
func NewClient(o Options) (*Client, error) {
	if o.UserAgent == "" {
		o.UserAgent = defaultUA
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnknown, "procurement: create cookie jar")
	}
	return &Client{
		http: &http.Client{Timeout: o.Timeout, Jar: jar},
		jar:  jar,
		opts: o,
		log:  *logger.Named("procurement"),
	}, nil
}

type resourceItemResponse struct {
	Data map[string]any `json:"data"`
}

// GetResourceItem implements domain.Transport. A single HTTP round trip;
// status codes and decode failures are classified exactly per spec section 4.4
func (c *Client) GetResourceItem(ctx context.Context, rid domain.RID) (domain.Document, error) {
	url := c.opts.BaseURL + "/api/0/" + c.opts.Resource + "/" + rid

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.Document{}, perr.Wrapf(err, perr.ErrorCodeUnknown, "procurement: new request failed")
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.Document{}, perr.Wrapf(err, perr.ErrorCodeUnavailable, "procurement: request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
		var out resourceItemResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return domain.Document{}, domain.ErrInvalidResponse
		}
		doc, err := toDocument(rid, out.Data)
		if err != nil {
			return domain.Document{}, domain.ErrInvalidResponse
		}
		return doc, nil

	case http.StatusGone:
		return domain.Document{}, domain.ErrArchived

	case http.StatusNotFound:
		return domain.Document{}, domain.ErrResourceNotFound

	case http.StatusTooManyRequests:
		return domain.Document{}, &domain.RequestFailedError{Status: http.StatusTooManyRequests, Body: readSmall(resp.Body)}

	default:
		return domain.Document{}, &domain.RequestFailedError{Status: resp.StatusCode, Body: readSmall(resp.Body)}
	}
}

// RenewCookies refreshes the session by visiting the portal's entry point;
// a successful response replaces the jar's cookies for opts.BaseURL's host
func (c *Client) RenewCookies(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.opts.BaseURL+"/", nil)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "procurement: new renew request failed")
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnavailable, "procurement: renew cookies failed")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return perr.Newf(perr.ErrorCodeUnavailable, "procurement: renew cookies status %d", resp.StatusCode)
	}
	return nil
}

// ClearCookies drops every cookie currently held for the API host
func (c *Client) ClearCookies() {
	jar, err := cookiejar.New(nil)
	if err != nil {
		c.log.Error().Err(err).Msg("procurement: failed to reset cookie jar")
		return
	}
	c.jar = jar
	c.http.Jar = jar
}

func toDocument(rid domain.RID, data map[string]any) (domain.Document, error) {
	if data == nil {
		return domain.Document{}, perr.New(perr.ErrorCodeJSON, "procurement: empty data")
	}
	id, _ := data["id"].(string)
	if id == "" {
		id = rid
	}
	rawDM, _ := data["dateModified"].(string)
	dm, err := time.Parse(time.RFC3339, rawDM)
	if err != nil {
		return domain.Document{}, perr.Wrapf(err, perr.ErrorCodeJSON, "procurement: invalid dateModified")
	}
	return domain.Document{ID: id, DateModified: dm, Fields: data}, nil
}

func readSmall(rc io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(rc, 2048))
	s := strings.TrimSpace(string(b))
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}
