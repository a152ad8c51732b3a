// Package googleplaces talks to the legacy Places web service (text search,
// details and photo redirects).
package googleplaces

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"castro_guide/internal/adapters/httpx"
	"castro_guide/internal/domain"
)

const service = "google_places"

type Client struct {
	http    *httpx.Client
	base    string
	key     string
	lang    string
	backoff time.Duration
}

type Option func(*Client)

// WithStatusBackoff sets the first wait before retrying a throttled answer.
func WithStatusBackoff(d time.Duration) Option { return func(c *Client) { c.backoff = d } }

func New(base, key, lang string, rps float64, opts ...Option) (*Client, error) {
	if key == "" {
		return nil, fmt.Errorf("google places: API key is required")
	}
	if lang == "" {
		lang = "pt-BR"
	}
	c := &Client{
		http:    httpx.New(service, httpx.Options{RPS: rps}),
		base:    strings.TrimRight(base, "/"),
		key:     key,
		lang:    lang,
		backoff: 1500 * time.Millisecond,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// TextSearch returns one page of results. With a page token the query is
// ignored by Google but still sent.
func (c *Client) TextSearch(ctx context.Context, query, pageToken string) (map[string]any, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("language", c.lang)
	q.Set("region", "br")
	if pageToken != "" {
		q.Set("pagetoken", pageToken)
	}
	return c.call(ctx, "textsearch", q, pageToken != "")
}

// Details returns the "result" object of a place details answer.
func (c *Client) Details(ctx context.Context, placeID string, fields []string) (map[string]any, error) {
	q := url.Values{}
	q.Set("place_id", placeID)
	q.Set("fields", strings.Join(fields, ","))
	q.Set("language", c.lang)
	out, err := c.call(ctx, "details", q, false)
	if err != nil {
		return nil, err
	}
	result, _ := out["result"].(map[string]any)
	if result == nil {
		return nil, &domain.StatusError{Provider: service, Status: "NO_RESULT"}
	}
	return result, nil
}

// PhotoURL resolves a photo reference to the CDN URL Google redirects to.
func (c *Client) PhotoURL(ctx context.Context, ref string, maxWidth int) (string, error) {
	q := url.Values{}
	q.Set("maxwidth", strconv.Itoa(maxWidth))
	q.Set("photo_reference", ref)
	q.Set("key", c.key)
	return c.http.Redirect(ctx, httpx.Call{URL: c.base + "/photo?" + q.Encode(), Endpoint: "photo"})
}

// call retries OVER_QUERY_LIMIT and UNKNOWN_ERROR with a doubling wait, and
// INVALID_REQUEST on page-token requests because a fresh token needs a few
// seconds before Google accepts it.
func (c *Client) call(ctx context.Context, endpoint string, q url.Values, paged bool) (map[string]any, error) {
	q.Set("key", c.key)
	u := fmt.Sprintf("%s/%s/json?%s", c.base, endpoint, q.Encode())
	wait := c.backoff

	for attempt := 1; ; attempt++ {
		var out map[string]any
		if err := c.http.JSON(ctx, httpx.Call{URL: u, Endpoint: endpoint}, &out); err != nil {
			return nil, err
		}
		status, _ := out["status"].(string)
		switch status {
		case "OK", "ZERO_RESULTS":
			return out, nil
		}

		var next time.Duration
		switch {
		case status == "INVALID_REQUEST" && paged && attempt < 5:
			next = min(wait+800*time.Millisecond, 6*time.Second)
		case (status == "OVER_QUERY_LIMIT" || status == "UNKNOWN_ERROR") && attempt < 6:
			next = min(wait*2, 15*time.Second)
		default:
			msg, _ := out["error_message"].(string)
			return nil, &domain.StatusError{Provider: service, Status: status, Message: msg}
		}
		log.Debug().Str("endpoint", endpoint).Str("status", status).Int("attempt", attempt).Dur("wait", wait).Msg("places status retry")
		if err := sleep(ctx, wait); err != nil {
			return nil, err
		}
		wait = next
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
