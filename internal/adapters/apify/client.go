// Package apify runs Apify actors and reads their datasets.
package apify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"castro_guide/internal/adapters/httpx"
)

const (
	pageSize = 1000
	// seconds the API may hold a run request open (the API caps it at 60)
	waitSecs = 60
)

type Client struct {
	http *httpx.Client
	base string
	// poll is the pause between run status checks once the API stops waiting.
	poll time.Duration
}

type Option func(*Client)

// WithPoll sets the pause between run status checks.
func WithPoll(d time.Duration) Option { return func(c *Client) { c.poll = d } }

func New(base, token string, rps float64, opts ...Option) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("apify: token is required")
	}
	c := &Client{
		http: httpx.New("apify", httpx.Options{
			RPS:     rps,
			Timeout: (waitSecs + 30) * time.Second,
			Header:  http.Header{"Authorization": {"Bearer " + token}},
		}),
		base: strings.TrimRight(base, "/"),
		poll: 5 * time.Second,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// actorPath turns "user/actor" into the "user~actor" form the API expects.
func actorPath(id string) string { return url.PathEscape(strings.ReplaceAll(id, "/", "~")) }

// RunSync runs an actor and returns its dataset items in one request.
func (c *Client) RunSync(ctx context.Context, actorID string, input any) ([]map[string]any, error) {
	var items []map[string]any
	u := fmt.Sprintf("%s/acts/%s/run-sync-get-dataset-items?clean=true", c.base, actorPath(actorID))
	err := c.http.JSON(ctx, httpx.Call{Method: http.MethodPost, URL: u, Endpoint: "run-sync", Body: input}, &items)
	if err != nil {
		return nil, fmt.Errorf("apify %s: %w", actorID, err)
	}
	return items, nil
}

type run struct {
	ID               string `json:"id"`
	Status           string `json:"status"`
	DefaultDatasetID string `json:"defaultDatasetId"`
}

type runEnvelope struct {
	Data run `json:"data"`
}

func (r run) finished() bool {
	switch r.Status {
	case "SUCCEEDED", "FAILED", "ABORTED", "TIMED-OUT":
		return true
	}
	return false
}

// Run starts an actor, waits for it to finish and returns every item of its
// default dataset.
func (c *Client) Run(ctx context.Context, actorID string, input any) ([]map[string]any, error) {
	var env runEnvelope
	u := fmt.Sprintf("%s/acts/%s/runs?waitForFinish=%d", c.base, actorPath(actorID), waitSecs)
	if err := c.http.JSON(ctx, httpx.Call{Method: http.MethodPost, URL: u, Endpoint: "run", Body: input}, &env); err != nil {
		return nil, fmt.Errorf("apify %s: start: %w", actorID, err)
	}
	r := env.Data
	logger := log.With().Str("actor", actorID).Str("run_id", r.ID).Logger()

	for !r.finished() {
		logger.Debug().Str("status", r.Status).Msg("actor run pending")
		if err := sleep(ctx, c.poll); err != nil {
			return nil, err
		}
		u := fmt.Sprintf("%s/actor-runs/%s?waitForFinish=%d", c.base, url.PathEscape(r.ID), waitSecs)
		env = runEnvelope{}
		if err := c.http.JSON(ctx, httpx.Call{URL: u, Endpoint: "run-status"}, &env); err != nil {
			return nil, fmt.Errorf("apify %s: status: %w", actorID, err)
		}
		r = env.Data
	}
	if r.Status != "SUCCEEDED" {
		return nil, fmt.Errorf("apify %s: run %s ended %s", actorID, r.ID, r.Status)
	}
	return c.datasetItems(ctx, r.DefaultDatasetID)
}

func (c *Client) datasetItems(ctx context.Context, datasetID string) ([]map[string]any, error) {
	var all []map[string]any
	for offset := 0; ; offset += pageSize {
		q := url.Values{}
		q.Set("clean", "true")
		q.Set("offset", strconv.Itoa(offset))
		q.Set("limit", strconv.Itoa(pageSize))
		u := fmt.Sprintf("%s/datasets/%s/items?%s", c.base, url.PathEscape(datasetID), q.Encode())

		var page []map[string]any
		if err := c.http.JSON(ctx, httpx.Call{URL: u, Endpoint: "dataset-items"}, &page); err != nil {
			return nil, fmt.Errorf("apify dataset %s: %w", datasetID, err)
		}
		all = append(all, page...)
		if len(page) < pageSize {
			return all, nil
		}
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
