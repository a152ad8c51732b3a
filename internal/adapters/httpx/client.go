// Package httpx is the outbound transport shared by the provider adapters.
package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"castro_guide/internal/adapters/observability"
)

const userAgent = "castro-guide/1.0"

var (
	ErrNotFound     = errors.New("httpx: not found")
	ErrUnauthorized = errors.New("httpx: unauthorized")
	ErrForbidden    = errors.New("httpx: forbidden")
	// ErrNoRedirect is returned by Redirect when the answer carries no Location.
	ErrNoRedirect = errors.New("httpx: no redirect location")
)

type Options struct {
	RPS     float64
	Timeout time.Duration
	// Attempts bounds tries per request, first one included. Default 4.
	Attempts int
	// Header is sent on every request (API keys, RapidAPI host).
	Header http.Header
	// Trip is the number of consecutive failed requests that opens the breaker.
	// Default 5.
	Trip uint32
}

// Client does JSON requests with client-side rate limiting, retries on 429
// and transient 5xx and one circuit breaker per upstream service.
type Client struct {
	service  string
	hc       *http.Client
	noFollow *http.Client
	rl       *rate.Limiter
	cb       *gobreaker.CircuitBreaker
	header   http.Header
	attempts int
}

func New(service string, o Options) *Client {
	if o.RPS <= 0 {
		o.RPS = 5
	}
	if o.Timeout <= 0 {
		o.Timeout = 20 * time.Second
	}
	if o.Attempts <= 0 {
		o.Attempts = 4
	}
	if o.Trip == 0 {
		o.Trip = 5
	}
	c := &Client{
		service: service,
		hc:      &http.Client{Timeout: o.Timeout},
		noFollow: &http.Client{
			Timeout: o.Timeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		rl:       rate.NewLimiter(rate.Limit(o.RPS), max(int(o.RPS), 1)),
		header:   o.Header.Clone(),
		attempts: o.Attempts,
	}
	c.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        service,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= o.Trip
		},
		// answers the caller has to handle are not outages
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrUnauthorized) ||
				errors.Is(err, ErrForbidden) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("service", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	})
	return c
}

// Call is one outbound request. Body, when set, is sent as JSON.
type Call struct {
	Method   string
	URL      string
	Endpoint string // metrics label
	Header   http.Header
	Body     any
}

// JSON performs call and decodes a 2xx body into out (nil discards it).
func (c *Client) JSON(ctx context.Context, call Call, out any) error {
	_, err := c.cb.Execute(func() (any, error) {
		resp, err := c.send(ctx, c.hc, call)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if out == nil || resp.StatusCode == http.StatusNoContent {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil, nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return nil, fmt.Errorf("%s %s: decode: %w", c.service, call.Endpoint, err)
		}
		return nil, nil
	})
	return err
}

// Fetch performs call and returns at most limit bytes of a 2xx body.
func (c *Client) Fetch(ctx context.Context, call Call, limit int64) ([]byte, error) {
	b, err := c.cb.Execute(func() (any, error) {
		resp, err := c.send(ctx, c.hc, call)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		return io.ReadAll(io.LimitReader(resp.Body, limit))
	})
	if err != nil {
		return nil, err
	}
	return b.([]byte), nil
}

// Redirect performs call without following redirects and returns the
// Location of the answer.
func (c *Client) Redirect(ctx context.Context, call Call) (string, error) {
	loc, err := c.cb.Execute(func() (any, error) {
		resp, err := c.send(ctx, c.noFollow, call)
		if err != nil {
			return "", err
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return resp.Header.Get("Location"), nil
	})
	if err != nil {
		return "", err
	}
	if s, _ := loc.(string); s != "" {
		return s, nil
	}
	return "", ErrNoRedirect
}

// send returns any 2xx/3xx response with the body open.
func (c *Client) send(ctx context.Context, hc *http.Client, call Call) (*http.Response, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return nil, err
	}
	var payload []byte
	if call.Body != nil {
		b, err := json.Marshal(call.Body)
		if err != nil {
			return nil, fmt.Errorf("%s %s: encode: %w", c.service, call.Endpoint, err)
		}
		payload = b
	}

	var (
		lastErr error
		wait    time.Duration
	)
	for i := range c.attempts {
		if i > 0 && !sleepCtx(ctx, wait) {
			return nil, ctx.Err()
		}
		req, err := c.request(ctx, call, payload)
		if err != nil {
			return nil, err
		}

		start := time.Now()
		resp, err := hc.Do(req)
		if err != nil {
			observability.ObserveExternal(c.service, call.Endpoint, 0, time.Since(start))
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr, wait = err, backoff(i)
			continue
		}
		observability.ObserveExternal(c.service, call.Endpoint, resp.StatusCode, time.Since(start))

		if resp.StatusCode < http.StatusBadRequest {
			return resp, nil
		}
		if sentinel := sentinelFor(resp.StatusCode); sentinel != nil {
			resp.Body.Close()
			return nil, sentinel
		}
		if transient(resp.StatusCode) {
			if wait = retryAfter(resp); wait == 0 {
				wait = backoff(i)
			}
			resp.Body.Close()
			lastErr = fmt.Errorf("%s %s: upstream answered %d", c.service, call.Endpoint, resp.StatusCode)
			continue
		}
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, fmt.Errorf("%s %s: unexpected status %d: %s", c.service, call.Endpoint, resp.StatusCode,
			strings.TrimSpace(string(snippet)))
	}
	return nil, lastErr
}

// request builds one attempt; the payload reader is fresh every time.
func (c *Client) request(ctx context.Context, call Call, payload []byte) (*http.Request, error) {
	method := call.Method
	if method == "" {
		method = http.MethodGet
	}
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, call.URL, body)
	if err != nil {
		return nil, err
	}
	for _, h := range []http.Header{c.header, call.Header} {
		for k, vs := range h {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", userAgent)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func sentinelFor(status int) error {
	switch status {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	}
	return nil
}

func transient(status int) bool {
	return status == http.StatusTooManyRequests || status == http.StatusRequestTimeout || status >= http.StatusInternalServerError
}

// sleepCtx waits d; false means ctx ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter reads Retry-After as delta seconds or an HTTP date; 0 when unusable.
func retryAfter(resp *http.Response) time.Duration {
	v := strings.TrimSpace(resp.Header.Get("Retry-After"))
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(max(secs, 0)) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		return max(time.Until(at), 0)
	}
	return 0
}

// backoff is 200ms doubling per attempt plus up to 50% jitter.
func backoff(i int) time.Duration {
	base := 200 * time.Millisecond << i
	return base + rand.N(base/2+1)
}
