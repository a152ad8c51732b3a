// Package localbusiness searches the RapidAPI local-business-data service.
package localbusiness

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"castro_guide/internal/adapters/httpx"
	"castro_guide/internal/domain"
)

const service = "local_business_data"

type Client struct {
	http *httpx.Client
	base string
}

func New(base, key, host string, rps float64) (*Client, error) {
	if key == "" {
		return nil, fmt.Errorf("local business: RapidAPI key is required")
	}
	return &Client{
		http: httpx.New(service, httpx.Options{
			RPS: rps,
			Header: http.Header{
				"X-RapidAPI-Key":  {key},
				"X-RapidAPI-Host": {host},
			},
		}),
		base: strings.TrimRight(base, "/"),
	}, nil
}

type searchResponse struct {
	Status string          `json:"status"`
	Error  json.RawMessage `json:"error"`
	Data   json.RawMessage `json:"data"`
}

// Search returns the raw business records for query. The service answers
// either {data: [...]} or {data: {items: [...]}}.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]map[string]any, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("limit", strconv.Itoa(limit))

	var resp searchResponse
	if err := c.http.JSON(ctx, httpx.Call{URL: c.base + "/search?" + q.Encode(), Endpoint: "search"}, &resp); err != nil {
		return nil, err
	}
	if resp.Status != "OK" {
		return nil, &domain.StatusError{Provider: service, Status: resp.Status, Message: strings.TrimSpace(string(resp.Error))}
	}
	return decodeItems(resp.Data)
}

func decodeItems(raw json.RawMessage) ([]map[string]any, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var wrapped struct {
		Items []map[string]any `json:"items"`
	}
	if raw[0] == '{' {
		if err := json.Unmarshal(raw, &wrapped); err != nil {
			return nil, fmt.Errorf("local business: decode data: %w", err)
		}
		return wrapped.Items, nil
	}
	var items []map[string]any
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("local business: decode data: %w", err)
	}
	return items, nil
}
