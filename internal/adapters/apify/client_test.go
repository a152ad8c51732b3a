package apify_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"castro_guide/internal/adapters/apify"
)

func newClient(t *testing.T, h http.Handler) *apify.Client {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	c, err := apify.New(ts.URL+"/v2", "tok", 100, apify.WithPoll(time.Millisecond))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	return c
}

func authorized(r *http.Request) bool { return r.Header.Get("Authorization") == "Bearer tok" }

func TestNew_RequiresToken(t *testing.T) {
	if _, err := apify.New("http://x", "", 1); err == nil {
		t.Fatalf("expected error without token")
	}
}

func TestRunSync_PostsInputAndDecodesItems(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r) || r.Method != http.MethodPost ||
			r.URL.Path != "/v2/acts/compass~google-maps-extractor/run-sync-get-dataset-items" ||
			r.URL.Query().Get("clean") != "true" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		var in map[string]any
		_ = json.NewDecoder(r.Body).Decode(&in)
		_ = json.NewEncoder(w).Encode([]map[string]any{{"placeId": "a", "echo": in["locationQuery"]}})
	}))

	items, err := c.RunSync(context.Background(), "compass/google-maps-extractor", map[string]any{"locationQuery": "Goiânia"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(items) != 1 || items[0]["echo"] != "Goiânia" {
		t.Fatalf("unexpected items: %+v", items)
	}
}

func TestRun_PollsThenPagesDataset(t *testing.T) {
	const total = 1500
	var polls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/v2/acts/maxcopell~tripadvisor/runs", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r) || r.Method != http.MethodPost {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"id": "run1", "status": "RUNNING"}})
	})
	mux.HandleFunc("/v2/actor-runs/run1", func(w http.ResponseWriter, r *http.Request) {
		status := "RUNNING"
		if atomic.AddInt32(&polls, 1) >= 2 {
			status = "SUCCEEDED"
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{
			"id": "run1", "status": status, "defaultDatasetId": "ds1",
		}})
	})
	mux.HandleFunc("/v2/datasets/ds1/items", func(w http.ResponseWriter, r *http.Request) {
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		var page []map[string]any
		for i := offset; i < min(offset+limit, total); i++ {
			page = append(page, map[string]any{"id": fmt.Sprint(i)})
		}
		if page == nil {
			page = []map[string]any{}
		}
		_ = json.NewEncoder(w).Encode(page)
	})
	c := newClient(t, mux)

	items, err := c.Run(context.Background(), "maxcopell/tripadvisor", map[string]any{"query": "Goiania"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(items) != total || items[total-1]["id"] != "1499" {
		t.Fatalf("got %d items", len(items))
	}
	if atomic.LoadInt32(&polls) != 2 {
		t.Fatalf("expected 2 polls, got %d", polls)
	}
}

func TestRun_FailedRun(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"id": "r", "status": "FAILED"}})
	}))
	_, err := c.Run(context.Background(), "a/b", nil)
	if err == nil || !strings.Contains(err.Error(), "FAILED") {
		t.Fatalf("expected failed run error, got %v", err)
	}
}
