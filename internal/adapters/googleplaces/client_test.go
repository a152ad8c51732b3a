package googleplaces_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"castro_guide/internal/adapters/googleplaces"
	"castro_guide/internal/domain"
)

func newClient(t *testing.T, h http.HandlerFunc) *googleplaces.Client {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	c, err := googleplaces.New(ts.URL, "k", "", 100, googleplaces.WithStatusBackoff(time.Millisecond))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	return c
}

func TestNew_RequiresKey(t *testing.T) {
	if _, err := googleplaces.New("http://x", "", "", 1); err == nil {
		t.Fatalf("expected error without key")
	}
}

func TestTextSearch_RetriesInactivePageToken(t *testing.T) {
	var hits int32
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/textsearch/json" || r.URL.Query().Get("key") != "k" || r.URL.Query().Get("language") != "pt-BR" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if atomic.AddInt32(&hits, 1) < 3 {
			_ = json.NewEncoder(w).Encode(map[string]any{"status": "INVALID_REQUEST"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":  "OK",
			"results": []any{map[string]any{"place_id": "p1"}},
		})
	})

	out, err := c.TextSearch(context.Background(), "bares Goiânia", "tok")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res, _ := out["results"].([]any); len(res) != 1 {
		t.Fatalf("unexpected results: %+v", out)
	}
	if atomic.LoadInt32(&hits) != 3 {
		t.Fatalf("expected 3 calls, got %d", hits)
	}
}

func TestTextSearch_InvalidWithoutTokenFailsFast(t *testing.T) {
	var hits int32
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "INVALID_REQUEST", "error_message": "bad query"})
	})
	_, err := c.TextSearch(context.Background(), "", "")
	var se *domain.StatusError
	if !errors.As(err, &se) || se.Status != "INVALID_REQUEST" || se.Message != "bad query" {
		t.Fatalf("expected status error, got %v", err)
	}
	if atomic.LoadInt32(&hits) != 1 {
		t.Fatalf("expected no retry, got %d calls", hits)
	}
}

func TestDetails_ResultAndExhaustedThrottle(t *testing.T) {
	var throttled int32
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("place_id") {
		case "ok":
			if r.URL.Query().Get("fields") != "name,website" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"status": "OK", "result": map[string]any{"name": "Bar"}})
		case "busy":
			atomic.AddInt32(&throttled, 1)
			_ = json.NewEncoder(w).Encode(map[string]any{"status": "OVER_QUERY_LIMIT"})
		default:
			_ = json.NewEncoder(w).Encode(map[string]any{"status": "NOT_FOUND"})
		}
	})
	ctx := context.Background()

	res, err := c.Details(ctx, "ok", []string{"name", "website"})
	if err != nil || res["name"] != "Bar" {
		t.Fatalf("details: %+v %v", res, err)
	}

	_, err = c.Details(ctx, "gone", nil)
	var se *domain.StatusError
	if !errors.As(err, &se) || se.Status != "NOT_FOUND" {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}

	_, err = c.Details(ctx, "busy", nil)
	if !errors.As(err, &se) || se.Status != "OVER_QUERY_LIMIT" {
		t.Fatalf("expected OVER_QUERY_LIMIT, got %v", err)
	}
	if atomic.LoadInt32(&throttled) != 6 {
		t.Fatalf("expected 6 attempts, got %d", throttled)
	}
}

func TestPhotoURL_FollowsNothing(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/photo" || r.URL.Query().Get("maxwidth") != "800" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Location", "https://lh3.example/"+r.URL.Query().Get("photo_reference"))
		w.WriteHeader(http.StatusFound)
	})
	u, err := c.PhotoURL(context.Background(), "ref1", 800)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if u != "https://lh3.example/ref1" {
		t.Fatalf("url = %s", u)
	}
}
