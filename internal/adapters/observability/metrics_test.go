package observability_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"castro_guide/internal/adapters/observability"
	"castro_guide/internal/domain"
)

func TestMetricsRegistryAndHandler(t *testing.T) {
	reg := observability.InitRegistry()

	// one sample per family so every series shows up
	observability.ObserveHTTP("/v1/places", "GET", 200, 12*time.Millisecond)
	observability.ObserveExternal("google_places", "details", 200, 300*time.Millisecond)
	observability.ObserveCache("redis", "hit")
	observability.ObserveRun("crawl", nil, 90*time.Second)
	var rec observability.Pipeline
	rec.Ingest("crawler", "insert")
	rec.Enrich("NOT_FOUND")

	rr := httptest.NewRecorder()
	observability.MetricsHandler(reg).ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status: %d", rr.Code)
	}
	body, _ := io.ReadAll(rr.Body)
	out := string(body)
	for _, want := range []string{
		`guide_api_requests_total{method="GET",route="/v1/places",status="200"}`,
		`guide_provider_requests_total{endpoint="details",provider="google_places",status="200"}`,
		`guide_catalog_cache_events_total{cache="redis",event="hit"}`,
		`guide_pipeline_places_total{outcome="insert",provider="crawler"} 1`,
		`guide_pipeline_details_total{status="NOT_FOUND"} 1`,
		`guide_pipeline_run_duration_seconds_count{command="crawl",result="ok"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in output", want)
		}
	}
}

func TestLabelErr(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, "none"},
		{fmt.Errorf("run: %w", context.Canceled), "canceled"},
		{context.DeadlineExceeded, "timeout"},
		{fmt.Errorf("load: %w", domain.ErrNotFound), "not_found"},
		{fmt.Errorf("details: %w", &domain.StatusError{Provider: "google_places", Status: "OVER_QUERY_LIMIT"}), "status_over_query_limit"},
		{errors.New("boom"), "*errors.errorString"},
	}
	for _, c := range cases {
		if got := observability.LabelErr(c.err); got != c.want {
			t.Fatalf("LabelErr(%v) = %s, want %s", c.err, got, c.want)
		}
	}
}
