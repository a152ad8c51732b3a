package observability

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"castro_guide/internal/domain"
)

const namespace = "guide"

// Provider calls are slow (actor runs can hold a request for a minute), so
// they get wider buckets than the catalog API.
var providerBuckets = prometheus.ExponentialBuckets(0.05, 2, 12)

var (
	APIRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Subsystem: "api", Name: "requests_total", Help: "Catalog API requests."},
		[]string{"route", "method", "status"},
	)
	APILatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "api", Name: "request_duration_seconds",
			Help:    "Catalog API request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	ProviderRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Subsystem: "provider", Name: "requests_total", Help: "Calls to place providers."},
		[]string{"provider", "endpoint", "status"},
	)
	ProviderLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "provider", Name: "request_duration_seconds",
			Help:    "Place provider call duration seconds.",
			Buckets: providerBuckets,
		},
		[]string{"provider", "endpoint"},
	)
	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Subsystem: "catalog_cache", Name: "events_total", Help: "Catalog cache hit|miss|set|del."},
		[]string{"cache", "event"},
	)
	IngestPlaces = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Subsystem: "pipeline", Name: "places_total", Help: "Places seen by ingestion runs."},
		[]string{"provider", "outcome"}, // outcome: insert|update|keep|drop|fail
	)
	EnrichResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Subsystem: "pipeline", Name: "details_total", Help: "Place details lookups by status."},
		[]string{"status"},
	)
	RunDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "pipeline", Name: "run_duration_seconds",
			Help:    "Ingestion command duration seconds.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 14),
		},
		[]string{"command", "result"},
	)
)

// Serve exposes /metrics on addr in the background; empty addr disables it.
// Batch commands use it, the API mounts the handler on its own router.
func Serve(addr string, reg *prometheus.Registry) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", MetricsHandler(reg))

	go func() {
		srv := &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		log.Info().Str("addr", addr).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(APIRequests, APILatency, ProviderRequests, ProviderLatency, CacheEvents,
		IngestPlaces, EnrichResults, RunDuration)
	return reg
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func ObserveHTTP(route, method string, status int, dur time.Duration) {
	APIRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	APILatency.WithLabelValues(route, method).Observe(dur.Seconds())
}

// ObserveExternal records one provider call; status 0 means no response.
func ObserveExternal(provider, endpoint string, status int, dur time.Duration) {
	ProviderRequests.WithLabelValues(provider, endpoint, strconv.Itoa(status)).Inc()
	ProviderLatency.WithLabelValues(provider, endpoint).Observe(dur.Seconds())
}

func ObserveCache(cache, event string) {
	CacheEvents.WithLabelValues(cache, event).Inc()
}

// ObserveRun records how long a command took and how it ended.
func ObserveRun(command string, err error, dur time.Duration) {
	result := "ok"
	if err != nil {
		result = LabelErr(err)
	}
	RunDuration.WithLabelValues(command, result).Observe(dur.Seconds())
}

// Pipeline records ingestion outcomes into the counters above.
type Pipeline struct{}

func (Pipeline) Ingest(provider, outcome string) { IngestPlaces.WithLabelValues(provider, outcome).Inc() }

func (Pipeline) Enrich(status string) { EnrichResults.WithLabelValues(status).Inc() }

// LabelErr turns an error into a low-cardinality label.
func LabelErr(err error) string {
	var se *domain.StatusError
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.As(err, &se):
		return "status_" + strings.ToLower(se.Status)
	}
	return fmt.Sprintf("%T", err)
}
