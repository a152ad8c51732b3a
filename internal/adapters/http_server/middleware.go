package httpserver

import (
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"castro_guide/internal/adapters/observability"
)

const timeoutBody = `{"type":"about:blank","title":"Service Unavailable","status":503,"detail":"request timed out"}`

// Timeout answers 503 with a problem body when a handler runs past d.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler { return http.TimeoutHandler(next, d, timeoutBody) }
}

// routeOf prefers the chi pattern so metrics do not explode on place ids.
func routeOf(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// Metrics records one sample per request in the HTTP counters.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		observability.ObserveHTTP(routeOf(r), r.Method, status(ww), time.Since(start))
	})
}

// Logger writes one structured line per request: 5xx at error, 4xx at warn,
// health checks at debug.
func Logger(l zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			st := status(ww)
			var ev *zerolog.Event
			switch {
			case st >= 500:
				ev = l.Error()
			case st >= 400:
				ev = l.Warn()
			case r.URL.Path == "/healthz" || r.URL.Path == "/metrics":
				ev = l.Debug()
			default:
				ev = l.Info()
			}
			ev.Str("request_id", chimw.GetReqID(r.Context())).
				Str("route", routeOf(r)).
				Str("method", r.Method).
				Str("query", r.URL.RawQuery).
				Int("status", st).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("remote", remoteIP(r)).
				Msg("http_request")
		})
	}
}

func status(ww chimw.WrapResponseWriter) int {
	if ww.Status() == 0 {
		return http.StatusOK
	}
	return ww.Status()
}

// remoteIP strips the port; RealIP has already applied proxy headers.
func remoteIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
