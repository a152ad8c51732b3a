package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

type Server struct{ mux *chi.Mux }

// New builds the catalog router. timeout bounds every handler.
func New(timeout time.Duration) *Server {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	m := chi.NewRouter()

	// all middlewares go before any route is added
	m.Use(chimw.RealIP)
	m.Use(chimw.RequestID)
	m.Use(chimw.Recoverer)
	m.Use(chimw.CleanPath)
	m.Use(Timeout(timeout))
	m.Use(Metrics)
	m.Use(Logger(log.Logger))

	m.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeProblem(w, http.StatusNotFound, "Not Found", "no route for "+r.URL.Path)
	})
	m.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeProblem(w, http.StatusMethodNotAllowed, "Method Not Allowed", r.Method+" is not supported here")
	})

	return &Server{mux: m}
}

func (s *Server) Mux() http.Handler { return s.mux }

// Mount attaches any extra handler (e.g., /metrics) to the router.
func (s *Server) Mount(path string, h http.Handler) {
	s.mux.Handle(path, h)
}
