package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"castro_guide/internal/app"
	"castro_guide/internal/domain"
)

const (
	maxLimit          = 200
	recommendedLimit  = 12
	maxRecommendLimit = 50
)

type Handlers struct{ Q *app.QueryService }

// problem is an RFC 7807 body.
type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	s.mux.Route("/v1", func(r chi.Router) {
		r.Get("/places", h.listPlaces)
		r.Get("/places/{id}", h.getPlace)
		r.Get("/categories", h.categories)
		r.Get("/recommended", h.recommended)
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	body, _ := json.Marshal(problem{Type: "about:blank", Title: title, Status: status, Detail: detail})
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		log.Debug().Err(err).Int("status", status).Msg("problem response not delivered")
	}
}

// writeLoadError maps catalog errors: a missing document is a 404, anything
// else is logged and reported as 503 because the catalog cannot be read.
func writeLoadError(w http.ResponseWriter, err error, what string) {
	if app.IsNotFound(err) {
		writeProblem(w, http.StatusNotFound, "Not Found", what+" not found")
		return
	}
	log.Error().Err(err).Msg("catalog unavailable")
	writeProblem(w, http.StatusServiceUnavailable, "Service Unavailable", "catalog unavailable")
}

// weakETag tags a response body by content.
func weakETag(body []byte) string {
	sum := sha1.Sum(body)
	return `W/"` + hex.EncodeToString(sum[:]) + `"`
}

// notModified reports whether If-None-Match already names etag.
func notModified(r *http.Request, etag string) bool {
	for _, tag := range strings.Split(r.Header.Get("If-None-Match"), ",") {
		if tag = strings.TrimSpace(tag); tag == etag || tag == "*" {
			return true
		}
	}
	return false
}

// writeJSON answers 304 when the client already has this version.
func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("encode response")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "response could not be encoded")
		return
	}
	etag := weakETag(body)
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, max-age=60")
	if notModified(r, etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(body); err != nil {
		log.Debug().Err(err).Str("path", r.URL.Path).Msg("response not delivered")
	}
}

func (h *Handlers) listPlaces(w http.ResponseWriter, r *http.Request) {
	q, err := parsePlacesQuery(r.URL.Query())
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid query", err.Error())
		return
	}
	page, err := h.Q.ListPlaces(r.Context(), q)
	if err != nil {
		writeLoadError(w, err, "catalog")
		return
	}
	writeJSON(w, r, page)
}

func (h *Handlers) getPlace(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id is required")
		return
	}
	if unescaped, err := url.PathUnescape(id); err == nil {
		id = unescaped
	}
	v, err := h.Q.GetPlace(r.Context(), id)
	if err != nil {
		writeLoadError(w, err, "place")
		return
	}
	writeJSON(w, r, v)
}

func (h *Handlers) categories(w http.ResponseWriter, r *http.Request) {
	counts, err := h.Q.Categories(r.Context())
	if err != nil {
		writeLoadError(w, err, "catalog")
		return
	}
	writeJSON(w, r, counts)
}

func (h *Handlers) recommended(w http.ResponseWriter, r *http.Request) {
	limit := recommendedLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		l, err := strconv.Atoi(raw)
		if err != nil || l <= 0 || l > maxRecommendLimit {
			writeProblem(w, http.StatusBadRequest, "Invalid limit", fmt.Sprintf("limit must be an integer between 1 and %d", maxRecommendLimit))
			return
		}
		limit = l
	}
	places, err := h.Q.Recommended(r.Context(), limit)
	if err != nil {
		writeLoadError(w, err, "catalog")
		return
	}
	writeJSON(w, r, places)
}

// parsePlacesQuery validates the list filters; empty values mean no filter.
func parsePlacesQuery(v url.Values) (domain.PlacesQuery, error) {
	var q domain.PlacesQuery

	if c := strings.TrimSpace(v.Get("category")); c != "" && c != "all" {
		q.Category = domain.Category(c)
		if !q.Category.Valid() {
			return q, fmt.Errorf("unknown category %q", c)
		}
	}
	q.Q = strings.TrimSpace(v.Get("q"))

	if s := v.Get("sort"); s != "" {
		q.Sort = domain.SortMode(s)
		if !q.Sort.Valid() {
			return q, fmt.Errorf("sort must be one of best, distance, rating, reviews, score")
		}
	}

	var err error
	if q.OpenNow, err = boolParam(v, "openNow"); err != nil {
		return q, err
	}
	if q.Recommended, err = boolParam(v, "recommended"); err != nil {
		return q, err
	}
	if q.MaxDistanceKm, err = floatParam(v, "maxDistanceKm", 0, 1000); err != nil {
		return q, err
	}
	if q.MinRating, err = floatParam(v, "minRating", 0, 5); err != nil {
		return q, err
	}
	if s := v.Get("maxPriceLevel"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > 4 {
			return q, fmt.Errorf("maxPriceLevel must be an integer between 1 and 4")
		}
		q.MaxPriceLevel = &n
	}
	if s := v.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 || n > maxLimit {
			return q, fmt.Errorf("limit must be an integer between 1 and %d", maxLimit)
		}
		q.Limit = n
	}
	if s := v.Get("offset"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return q, fmt.Errorf("offset must be a non-negative integer")
		}
		q.Offset = n
	}
	return q, nil
}

func boolParam(v url.Values, key string) (bool, error) {
	s := v.Get(key)
	if s == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean", key)
	}
	return b, nil
}

func floatParam(v url.Values, key string, lo, hi float64) (*float64, error) {
	s := v.Get(key)
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil || f < lo || f > hi {
		return nil, fmt.Errorf("%s must be a number between %g and %g", key, lo, hi)
	}
	return &f, nil
}
