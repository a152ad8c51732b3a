package app

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"castro_guide/internal/curation"
	"castro_guide/internal/domain"
	"castro_guide/internal/geo"
)

// CatalogCacheKey holds the curated catalog; every ingestion run deletes it.
const CatalogCacheKey = "catalog:v1"

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

type QueryService struct {
	docs     domain.DocumentStore
	cache    domain.Cache
	cacheTTL time.Duration
	opts     curation.Options
	ref      geo.Point
}

func NewQueryService(docs domain.DocumentStore, c domain.Cache, ttl time.Duration, ref geo.Point, opts curation.Options) *QueryService {
	return &QueryService{docs: docs, cache: c, cacheTTL: ttl, opts: opts, ref: ref}
}

// Catalog returns the curated document, from cache when possible. Curation
// runs again on every miss so curation.json edits show up after the TTL.
func (s *QueryService) Catalog(ctx context.Context) (domain.Catalog, error) {
	var c domain.Catalog
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, CatalogCacheKey, &c); ok {
			return c, nil
		}
	}
	doc, err := s.docs.Load(ctx)
	if err != nil {
		return domain.Catalog{}, err
	}
	cur, err := s.docs.LoadCuration(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("curation unavailable, serving uncurated catalog")
		cur = domain.Curation{}
	}
	c = domain.Catalog{
		UpdatedAt: doc.UpdatedAt,
		Source:    doc.Source,
		Places:    curation.Apply(doc.Places, cur, s.opts),
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, CatalogCacheKey, c, int(s.cacheTTL.Seconds()))
	}
	return c, nil
}

func (s *QueryService) ListPlaces(ctx context.Context, q domain.PlacesQuery) (domain.PlacesPage, error) {
	c, err := s.Catalog(ctx)
	if err != nil {
		return domain.PlacesPage{}, err
	}
	matched := Filter(c.Places, q)

	limit := q.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	limit = min(limit, maxPageSize)
	offset := max(q.Offset, 0)

	page := domain.PlacesPage{Total: len(matched), Limit: limit, Offset: offset, Items: []domain.Place{}}
	if offset < len(matched) {
		page.Items = matched[offset:min(offset+limit, len(matched))]
	}
	return page, nil
}

// GetPlace finds a place by id or sourceId.
func (s *QueryService) GetPlace(ctx context.Context, id string) (domain.PlaceView, error) {
	c, err := s.Catalog(ctx)
	if err != nil {
		return domain.PlaceView{}, err
	}
	for _, p := range c.Places {
		if p.ID == id || (p.SourceID != "" && p.SourceID == id) {
			return domain.PlaceView{
				Place:         p,
				MapsURL:       geo.SearchURL(p, s.opts.City),
				DirectionsURL: geo.DirectionsURL(s.ref, p, s.opts.City),
			}, nil
		}
	}
	return domain.PlaceView{}, domain.ErrNotFound
}

// Categories counts places per category, in display order, zeros included.
func (s *QueryService) Categories(ctx context.Context) ([]domain.CategoryCount, error) {
	c, err := s.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	counts := map[domain.Category]int{}
	for _, p := range c.Places {
		counts[p.Category]++
	}
	out := make([]domain.CategoryCount, 0, len(domain.Categories))
	for _, cat := range domain.Categories {
		out = append(out, domain.CategoryCount{Category: cat, Count: counts[cat]})
	}
	return out, nil
}

// Recommended lists the hotel's picks, best score first.
func (s *QueryService) Recommended(ctx context.Context, limit int) ([]domain.Place, error) {
	page, err := s.ListPlaces(ctx, domain.PlacesQuery{Recommended: true, Sort: domain.SortScore, Limit: limit})
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

// IsNotFound reports whether err means the document or place does not exist.
func IsNotFound(err error) bool { return errors.Is(err, domain.ErrNotFound) }
