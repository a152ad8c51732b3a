package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"castro_guide/internal/domain"
	"castro_guide/internal/merge"
	"castro_guide/internal/shared"
)

// Recorder receives pipeline outcomes (insert|update|keep|drop|fail per
// provider, and details statuses).
type Recorder interface {
	Ingest(provider, outcome string)
	Enrich(status string)
}

type nopRecorder struct{}

func (nopRecorder) Ingest(string, string) {}
func (nopRecorder) Enrich(string)         {}

// Deps are the collaborators of the batch commands. Each command checks only
// the ones it uses.
type Deps struct {
	Places     domain.PlacesAPI
	Actors     domain.ActorRunner
	// FreeActors runs free-tier actors; Actors is used when nil.
	FreeActors domain.ActorRunner
	Business   domain.BusinessSearcher
	Scraper    domain.PageScraper
	Staging    domain.StagingRepository
	Docs       domain.DocumentStore
	Cache      domain.Cache
	Norm       *Normalizer
	Recorder   Recorder
	Now        func() time.Time
}

type IngestionService struct {
	places   domain.PlacesAPI
	actors   domain.ActorRunner
	free     domain.ActorRunner
	business domain.BusinessSearcher
	scraper  domain.PageScraper
	staging  domain.StagingRepository
	docs     domain.DocumentStore
	cache    domain.Cache
	norm     *Normalizer
	rec      Recorder
	now      func() time.Time
}

func NewIngestionService(d Deps) *IngestionService {
	s := &IngestionService{
		places: d.Places, actors: d.Actors, free: d.FreeActors, business: d.Business, scraper: d.Scraper,
		staging: d.Staging, docs: d.Docs, cache: d.Cache, norm: d.Norm, rec: d.Recorder, now: d.Now,
	}
	if s.rec == nil {
		s.rec = nopRecorder{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.free == nil {
		s.free = s.actors
	}
	return s
}

const crawlerActor = "compass/crawler-google-places"

type CrawlOptions struct {
	Actor       string
	Location    string
	Language    string
	Queries     []shared.SearchQuery
	MaxPerQuery int // overrides each query's MaxResults when > 0
	Sleep       time.Duration
}

type CrawlResult struct {
	Collected int
	Inserted  int
	Updated   int
	Kept      int
	Dropped   int
	Failed    int
	Exported  int
}

// Crawl runs the Google Maps crawler per query into the staging store, then
// exports the staging store as the published document.
func (s *IngestionService) Crawl(ctx context.Context, opts CrawlOptions) (CrawlResult, error) {
	var res CrawlResult
	if s.actors == nil || s.staging == nil || s.docs == nil {
		return res, errors.New("crawl: actors, staging and docs are required")
	}
	if opts.Actor == "" {
		opts.Actor = crawlerActor
	}
	if opts.Language == "" {
		opts.Language = "pt-BR"
	}
	engine := merge.New()

	for i, q := range opts.Queries {
		if i > 0 {
			if err := sleepCtx(ctx, opts.Sleep); err != nil {
				return res, err
			}
		}
		limit := q.MaxResults
		if opts.MaxPerQuery > 0 {
			limit = opts.MaxPerQuery
		}
		input := map[string]any{
			"searchStringsArray":        []string{q.Query},
			"locationQuery":             opts.Location,
			"maxCrawledPlacesPerSearch": limit,
			"language":                  opts.Language,
			"scrapeReviewsPersonalData": false,
			"scrapeDirections":          false,
			"scrapeImages":              true,
			"maxImages":                 5,
			"scrapeOpeningHours":        true,
			"scrapePeopleAlsoSearch":    false,
			"skipClosedPlaces":          false,
		}
		items, err := s.actors.Run(ctx, opts.Actor, input)
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			res.Failed++
			s.rec.Ingest(string(ProviderCrawler), "fail")
			log.Error().Err(err).Str("query", q.Query).Msg("crawl query failed")
			continue
		}
		log.Info().Str("query", q.Query).Int("items", len(items)).Msg("crawl query done")

		for _, item := range items {
			res.Collected++
			p, ok := s.norm.Normalize(ProviderCrawler, item, Hint{Query: q.Query, Category: q.Category})
			if !ok {
				res.Dropped++
				s.rec.Ingest(string(ProviderCrawler), "drop")
				continue
			}
			d, err := s.stage(ctx, engine, p)
			if err != nil {
				res.Failed++
				s.rec.Ingest(string(ProviderCrawler), "fail")
				log.Error().Err(err).Str("id", p.ID).Msg("staging save failed")
				continue
			}
			s.rec.Ingest(string(ProviderCrawler), d.String())
			switch d {
			case merge.Inserted:
				res.Inserted++
			case merge.Updated:
				res.Updated++
			default:
				res.Kept++
			}
		}
	}

	n, err := s.Export(ctx, opts.Location)
	res.Exported = n
	return res, err
}

func (s *IngestionService) stage(ctx context.Context, engine *merge.Engine, p domain.Place) (merge.Decision, error) {
	var existing *domain.Place
	cur, err := s.staging.Find(ctx, p.ID, p.SourceID)
	switch {
	case err == nil:
		existing = &cur
	case !errors.Is(err, domain.ErrNotFound):
		return merge.Kept, err
	}
	merged, d := engine.Apply(existing, p)
	if d == merge.Kept {
		return d, nil
	}
	return d, s.staging.Save(ctx, merged)
}

// Export publishes every staged place with coordinates, best rated first,
// and logs per-category stats.
func (s *IngestionService) Export(ctx context.Context, location string) (int, error) {
	places, err := s.staging.Export(ctx)
	if err != nil {
		return 0, fmt.Errorf("export staging: %w", err)
	}
	doc := domain.Document{
		UpdatedAt:   s.now().UTC(),
		Source:      ProviderCrawler.Source(),
		TotalPlaces: len(places),
		Places:      places,
	}
	if location != "" {
		doc.Location = &domain.DocLocation{Query: location}
	}
	if err := s.docs.Save(ctx, doc); err != nil {
		return 0, err
	}
	s.invalidateCatalog(ctx)

	stats, err := s.staging.Stats(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("staging stats unavailable")
	}
	for _, st := range stats {
		log.Info().Str("category", string(st.Category)).Int("count", st.Count).
			Float64("avg_rating", st.AvgRating).Msg("category stats")
	}
	log.Info().Int("places", len(places)).Msg("exported document")
	return len(places), nil
}

/********** shared helpers for document passes **********/

// loadIndex reads the published document; a missing document is empty.
func (s *IngestionService) loadIndex(ctx context.Context) (domain.Document, *merge.Index, error) {
	doc, err := s.docs.Load(ctx)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return domain.Document{}, nil, err
	}
	return doc, merge.NewIndex(doc.Places), nil
}

func (s *IngestionService) publish(ctx context.Context, doc domain.Document, ix *merge.Index, source string) error {
	doc.Places = ix.Places()
	doc.UpdatedAt = s.now().UTC()
	if doc.Source == "" {
		doc.Source = source
	}
	if doc.TotalPlaces > 0 {
		doc.TotalPlaces = len(doc.Places)
	}
	if err := s.docs.Save(ctx, doc); err != nil {
		return err
	}
	s.invalidateCatalog(ctx)
	return nil
}

func (s *IngestionService) invalidateCatalog(ctx context.Context) {
	if s.cache != nil {
		_ = s.cache.Del(ctx, CatalogCacheKey)
	}
}

func (s *IngestionService) stamp() *time.Time {
	t := s.now().UTC()
	return &t
}

// sleepCtx waits d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
