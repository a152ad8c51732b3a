package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"castro_guide/internal/domain"
	"castro_guide/internal/merge"
)

const (
	tripAdvisorActor = "maxcopell/tripadvisor"
	openMapActor     = "ahmed_jasarevic/google-maps-business-data-scraper-free"
	maxGallery       = 8
)

type MergedOptions struct {
	Terms        []string
	Location     string
	GeocodeLimit int
	Workers      int
	// Scrape fetches listing pages for gallery images and descriptions.
	Scrape bool
}

type MergedResult struct {
	Collected int
	Unique    int
	Geocoded  int
	Scraped   int
	Inserted  int
	Updated   int
	Kept      int
	Failed    int
}

// Merged collects TripAdvisor listings, geocodes them through the OpenMap
// actor by name and merges the result into the published document.
func (s *IngestionService) Merged(ctx context.Context, opts MergedOptions) (MergedResult, error) {
	var res MergedResult
	if s.actors == nil || s.docs == nil {
		return res, errors.New("merged: actors and docs are required")
	}
	if opts.GeocodeLimit <= 0 {
		opts.GeocodeLimit = 200
	}
	if opts.Workers <= 0 {
		opts.Workers = 3
	}

	trip, err := s.collectTripAdvisor(ctx, opts.Terms, &res)
	if err != nil {
		return res, err
	}
	res.Unique = len(trip)

	found := s.geocode(ctx, trip[:min(len(trip), opts.GeocodeLimit)], opts)
	if err := ctx.Err(); err != nil {
		return res, err
	}
	res.Geocoded = len(found)

	engine := merge.New(merge.WithAlwaysUpdate(), merge.WithStrategy("tags", merge.Union))
	for i, t := range trip {
		m, ok := found[normalizeName(t.Name)]
		if !ok {
			continue
		}
		patch := domain.Place{
			ID:            t.ID,
			SourceID:      t.SourceID,
			Address:       m.Address,
			Latitude:      m.Latitude,
			Longitude:     m.Longitude,
			DistanceKm:    s.norm.Distance(m.Latitude, m.Longitude),
			Tags:          m.Tags,
			OriginQueries: m.OriginQueries,
		}
		trip[i] = engine.Merge(t, patch)
	}

	if opts.Scrape && s.scraper != nil {
		res.Scraped = s.scrapePages(ctx, trip, opts.Workers)
	}

	doc, ix, err := s.loadIndex(ctx)
	if err != nil {
		return res, err
	}
	upsert := merge.New()
	for _, p := range trip {
		_, d := ix.Upsert(upsert, p)
		s.rec.Ingest(string(ProviderTripAdvisor), d.String())
		switch d {
		case merge.Inserted:
			res.Inserted++
		case merge.Updated:
			res.Updated++
		default:
			res.Kept++
		}
	}
	log.Info().Int("unique", res.Unique).Int("geocoded", res.Geocoded).Int("scraped", res.Scraped).
		Int("inserted", res.Inserted).Int("updated", res.Updated).Msg("merged ingestion done")
	if res.Inserted+res.Updated == 0 {
		return res, nil
	}
	return res, s.publish(ctx, doc, ix, ProviderTripAdvisor.Source())
}

// collectTripAdvisor runs the actor per term and dedupes by listing URL,
// keeping the better rated record.
func (s *IngestionService) collectTripAdvisor(ctx context.Context, terms []string, res *MergedResult) ([]domain.Place, error) {
	var out []domain.Place
	byKey := map[string]int{}
	for _, term := range terms {
		input := map[string]any{
			"query":                   term,
			"maxItemsPerQuery":        pickLimit(term),
			"includeTags":             true,
			"includeNearbyResults":    false,
			"includeAttractions":      true,
			"includeRestaurants":      true,
			"includeHotels":           false,
			"includeVacationRentals":  false,
			"includePriceOffers":      false,
			"includeAiReviewsSummary": false,
			"language":                "pt",
			"currency":                "BRL",
		}
		items, err := s.actors.Run(ctx, tripAdvisorActor, input)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			res.Failed++
			s.rec.Ingest(string(ProviderTripAdvisor), "fail")
			log.Error().Err(err).Str("term", term).Msg("tripadvisor run failed")
			continue
		}
		log.Info().Str("term", term).Int("items", len(items)).Msg("tripadvisor run done")
		for _, item := range items {
			res.Collected++
			p, ok := s.norm.Normalize(ProviderTripAdvisor, item, Hint{Query: term})
			if !ok {
				s.rec.Ingest(string(ProviderTripAdvisor), "drop")
				continue
			}
			key := p.SourceURL
			if key == "" {
				key = p.ID
			}
			if i, seen := byKey[key]; seen {
				if p.Rating > out[i].Rating {
					out[i] = p
				}
				continue
			}
			byKey[key] = len(out)
			out = append(out, p)
		}
	}
	return out, nil
}

// geocode looks every place up by name on the free OpenMap actor. Workers
// claim places through a shared index; results are keyed by folded name.
func (s *IngestionService) geocode(ctx context.Context, places []domain.Place, opts MergedOptions) map[string]domain.Place {
	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		next atomic.Int64
		out  = map[string]domain.Place{}
	)
	for w := 0; w < opts.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(next.Add(1) - 1)
				if i >= len(places) || ctx.Err() != nil {
					return
				}
				cur := places[i]
				query := joinNonEmpty(cur.Name, opts.Location)
				items, err := s.free.Run(ctx, openMapActor, map[string]any{"queries": []string{query}, "limit": 1})
				if err != nil {
					s.rec.Ingest(string(ProviderOpenMap), "fail")
					log.Warn().Err(err).Str("name", cur.Name).Msg("geocode failed")
					continue
				}
				if len(items) == 0 {
					continue
				}
				m, ok := s.norm.Normalize(ProviderOpenMap, items[0], Hint{Query: query})
				if !ok || !m.HasCoords() {
					s.rec.Ingest(string(ProviderOpenMap), "drop")
					continue
				}
				mu.Lock()
				out[normalizeName(cur.Name)] = m
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return out
}

// scrapePages fills gallery, image and weak descriptions from listing pages.
// At most workers pages are fetched at once.
func (s *IngestionService) scrapePages(ctx context.Context, places []domain.Place, workers int) int {
	metas := make([]*domain.PageMeta, len(places))
	sem := semaphore.NewWeighted(int64(workers))
	var wg sync.WaitGroup

	for i, p := range places {
		if p.SourceURL == "" || (len(p.Gallery) > 0 && !s.weakDescription(p)) {
			continue
		}
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(i int, url string) {
			defer wg.Done()
			defer sem.Release(1)

			meta, err := s.scraper.Scrape(ctx, url)
			if err != nil {
				log.Debug().Err(err).Str("url", url).Msg("scrape failed")
				return
			}
			metas[i] = &meta
		}(i, p.SourceURL)
	}
	wg.Wait()

	n := 0
	for i, meta := range metas {
		if meta == nil {
			continue
		}
		p := &places[i]
		if len(p.Gallery) == 0 && len(meta.Images) > 0 {
			p.Gallery = capStrings(meta.Images, maxGallery)
		}
		if merge.MissingText(p.Image) && len(p.Gallery) > 0 {
			p.Image = p.Gallery[0]
		}
		if meta.Description != "" && s.weakDescription(*p) {
			p.Description = s.norm.describe(meta.Description, *p)
		}
		n++
	}
	return n
}
