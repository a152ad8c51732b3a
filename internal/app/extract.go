package app

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"castro_guide/internal/domain"
	"castro_guide/internal/merge"
	"castro_guide/internal/shared"
)

const (
	extractorActor = "compass~google-maps-extractor"
	ExtractReport  = "apify-report.json"
)

type ExtractOptions struct {
	Location    string
	Language    string
	MaxPerQuery int
	MinStars    string
	Categories  []string
	// AddNew appends unmatched places instead of ignoring them.
	AddNew bool
}

type ExtractReportDoc struct {
	RunID       string         `json:"runId"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	ApifyActor  string         `json:"apifyActor"`
	Input       map[string]any `json:"input"`
	Items       int            `json:"items"`
	Matched     int            `json:"matched"`
	Updated     int            `json:"updated"`
	Added       int            `json:"added"`
	TotalPlaces int            `json:"totalPlaces"`
}

// Extract runs the Maps extractor once for the whole city and merges it
// conservatively: names, ratings and review counts refresh, everything else
// only fills gaps.
func (s *IngestionService) Extract(ctx context.Context, opts ExtractOptions) (ExtractReportDoc, error) {
	rep := ExtractReportDoc{RunID: uuid.NewString(), ApifyActor: extractorActor}
	if s.actors == nil || s.docs == nil {
		return rep, errors.New("extract: actors and docs are required")
	}
	if opts.Location == "" {
		opts.Location = "Goiânia, GO, Brasil"
	}
	if opts.Language == "" {
		opts.Language = "pt-BR"
	}
	if opts.MaxPerQuery <= 0 {
		opts.MaxPerQuery = 120
	}
	if len(opts.Categories) == 0 {
		opts.Categories = shared.ExtractorCategories
	}
	rep.Input = map[string]any{
		"categoryFilterWords":       opts.Categories,
		"deeperCityScrape":          false,
		"language":                  opts.Language,
		"locationQuery":             opts.Location,
		"maxCrawledPlacesPerSearch": opts.MaxPerQuery,
		"skipClosedPlaces":          true,
		"searchMatching":            "all",
		"placeMinimumStars":         opts.MinStars,
	}
	logger := log.With().Str("run_id", rep.RunID).Logger()

	doc, ix, err := s.loadIndex(ctx)
	if err != nil {
		return rep, err
	}
	logger.Info().Int("places", ix.Len()).Str("location", opts.Location).Strs("categories", opts.Categories).Msg("extract start")

	items, err := s.actors.RunSync(ctx, extractorActor, rep.Input)
	if err != nil {
		return rep, err
	}
	rep.Items = len(items)

	engine := merge.New(
		merge.WithAlwaysUpdate(),
		merge.WithStrategy("name", merge.Refresh),
		merge.WithStrategy("description", merge.Keep),
	)
	for _, item := range items {
		if lookupStr(item, "placeId") == "" {
			s.rec.Ingest(string(ProviderExtractor), "drop")
			continue
		}
		p, ok := s.norm.Normalize(ProviderExtractor, item, Hint{})
		if !ok {
			s.rec.Ingest(string(ProviderExtractor), "drop")
			continue
		}
		p.ApifyEnrichedAt = s.stamp()

		existing, found := ix.Get(p.ID, p.SourceID)
		if !found {
			if !opts.AddNew {
				s.rec.Ingest(string(ProviderExtractor), "keep")
				continue
			}
			ix.Put(p)
			rep.Added++
			s.rec.Ingest(string(ProviderExtractor), "insert")
			continue
		}
		rep.Matched++
		merged, _ := ix.Upsert(engine, p)
		if contactChanged(existing, merged) {
			rep.Updated++
			s.rec.Ingest(string(ProviderExtractor), "update")
		} else {
			s.rec.Ingest(string(ProviderExtractor), "keep")
		}
	}

	rep.TotalPlaces = ix.Len()
	rep.UpdatedAt = s.now().UTC()
	if doc.Source == "" {
		doc.Source = "Google Maps"
	}
	if err := s.publish(ctx, doc, ix, ProviderExtractor.Source()); err != nil {
		return rep, err
	}
	if err := s.docs.WriteReport(ctx, ExtractReport, rep); err != nil {
		logger.Warn().Err(err).Msg("write extract report")
	}
	logger.Info().Int("items", rep.Items).Int("matched", rep.Matched).Int("updated", rep.Updated).
		Int("added", rep.Added).Int("total", rep.TotalPlaces).Msg("extract done")
	return rep, nil
}

// contactChanged compares the fields the extractor is trusted for.
func contactChanged(a, b domain.Place) bool {
	return a.Phone != b.Phone || a.Website != b.Website || !slices.Equal(a.Hours, b.Hours) ||
		a.Rating != b.Rating || a.ReviewCount != b.ReviewCount
}
