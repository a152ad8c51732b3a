package app

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"castro_guide/internal/shared"
)

const (
	maxSearchPages = 3
	// a fresh next_page_token is rejected until Google activates it
	pageTokenDelay = 2200 * time.Millisecond
)

type ExpandOptions struct {
	Queries     []shared.SearchQuery
	Target      int
	MaxPerQuery int
	Sleep       time.Duration
	PhotoWidth  int
}

type ExpandResult struct {
	Added   int
	Skipped int
	Failed  int
	Total   int
}

// Expand grows the document with Google text-search results until Target
// places are known. Existing places are never touched.
func (s *IngestionService) Expand(ctx context.Context, opts ExpandOptions) (ExpandResult, error) {
	var res ExpandResult
	if s.places == nil || s.docs == nil {
		return res, errors.New("expand: places api and docs are required")
	}
	if opts.Target <= 0 {
		opts.Target = 500
	}
	if opts.MaxPerQuery <= 0 {
		opts.MaxPerQuery = 60
	}
	if opts.PhotoWidth <= 0 {
		opts.PhotoWidth = 1000
	}

	doc, ix, err := s.loadIndex(ctx)
	if err != nil {
		return res, err
	}
	if doc.Source == "" {
		doc.Source = ProviderGoogle.Source()
	}

queries:
	for _, q := range opts.Queries {
		if ix.Len() >= opts.Target {
			break
		}
		added, token := 0, ""
		for page := 0; page < maxSearchPages; page++ {
			if page > 0 {
				if token == "" {
					break
				}
				if err := sleepCtx(ctx, pageTokenDelay); err != nil {
					return res, err
				}
			}
			resp, err := s.places.TextSearch(ctx, q.Query, token)
			if err != nil {
				if ctx.Err() != nil {
					return res, ctx.Err()
				}
				res.Failed++
				s.rec.Ingest(string(ProviderGoogle), "fail")
				log.Warn().Err(err).Str("query", q.Query).Int("page", page).Msg("text search failed")
				break
			}
			results, _ := resp["results"].([]any)
			for _, r := range results {
				raw, ok := r.(map[string]any)
				if !ok {
					continue
				}
				if id := lookupStr(raw, "place_id"); id == "" || ix.Has(id) {
					res.Skipped++
					continue
				}
				p, ok := s.norm.Normalize(ProviderGoogle, raw, Hint{Query: q.Query, Category: q.Category})
				if !ok {
					s.rec.Ingest(string(ProviderGoogle), "drop")
					continue
				}
				if refs := photoRefs(raw, 1); len(refs) > 0 {
					if u, err := s.places.PhotoURL(ctx, refs[0], opts.PhotoWidth); err == nil && u != "" {
						p.Image = u
					} else if err != nil {
						log.Debug().Err(err).Str("id", p.ID).Msg("photo lookup failed")
					}
				}
				p.DiscoveredAt = s.stamp()
				ix.Put(p)
				s.rec.Ingest(string(ProviderGoogle), "insert")
				res.Added++
				added++
				if added >= opts.MaxPerQuery || ix.Len() >= opts.Target {
					continue queries
				}
			}
			token = lookupStr(resp, "next_page_token")
		}
		log.Info().Str("query", q.Query).Int("added", added).Int("total", ix.Len()).Msg("expand query done")
		if err := sleepCtx(ctx, opts.Sleep); err != nil {
			return res, err
		}
	}

	res.Total = ix.Len()
	if res.Added == 0 {
		return res, nil
	}
	return res, s.publish(ctx, doc, ix, ProviderGoogle.Source())
}

func photoRefs(raw map[string]any, limit int) []string {
	return pluck(raw, "photos", "photo_reference", limit)
}
