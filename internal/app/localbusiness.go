package app

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"castro_guide/internal/domain"
	"castro_guide/internal/merge"
)

const (
	businessLimit      = 150
	businessLimitLight = 20
)

type LocalBusinessResult struct {
	Fetched  int
	Unique   int
	Inserted int
	Updated  int
	Kept     int
	Failed   int
}

// LocalBusiness searches every term, dedupes the batch keeping the best rated
// record per identity and merges the batch into the published document.
func (s *IngestionService) LocalBusiness(ctx context.Context, terms []string) (LocalBusinessResult, error) {
	var res LocalBusinessResult
	if s.business == nil || s.docs == nil {
		return res, errors.New("localbusiness: searcher and docs are required")
	}

	var batch []domain.Place
	byKey := map[string]int{}
	for _, term := range terms {
		items, err := s.business.Search(ctx, term, pickLimit(term))
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			res.Failed++
			s.rec.Ingest(string(ProviderLocalBusiness), "fail")
			log.Error().Err(err).Str("term", term).Msg("local business search failed")
			continue
		}
		log.Info().Str("term", term).Int("items", len(items)).Msg("local business search done")
		for _, item := range items {
			res.Fetched++
			p, ok := s.norm.Normalize(ProviderLocalBusiness, item, Hint{Query: term})
			if !ok {
				s.rec.Ingest(string(ProviderLocalBusiness), "drop")
				continue
			}
			if i, seen := byKey[p.ID]; seen {
				if p.Rating > batch[i].Rating {
					batch[i] = p
				}
				continue
			}
			byKey[p.ID] = len(batch)
			batch = append(batch, p)
		}
	}
	res.Unique = len(batch)

	doc, ix, err := s.loadIndex(ctx)
	if err != nil {
		return res, err
	}
	engine := merge.New()
	for _, p := range batch {
		_, d := ix.Upsert(engine, p)
		s.rec.Ingest(string(ProviderLocalBusiness), d.String())
		switch d {
		case merge.Inserted:
			res.Inserted++
		case merge.Updated:
			res.Updated++
		default:
			res.Kept++
		}
	}
	if res.Inserted+res.Updated == 0 {
		return res, nil
	}
	return res, s.publish(ctx, doc, ix, ProviderLocalBusiness.Source())
}

// pickLimit keeps searches for parks, museums and malls small; they mostly
// return the same few places.
func pickLimit(term string) int {
	lower := strings.ToLower(term)
	for _, w := range []string{"parque", "park", "museu", "museo", "shopping"} {
		if strings.Contains(lower, w) {
			return businessLimitLight
		}
	}
	return businessLimit
}
