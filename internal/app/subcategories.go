package app

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"castro_guide/internal/classify"
	"castro_guide/internal/merge"
)

type SubcategoriesResult struct {
	Total   int
	Changed int
}

// Subcategories derives labels for places that have none. The document is
// rewritten only when something changed.
func (s *IngestionService) Subcategories(ctx context.Context) (SubcategoriesResult, error) {
	var res SubcategoriesResult
	if s.docs == nil {
		return res, errors.New("subcategories: docs are required")
	}
	doc, ix, err := s.loadIndex(ctx)
	if err != nil {
		return res, err
	}
	places := ix.Places()
	res.Total = len(places)
	for i, p := range places {
		if len(p.Subcategories) > 0 {
			continue
		}
		if subs := classify.DeriveSubcategories(p); len(subs) > 0 {
			places[i].Subcategories = subs
			res.Changed++
		}
	}
	log.Info().Int("total", res.Total).Int("changed", res.Changed).Msg("subcategories derived")
	if res.Changed == 0 {
		return res, nil
	}
	return res, s.publish(ctx, doc, merge.NewIndex(places), doc.Source)
}
