package app

import (
	"cmp"
	"slices"
	"strings"

	"castro_guide/internal/classify"
	"castro_guide/internal/domain"
)

// missingDistance sorts places without coordinates last.
const missingDistance = 999.0

// Filter applies q to places and returns a new, sorted slice. Paging is left
// to the caller.
func Filter(places []domain.Place, q domain.PlacesQuery) []domain.Place {
	needle := classify.Fold(strings.TrimSpace(q.Q))
	out := make([]domain.Place, 0, len(places))
	for _, p := range places {
		if q.Category != "" && p.Category != q.Category {
			continue
		}
		if needle != "" && !strings.Contains(searchText(p), needle) {
			continue
		}
		if q.OpenNow && !strings.Contains(strings.ToLower(p.OpenStatusText), "aberto") {
			continue
		}
		if q.MaxDistanceKm != nil && (p.DistanceKm == nil || *p.DistanceKm > *q.MaxDistanceKm) {
			continue
		}
		if q.MaxPriceLevel != nil && (p.PriceLevel <= 0 || p.PriceLevel > *q.MaxPriceLevel) {
			continue
		}
		if q.MinRating != nil && p.Rating < *q.MinRating {
			continue
		}
		if q.Recommended && !p.HotelRecommended {
			continue
		}
		out = append(out, p)
	}
	slices.SortStableFunc(out, comparator(q.Sort))
	return out
}

func searchText(p domain.Place) string {
	parts := append([]string{p.Name, p.Address, p.Description}, p.Tags...)
	return classify.FoldJoin(parts...)
}

func comparator(mode domain.SortMode) func(a, b domain.Place) int {
	switch mode {
	case domain.SortDistance:
		return func(a, b domain.Place) int { return cmp.Compare(distanceOf(a), distanceOf(b)) }
	case domain.SortRating:
		return func(a, b domain.Place) int { return cmp.Compare(b.Rating, a.Rating) }
	case domain.SortReviews:
		return func(a, b domain.Place) int { return cmp.Compare(b.ReviewCount, a.ReviewCount) }
	case domain.SortScore:
		return func(a, b domain.Place) int { return cmp.Compare(hotelScore(b), hotelScore(a)) }
	}
	return byBest
}

// byBest: rating, then review count, then proximity.
func byBest(a, b domain.Place) int {
	return cmp.Or(
		cmp.Compare(b.Rating, a.Rating),
		cmp.Compare(b.ReviewCount, a.ReviewCount),
		cmp.Compare(distanceOf(a), distanceOf(b)),
	)
}

func distanceOf(p domain.Place) float64 {
	if p.DistanceKm == nil {
		return missingDistance
	}
	return *p.DistanceKm
}

func hotelScore(p domain.Place) float64 {
	if p.HotelScore == nil {
		return 0
	}
	return *p.HotelScore
}
