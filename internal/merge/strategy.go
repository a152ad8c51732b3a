package merge

import (
	"strings"
	"time"

	"castro_guide/internal/domain"
)

// Strategy decides how one field of an existing place absorbs the incoming value.
// Empty incoming values never overwrite anything, whatever the strategy.
type Strategy int

const (
	// Keep never touches the field.
	Keep Strategy = iota
	// FillIfMissing writes only when the existing value is empty.
	FillIfMissing
	// Refresh overwrites with any non-empty incoming value.
	Refresh
	// Union appends unseen list elements (list fields only; scalars refresh).
	Union
)

func (s Strategy) String() string {
	switch s {
	case Keep:
		return "keep"
	case FillIfMissing:
		return "fill_if_missing"
	case Refresh:
		return "refresh"
	case Union:
		return "union"
	}
	return "unknown"
}

type fieldRule struct {
	Name     string
	Strategy Strategy
	apply    func(dst, src *domain.Place, s Strategy)
}

func scalar[T any](name string, s Strategy, get func(*domain.Place) *T, empty func(T) bool) fieldRule {
	return fieldRule{Name: name, Strategy: s, apply: func(dst, src *domain.Place, s Strategy) {
		d, v := get(dst), get(src)
		if empty(*v) {
			return
		}
		switch s {
		case FillIfMissing:
			if empty(*d) {
				*d = *v
			}
		case Refresh, Union:
			*d = *v
		}
	}}
}

// latest keeps the newer of two timestamps whatever the strategy says, so an
// observation time never moves backwards.
func latest(name string, get func(*domain.Place) **time.Time) fieldRule {
	return fieldRule{Name: name, Strategy: Refresh, apply: func(dst, src *domain.Place, _ Strategy) {
		d, v := get(dst), get(src)
		if *v != nil && (*d == nil || (*v).After(**d)) {
			*d = *v
		}
	}}
}

func list(name string, s Strategy, limit int, get func(*domain.Place) *[]string) fieldRule {
	return fieldRule{Name: name, Strategy: s, apply: func(dst, src *domain.Place, s Strategy) {
		d, v := get(dst), get(src)
		if len(*v) == 0 {
			return
		}
		switch s {
		case FillIfMissing:
			if len(*d) == 0 {
				*d = capped(append([]string(nil), *v...), limit)
			}
		case Refresh:
			*d = capped(append([]string(nil), *v...), limit)
		case Union:
			*d = UnionStrings(limit, *d, *v)
		}
	}}
}

// defaultRules is the field merge table. Fields absent from it are read-time
// only (hotelScore, hotelRecommended) and never merged.
func defaultRules() []fieldRule {
	return []fieldRule{
		scalar("id", Keep, func(p *domain.Place) *string { return &p.ID }, emptyText),
		scalar("sourceId", FillIfMissing, func(p *domain.Place) *string { return &p.SourceID }, emptyText),
		scalar("name", FillIfMissing, func(p *domain.Place) *string { return &p.Name }, missingText),
		scalar("category", FillIfMissing, func(p *domain.Place) *domain.Category { return &p.Category }, func(c domain.Category) bool { return !c.Valid() }),
		list("subcategories", FillIfMissing, domain.MaxSubcategories, func(p *domain.Place) *[]string { return &p.Subcategories }),
		scalar("rating", Refresh, func(p *domain.Place) *float64 { return &p.Rating }, zero[float64]),
		scalar("reviewCount", Refresh, func(p *domain.Place) *int64 { return &p.ReviewCount }, zero[int64]),
		scalar("priceLevel", FillIfMissing, func(p *domain.Place) *int { return &p.PriceLevel }, zero[int]),
		scalar("priceText", FillIfMissing, func(p *domain.Place) *string { return &p.PriceText }, missingText),
		scalar("description", FillIfMissing, func(p *domain.Place) *string { return &p.Description }, missingText),
		scalar("image", FillIfMissing, func(p *domain.Place) *string { return &p.Image }, missingText),
		scalar("address", FillIfMissing, func(p *domain.Place) *string { return &p.Address }, missingText),
		scalar("latitude", FillIfMissing, func(p *domain.Place) **float64 { return &p.Latitude }, isNil[float64]),
		scalar("longitude", FillIfMissing, func(p *domain.Place) **float64 { return &p.Longitude }, isNil[float64]),
		scalar("distanceKm", FillIfMissing, func(p *domain.Place) **float64 { return &p.DistanceKm }, isNil[float64]),
		scalar("phone", FillIfMissing, func(p *domain.Place) *string { return &p.Phone }, missingText),
		scalar("email", FillIfMissing, func(p *domain.Place) *string { return &p.Email }, missingText),
		scalar("website", FillIfMissing, func(p *domain.Place) *string { return &p.Website }, missingText),
		list("hours", FillIfMissing, 0, func(p *domain.Place) *[]string { return &p.Hours }),
		list("tags", FillIfMissing, domain.MaxTags, func(p *domain.Place) *[]string { return &p.Tags }),
		scalar("sourceUrl", FillIfMissing, func(p *domain.Place) *string { return &p.SourceURL }, missingText),
		scalar("openStatusCategory", FillIfMissing, func(p *domain.Place) *string { return &p.OpenStatusCategory }, missingText),
		scalar("openStatusText", FillIfMissing, func(p *domain.Place) *string { return &p.OpenStatusText }, missingText),
		scalar("menuUrl", FillIfMissing, func(p *domain.Place) *string { return &p.MenuURL }, missingText),
		list("categories", FillIfMissing, 0, func(p *domain.Place) *[]string { return &p.Categories }),
		list("gallery", FillIfMissing, 0, func(p *domain.Place) *[]string { return &p.Gallery }),
		list("highlights", FillIfMissing, 0, func(p *domain.Place) *[]string { return &p.Highlights }),
		scalar("notes", FillIfMissing, func(p *domain.Place) *string { return &p.Notes }, missingText),
		list("originQueries", Union, 0, func(p *domain.Place) *[]string { return &p.OriginQueries }),
		latest("_observedAt", func(p *domain.Place) **time.Time { return &p.ObservedAt }),
		scalar("updatedAt", Refresh, func(p *domain.Place) **time.Time { return &p.UpdatedAt }, isNil[time.Time]),
		scalar("_enrichedAt", Refresh, func(p *domain.Place) **time.Time { return &p.EnrichedAt }, isNil[time.Time]),
		scalar("_apifyEnrichedAt", Refresh, func(p *domain.Place) **time.Time { return &p.ApifyEnrichedAt }, isNil[time.Time]),
		scalar("_discoveredAt", FillIfMissing, func(p *domain.Place) **time.Time { return &p.DiscoveredAt }, isNil[time.Time]),
	}
}

func zero[T comparable](v T) bool {
	var z T
	return v == z
}

func isNil[T any](p *T) bool { return p == nil }

func emptyText(s string) bool { return strings.TrimSpace(s) == "" }

// missingText treats placeholders written by older runs as absent.
func missingText(s string) bool {
	switch strings.TrimSpace(s) {
	case "", domain.PlaceholderDescription, domain.PlaceholderAddress, domain.PlaceholderName:
		return true
	}
	return false
}

// MissingText reports whether a text field is empty or a placeholder.
func MissingText(s string) bool { return missingText(s) }

// UnionStrings merges lists preserving first-seen order, skipping blanks and
// duplicates; limit <= 0 means no cap.
func UnionStrings(limit int, lists ...[]string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, l := range lists {
		for _, s := range l {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
			if limit > 0 && len(out) == limit {
				return out
			}
		}
	}
	return out
}

func capped(l []string, limit int) []string {
	if limit > 0 && len(l) > limit {
		return l[:limit]
	}
	return l
}
