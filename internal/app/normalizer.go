package app

import (
	"fmt"
	"html"
	"net/url"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog/log"

	"castro_guide/internal/classify"
	"castro_guide/internal/curation"
	"castro_guide/internal/domain"
	"castro_guide/internal/geo"
	"castro_guide/internal/merge"
)

// Hint is what the caller knows about the query that produced a record.
type Hint struct {
	Query    string
	Category domain.Category
}

// Normalizer turns raw provider records into domain.Place values.
type Normalizer struct {
	ref    geo.Point
	cur    curation.Options
	policy *bluemonday.Policy
	now    func() time.Time
}

func NewNormalizer(ref geo.Point, opts curation.Options) *Normalizer {
	return &Normalizer{ref: ref, cur: opts, policy: bluemonday.StrictPolicy(), now: time.Now}
}

// WithClock fixes the timestamp stamped on normalized records.
func (n *Normalizer) WithClock(now func() time.Time) *Normalizer {
	n.now = now
	return n
}

// Normalize maps one raw record. ok is false for records with neither a name
// nor any usable identity.
func (n *Normalizer) Normalize(provider Provider, raw map[string]any, hint Hint) (domain.Place, bool) {
	prof, found := profiles[provider]
	if !found || raw == nil {
		return domain.Place{}, false
	}
	a := prof.aliases

	name := deref(firstNonEmptyAlias(raw, a, "name"))
	lat := getFloatFlexible(raw, a["lat"]...)
	lng := getFloatFlexible(raw, a["lng"]...)
	if lat == nil || lng == nil {
		lat, lng = nil, nil
	}

	identity := deref(firstNonEmptyAlias(raw, a, "id"))
	if identity == "" {
		identity = deref(firstNonEmptyAlias(raw, a, "url"))
	}
	if identity == "" {
		identity = name
	}
	if identity == "" && lat != nil {
		identity = fmt.Sprintf("%g,%g", *lat, *lng)
	}
	if identity == "" && name == "" {
		return domain.Place{}, false
	}
	if name == "" {
		name = domain.PlaceholderName
	}

	now := n.now().UTC()
	p := domain.Place{
		ID:         url.PathEscape(identity),
		SourceID:   identity,
		Name:       name,
		Address:    deref(firstNonEmptyAlias(raw, a, "address")),
		Latitude:   lat,
		Longitude:  lng,
		DistanceKm: geo.FromReference(n.ref, lat, lng),
		Phone:      deref(firstNonEmptyAlias(raw, a, "phone")),
		Website:    deref(firstNonEmptyAlias(raw, a, "website")),
		SourceURL:  deref(firstNonEmptyAlias(raw, a, "sourceUrl")),
		MenuURL:    deref(firstNonEmptyAlias(raw, a, "menu")),
		Hours:      hoursFrom(raw, a["hours"]...),
		Categories: collectStrings(raw, 0, a["categories"]...),
		UpdatedAt:  &now,
		ObservedAt: observedAt(raw, a["observedAt"]...),
	}

	if f := getFloatFlexible(raw, a["rating"]...); f != nil {
		p.Rating = min(max(*f, 0), 5)
	}
	if c := firstInt64Flexible(raw, a["reviews"]...); c != nil && *c > 0 {
		p.ReviewCount = *c
	}
	for _, path := range a["price"] {
		if v := lookupAny(raw, path); v != nil {
			if p.PriceLevel = ParsePriceLevel(v); p.PriceLevel > 0 {
				break
			}
		}
	}
	p.PriceText = priceTextFrom(raw, a["priceText"], p.PriceLevel)

	if emails := firstSliceStrings(raw, a["email"]...); len(emails) > 0 {
		p.Email = emails[0]
	}

	p.Gallery = collectStrings(raw, prof.galleryCap, a["gallery"]...)
	p.Image = deref(firstNonEmptyAlias(raw, a, "image"))
	if p.Image == "" && len(p.Gallery) > 0 {
		p.Image = p.Gallery[0]
	}

	p.OpenStatusText = deref(firstNonEmptyAlias(raw, a, "openStatus"))
	if p.OpenStatusText == "" {
		if open := lookupBool(raw, a["openNow"]...); open != nil {
			p.OpenStatusText = openText(*open)
		} else if len(p.Hours) > 0 && prof.hintFirst {
			p.OpenStatusText = "Ver horários"
		}
	}
	p.OpenStatusCategory = deref(firstNonEmptyAlias(raw, a, "openCategory"))
	if p.OpenStatusCategory == "" {
		p.OpenStatusCategory = p.OpenStatusText
	}

	p.Category = n.category(prof, raw, hint)

	if prof.tags != nil {
		p.Tags = prof.tags(raw, hint, prof.tagCap)
	} else {
		p.Tags = collectStrings(raw, prof.tagCap, a["tags"]...)
	}
	if hint.Query != "" {
		p.OriginQueries = []string{hint.Query}
		if prof.queryTags {
			p.Tags = merge.UnionStrings(prof.tagCap, p.Tags, []string{hint.Query})
			p.Categories = merge.UnionStrings(0, p.Categories, []string{hint.Query})
		}
	}

	p.Description = n.describe(deref(firstNonEmptyAlias(raw, a, "description")), p)

	if p.SourceURL == "" && provider != ProviderTripAdvisor && provider != ProviderLocalBusiness {
		if id := deref(firstNonEmptyAlias(raw, a, "id")); id != "" {
			p.SourceURL = geo.PlaceIDSearchURL(name, id, n.cur.City)
		}
	}

	if prof.finish != nil {
		prof.finish(&p, raw)
	}
	p.Subcategories = classify.DeriveSubcategories(p)
	return p, true
}

func (n *Normalizer) category(prof profile, raw map[string]any, hint Hint) domain.Category {
	if prof.hintFirst && hint.Category.Valid() {
		return hint.Category
	}
	fallback := hint.Category
	if !fallback.Valid() {
		if c, ok := classify.OriginQuery.Match(hint.Query); ok {
			fallback = c
		}
	}
	cat, by := prof.category(raw, hint).Decide(fallback)
	log.Debug().Str("query", hint.Query).Str("category", string(cat)).Str("by", by).Msg("classified")
	return cat
}

// describe strips markup from provider text and falls back to a sentence
// built from the first two tags, else the category sentence.
func (n *Normalizer) describe(text string, p domain.Place) string {
	text = strings.Join(strings.Fields(html.UnescapeString(n.policy.Sanitize(text))), " ")
	if text != "" && text != domain.PlaceholderDescription {
		return text
	}
	return n.Fallback(p)
}

// Fallback is the deterministic description used when a provider sends none.
func (n *Normalizer) Fallback(p domain.Place) string {
	var top []string
	for _, t := range p.Tags {
		if len(top) == 2 {
			break
		}
		if t = strings.TrimSpace(t); t != "" && !strings.EqualFold(t, n.cur.City) {
			top = append(top, t)
		}
	}
	if len(top) > 0 {
		return strings.Join(top, ", ") + " em " + n.cur.City
	}
	return curation.FallbackDescription(p.Category, n.cur)
}

// Distance recomputes distanceKm from the configured reference point.
func (n *Normalizer) Distance(lat, lng *float64) *float64 { return geo.FromReference(n.ref, lat, lng) }

func priceTextFrom(raw map[string]any, paths []string, level int) string {
	for _, path := range paths {
		s := lookupText(raw, path)
		if s == "" {
			continue
		}
		// named levels read better as "$$"
		if _, named := priceLevelNames[strings.TrimPrefix(strings.ToUpper(s), "PRICE_LEVEL_")]; named {
			break
		}
		if strings.ContainsAny(s, "$€£") || strings.ContainsRune(s, '-') {
			return s
		}
	}
	return PriceText(level)
}

// observedAt reads the provider collection time (RFC 3339). Future times are
// clock skew and ignored.
func observedAt(raw map[string]any, paths ...string) *time.Time {
	for _, path := range paths {
		v := lookupStr(raw, path)
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil || t.After(time.Now().Add(time.Hour)) {
			continue
		}
		t = t.UTC()
		return &t
	}
	return nil
}

func openText(open bool) string {
	if open {
		return "Aberto agora"
	}
	return "Fechado agora"
}

// normalizeName folds a name for cross-provider matching: no case, no
// accents, no punctuation.
func normalizeName(name string) string {
	f := classify.Fold(name)
	var b strings.Builder
	for _, r := range f {
		if r == '_' || r == ' ' || ('a' <= r && r <= 'z') || ('0' <= r && r <= '9') {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
