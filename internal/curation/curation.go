// Package curation applies the read-time editorial layer: scores, manual
// overrides, fallback descriptions and the recommended set.
package curation

import (
	"math"
	"sort"
	"strings"

	"castro_guide/internal/domain"
	"castro_guide/internal/geo"
)

const (
	defaultCity          = "Goiânia"
	defaultHotel         = "Castro's Park Hotel"
	defaultMinRating     = 4.2
	defaultAutoLimit     = 30
	defaultMissingDistKm = 8
	maxDistancePenaltyKm = 20
)

type Options struct {
	City      string
	HotelName string
	// MinRating and AutoLimit drive the automatic recommended set.
	MinRating float64
	AutoLimit int
	// MissingDistanceKm is assumed for places without coordinates.
	MissingDistanceKm float64
}

type Option func(*Options)

func WithCity(city string) Option {
	return func(o *Options) {
		if strings.TrimSpace(city) != "" {
			o.City = city
		}
	}
}

func WithHotelName(name string) Option {
	return func(o *Options) {
		if strings.TrimSpace(name) != "" {
			o.HotelName = name
		}
	}
}

func WithAutoRecommend(minRating float64, limit int) Option {
	return func(o *Options) {
		if minRating > 0 {
			o.MinRating = minRating
		}
		if limit > 0 {
			o.AutoLimit = limit
		}
	}
}

func NewOptions(opts ...Option) Options {
	o := Options{
		City:              defaultCity,
		HotelName:         defaultHotel,
		MinRating:         defaultMinRating,
		AutoLimit:         defaultAutoLimit,
		MissingDistanceKm: defaultMissingDistKm,
	}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// Score ranks a place for hotel guests: rating dominates, review volume adds
// on a log scale and distance costs up to 20 km.
func Score(p domain.Place, o Options) float64 {
	rating := math.Max(0, finiteOr(p.Rating, 0))
	reviews := math.Max(0, float64(p.ReviewCount))
	dist := o.MissingDistanceKm
	if p.DistanceKm != nil && !math.IsNaN(*p.DistanceKm) && !math.IsInf(*p.DistanceKm, 0) {
		dist = *p.DistanceKm
	}
	s := rating*25 + math.Log10(reviews+1)*20 - math.Min(dist, maxDistancePenaltyKm)*1.5
	return geo.Round2(s)
}

// FallbackDescription is the sentence shown when neither the curation nor the
// provider supplied a description.
func FallbackDescription(c domain.Category, o Options) string {
	switch c {
	case domain.Restaurants:
		return "Restaurante bem avaliado em " + o.City + ", ótimo para almoço e jantar com fácil acesso saindo do " + o.HotelName + "."
	case domain.Nightlife:
		return "Bar e vida noturna em " + o.City + ", ideal para curtir a noite com boa localização para hóspedes do hotel."
	case domain.Cafes:
		return "Café especial e ambiente agradável em " + o.City + ", uma ótima parada para pausa durante o dia."
	case domain.Nature:
		return "Opção de lazer ao ar livre em " + o.City + ", recomendada para caminhar e aproveitar a cidade."
	case domain.Culture:
		return "Ponto cultural em " + o.City + " para conhecer melhor a cena local e enriquecer seu roteiro."
	case domain.Shopping:
		return "Opção de compras em " + o.City + " com boa estrutura para passeios rápidos ou mais completos."
	}
	return "Lugar recomendado para conhecer " + o.City + " durante sua estadia no " + o.HotelName + "."
}

// Apply returns curated copies of places. The input slice and its elements
// are left untouched.
func Apply(places []domain.Place, cur domain.Curation, o Options) []domain.Place {
	out := make([]domain.Place, len(places))
	for i, p := range places {
		out[i] = curate(p, cur, o)
	}

	set := recommended(out, cur, o)
	for i := range out {
		_, byID := set[out[i].ID]
		_, bySource := set[out[i].SourceID]
		out[i].HotelRecommended = byID || (out[i].SourceID != "" && bySource)
	}
	return out
}

func curate(p domain.Place, cur domain.Curation, o Options) domain.Place {
	ov, _ := cur.Lookup(p)
	next := p
	next.Tags = cloneStrings(p.Tags)
	next.Highlights = cloneStrings(p.Highlights)

	if ov.Name != "" {
		next.Name = ov.Name
	}
	desc := strings.TrimSpace(ov.Description)
	if desc == "" {
		desc = strings.TrimSpace(p.Description)
	}
	if desc == "" || desc == domain.PlaceholderDescription {
		desc = FallbackDescription(p.Category, o)
	}
	next.Description = desc
	if len(ov.Tags) > 0 {
		next.Tags = cloneStrings(ov.Tags)
	}
	if len(ov.Highlights) > 0 {
		next.Highlights = cloneStrings(ov.Highlights)
	}
	if ov.Notes != "" {
		next.Notes = ov.Notes
	}
	score := Score(p, o) + ov.Priority
	next.HotelScore = &score
	next.HotelRecommended = false
	return next
}

func recommended(places []domain.Place, cur domain.Curation, o Options) map[string]struct{} {
	set := map[string]struct{}{}
	for _, id := range cur.RecommendedIDs {
		if id = strings.TrimSpace(id); id != "" {
			set[id] = struct{}{}
		}
	}
	if len(set) > 0 {
		return set
	}

	var pool []domain.Place
	for _, p := range places {
		if p.Rating >= o.MinRating {
			pool = append(pool, p)
		}
	}
	sort.SliceStable(pool, func(i, j int) bool {
		si, sj := scoreOf(pool[i]), scoreOf(pool[j])
		if si != sj {
			return si > sj
		}
		return pool[i].ID < pool[j].ID
	})
	if len(pool) > o.AutoLimit {
		pool = pool[:o.AutoLimit]
	}
	for _, p := range pool {
		set[p.ID] = struct{}{}
	}
	return set
}

func scoreOf(p domain.Place) float64 {
	if p.HotelScore == nil {
		return 0
	}
	return *p.HotelScore
}

func finiteOr(v, def float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}
	return v
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}
