package domain

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("not found")

type Category string

const (
	Restaurants Category = "restaurants"
	Cafes       Category = "cafes"
	Nightlife   Category = "nightlife"
	Nature      Category = "nature"
	Culture     Category = "culture"
	Shopping    Category = "shopping"
	Attractions Category = "attractions"
)

// Categories lists the closed category set in display order.
var Categories = []Category{Restaurants, Cafes, Nightlife, Nature, Culture, Shopping, Attractions}

func (c Category) Valid() bool {
	for _, k := range Categories {
		if c == k {
			return true
		}
	}
	return false
}

const (
	MaxTags          = 8
	MaxSubcategories = 3

	// Placeholders written by older ingestion runs; merge treats them as missing.
	PlaceholderDescription = "Descrição não disponível"
	PlaceholderAddress     = "Endereço não informado"
	PlaceholderName        = "Lugar sem nome"
)

type Place struct {
	ID                 string     `json:"id"`
	SourceID           string     `json:"sourceId,omitempty"`
	Name               string     `json:"name"`
	Category           Category   `json:"category"`
	Subcategories      []string   `json:"subcategories,omitempty"`
	Rating             float64    `json:"rating"`
	ReviewCount        int64      `json:"reviewCount"`
	PriceLevel         int        `json:"priceLevel"`
	PriceText          string     `json:"priceText,omitempty"`
	Description        string     `json:"description"`
	Image              string     `json:"image,omitempty"`
	Address            string     `json:"address"`
	Latitude           *float64   `json:"latitude,omitempty"`
	Longitude          *float64   `json:"longitude,omitempty"`
	DistanceKm         *float64   `json:"distanceKm,omitempty"`
	Phone              string     `json:"phone,omitempty"`
	Email              string     `json:"email,omitempty"`
	Website            string     `json:"website,omitempty"`
	Hours              []string   `json:"hours"`
	Tags               []string   `json:"tags"`
	SourceURL          string     `json:"sourceUrl,omitempty"`
	OpenStatusCategory string     `json:"openStatusCategory,omitempty"`
	OpenStatusText     string     `json:"openStatusText,omitempty"`
	MenuURL            string     `json:"menuUrl,omitempty"`
	Categories         []string   `json:"categories,omitempty"`
	Gallery            []string   `json:"gallery,omitempty"`
	Highlights         []string   `json:"highlights,omitempty"`
	Notes              string     `json:"notes,omitempty"`
	OriginQueries      []string   `json:"originQueries,omitempty"`
	HotelScore         *float64   `json:"hotelScore,omitempty"`
	HotelRecommended   bool       `json:"hotelRecommended,omitempty"`
	UpdatedAt          *time.Time `json:"updatedAt,omitempty"`
	// ObservedAt is when the provider collected the record (crawler scrapedAt),
	// nil when the provider does not say.
	ObservedAt         *time.Time `json:"_observedAt,omitempty"`
	EnrichedAt         *time.Time `json:"_enrichedAt,omitempty"`
	ApifyEnrichedAt    *time.Time `json:"_apifyEnrichedAt,omitempty"`
	DiscoveredAt       *time.Time `json:"_discoveredAt,omitempty"`
}

// Key returns the identity used for secondary lookups: sourceId when set, else id.
func (p Place) Key() string {
	if p.SourceID != "" {
		return p.SourceID
	}
	return p.ID
}

// HasCoords reports whether both coordinates are present.
func (p Place) HasCoords() bool { return p.Latitude != nil && p.Longitude != nil }

// Document is the persisted places.json shape.
type Document struct {
	UpdatedAt   time.Time    `json:"updatedAt"`
	Source      string       `json:"source"`
	Location    *DocLocation `json:"location,omitempty"`
	TotalPlaces int          `json:"totalPlaces,omitempty"`
	Places      []Place      `json:"places"`
}

type DocLocation struct {
	Query string `json:"query"`
}

// CategoryStat is a per-category aggregate of the staging store.
type CategoryStat struct {
	Category  Category `json:"category" db:"category"`
	Count     int      `json:"count" db:"count"`
	AvgRating float64  `json:"avgRating" db:"avg_rating"`
}

// PageMeta is what a listing page contributes to a place.
type PageMeta struct {
	Title       string
	Description string
	Images      []string
}
