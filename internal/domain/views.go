package domain

import "time"

// Catalog is the curated document served by the API and cached as a whole.
type Catalog struct {
	UpdatedAt time.Time `json:"updatedAt"`
	Source    string    `json:"source"`
	Places    []Place   `json:"places"`
}

// PlaceView is a single place with its Google Maps links.
type PlaceView struct {
	Place
	MapsURL       string `json:"mapsUrl"`
	DirectionsURL string `json:"directionsUrl"`
}

type SortMode string

const (
	SortBest     SortMode = "best"
	SortDistance SortMode = "distance"
	SortRating   SortMode = "rating"
	SortReviews  SortMode = "reviews"
	SortScore    SortMode = "score"
)

func (s SortMode) Valid() bool {
	switch s {
	case SortBest, SortDistance, SortRating, SortReviews, SortScore:
		return true
	}
	return false
}

// PlacesQuery mirrors the list filters of the guide UI. Nil pointers mean
// "no filter".
type PlacesQuery struct {
	Category      Category
	Q             string
	OpenNow       bool
	MaxDistanceKm *float64
	MaxPriceLevel *int
	MinRating     *float64
	Recommended   bool
	Sort          SortMode
	Limit         int
	Offset        int
}

type PlacesPage struct {
	Total  int     `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
	Items  []Place `json:"items"`
}

type CategoryCount struct {
	Category Category `json:"category"`
	Count    int      `json:"count"`
}
