package geo

import (
	"fmt"
	"net/url"
	"strings"

	"castro_guide/internal/domain"
)

const (
	mapsSearchBase = "https://www.google.com/maps/search/"
	mapsDirBase    = "https://www.google.com/maps/dir/"
)

// SearchURL links a place on Google Maps: its source URL, else its
// coordinates, else name and address, else the city.
func SearchURL(p domain.Place, city string) string {
	if p.SourceURL != "" {
		return p.SourceURL
	}
	q := url.Values{}
	q.Set("api", "1")
	q.Set("query", destination(p, city))
	return mapsSearchBase + "?" + q.Encode()
}

// DirectionsURL links driving directions from origin to the place.
func DirectionsURL(origin Point, p domain.Place, city string) string {
	q := url.Values{}
	q.Set("api", "1")
	q.Set("origin", fmt.Sprintf("%g,%g", origin.Lat, origin.Lng))
	q.Set("destination", destination(p, city))
	return mapsDirBase + "?" + q.Encode()
}

// PlaceIDSearchURL links a Google place id found by a text search.
func PlaceIDSearchURL(name, placeID, city string) string {
	if name == "" {
		name = city
	}
	q := url.Values{}
	q.Set("api", "1")
	q.Set("query", name)
	q.Set("query_place_id", placeID)
	return mapsSearchBase + "?" + q.Encode()
}

func destination(p domain.Place, city string) string {
	if p.HasCoords() && finite(*p.Latitude) && finite(*p.Longitude) {
		return fmt.Sprintf("%g,%g", *p.Latitude, *p.Longitude)
	}
	var parts []string
	for _, s := range []string{p.Name, p.Address} {
		if s = strings.TrimSpace(s); s != "" && s != domain.PlaceholderAddress {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return city
	}
	return strings.Join(parts, " ")
}
