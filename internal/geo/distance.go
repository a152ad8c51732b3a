// Package geo computes distances from the hotel and builds map links.
package geo

import "math"

const earthRadiusKm = 6371

type Point struct {
	Lat float64 `koanf:"lat" json:"lat"`
	Lng float64 `koanf:"lng" json:"lng"`
}

func (p Point) Valid() bool {
	return finite(p.Lat) && finite(p.Lng) && math.Abs(p.Lat) <= 90 && math.Abs(p.Lng) <= 180
}

// DistanceKm returns the haversine distance rounded to 2 decimals.
// ok is false when any coordinate is non-finite.
func DistanceKm(a, b Point) (km float64, ok bool) {
	if !finite(a.Lat) || !finite(a.Lng) || !finite(b.Lat) || !finite(b.Lng) {
		return 0, false
	}
	dLat := rad(b.Lat - a.Lat)
	dLng := rad(b.Lng - a.Lng)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(a.Lat))*math.Cos(rad(b.Lat))*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return Round2(earthRadiusKm * c), true
}

// FromReference returns the distance from ref to (lat, lng), or nil when
// either coordinate is absent or non-finite.
func FromReference(ref Point, lat, lng *float64) *float64 {
	if lat == nil || lng == nil {
		return nil
	}
	km, ok := DistanceKm(ref, Point{Lat: *lat, Lng: *lng})
	if !ok {
		return nil
	}
	return &km
}

func Round2(f float64) float64 { return math.Round(f*100) / 100 }

func rad(deg float64) float64 { return deg * math.Pi / 180 }

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
