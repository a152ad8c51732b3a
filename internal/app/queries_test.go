package app_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"castro_guide/internal/app"
	"castro_guide/internal/curation"
	"castro_guide/internal/domain"
)

func catalogFixture() *fakeDocs {
	return &fakeDocs{has: true, doc: domain.Document{
		UpdatedAt: fixedTime,
		Source:    "Google Places",
		Places: []domain.Place{
			{ID: "a", Name: "Café Central", Category: domain.Cafes, Rating: 4.8, ReviewCount: 900,
				DistanceKm: ptr(1.2), PriceLevel: 1, OpenStatusText: "Aberto agora", Tags: []string{"Café"}},
			{ID: "b", SourceID: "ChIJbar", Name: "Bar do Zé", Category: domain.Nightlife, Rating: 4.5, ReviewCount: 300,
				DistanceKm: ptr(0.5), PriceLevel: 2, OpenStatusText: "Fechado agora",
				Latitude: ptr(-16.68), Longitude: ptr(-49.25)},
			{ID: "c", Name: "Parque Vaca Brava", Category: domain.Nature, Rating: 4.8, ReviewCount: 5000,
				Description: "Lago e pista de caminhada"},
			{ID: "d", Name: "Cantina", Category: domain.Restaurants, Rating: 3.9, ReviewCount: 40,
				DistanceKm: ptr(7.0), PriceLevel: 0},
		},
	}}
}

func newQueryService(docs *fakeDocs, cache *fakeCache) *app.QueryService {
	return app.NewQueryService(docs, cache, 10*time.Minute, hotel, curation.NewOptions())
}

func TestCatalog_CacheMissThenHit(t *testing.T) {
	docs := catalogFixture()
	cache := &fakeCache{}
	q := newQueryService(docs, cache)

	c, err := q.Catalog(context.Background())
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(c.Places) != 4 || c.Source != "Google Places" {
		t.Fatalf("unexpected catalog: %+v", c)
	}
	// curation ran: every place has a score and a description
	for _, p := range c.Places {
		if p.HotelScore == nil || p.Description == "" {
			t.Fatalf("place %s not curated: %+v", p.ID, p)
		}
	}

	// mutate the document to prove the second read is served from cache
	docs.doc.Places = nil

	c2, err := q.Catalog(context.Background())
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(c2.Places) != 4 {
		t.Fatalf("expected cached catalog, got %d places", len(c2.Places))
	}
}

func TestCatalog_MissingDocument(t *testing.T) {
	q := newQueryService(&fakeDocs{}, &fakeCache{})
	_, err := q.Catalog(context.Background())
	if !app.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListPlaces_Filters(t *testing.T) {
	q := newQueryService(catalogFixture(), &fakeCache{})
	ctx := context.Background()

	ids := func(page domain.PlacesPage) string {
		var out []string
		for _, p := range page.Items {
			out = append(out, p.ID)
		}
		return strings.Join(out, ",")
	}

	cases := []struct {
		name  string
		query domain.PlacesQuery
		want  string
	}{
		{"best order", domain.PlacesQuery{}, "c,a,b,d"},
		{"category", domain.PlacesQuery{Category: domain.Nightlife}, "b"},
		{"text search folds accents", domain.PlacesQuery{Q: "cafe"}, "a"},
		{"text search over description", domain.PlacesQuery{Q: "CAMINHADA"}, "c"},
		{"open now", domain.PlacesQuery{OpenNow: true}, "a"},
		{"max distance drops unknown distance", domain.PlacesQuery{MaxDistanceKm: ptr(2.0)}, "a,b"},
		{"max price ignores unpriced", domain.PlacesQuery{MaxPriceLevel: ptr(1)}, "a"},
		{"min rating", domain.PlacesQuery{MinRating: ptr(4.6)}, "c,a"},
		{"distance sort puts unknown last", domain.PlacesQuery{Sort: domain.SortDistance}, "b,a,d,c"},
		{"reviews sort", domain.PlacesQuery{Sort: domain.SortReviews}, "c,a,b,d"},
		{"paging", domain.PlacesQuery{Limit: 2, Offset: 1}, "a,b"},
		{"offset past end", domain.PlacesQuery{Offset: 10}, ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			page, err := q.ListPlaces(ctx, c.query)
			if err != nil {
				t.Fatalf("err: %v", err)
			}
			if got := ids(page); got != c.want {
				t.Fatalf("got %q, want %q", got, c.want)
			}
		})
	}
}

func TestGetPlace_BySourceID(t *testing.T) {
	q := newQueryService(catalogFixture(), &fakeCache{})

	v, err := q.GetPlace(context.Background(), "ChIJbar")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if v.ID != "b" {
		t.Fatalf("got %s", v.ID)
	}
	if !strings.Contains(v.MapsURL, "query=-16.68%2C-49.25") {
		t.Fatalf("maps url = %s", v.MapsURL)
	}
	if !strings.Contains(v.DirectionsURL, "origin=-16.6799%2C-49.254") {
		t.Fatalf("directions url = %s", v.DirectionsURL)
	}

	_, err = q.GetPlace(context.Background(), "nope")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCategories_CountsInDisplayOrder(t *testing.T) {
	q := newQueryService(catalogFixture(), &fakeCache{})
	counts, err := q.Categories(context.Background())
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(counts) != len(domain.Categories) {
		t.Fatalf("got %d categories", len(counts))
	}
	if counts[0].Category != domain.Restaurants || counts[0].Count != 1 {
		t.Fatalf("first = %+v", counts[0])
	}
	if counts[5].Category != domain.Shopping || counts[5].Count != 0 {
		t.Fatalf("shopping = %+v", counts[5])
	}
}

func TestRecommended_ManualIDsByScore(t *testing.T) {
	docs := catalogFixture()
	docs.cur = domain.Curation{RecommendedIDs: []string{"d", "ChIJbar"}}
	q := newQueryService(docs, &fakeCache{})

	recs, err := q.Recommended(context.Background(), 10)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(recs) != 2 || recs[0].ID != "b" || recs[1].ID != "d" {
		t.Fatalf("unexpected recommended: %+v", recs)
	}
}
