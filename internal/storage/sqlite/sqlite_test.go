package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"castro_guide/internal/domain"
	"castro_guide/internal/storage/sqlite"
	"castro_guide/internal/storage/staging"
)

func ptr[T any](v T) *T { return &v }

func openMemory(t *testing.T) *staging.Repo {
	t.Helper()
	r, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestRepo_SaveFindRoundTrip(t *testing.T) {
	r := openMemory(t)
	ctx := context.Background()

	if _, err := r.Find(ctx, "nope", ""); err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	when := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	p := domain.Place{
		ID: "ChIJ%2Fabc", SourceID: "ChIJ/abc", Name: "Pizzaria Bella", Category: domain.Restaurants,
		Rating: 4.6, ReviewCount: 320, Latitude: ptr(-16.68), Longitude: ptr(-49.25), DistanceKm: ptr(0.8),
		Tags: []string{"Pizzaria", "Restaurante"}, Hours: []string{"Segunda: 11:00-23:00"},
		OriginQueries: []string{"pizzaria"}, UpdatedAt: &when,
	}
	if err := r.Save(ctx, p); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := r.Find(ctx, p.ID, "")
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if got.Name != p.Name || len(got.Tags) != 2 || got.UpdatedAt == nil || !got.UpdatedAt.Equal(when) {
		t.Fatalf("unexpected place: %+v", got)
	}

	bySource, err := r.Find(ctx, "other-id", "ChIJ/abc")
	if err != nil || bySource.ID != p.ID {
		t.Fatalf("find by source id: %+v %v", bySource, err)
	}
}

func TestRepo_SaveUpdatesInPlace(t *testing.T) {
	r := openMemory(t)
	ctx := context.Background()

	p := domain.Place{ID: "a", Name: "Bar", Category: domain.Nightlife, Rating: 4.0, Latitude: ptr(1.0), Longitude: ptr(2.0)}
	if err := r.Save(ctx, p); err != nil {
		t.Fatal(err)
	}
	p.Rating, p.ReviewCount = 4.4, 10
	if err := r.Save(ctx, p); err != nil {
		t.Fatal(err)
	}

	all, err := r.Export(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 || all[0].Rating != 4.4 || all[0].ReviewCount != 10 {
		t.Fatalf("unexpected export: %+v", all)
	}
}

func TestRepo_ExportOrderAndCoordinates(t *testing.T) {
	r := openMemory(t)
	ctx := context.Background()

	for _, p := range []domain.Place{
		{ID: "low", Name: "Low", Category: domain.Cafes, Rating: 3.9, Latitude: ptr(1.0), Longitude: ptr(1.0)},
		{ID: "top-few", Name: "Top few", Category: domain.Cafes, Rating: 4.8, ReviewCount: 10, Latitude: ptr(1.0), Longitude: ptr(1.0)},
		{ID: "top-many", Name: "Top many", Category: domain.Nature, Rating: 4.8, ReviewCount: 900, Latitude: ptr(1.0), Longitude: ptr(1.0)},
		{ID: "nocoords", Name: "No coords", Category: domain.Nature, Rating: 5},
	} {
		if err := r.Save(ctx, p); err != nil {
			t.Fatal(err)
		}
	}

	out, err := r.Export(ctx)
	if err != nil {
		t.Fatal(err)
	}
	var ids []string
	for _, p := range out {
		ids = append(ids, p.ID)
	}
	if len(ids) != 3 || ids[0] != "top-many" || ids[1] != "top-few" || ids[2] != "low" {
		t.Fatalf("unexpected order: %v", ids)
	}

	stats, err := r.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(stats) != 2 {
		t.Fatalf("expected 2 categories, got %+v", stats)
	}
	// equal counts fall back to category name
	if stats[0].Category != domain.Cafes || stats[0].Count != 2 {
		t.Fatalf("unexpected first stat: %+v", stats[0])
	}
	if avg := stats[1].AvgRating; avg < 4.89 || avg > 4.91 {
		t.Fatalf("nature avg = %v", avg)
	}
}

func TestRepo_RejectsEmptyID(t *testing.T) {
	r := openMemory(t)
	if err := r.Save(context.Background(), domain.Place{Name: "x"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestOpen_CreatesFileAndDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "places.db")
	r, err := sqlite.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := r.Save(context.Background(), domain.Place{ID: "a", Name: "A", Category: domain.Culture}); err != nil {
		t.Fatal(err)
	}
	_ = r.Close()

	again, err := sqlite.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer again.Close()
	if _, err := again.Find(context.Background(), "a", ""); err != nil {
		t.Fatalf("row lost across reopen: %v", err)
	}
}
