package merge_test

import (
	"testing"
	"time"

	"castro_guide/internal/domain"
	"castro_guide/internal/merge"
)

func TestIndex_LookupBySourceID(t *testing.T) {
	ix := merge.NewIndex([]domain.Place{{ID: "Caf%C3%A9", SourceID: "Café"}})
	if _, ok := ix.Get("", "Café"); !ok {
		t.Fatalf("sourceId lookup failed")
	}
	if !ix.Has("Café") || !ix.Has("Caf%C3%A9") {
		t.Fatalf("Has should match id and sourceId")
	}
}

func TestIndex_TwoPassesSamePlace(t *testing.T) {
	e := merge.New()
	ix := merge.NewIndex(nil)
	t1 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(24 * time.Hour)

	first := domain.Place{ID: "ChIJ1", SourceID: "ChIJ1", Name: "Dom", Rating: 4.0, ReviewCount: 20, Description: "x", Image: "y", UpdatedAt: &t1, EnrichedAt: &t1}
	second := domain.Place{ID: "ChIJ1", SourceID: "ChIJ1", Name: "Dom", Rating: 4.6, ReviewCount: 20, UpdatedAt: &t2, EnrichedAt: &t2}

	if _, d := ix.Upsert(e, first); d != merge.Inserted {
		t.Fatalf("first pass: %s", d)
	}
	if _, d := ix.Upsert(e, second); d != merge.Updated {
		t.Fatalf("second pass: %s", d)
	}
	got, _ := ix.Get("ChIJ1", "")
	if got.Rating != 4.6 || !got.UpdatedAt.Equal(t2) || !got.EnrichedAt.Equal(t2) {
		t.Fatalf("unexpected stored record: %+v", got)
	}
	if ix.Len() != 1 {
		t.Fatalf("expected one place, got %d", ix.Len())
	}
}

func TestIndex_KeepsInsertionOrder(t *testing.T) {
	ix := merge.NewIndex([]domain.Place{{ID: "a"}, {ID: "b"}})
	ix.Put(domain.Place{ID: "c"})
	ix.Put(domain.Place{ID: "a", Name: "A"})
	got := ix.Places()
	if len(got) != 3 || got[0].Name != "A" || got[2].ID != "c" {
		t.Fatalf("unexpected order: %+v", got)
	}
}
