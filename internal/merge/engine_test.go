package merge_test

import (
	"reflect"
	"testing"
	"time"

	"castro_guide/internal/domain"
	"castro_guide/internal/merge"
)

func complete(p domain.Place) domain.Place {
	p.Description = "Casa tradicional"
	p.Image = "https://img/1.jpg"
	return p
}

func TestDecide_InsertWhenUnknown(t *testing.T) {
	if d := merge.New().Decide(nil, domain.Place{ID: "a"}); d != merge.Inserted {
		t.Fatalf("got %s", d)
	}
}

func TestDecide_RatingIncreaseUpdatesEvenIfReviewsDrop(t *testing.T) {
	existing := complete(domain.Place{ID: "a", Rating: 4.0, ReviewCount: 10})
	incoming := domain.Place{ID: "a", Rating: 4.5, ReviewCount: 5}
	if d := merge.New().Decide(&existing, incoming); d != merge.Updated {
		t.Fatalf("got %s", d)
	}
}

func TestDecide_KeepWhenNothingImproves(t *testing.T) {
	existing := complete(domain.Place{ID: "a", Rating: 4.5, ReviewCount: 10})
	incoming := domain.Place{ID: "a", Rating: 4.5, ReviewCount: 10}
	if d := merge.New().Decide(&existing, incoming); d != merge.Kept {
		t.Fatalf("got %s", d)
	}
}

func TestDecide_IncompleteExistingIsUpdated(t *testing.T) {
	existing := domain.Place{ID: "a", Rating: 5, ReviewCount: 100, Description: domain.PlaceholderDescription, Image: "x"}
	incoming := domain.Place{ID: "a", Rating: 3, ReviewCount: 1}
	if d := merge.New().Decide(&existing, incoming); d != merge.Updated {
		t.Fatalf("got %s", d)
	}
}

func TestDecide_ConflictingFeedsPreferNewerObservation(t *testing.T) {
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)
	existing := complete(domain.Place{ID: "a", Rating: 4.0, ReviewCount: 10, ObservedAt: &t1})

	stale := domain.Place{ID: "a", Rating: 4.5, ReviewCount: 5, ObservedAt: &t0}
	if d := merge.New().Decide(&existing, stale); d != merge.Kept {
		t.Fatalf("stale conflicting record must not win, got %s", d)
	}
	// a newer observation wins even when its rating is lower
	fresh := domain.Place{ID: "a", Rating: 3.9, ReviewCount: 30, ObservedAt: &t1}
	if d := merge.New().Decide(&existing, fresh); d != merge.Updated {
		t.Fatalf("got %s", d)
	}
	// agreeing improvement is accepted regardless of age
	better := domain.Place{ID: "a", Rating: 4.5, ReviewCount: 12, ObservedAt: &t0}
	if d := merge.New().Decide(&existing, better); d != merge.Updated {
		t.Fatalf("got %s", d)
	}
}

func TestDecide_ConflictWithoutObservationPrefersRating(t *testing.T) {
	existing := complete(domain.Place{ID: "a", Rating: 4.5, ReviewCount: 50})
	moreReviews := domain.Place{ID: "a", Rating: 4.0, ReviewCount: 100}
	if d := merge.New().Decide(&existing, moreReviews); d != merge.Kept {
		t.Fatalf("got %s", d)
	}
	higherRating := domain.Place{ID: "a", Rating: 4.8, ReviewCount: 20}
	if d := merge.New().Decide(&existing, higherRating); d != merge.Updated {
		t.Fatalf("got %s", d)
	}
}

func TestMerge_ObservedAtNeverMovesBack(t *testing.T) {
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)
	got := merge.New().Merge(domain.Place{ID: "a", ObservedAt: &t1}, domain.Place{ID: "a", Rating: 4.9, ObservedAt: &t0})
	if !got.ObservedAt.Equal(t1) || got.Rating != 4.9 {
		t.Fatalf("unexpected merge: %+v", got)
	}
	got = merge.New().Merge(domain.Place{ID: "a"}, domain.Place{ID: "a", ObservedAt: &t0})
	if got.ObservedAt == nil || !got.ObservedAt.Equal(t0) {
		t.Fatalf("observedAt not filled: %v", got.ObservedAt)
	}
}

func TestMerge_PhoneNeverClobberedByEmpty(t *testing.T) {
	existing := domain.Place{ID: "a", Phone: "+55 62 3333-0000"}
	for _, e := range []*merge.Engine{merge.New(), merge.New(merge.WithAuthoritative())} {
		got := e.Merge(existing, domain.Place{ID: "a", Rating: 4.9})
		if got.Phone != existing.Phone {
			t.Fatalf("phone clobbered: %q", got.Phone)
		}
	}
}

func TestMerge_FillOnlyIfMissing(t *testing.T) {
	lat := -16.7
	existing := domain.Place{ID: "a", Address: "Rua 1", Website: ""}
	incoming := domain.Place{ID: "b", Address: "Rua 2", Website: "https://x", Latitude: &lat, Rating: 4.2, ReviewCount: 7}
	got := merge.New().Merge(existing, incoming)
	if got.ID != "a" || got.Address != "Rua 1" || got.Website != "https://x" || got.Latitude == nil {
		t.Fatalf("unexpected merge: %+v", got)
	}
	if got.Rating != 4.2 || got.ReviewCount != 7 {
		t.Fatalf("rating/reviews must refresh: %+v", got)
	}
}

func TestMerge_PlaceholderCountsAsMissing(t *testing.T) {
	existing := domain.Place{ID: "a", Description: domain.PlaceholderDescription, Address: domain.PlaceholderAddress}
	got := merge.New().Merge(existing, domain.Place{Description: "Bom", Address: "Rua 3"})
	if got.Description != "Bom" || got.Address != "Rua 3" {
		t.Fatalf("placeholders should be filled: %+v", got)
	}
}

func TestMerge_ListsReplaceOnlyWhenEmpty(t *testing.T) {
	existing := domain.Place{ID: "a", Tags: []string{"Bar"}, OriginQueries: []string{"bares"}}
	incoming := domain.Place{Tags: []string{"Pub"}, Hours: []string{"Segunda: 18:00-02:00"}, OriginQueries: []string{"pubs", "bares"}}
	got := merge.New().Merge(existing, incoming)
	if !reflect.DeepEqual(got.Tags, []string{"Bar"}) {
		t.Fatalf("tags replaced: %v", got.Tags)
	}
	if !reflect.DeepEqual(got.Hours, incoming.Hours) {
		t.Fatalf("hours not filled: %v", got.Hours)
	}
	if !reflect.DeepEqual(got.OriginQueries, []string{"bares", "pubs"}) {
		t.Fatalf("origin queries not unioned: %v", got.OriginQueries)
	}
	if !reflect.DeepEqual(existing.OriginQueries, []string{"bares"}) {
		t.Fatalf("existing mutated: %v", existing.OriginQueries)
	}
}

func TestMerge_AuthoritativeOverwritesNonEmpty(t *testing.T) {
	e := merge.New(merge.WithAuthoritative())
	got := e.Merge(domain.Place{ID: "a", Website: "http://old"}, domain.Place{Website: "https://new"})
	if got.Website != "https://new" {
		t.Fatalf("got %q", got.Website)
	}
	if e.StrategyFor("website") != merge.Refresh || e.StrategyFor("id") != merge.Keep {
		t.Fatalf("unexpected effective strategies")
	}
}

func TestMerge_FieldOverride(t *testing.T) {
	e := merge.New(merge.WithStrategy("tags", merge.Union))
	got := e.Merge(domain.Place{Tags: []string{"a", "b", "c", "d", "e"}}, domain.Place{Tags: []string{"e", "f", "g", "h", "i"}})
	if len(got.Tags) != domain.MaxTags {
		t.Fatalf("tags should be capped at %d: %v", domain.MaxTags, got.Tags)
	}
}

func TestUnionStrings(t *testing.T) {
	got := merge.UnionStrings(3, []string{"a", " ", "b"}, []string{"b", "c", "d"})
	if !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("got %v", got)
	}
}

func TestMerge_OverrideWinsOverAuthoritative(t *testing.T) {
	e := merge.New(merge.WithAuthoritative(), merge.WithStrategy("image", merge.FillIfMissing))
	got := e.Merge(domain.Place{Image: "a.jpg", Phone: "1"}, domain.Place{Image: "b.jpg", Phone: "2"})
	if got.Image != "a.jpg" || got.Phone != "2" {
		t.Fatalf("unexpected merge: %+v", got)
	}
}
