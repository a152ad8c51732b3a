package classify_test

import (
	"reflect"
	"testing"

	"castro_guide/internal/classify"
	"castro_guide/internal/domain"
)

func TestFold(t *testing.T) {
	if got := classify.Fold("  Praça Cívica - CAFÉ "); got != "praca civica - cafe" {
		t.Fatalf("unexpected fold: %q", got)
	}
}

func TestGoogleTypes_PriorityOrder(t *testing.T) {
	cases := []struct {
		types []string
		want  domain.Category
	}{
		{[]string{"bar", "restaurant"}, domain.Nightlife},
		{[]string{"cafe", "restaurant", "food"}, domain.Cafes},
		{[]string{"restaurant", "pizza_restaurant"}, domain.Restaurants},
		{[]string{"shopping_mall", "point_of_interest"}, domain.Shopping},
		{[]string{"park"}, domain.Nature},
		{[]string{"museum", "tourist_attraction"}, domain.Culture},
		{[]string{"tourist_attraction"}, domain.Attractions},
	}
	for _, tc := range cases {
		got, ok := classify.GoogleTypes.Match(tc.types...)
		if !ok || got != tc.want {
			t.Fatalf("types %v: got %q (ok=%v), want %q", tc.types, got, ok, tc.want)
		}
	}
}

func TestGoogleTypes_NoMatchLeavesHintToCaller(t *testing.T) {
	if _, ok := classify.GoogleTypes.Match("lodging", "point_of_interest"); ok {
		t.Fatalf("expected no match")
	}
	if got := classify.GoogleTypes.Classify("lodging"); got != domain.Attractions {
		t.Fatalf("expected attractions default, got %q", got)
	}
}

func TestGeneric_CafesBeforeNightlife(t *testing.T) {
	if got := classify.Generic.Classify("Confeitaria e Bar"); got != domain.Cafes {
		t.Fatalf("got %q", got)
	}
	if got := classify.Generic.Classify("Praça do Sol"); got != domain.Nature {
		t.Fatalf("diacritics should fold, got %q", got)
	}
	if got := classify.Generic.Classify("Hotel"); got != domain.Attractions {
		t.Fatalf("fallback expected, got %q", got)
	}
}

func TestMapsCategories(t *testing.T) {
	if got := classify.MapsCategories.Classify("Churrascaria", "Restaurante"); got != domain.Restaurants {
		t.Fatalf("got %q", got)
	}
	if got := classify.MapsCategories.Classify("Galeria de arte"); got != domain.Culture {
		t.Fatalf("got %q", got)
	}
}

func TestClassify_Deterministic(t *testing.T) {
	for i := 0; i < 20; i++ {
		if got := classify.Generic.Classify("Museu de Arte", "Pizzaria"); got != domain.Restaurants {
			t.Fatalf("run %d: got %q", i, got)
		}
	}
}

func TestChain_FirstMatchingStepWins(t *testing.T) {
	ch := classify.Chain{
		{Classifier: classify.GoogleTypes, Signals: []string{"lodging"}},
		{Classifier: classify.OriginQuery, Signals: []string{"pizzarias em Goiânia"}},
	}
	if got := ch.Classify(domain.Attractions); got != domain.Restaurants {
		t.Fatalf("got %q", got)
	}
	if got := (classify.Chain{}).Classify(domain.Nature); got != domain.Nature {
		t.Fatalf("fallback not used: %q", got)
	}
	if _, by := ch.Decide(domain.Attractions); by != classify.OriginQuery.Name() {
		t.Fatalf("decided by %q", by)
	}
	if cat, by := (classify.Chain{}).Decide(""); cat != domain.Attractions || by != "fallback" {
		t.Fatalf("got %q by %q", cat, by)
	}
}

func TestTagsFromTypes(t *testing.T) {
	got := classify.TagsFromTypes([]string{"restaurant", "bar", "point_of_interest"})
	want := []string{"Restaurante", "Bar"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}
