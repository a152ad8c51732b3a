package classify

import (
	"regexp"

	"castro_guide/internal/domain"
)

// Rule maps folded text matching Pattern to Category.
type Rule struct {
	Category domain.Category
	Pattern  *regexp.Regexp
}

func rule(c domain.Category, expr string) Rule {
	return Rule{Category: c, Pattern: regexp.MustCompile(expr)}
}

// Rule tables are evaluated top to bottom against folded text; patterns are
// therefore written without diacritics.

// Google Places "types".
var googleTypeRules = []Rule{
	rule(domain.Nightlife, `night_club|bar`),
	rule(domain.Cafes, `cafe`),
	rule(domain.Restaurants, `restaurant|meal_takeaway|meal_delivery|food`),
	rule(domain.Shopping, `shopping_mall`),
	rule(domain.Nature, `park`),
	rule(domain.Culture, `museum|art_gallery|theater`),
	rule(domain.Attractions, `tourist_attraction`),
}

// Apify Maps extractor categoryName + categories.
var mapsCategoryRules = []Rule{
	rule(domain.Nightlife, `bar|pub|night`),
	rule(domain.Cafes, `cafe|coffee|padaria`),
	rule(domain.Restaurants, `restaurant|restaurante|churrasc|pizz|sushi|food`),
	rule(domain.Shopping, `shopping|mall|store|loja`),
	rule(domain.Nature, `park|parque|praca|nature`),
	rule(domain.Culture, `museum|museu|theater|teatro|art|galeria|cultura`),
}

// Free-text business categories (local business data, TripAdvisor).
var genericRules = []Rule{
	rule(domain.Cafes, `caf|coffee|confeitaria|doces|bakery|bolo|padaria`),
	rule(domain.Nightlife, `bar|pub|brew|chopp|balada|night`),
	rule(domain.Restaurants, `restaurant|restaurante|food|churrascaria|pizza|sushi|steak`),
	rule(domain.Nature, `park|parque|praca|square`),
	rule(domain.Culture, `museum|museu|teatro|catedral|igreja|monumento|cultura|art`),
	rule(domain.Shopping, `shopping|mall|loja|store`),
}

// Search query text.
var originQueryRules = []Rule{
	rule(domain.Restaurants, `restaurante|restaurant|churrascaria|pizzaria|comida`),
	rule(domain.Cafes, `cafe|cafeteria|padaria`),
	rule(domain.Nightlife, `bar|pub|noturna|nightlife|balada|cervejaria`),
	rule(domain.Nature, `parque|praca|areas verdes|nature`),
	rule(domain.Culture, `museu|teatro|cultura|culture|igreja`),
	rule(domain.Shopping, `shopping|compras|lojas`),
	rule(domain.Attractions, `turistic|o que fazer|passeio`),
}

// Place names.
var nameRules = []Rule{
	rule(domain.Shopping, `shopping|mall|mercado|feira`),
	rule(domain.Nature, `parque|bosque|praca|patio|jardim`),
	rule(domain.Culture, `museu|teatro|catedral|igreja|centro cultural|monumento`),
	rule(domain.Nightlife, `bar|pub|brew|balada`),
	rule(domain.Cafes, `cafe|cafeteria|padaria`),
}

var (
	// GoogleTypes has no fallback: callers use their query hint when it does not match.
	GoogleTypes    = New("google_types", "", googleTypeRules...)
	MapsCategories = New("maps_categories", domain.Attractions, mapsCategoryRules...)
	Generic        = New("generic", domain.Attractions, genericRules...)
	OriginQuery    = New("origin_query", "", originQueryRules...)
	Names          = New("names", "", nameRules...)
)
