package classify

import (
	"regexp"

	"castro_guide/internal/domain"
)

type tagRule struct {
	Tag     string
	Pattern *regexp.Regexp
}

func tag(label, expr string) tagRule { return tagRule{Tag: label, Pattern: regexp.MustCompile(expr)} }

var googleTypeTags = []tagRule{
	tag("Restaurante", `restaurant|meal_takeaway|meal_delivery|food`),
	tag("Café", `cafe`),
	tag("Bar", `bar|night_club`),
	tag("Passeio", `tourist_attraction`),
	tag("Parque", `park`),
	tag("Museu", `museum`),
	tag("Galeria", `art_gallery`),
	tag("Teatro", `theater`),
	tag("Estádio", `stadium`),
	tag("Shopping", `shopping_mall`),
	tag("Compras", `store`),
}

var mapsCategoryTags = []tagRule{
	tag("Restaurante", `restaurant|restaurante|food`),
	tag("Café", `cafe|coffee`),
	tag("Bar", `bar|pub|night`),
	tag("Parque", `park|parque|praca|nature`),
	tag("Museu", `museum|museu`),
	tag("Shopping", `shopping|mall`),
}

// TagsFromTypes derives PT-BR display tags from Google place types.
func TagsFromTypes(types []string) []string { return applyTags(googleTypeTags, types) }

// TagsFromCategories derives display tags from a Maps category name and list.
func TagsFromCategories(categoryName string, categories []string) []string {
	return applyTags(mapsCategoryTags, append([]string{categoryName}, categories...))
}

func applyTags(rules []tagRule, signals []string) []string {
	text := FoldJoin(signals...)
	var out []string
	if text == "" {
		return out
	}
	for _, r := range rules {
		if r.Pattern.MatchString(text) {
			out = append(out, r.Tag)
			if len(out) == domain.MaxTags {
				break
			}
		}
	}
	return out
}
