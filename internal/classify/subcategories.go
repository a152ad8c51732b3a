package classify

import (
	"strings"

	"castro_guide/internal/domain"
)

type keywordGroup struct {
	Label    string
	Keywords []string
}

type subcategoryTable struct {
	Groups  []keywordGroup
	Default string
}

// Keywords are matched as substrings of folded text.
var subcategoryTables = map[domain.Category]subcategoryTable{
	domain.Restaurants: {
		Groups: []keywordGroup{
			{"Pizza", []string{"pizza", "pizzaria"}},
			{"Hambúrguer", []string{"burger", "hamburg", "hamburguer"}},
			{"Japonesa", []string{"japones", "japonesa", "sushi", "temaki", "ramen"}},
			{"Churrasco", []string{"churrasc", "rodizio", "steak", "grill"}},
			{"Frutos do mar", []string{"peixe", "frutos do mar", "camarao"}},
			{"Italiana", []string{"italian", "italiana", "pasta", "trattoria"}},
			{"Mexicana", []string{"mexic", "taco", "burrito"}},
			{"Árabe", []string{"arabe", "kebab", "esfiha", "sfih"}},
			{"Vegetariano/Vegano", []string{"veg", "vegetar", "vegan"}},
			{"Padaria", []string{"padaria", "panificadora"}},
			{"Confeitaria", []string{"confeitaria", "doceria", "bolo", "dessert", "sobremesa"}},
		},
		Default: "Restaurante",
	},
	domain.Nightlife: {
		Groups: []keywordGroup{
			{"Pub", []string{"pub"}},
			{"Cervejaria", []string{"cervej", "brew", "chopp"}},
			{"Bar", []string{"bar"}},
			{"Karaokê", []string{"karaoke"}},
			{"Balada/Clube", []string{"club", "balada", "boate"}},
			{"Coquetelaria", []string{"cocktail", "drink", "speakeasy"}},
		},
		Default: "Bar & Noite",
	},
	domain.Cafes: {
		Groups: []keywordGroup{
			{"Cafeteria", []string{"cafeteria", "cafe", "coffee"}},
			{"Padaria", []string{"padaria", "panificadora"}},
			{"Confeitaria", []string{"confeitaria", "doceria", "bolo", "dessert"}},
			{"Brunch", []string{"brunch"}},
		},
		Default: "Café",
	},
	domain.Nature: {
		Groups: []keywordGroup{
			{"Parque", []string{"parque"}},
			{"Bosque", []string{"bosque"}},
			{"Praça", []string{"praca"}},
			{"Trilha/Caminhada", []string{"trilha", "caminhada"}},
		},
		Default: "Ao ar livre",
	},
	domain.Culture: {
		Groups: []keywordGroup{
			{"Museu", []string{"museu", "museum"}},
			{"Teatro", []string{"teatro", "theater"}},
			{"Arte/Galeria", []string{"galeria", "arte", "art"}},
			{"Centro cultural", []string{"centro cultural", "cultural"}},
		},
		Default: "Cultura",
	},
	domain.Shopping: {
		Groups: []keywordGroup{
			{"Shopping", []string{"shopping", "mall"}},
			{"Feira/Mercado", []string{"mercado", "feira"}},
		},
		Default: "Compras",
	},
	domain.Attractions: {
		Groups: []keywordGroup{
			{"Zoológico", []string{"zoo", "zoologico"}},
			{"Mirante", []string{"mirante", "vista"}},
			{"Passeio", []string{"tour", "passeio"}},
		},
		Default: "Atração",
	},
}

// Subcategories returns up to domain.MaxSubcategories labels for category,
// matching the folded blob against the category's keyword groups in order.
// Unknown categories yield nil.
func Subcategories(category domain.Category, blob string) []string {
	table, ok := subcategoryTables[category]
	if !ok {
		return nil
	}
	text := Fold(blob)
	out := make([]string, 0, domain.MaxSubcategories)
	for _, g := range table.Groups {
		if !containsAny(text, g.Keywords) || contains(out, g.Label) {
			continue
		}
		out = append(out, g.Label)
		if len(out) == domain.MaxSubcategories {
			break
		}
	}
	if len(out) == 0 {
		out = append(out, table.Default)
	}
	return out
}

// DeriveSubcategories keeps an existing non-empty list and otherwise derives
// one from name, tags and categories.
func DeriveSubcategories(p domain.Place) []string {
	if len(p.Subcategories) > 0 {
		return p.Subcategories
	}
	blob := strings.Join([]string{
		p.Name,
		strings.Join(p.Tags, " | "),
		strings.Join(p.Categories, " | "),
	}, " | ")
	return Subcategories(p.Category, blob)
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
