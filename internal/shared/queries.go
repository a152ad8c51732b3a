package shared

import "castro_guide/internal/domain"

// SearchQuery is one provider search with the category its results belong to.
type SearchQuery struct {
	Query      string          `koanf:"query"`
	Category   domain.Category `koanf:"category"`
	MaxResults int             `koanf:"max_results"`
}

// CrawlQueries drive the Google Maps crawler into the staging database.
var CrawlQueries = []SearchQuery{
	{Query: "restaurantes em Goiânia, GO", Category: domain.Restaurants, MaxResults: 60},
	{Query: "churrascarias em Goiânia, GO", Category: domain.Restaurants, MaxResults: 30},
	{Query: "pizzarias em Goiânia, GO", Category: domain.Restaurants, MaxResults: 30},
	{Query: "comida japonesa em Goiânia, GO", Category: domain.Restaurants, MaxResults: 30},
	{Query: "comida goiana em Goiânia, GO", Category: domain.Restaurants, MaxResults: 25},
	{Query: "hamburguerias em Goiânia, GO", Category: domain.Restaurants, MaxResults: 25},
	{Query: "cafés em Goiânia, GO", Category: domain.Cafes, MaxResults: 40},
	{Query: "cafeterias especiais em Goiânia, GO", Category: domain.Cafes, MaxResults: 25},
	{Query: "padarias em Goiânia, GO", Category: domain.Cafes, MaxResults: 25},
	{Query: "confeitarias em Goiânia, GO", Category: domain.Cafes, MaxResults: 20},
	{Query: "bares em Goiânia, GO", Category: domain.Nightlife, MaxResults: 40},
	{Query: "pubs em Goiânia, GO", Category: domain.Nightlife, MaxResults: 20},
	{Query: "cervejarias em Goiânia, GO", Category: domain.Nightlife, MaxResults: 20},
	{Query: "baladas em Goiânia, GO", Category: domain.Nightlife, MaxResults: 20},
	{Query: "parques em Goiânia, GO", Category: domain.Nature, MaxResults: 25},
	{Query: "praças em Goiânia, GO", Category: domain.Nature, MaxResults: 20},
	{Query: "bosques em Goiânia, GO", Category: domain.Nature, MaxResults: 15},
	{Query: "museus em Goiânia, GO", Category: domain.Culture, MaxResults: 20},
	{Query: "teatros em Goiânia, GO", Category: domain.Culture, MaxResults: 15},
	{Query: "centros culturais em Goiânia, GO", Category: domain.Culture, MaxResults: 15},
	{Query: "galerias de arte em Goiânia, GO", Category: domain.Culture, MaxResults: 15},
	{Query: "shoppings em Goiânia, GO", Category: domain.Shopping, MaxResults: 25},
	{Query: "feiras em Goiânia, GO", Category: domain.Shopping, MaxResults: 15},
	{Query: "lojas de artesanato em Goiânia, GO", Category: domain.Shopping, MaxResults: 15},
	{Query: "pontos turísticos em Goiânia, GO", Category: domain.Attractions, MaxResults: 30},
	{Query: "o que fazer em Goiânia, GO", Category: domain.Attractions, MaxResults: 30},
	{Query: "passeios em Goiânia, GO", Category: domain.Attractions, MaxResults: 20},
	{Query: "monumentos em Goiânia, GO", Category: domain.Attractions, MaxResults: 15},
	{Query: "mirantes em Goiânia, GO", Category: domain.Attractions, MaxResults: 10},
}

// ExpandQueries seed the Google Places text-search expansion.
var ExpandQueries = []SearchQuery{
	{Query: "restaurantes Goiânia", Category: domain.Restaurants},
	{Query: "churrascaria Goiânia", Category: domain.Restaurants},
	{Query: "pizzaria Goiânia", Category: domain.Restaurants},
	{Query: "sushi Goiânia", Category: domain.Restaurants},
	{Query: "comida típica goiana Goiânia", Category: domain.Restaurants},
	{Query: "cafeteria Goiânia", Category: domain.Cafes},
	{Query: "café especial Goiânia", Category: domain.Cafes},
	{Query: "padaria artesanal Goiânia", Category: domain.Cafes},
	{Query: "bares Goiânia", Category: domain.Nightlife},
	{Query: "pub Goiânia", Category: domain.Nightlife},
	{Query: "cervejaria Goiânia", Category: domain.Nightlife},
	{Query: "parque Goiânia", Category: domain.Nature},
	{Query: "praça Goiânia", Category: domain.Nature},
	{Query: "museu Goiânia", Category: domain.Culture},
	{Query: "teatro Goiânia", Category: domain.Culture},
	{Query: "shopping Goiânia", Category: domain.Shopping},
	{Query: "pontos turísticos Goiânia", Category: domain.Attractions},
	{Query: "o que fazer em Goiânia", Category: domain.Attractions},
}

// SearchTerms feed the local-business and TripAdvisor ingestions when
// SEARCH_TERMS is not set.
var SearchTerms = []string{
	"Goiania restaurantes",
	"Goiania atrações turísticas",
	"Goiania cafés",
	"Goiania bares",
	"Goiania vida noturna",
	"Goiania parques",
	"Goiania museus",
	"Goiania shopping",
	"Goiania cultura",
	"Goiania pontos turísticos",
	"Goiania o que fazer",
	"Goiania passeios",
	"Setor Bueno Goiania",
	"Setor Marista Goiania",
	"Centro Goiania",
	"Setor Oeste Goiania",
	"Jardim Goiás",
}

// ExtractorCategories is the Maps extractor categoryFilterWords default.
var ExtractorCategories = []string{"restaurant", "bar", "cafe", "park", "museum", "shopping mall"}
