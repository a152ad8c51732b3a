package app

import (
	"castro_guide/internal/classify"
	"castro_guide/internal/domain"
)

// Provider names a raw record shape.
type Provider string

const (
	ProviderCrawler       Provider = "crawler"       // Apify compass/crawler-google-places
	ProviderExtractor     Provider = "extractor"     // Apify compass~google-maps-extractor
	ProviderGoogle        Provider = "google"        // Google Places text search / details
	ProviderLocalBusiness Provider = "localbusiness" // RapidAPI local-business-data
	ProviderTripAdvisor   Provider = "tripadvisor"   // Apify maxcopell/tripadvisor
	ProviderOpenMap       Provider = "openmap"       // Apify google-maps-business-data-scraper-free
)

// profile is an alias registry for one provider plus the few decisions that
// cannot be expressed as paths.
type profile struct {
	aliases    map[string][]string
	galleryCap int
	tagCap     int
	// hintFirst: the query category wins over record signals (query-driven crawls).
	hintFirst bool
	// queryTags adds the origin query to tags and categories.
	queryTags bool
	category  func(raw map[string]any, hint Hint) classify.Chain
	tags      func(raw map[string]any, hint Hint, limit int) []string
	finish    func(p *domain.Place, raw map[string]any)
}

var profiles = map[Provider]profile{
	ProviderCrawler: {
		aliases: map[string][]string{
			"id":          {"placeId"},
			"url":         {"url"},
			"name":        {"title", "name"},
			"rating":      {"totalScore", "rating"},
			"reviews":     {"reviewsCount", "reviews"},
			"price":       {"priceLevel", "price"},
			"priceText":   {"priceLevel", "price"},
			"description": {"description", "about"},
			"image":       {"imageUrl"},
			"gallery":     {"imageUrls", "images", "imageUrl"},
			"observedAt":  {"scrapedAt"},
			"address":     {"address", "street"},
			"lat":         {"location.lat", "latitude"},
			"lng":         {"location.lng", "longitude"},
			"phone":       {"phone", "phoneNumber"},
			"website":     {"website", "url"},
			"sourceUrl":   {"url"},
			"hours":       {"openingHours", "hours"},
			"openNow":     {"openNow"},
			"menu":        {"menu"},
			"tags":        {"categoryName", "categories", "type"},
			"categories":  {"categories"},
		},
		galleryCap: 5,
		tagCap:     domain.MaxTags,
		hintFirst:  true,
		category: func(raw map[string]any, hint Hint) classify.Chain {
			return classify.Chain{
				{Classifier: classify.MapsCategories, Signals: signals(raw, "categoryName", "categories", "type")},
				{Classifier: classify.Names, Signals: signals(raw, "title", "name")},
			}
		},
	},
	ProviderExtractor: {
		aliases: map[string][]string{
			"id":         {"placeId"},
			"url":        {"url"},
			"name":       {"title", "name"},
			"rating":     {"totalScore", "rating"},
			"reviews":    {"reviewsCount"},
			"price":      {"price"},
			"image":      {"imageUrl"},
			"gallery":    {"imageUrls", "imageUrl"},
			"observedAt": {"scrapedAt"},
			"address":    {"address"},
			"lat":        {"location.lat"},
			"lng":        {"location.lng"},
			"phone":      {"phoneUnformatted", "phone"},
			"website":    {"website"},
			"sourceUrl":  {"url"},
			"hours":      {"openingHours"},
			"menu":       {"menu"},
			"categories": {"categories"},
		},
		galleryCap: 5,
		tagCap:     domain.MaxTags,
		category: func(raw map[string]any, hint Hint) classify.Chain {
			return classify.Chain{{Classifier: classify.MapsCategories, Signals: signals(raw, "categoryName", "categories")}}
		},
		tags: func(raw map[string]any, _ Hint, limit int) []string {
			return capStrings(classify.TagsFromCategories(lookupStr(raw, "categoryName"), firstSliceStrings(raw, "categories")), limit)
		},
	},
	ProviderGoogle: {
		aliases: map[string][]string{
			"id":          {"place_id"},
			"name":        {"name"},
			"rating":      {"rating"},
			"reviews":     {"user_ratings_total"},
			"price":       {"price_level"},
			"address":     {"formatted_address", "vicinity"},
			"lat":         {"geometry.location.lat"},
			"lng":         {"geometry.location.lng"},
			"phone":       {"formatted_phone_number", "international_phone_number"},
			"website":     {"website"},
			"sourceUrl":   {"url"},
			"hours":       {"opening_hours.weekday_text"},
			"openNow":     {"opening_hours.open_now"},
			"categories":  {"types"},
			"description": {"editorial_summary.overview"},
		},
		tagCap: domain.MaxTags,
		category: func(raw map[string]any, hint Hint) classify.Chain {
			return classify.Chain{{Classifier: classify.GoogleTypes, Signals: signals(raw, "types")}}
		},
		tags: func(raw map[string]any, _ Hint, limit int) []string {
			return capStrings(classify.TagsFromTypes(firstSliceStrings(raw, "types")), limit)
		},
	},
	ProviderLocalBusiness: {
		aliases: map[string][]string{
			"id":          {"business_id", "place_id", "google_id"},
			"url":         {"url"},
			"name":        {"name"},
			"rating":      {"rating"},
			"reviews":     {"reviews_count", "reviews_total", "user_ratings_total", "review_count"},
			"price":       {"price_level", "price"},
			"priceText":   {"price_level", "price"},
			"description": {"about", "description", "snippet"},
			"image":       {"thumbnail", "cover_photo_url"},
			"gallery":     {"photos_sample", "photos"},
			"address":     {"full_address", "address", "vicinity"},
			"lat":         {"latitude", "lat", "location.lat"},
			"lng":         {"longitude", "lng", "location.lng"},
			"phone":       {"phone_number", "international_phone_number"},
			"email":       {"emails", "email"},
			"website":     {"website", "domain"},
			"sourceUrl":   {"url", "website"},
			"openStatus":  {"opening_status", "open_now_text"},
			"hours":       {"working_hours_list", "opening_hours"},
			"menu":        {"menu_link"},
			"tags":        {"categories", "category", "subtypes", "type"},
			"categories":  {"categories", "category", "subtypes"},
		},
		galleryCap: 5,
		tagCap:     domain.MaxTags,
		queryTags:  true,
		category: func(raw map[string]any, hint Hint) classify.Chain {
			return classify.Chain{{Classifier: classify.Generic, Signals: append(signals(raw, "categories", "category", "subtypes", "type"), hint.Query)}}
		},
	},
	ProviderTripAdvisor: {
		aliases: map[string][]string{
			"id":           {"id", "locationId"},
			"url":          {"webUrl", "url"},
			"name":         {"name"},
			"rating":       {"rating", "averageRating"},
			"reviews":      {"numberOfReviews", "num_reviews", "userReviewCount"},
			"price":        {"price_level", "priceLevel", "priceRange"},
			"priceText":    {"price_level", "priceRange", "price"},
			"description":  {"description", "snippet"},
			"image":        {"image"},
			"gallery":      {"photos", "image"},
			"address":      {"address", "address_obj.address_string", "parentGeoName"},
			"lat":          {"latitude"},
			"lng":          {"longitude"},
			"phone":        {"phone", "phone_number"},
			"email":        {"email"},
			"website":      {"website"},
			"sourceUrl":    {"webUrl", "url"},
			"openStatus":   {"currentOpenStatusText"},
			"openCategory": {"currentOpenStatusCategory"},
			"menu":         {"menuUrl", "menu_link"},
			"tags":         {"subcategories", "cuisine", "establishmentTypeAndCuisineTags", "category", "type"},
		},
		galleryCap: 8,
		tagCap:     domain.MaxTags,
		queryTags:  true,
		category: func(raw map[string]any, hint Hint) classify.Chain {
			return classify.Chain{{Classifier: classify.Generic, Signals: append(signals(raw, "category", "type"), hint.Query)}}
		},
		finish: func(p *domain.Place, raw map[string]any) {
			p.Categories = []string{string(p.Category)}
			p.Highlights = pluck(raw, "reviewSnippets.reviewSnippetsList", "reviewText", 5)
		},
	},
	ProviderOpenMap: {
		aliases: map[string][]string{
			"id":         {"place_id", "placeId", "google_id"},
			"url":        {"url", "link"},
			"name":       {"name", "title"},
			"rating":     {"rating"},
			"reviews":    {"reviews", "reviews_count"},
			"address":    {"address", "vicinity", "full_address"},
			"lat":        {"latitude", "lat"},
			"lng":        {"longitude", "lng"},
			"phone":      {"phone", "phone_number"},
			"website":    {"website"},
			"tags":       {"categories", "category", "type"},
			"categories": {"categories", "category"},
		},
		tagCap: domain.MaxTags,
		category: func(raw map[string]any, hint Hint) classify.Chain {
			return classify.Chain{{Classifier: classify.Generic, Signals: signals(raw, "categories", "category", "type")}}
		},
	},
}

// Source is the document "source" label each provider run publishes.
func (p Provider) Source() string {
	switch p {
	case ProviderCrawler:
		return "Google Maps via Apify"
	case ProviderExtractor:
		return "Apify Google Maps Extractor"
	case ProviderGoogle:
		return "Google Places"
	case ProviderLocalBusiness:
		return "local-business-data"
	case ProviderTripAdvisor, ProviderOpenMap:
		return "merged_tripadvisor_openmap"
	}
	return string(p)
}

func signals(raw map[string]any, paths ...string) []string {
	return collectStrings(raw, 0, paths...)
}

func capStrings(in []string, limit int) []string {
	if limit > 0 && len(in) > limit {
		return in[:limit]
	}
	return in
}
