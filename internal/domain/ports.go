package domain

import "context"

// StagingRepository is the crawl staging store (SQLite by default, MySQL optional).
type StagingRepository interface {
	// Write paths
	Find(ctx context.Context, id, sourceID string) (Place, error) // ErrNotFound when absent
	Save(ctx context.Context, p Place) error

	// Read paths
	Export(ctx context.Context) ([]Place, error)
	Stats(ctx context.Context) ([]CategoryStat, error)
}

// DocumentStore reads and writes the published documents.
type DocumentStore interface {
	Load(ctx context.Context) (Document, error)
	Save(ctx context.Context, doc Document) error
	LoadCuration(ctx context.Context) (Curation, error)
	WriteReport(ctx context.Context, name string, v any) error
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// PlacesAPI is the Google Places web service.
type PlacesAPI interface {
	TextSearch(ctx context.Context, query, pageToken string) (map[string]any, error)
	Details(ctx context.Context, placeID string, fields []string) (map[string]any, error)
	PhotoURL(ctx context.Context, photoRef string, maxWidth int) (string, error)
}

// ActorRunner runs Apify actors and returns their dataset items.
type ActorRunner interface {
	RunSync(ctx context.Context, actorID string, input any) ([]map[string]any, error)
	Run(ctx context.Context, actorID string, input any) ([]map[string]any, error)
}

// BusinessSearcher is the RapidAPI local-business search.
type BusinessSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]map[string]any, error)
}

type PageScraper interface {
	Scrape(ctx context.Context, url string) (PageMeta, error)
}
