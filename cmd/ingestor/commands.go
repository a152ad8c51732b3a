package main

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"castro_guide/internal/adapters/apify"
	"castro_guide/internal/adapters/googleplaces"
	"castro_guide/internal/adapters/localbusiness"
	"castro_guide/internal/adapters/observability"
	"castro_guide/internal/adapters/pagescrape"
	redisad "castro_guide/internal/adapters/redis"
	"castro_guide/internal/app"
	"castro_guide/internal/domain"
	"castro_guide/internal/shared"
	"castro_guide/internal/storage/jsondoc"
	mysqlrepo "castro_guide/internal/storage/mysql"
	"castro_guide/internal/storage/sqlite"
	"castro_guide/internal/storage/staging"
)

type command func(ctx context.Context, cfg shared.Config, args []string) error

var commands = map[string]command{
	"crawl":         runCrawl,
	"expand":        runExpand,
	"enrich":        runEnrich,
	"extract":       runExtract,
	"localbusiness": runLocalBusiness,
	"merged":        runMerged,
	"subcategories": runSubcategories,
}

// base wires what every command shares: the document store, the catalog
// cache (best effort) and the normalizer.
func base(ctx context.Context, cfg shared.Config) app.Deps {
	opts := cfg.Curation()
	d := app.Deps{
		Docs:     jsondoc.New(cfg.DataDir),
		Norm:     app.NewNormalizer(cfg.Hotel.Point(), opts),
		Recorder: observability.Pipeline{},
	}
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := cache.Ping(pingCtx); err != nil {
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unavailable, catalog cache will expire on its own")
		_ = cache.Close()
		return d
	}
	d.Cache = cache
	return d
}

func openStaging(cfg shared.Config) (*staging.Repo, error) {
	switch cfg.Staging {
	case "mysql":
		return mysqlrepo.Open(cfg.MySQLDSN)
	default:
		return sqlite.Open(cfg.SQLitePath)
	}
}

func googleClient(cfg shared.Config) (*googleplaces.Client, error) {
	if err := cfg.RequireGoogle(); err != nil {
		return nil, err
	}
	return googleplaces.New(cfg.Google.BaseURL, cfg.Google.APIKey, cfg.Google.Language, cfg.Google.RPS)
}

// apifyClient picks the free-tier token for free actors and the paid one otherwise.
func apifyClient(cfg shared.Config, free bool) (*apify.Client, error) {
	if err := cfg.RequireApify(); err != nil {
		return nil, err
	}
	return apify.New(cfg.Apify.BaseURL, cfg.Apify.TokenFor(free), cfg.Apify.RPS)
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("%s: unexpected arguments %v", fs.Name(), fs.Args())
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '|' }) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// crawlQueries keeps the default crawl queries of the given categories.
func crawlQueries(categories []string) ([]shared.SearchQuery, error) {
	if len(categories) == 0 {
		return shared.CrawlQueries, nil
	}
	want := map[domain.Category]bool{}
	for _, c := range categories {
		cat := domain.Category(c)
		if !cat.Valid() {
			return nil, fmt.Errorf("crawl: unknown category %q", c)
		}
		want[cat] = true
	}
	var out []shared.SearchQuery
	for _, q := range shared.CrawlQueries {
		if want[q.Category] {
			out = append(out, q)
		}
	}
	return out, nil
}

func runCrawl(ctx context.Context, cfg shared.Config, args []string) error {
	fs := flag.NewFlagSet("crawl", flag.ContinueOnError)
	cats := fs.String("queries", "", "only crawl queries of these categories (comma separated)")
	maxPer := fs.Int("max", 0, "override max places per query")
	sleep := fs.Duration("sleep", 3*time.Second, "pause between queries")
	if err := parse(fs, args); err != nil {
		return err
	}
	queries, err := crawlQueries(splitList(*cats))
	if err != nil {
		return err
	}

	actors, err := apifyClient(cfg, true)
	if err != nil {
		return err
	}
	repo, err := openStaging(cfg)
	if err != nil {
		return err
	}
	defer repo.Close()

	d := base(ctx, cfg)
	d.Actors, d.Staging = actors, repo
	res, err := app.NewIngestionService(d).Crawl(ctx, app.CrawlOptions{
		Location:    cfg.LocationQuery,
		Queries:     queries,
		MaxPerQuery: *maxPer,
		Sleep:       *sleep,
	})
	log.Info().Int("collected", res.Collected).Int("inserted", res.Inserted).Int("updated", res.Updated).
		Int("kept", res.Kept).Int("dropped", res.Dropped).Int("failed", res.Failed).Int("exported", res.Exported).
		Msg("crawl finished")
	return err
}

func runExpand(ctx context.Context, cfg shared.Config, args []string) error {
	fs := flag.NewFlagSet("expand", flag.ContinueOnError)
	target := fs.Int("target", 500, "stop once the document holds this many places")
	sleep := fs.Duration("sleep", 2*time.Second, "pause between result pages")
	maxPer := fs.Int("max-per-query", 60, "max results taken from one query")
	width := fs.Int("photo-width", 1000, "photo width requested from Google")
	if err := parse(fs, args); err != nil {
		return err
	}
	places, err := googleClient(cfg)
	if err != nil {
		return err
	}

	d := base(ctx, cfg)
	d.Places = places
	res, err := app.NewIngestionService(d).Expand(ctx, app.ExpandOptions{
		Queries:     shared.ExpandQueries,
		Target:      *target,
		MaxPerQuery: *maxPer,
		Sleep:       *sleep,
		PhotoWidth:  *width,
	})
	log.Info().Int("added", res.Added).Int("skipped", res.Skipped).Int("failed", res.Failed).Int("total", res.Total).
		Msg("expand finished")
	return err
}

func runEnrich(ctx context.Context, cfg shared.Config, args []string) error {
	fs := flag.NewFlagSet("enrich", flag.ContinueOnError)
	var o app.EnrichOptions
	fs.IntVar(&o.Limit, "limit", 0, "max places to enrich (0 = no limit)")
	fs.DurationVar(&o.Sleep, "sleep", 150*time.Millisecond, "pause between details calls per worker")
	fs.BoolVar(&o.All, "all", false, "re-enrich every place, with photos and editorial text")
	fs.BoolVar(&o.ForceMissing, "force-missing", false, "retry places already enriched that still miss fields")
	fs.IntVar(&o.Photos, "photos", 0, "photos to resolve per place")
	fs.BoolVar(&o.Editorial, "editorial", false, "request the editorial summary")
	fs.BoolVar(&o.NoEditorial, "no-editorial", false, "never request the editorial summary")
	fs.IntVar(&o.Workers, "workers", cfg.Workers, "concurrent details calls")
	if err := parse(fs, args); err != nil {
		return err
	}
	places, err := googleClient(cfg)
	if err != nil {
		return err
	}

	d := base(ctx, cfg)
	d.Places = places
	res, err := app.NewIngestionService(d).Enrich(ctx, o)
	log.Info().Str("enrich_run", res.RunID).Int("processed", res.Processed).Int("updated", res.Updated).
		Int("failures", res.Failures).Msg("enrich finished")
	return err
}

func runExtract(ctx context.Context, cfg shared.Config, args []string) error {
	fs := flag.NewFlagSet("extract", flag.ContinueOnError)
	var o app.ExtractOptions
	fs.StringVar(&o.Location, "location", cfg.LocationQuery, "location sent to the extractor")
	fs.StringVar(&o.Language, "language", "pt-BR", "result language")
	fs.IntVar(&o.MaxPerQuery, "max", 0, "max places per category")
	fs.StringVar(&o.MinStars, "min-stars", "", "minimum stars filter understood by the actor")
	cats := fs.String("categories", strings.Join(shared.ExtractorCategories, ","), "category filter words")
	fs.BoolVar(&o.AddNew, "add-new", false, "append places not yet in the document")
	if err := parse(fs, args); err != nil {
		return err
	}
	o.Categories = splitList(*cats)

	actors, err := apifyClient(cfg, false)
	if err != nil {
		return err
	}
	d := base(ctx, cfg)
	d.Actors = actors
	rep, err := app.NewIngestionService(d).Extract(ctx, o)
	log.Info().Int("items", rep.Items).Int("matched", rep.Matched).Int("updated", rep.Updated).
		Int("added", rep.Added).Int("total", rep.TotalPlaces).Msg("extract finished")
	return err
}

func runLocalBusiness(ctx context.Context, cfg shared.Config, args []string) error {
	fs := flag.NewFlagSet("localbusiness", flag.ContinueOnError)
	terms := fs.String("terms", "", "search terms separated by | (default: configured terms)")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := cfg.RequireRapidAPI(); err != nil {
		return err
	}
	list := cfg.SearchTerms
	if *terms != "" {
		list = splitList(*terms)
	}
	searcher, err := localbusiness.New(cfg.RapidAPI.BaseURL, cfg.RapidAPI.Key, cfg.RapidAPI.Host, cfg.RapidAPI.RPS)
	if err != nil {
		return err
	}

	d := base(ctx, cfg)
	d.Business = searcher
	res, err := app.NewIngestionService(d).LocalBusiness(ctx, list)
	log.Info().Int("fetched", res.Fetched).Int("unique", res.Unique).Int("inserted", res.Inserted).
		Int("updated", res.Updated).Int("kept", res.Kept).Int("failed", res.Failed).Msg("localbusiness finished")
	return err
}

func runMerged(ctx context.Context, cfg shared.Config, args []string) error {
	fs := flag.NewFlagSet("merged", flag.ContinueOnError)
	var o app.MergedOptions
	terms := fs.String("terms", "", "TripAdvisor search terms separated by | (default: configured terms)")
	fs.IntVar(&o.GeocodeLimit, "geocode-limit", 200, "max places sent to the geocoder")
	fs.IntVar(&o.Workers, "workers", cfg.Workers, "concurrent geocode and scrape workers")
	fs.BoolVar(&o.Scrape, "scrape", false, "scrape listing pages for gallery and description")
	if err := parse(fs, args); err != nil {
		return err
	}
	o.Terms = cfg.SearchTerms
	if *terms != "" {
		o.Terms = splitList(*terms)
	}
	o.Location = cfg.LocationQuery

	paid, err := apifyClient(cfg, false)
	if err != nil {
		return err
	}
	free, err := apifyClient(cfg, true)
	if err != nil {
		return err
	}
	d := base(ctx, cfg)
	d.Actors, d.FreeActors = paid, free
	if o.Scrape {
		d.Scraper = pagescrape.New(2)
	}
	res, err := app.NewIngestionService(d).Merged(ctx, o)
	log.Info().Int("collected", res.Collected).Int("unique", res.Unique).Int("geocoded", res.Geocoded).
		Int("scraped", res.Scraped).Int("inserted", res.Inserted).Int("updated", res.Updated).
		Int("kept", res.Kept).Int("failed", res.Failed).Msg("merged finished")
	return err
}

func runSubcategories(ctx context.Context, cfg shared.Config, args []string) error {
	fs := flag.NewFlagSet("subcategories", flag.ContinueOnError)
	if err := parse(fs, args); err != nil {
		return err
	}
	res, err := app.NewIngestionService(base(ctx, cfg)).Subcategories(ctx)
	log.Info().Int("total", res.Total).Int("changed", res.Changed).Msg("subcategories finished")
	return err
}
