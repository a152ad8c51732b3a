package app_test

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"castro_guide/internal/domain"
)

// ---- fakes shared by the app tests ----

type fakeDocs struct {
	doc     domain.Document
	has     bool
	cur     domain.Curation
	saves   int
	reports map[string]any
}

func (f *fakeDocs) Load(ctx context.Context) (domain.Document, error) {
	if !f.has {
		return domain.Document{}, domain.ErrNotFound
	}
	// hand out a copy so callers cannot alias the stored slice
	d := f.doc
	d.Places = slices.Clone(f.doc.Places)
	return d, nil
}

func (f *fakeDocs) Save(ctx context.Context, doc domain.Document) error {
	f.doc, f.has = doc, true
	f.saves++
	return nil
}

func (f *fakeDocs) LoadCuration(ctx context.Context) (domain.Curation, error) { return f.cur, nil }

func (f *fakeDocs) WriteReport(ctx context.Context, name string, v any) error {
	if f.reports == nil {
		f.reports = map[string]any{}
	}
	f.reports[name] = v
	return nil
}

func (f *fakeDocs) place(id string) (domain.Place, bool) {
	for _, p := range f.doc.Places {
		if p.ID == id || p.SourceID == id {
			return p, true
		}
	}
	return domain.Place{}, false
}

// fakeCache round-trips through JSON like the Redis adapter does.
type fakeCache struct {
	store map[string][]byte
	dels  int
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.store[key] = b
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.dels++
	delete(c.store, key)
	return nil
}

type fakeStaging struct {
	rows  map[string]domain.Place
	saves int
}

func (f *fakeStaging) Find(ctx context.Context, id, sourceID string) (domain.Place, error) {
	if p, ok := f.rows[id]; ok {
		return p, nil
	}
	for _, p := range f.rows {
		if sourceID != "" && p.SourceID == sourceID {
			return p, nil
		}
	}
	return domain.Place{}, domain.ErrNotFound
}

func (f *fakeStaging) Save(ctx context.Context, p domain.Place) error {
	if f.rows == nil {
		f.rows = map[string]domain.Place{}
	}
	f.rows[p.ID] = p
	f.saves++
	return nil
}

func (f *fakeStaging) Export(ctx context.Context) ([]domain.Place, error) {
	var out []domain.Place
	for _, p := range f.rows {
		if p.HasCoords() {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b domain.Place) int {
		return cmp.Or(cmp.Compare(b.Rating, a.Rating), cmp.Compare(b.ReviewCount, a.ReviewCount), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (f *fakeStaging) Stats(ctx context.Context) ([]domain.CategoryStat, error) { return nil, nil }

type actorCall struct {
	actor string
	input map[string]any
}

type fakeActors struct {
	mu    sync.Mutex
	calls []actorCall
	// items answers a run; nil means no items.
	items func(actor string, input map[string]any) ([]map[string]any, error)
}

func (f *fakeActors) run(actor string, input any) ([]map[string]any, error) {
	in, _ := input.(map[string]any)
	f.mu.Lock()
	f.calls = append(f.calls, actorCall{actor: actor, input: in})
	f.mu.Unlock()
	if f.items == nil {
		return nil, nil
	}
	return f.items(actor, in)
}

func (f *fakeActors) RunSync(ctx context.Context, actor string, input any) ([]map[string]any, error) {
	return f.run(actor, input)
}

func (f *fakeActors) Run(ctx context.Context, actor string, input any) ([]map[string]any, error) {
	return f.run(actor, input)
}

type fakePlaces struct {
	mu      sync.Mutex
	pages   map[string][]map[string]any // query -> pages in order
	details map[string]map[string]any
	errs    map[string]error
	fields  [][]string
}

func (f *fakePlaces) TextSearch(ctx context.Context, query, pageToken string) (map[string]any, error) {
	pages := f.pages[query]
	i := 0
	if pageToken != "" {
		fmt.Sscanf(pageToken, "page-%d", &i)
	}
	if i >= len(pages) {
		return map[string]any{"results": []any{}}, nil
	}
	return pages[i], nil
}

func (f *fakePlaces) Details(ctx context.Context, placeID string, fields []string) (map[string]any, error) {
	f.mu.Lock()
	f.fields = append(f.fields, fields)
	f.mu.Unlock()
	if err, ok := f.errs[placeID]; ok {
		return nil, err
	}
	d, ok := f.details[placeID]
	if !ok {
		return nil, &domain.StatusError{Provider: "google_places", Status: "NOT_FOUND"}
	}
	return d, nil
}

func (f *fakePlaces) PhotoURL(ctx context.Context, ref string, maxWidth int) (string, error) {
	return "https://photos.example/" + ref, nil
}

type fakeBusiness struct {
	byTerm map[string][]map[string]any
	limits map[string]int
}

func (f *fakeBusiness) Search(ctx context.Context, query string, limit int) ([]map[string]any, error) {
	if f.limits == nil {
		f.limits = map[string]int{}
	}
	f.limits[query] = limit
	return f.byTerm[query], nil
}

type fakeScraper struct {
	pages map[string]domain.PageMeta
}

func (f *fakeScraper) Scrape(ctx context.Context, url string) (domain.PageMeta, error) {
	m, ok := f.pages[url]
	if !ok {
		return domain.PageMeta{}, domain.ErrNotFound
	}
	return m, nil
}

type fakeRecorder struct {
	mu       sync.Mutex
	ingest   map[string]int
	enriched map[string]int
}

func (r *fakeRecorder) Ingest(provider, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ingest == nil {
		r.ingest = map[string]int{}
	}
	r.ingest[provider+"/"+outcome]++
}

func (r *fakeRecorder) Enrich(status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.enriched == nil {
		r.enriched = map[string]int{}
	}
	r.enriched[status]++
}

func ptr[T any](v T) *T { return &v }
