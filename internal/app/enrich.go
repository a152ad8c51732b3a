package app

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"castro_guide/internal/curation"
	"castro_guide/internal/domain"
	"castro_guide/internal/merge"
)

const (
	EnrichReport   = "enrich-report.json"
	maxReportFails = 200
	photoSleep     = 150 * time.Millisecond
	minDescRunes   = 20
)

// detailFields are always requested; photos and editorial_summary are added
// per run because they are billed separately.
var detailFields = []string{
	"place_id", "name", "formatted_address", "geometry",
	"formatted_phone_number", "website", "url", "opening_hours",
	"rating", "user_ratings_total", "price_level", "types",
}

type EnrichOptions struct {
	Limit int
	Sleep time.Duration
	// All re-enriches every place and turns on photos and editorial text.
	All          bool
	ForceMissing bool
	Photos       int
	Editorial    bool
	NoEditorial  bool
	Workers      int
}

type EnrichResult struct {
	RunID     string
	Processed int
	Updated   int
	Failures  int
}

type EnrichFailure struct {
	PlaceID      string `json:"placeId"`
	Name         string `json:"name"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
}

type EnrichSummary struct {
	RunID     string         `json:"runId"`
	UpdatedAt time.Time      `json:"updatedAt"`
	Processed int            `json:"processed"`
	Updated   int            `json:"updated"`
	Failures  int            `json:"failures"`
	Statuses  map[string]int `json:"statuses"`
}

type EnrichReportDoc struct {
	Summary  EnrichSummary   `json:"summary"`
	Failures []EnrichFailure `json:"failures"`
}

type enrichJob struct {
	pos     int
	placeID string
	place   domain.Place
}

type enrichOutcome struct {
	details map[string]any
	photos  []string
	err     error
}

func (o EnrichOptions) normalized() EnrichOptions {
	if o.All {
		if o.Photos == 0 {
			o.Photos = 6
		}
		if !o.NoEditorial {
			o.Editorial = true
		}
	}
	if o.NoEditorial {
		o.Editorial = false
	}
	if o.Photos < 0 {
		o.Photos = 0
	}
	if o.Workers <= 0 {
		o.Workers = 1
	}
	return o
}

// Enrich refreshes known places from Google place details. Without All only
// places missing phone, website, a real description or hours are fetched.
func (s *IngestionService) Enrich(ctx context.Context, opts EnrichOptions) (EnrichResult, error) {
	res := EnrichResult{RunID: uuid.NewString()}
	if s.places == nil || s.docs == nil {
		return res, errors.New("enrich: places api and docs are required")
	}
	opts = opts.normalized()
	logger := log.With().Str("run_id", res.RunID).Logger()

	doc, ix, err := s.loadIndex(ctx)
	if err != nil {
		return res, err
	}
	places := ix.Places()

	jobs := s.selectForEnrich(places, opts)
	logger.Info().Int("places", len(places)).Int("selected", len(jobs)).Bool("all", opts.All).
		Int("photos", opts.Photos).Bool("editorial", opts.Editorial).Msg("enrich start")

	fields := append([]string(nil), detailFields...)
	if opts.Editorial {
		fields = append(fields, "editorial_summary")
	}
	if opts.Photos > 0 {
		fields = append(fields, "photos")
	}

	outcomes := make([]enrichOutcome, len(jobs))
	var next atomic.Int64
	var wg sync.WaitGroup
	for w := 0; w < min(opts.Workers, max(len(jobs), 1)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(next.Add(1) - 1)
				if i >= len(jobs) || ctx.Err() != nil {
					return
				}
				outcomes[i] = s.fetchDetails(ctx, jobs[i].placeID, fields, opts.Photos)
				if err := sleepCtx(ctx, opts.Sleep); err != nil {
					return
				}
			}
		}()
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return res, err
	}

	engine := merge.New(
		merge.WithAlwaysUpdate(),
		merge.WithAuthoritative(),
		merge.WithStrategy("image", merge.FillIfMissing),
		merge.WithStrategy("gallery", merge.FillIfMissing),
		merge.WithStrategy("description", merge.Keep),
		merge.WithStrategy("subcategories", merge.Keep),
		merge.WithStrategy("_discoveredAt", merge.Keep),
	)
	report := EnrichReportDoc{Summary: EnrichSummary{RunID: res.RunID, Statuses: map[string]int{}}}

	for i, job := range jobs {
		out := outcomes[i]
		res.Processed++
		if out.err != nil {
			f := EnrichFailure{PlaceID: job.placeID, Name: job.place.Name, Status: "ERROR", ErrorMessage: out.err.Error()}
			var se *domain.StatusError
			if errors.As(out.err, &se) {
				f.Status, f.ErrorMessage = se.Status, se.Message
			}
			report.Failures = append(report.Failures, f)
			report.Summary.Statuses[f.Status]++
			s.rec.Enrich(f.Status)
			logger.Warn().Str("place_id", job.placeID).Str("name", job.place.Name).Str("status", f.Status).Msg("details failed")
			continue
		}

		p := s.enrichPatch(job.place, out)
		merged := engine.Merge(job.place, p)
		if opts.Editorial {
			if overview := lookupStr(out.details, "editorial_summary.overview"); overview != "" && s.weakDescription(job.place) {
				merged.Description = s.norm.describe(overview, merged)
			}
		}
		merged.EnrichedAt = s.stamp()
		places[job.pos] = merged
		res.Updated++
		s.rec.Enrich("OK")
		logger.Debug().Str("id", merged.ID).Str("name", merged.Name).Msg("enriched")
	}
	res.Failures = len(report.Failures)

	if res.Updated > 0 {
		if err := s.publish(ctx, doc, merge.NewIndex(places), ProviderGoogle.Source()); err != nil {
			return res, err
		}
	}

	report.Summary.UpdatedAt = s.now().UTC()
	report.Summary.Processed = res.Processed
	report.Summary.Updated = res.Updated
	report.Summary.Failures = res.Failures
	if len(report.Failures) > maxReportFails {
		report.Failures = report.Failures[:maxReportFails]
	}
	if report.Failures == nil {
		report.Failures = []EnrichFailure{}
	}
	if err := s.docs.WriteReport(ctx, EnrichReport, report); err != nil {
		logger.Warn().Err(err).Msg("write enrich report")
	}
	logger.Info().Int("processed", res.Processed).Int("updated", res.Updated).Int("failures", res.Failures).Msg("enrich done")
	return res, nil
}

func (s *IngestionService) selectForEnrich(places []domain.Place, opts EnrichOptions) []enrichJob {
	var jobs []enrichJob
	for i, p := range places {
		if opts.Limit > 0 && len(jobs) >= opts.Limit {
			break
		}
		id := p.Key()
		if id == "" {
			continue
		}
		if !opts.All {
			if p.EnrichedAt != nil && !opts.ForceMissing {
				continue
			}
			if !s.missingRichness(p) {
				continue
			}
		}
		jobs = append(jobs, enrichJob{pos: i, placeID: id, place: p})
	}
	return jobs
}

func (s *IngestionService) missingRichness(p domain.Place) bool {
	return merge.MissingText(p.Phone) || merge.MissingText(p.Website) ||
		len(p.Hours) == 0 || s.weakDescription(p)
}

// weakDescription is true for missing, placeholder, generated or very short
// descriptions.
func (s *IngestionService) weakDescription(p domain.Place) bool {
	d := strings.TrimSpace(p.Description)
	if merge.MissingText(d) || utf8.RuneCountInString(d) < minDescRunes {
		return true
	}
	return d == s.norm.Fallback(p) || d == curation.FallbackDescription(p.Category, s.norm.cur)
}

func (s *IngestionService) fetchDetails(ctx context.Context, placeID string, fields []string, photos int) enrichOutcome {
	details, err := s.places.Details(ctx, placeID, fields)
	if err != nil {
		return enrichOutcome{err: err}
	}
	out := enrichOutcome{details: details}
	for _, ref := range photoRefs(details, photos) {
		u, err := s.places.PhotoURL(ctx, ref, 1000)
		if err != nil {
			log.Debug().Err(err).Str("place_id", placeID).Msg("photo lookup failed")
		} else if u != "" {
			out.photos = append(out.photos, u)
		}
		if sleepCtx(ctx, photoSleep) != nil {
			break
		}
	}
	return out
}

// enrichPatch maps place details onto the identity of the stored place. The
// description is applied separately because only editorial text may replace
// a weak one.
func (s *IngestionService) enrichPatch(cur domain.Place, out enrichOutcome) domain.Place {
	p, _ := s.norm.Normalize(ProviderGoogle, out.details, Hint{Category: cur.Category})
	p.ID, p.SourceID = cur.ID, cur.SourceID
	if lookupStr(out.details, "name") == "" {
		p.Name = ""
	}
	p.Description = ""
	p.OriginQueries = nil
	if len(out.photos) > 0 {
		p.Image = out.photos[0]
		p.Gallery = out.photos
	}
	return p
}
