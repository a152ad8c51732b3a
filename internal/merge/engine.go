// Package merge combines place records from several providers and passes.
package merge

import "castro_guide/internal/domain"

type Decision int

const (
	Inserted Decision = iota
	Updated
	Kept
)

func (d Decision) String() string {
	switch d {
	case Inserted:
		return "insert"
	case Updated:
		return "update"
	default:
		return "keep"
	}
}

type Engine struct {
	rules         []fieldRule
	overrides     map[string]Strategy
	authoritative bool
	always        bool
}

type Option func(*Engine)

// WithAuthoritative upgrades every FillIfMissing field to Refresh, for
// re-enrichment passes whose source is trusted over stored values.
func WithAuthoritative() Option { return func(e *Engine) { e.authoritative = true } }

// WithStrategy overrides the strategy of a single field by its JSON name.
// Overrides win over WithAuthoritative.
func WithStrategy(field string, s Strategy) Option {
	return func(e *Engine) { e.overrides[field] = s }
}

// WithAlwaysUpdate makes Decide return Updated for every existing record,
// for passes that patch known places regardless of rating movement.
func WithAlwaysUpdate() Option { return func(e *Engine) { e.always = true } }

func New(opts ...Option) *Engine {
	e := &Engine{rules: defaultRules(), overrides: map[string]Strategy{}}
	for _, o := range opts {
		o(e)
	}
	return e
}

// StrategyFor reports the effective strategy of a field.
func (e *Engine) StrategyFor(field string) Strategy {
	for _, r := range e.rules {
		if r.Name == field {
			return e.effective(r)
		}
	}
	return Keep
}

func (e *Engine) effective(r fieldRule) Strategy {
	if o, ok := e.overrides[r.Name]; ok {
		return o
	}
	if e.authoritative && r.Strategy == FillIfMissing {
		return Refresh
	}
	return r.Strategy
}

// Decide picks insert, update or keep for incoming against existing (nil when
// unknown). An existing record is updated when the incoming rating or review
// count is strictly higher, or when it lacks a description or image.
//
// When rating and review count move in opposite directions the two feeds
// disagree. If both carry a provider observation time the newer observation
// wins. Otherwise the higher rating wins, so stored (rating, reviewCount)
// pairs only ever grow and repeated passes over the same feeds settle.
func (e *Engine) Decide(existing *domain.Place, incoming domain.Place) Decision {
	if existing == nil {
		return Inserted
	}
	if e.always {
		return Updated
	}
	if missingText(existing.Description) || missingText(existing.Image) {
		return Updated
	}
	ratingUp := incoming.Rating > existing.Rating
	reviewsUp := incoming.ReviewCount > existing.ReviewCount
	conflict := (ratingUp && incoming.ReviewCount < existing.ReviewCount) ||
		(reviewsUp && incoming.Rating < existing.Rating)
	switch {
	case conflict:
		if newer, ok := observedNewer(incoming, *existing); ok {
			return decision(newer)
		}
		return decision(ratingUp)
	case ratingUp || reviewsUp:
		return Updated
	}
	return Kept
}

func decision(update bool) Decision {
	if update {
		return Updated
	}
	return Kept
}

// Merge applies the field table and returns the merged record. existing is
// not modified.
func (e *Engine) Merge(existing, incoming domain.Place) domain.Place {
	out := existing
	for _, r := range e.rules {
		r.apply(&out, &incoming, e.effective(r))
	}
	return out
}

// Apply decides and merges in one step.
func (e *Engine) Apply(existing *domain.Place, incoming domain.Place) (domain.Place, Decision) {
	d := e.Decide(existing, incoming)
	switch d {
	case Inserted:
		return incoming, d
	case Updated:
		return e.Merge(*existing, incoming), d
	}
	return *existing, d
}

// observedNewer compares provider observation times; ok is false when either
// side has none. Equal times count as newer.
func observedNewer(incoming, existing domain.Place) (newer, ok bool) {
	if incoming.ObservedAt == nil || existing.ObservedAt == nil {
		return false, false
	}
	return !incoming.ObservedAt.Before(*existing.ObservedAt), true
}
