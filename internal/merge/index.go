package merge

import "castro_guide/internal/domain"

// Index is an insertion-ordered place store keyed by id with a secondary
// lookup by sourceId.
type Index struct {
	places   []domain.Place
	byID     map[string]int
	bySource map[string]int
}

func NewIndex(places []domain.Place) *Index {
	ix := &Index{byID: map[string]int{}, bySource: map[string]int{}}
	for _, p := range places {
		if i, ok := ix.lookup(p.ID, p.SourceID); ok {
			// duplicate in the input: later entries replace earlier ones in place
			ix.places[i] = p
			ix.register(i, p)
			continue
		}
		ix.places = append(ix.places, p)
		ix.register(len(ix.places)-1, p)
	}
	return ix
}

func (ix *Index) register(i int, p domain.Place) {
	if p.ID != "" {
		ix.byID[p.ID] = i
	}
	if p.SourceID != "" {
		ix.bySource[p.SourceID] = i
	}
}

func (ix *Index) lookup(id, sourceID string) (int, bool) {
	for _, k := range []struct {
		m   map[string]int
		key string
	}{
		{ix.byID, id}, {ix.bySource, sourceID}, {ix.bySource, id}, {ix.byID, sourceID},
	} {
		if k.key == "" {
			continue
		}
		if i, ok := k.m[k.key]; ok {
			return i, true
		}
	}
	return 0, false
}

// Get returns the stored place matching id or sourceId.
func (ix *Index) Get(id, sourceID string) (domain.Place, bool) {
	if i, ok := ix.lookup(id, sourceID); ok {
		return ix.places[i], true
	}
	return domain.Place{}, false
}

// Has reports whether a place with this key is stored.
func (ix *Index) Has(key string) bool {
	_, ok := ix.lookup(key, key)
	return ok
}

// Put stores p, replacing the entry with the same identity if any.
func (ix *Index) Put(p domain.Place) {
	if i, ok := ix.lookup(p.ID, p.SourceID); ok {
		ix.places[i] = p
		ix.register(i, p)
		return
	}
	ix.places = append(ix.places, p)
	ix.register(len(ix.places)-1, p)
}

// Upsert runs the engine against the stored record and stores the result.
func (ix *Index) Upsert(e *Engine, incoming domain.Place) (domain.Place, Decision) {
	var existing *domain.Place
	if i, ok := ix.lookup(incoming.ID, incoming.SourceID); ok {
		p := ix.places[i]
		existing = &p
	}
	merged, d := e.Apply(existing, incoming)
	if d != Kept {
		ix.Put(merged)
	}
	return merged, d
}

func (ix *Index) Len() int { return len(ix.places) }

// Places returns a copy of the stored places in insertion order.
func (ix *Index) Places() []domain.Place {
	out := make([]domain.Place, len(ix.places))
	copy(out, ix.places)
	return out
}
