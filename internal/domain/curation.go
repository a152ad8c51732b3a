package domain

// Curation is the optional manual layer applied at read time (curation.json).
type Curation struct {
	RecommendedIDs []string            `json:"recommendedIds,omitempty"`
	Overrides      map[string]Override `json:"overrides,omitempty"`
}

type Override struct {
	Name        string   `json:"name,omitempty"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Highlights  []string `json:"highlights,omitempty"`
	Notes       string   `json:"notes,omitempty"`
	Priority    float64  `json:"priority,omitempty"`
}

// Lookup finds the override for a place by id, then by sourceId.
func (c Curation) Lookup(p Place) (Override, bool) {
	if ov, ok := c.Overrides[p.ID]; ok {
		return ov, true
	}
	if p.SourceID != "" {
		if ov, ok := c.Overrides[p.SourceID]; ok {
			return ov, true
		}
	}
	return Override{}, false
}
