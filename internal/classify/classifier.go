// Package classify maps free-text provider signals to guide categories and
// derives subcategory labels and tags from them.
package classify

import "castro_guide/internal/domain"

// Classifier evaluates an ordered rule list; the first matching rule wins.
type Classifier struct {
	name     string
	rules    []Rule
	fallback domain.Category
}

// New builds a classifier. An empty fallback makes Classify return
// domain.Attractions when nothing matches.
func New(name string, fallback domain.Category, rules ...Rule) *Classifier {
	return &Classifier{name: name, rules: rules, fallback: fallback}
}

func (c *Classifier) Name() string { return c.name }

// Match reports the category of the first rule matching the folded signals.
func (c *Classifier) Match(signals ...string) (domain.Category, bool) {
	text := FoldJoin(signals...)
	if text == "" {
		return "", false
	}
	for _, r := range c.rules {
		if r.Pattern.MatchString(text) {
			return r.Category, true
		}
	}
	return "", false
}

// Classify always returns a valid category.
func (c *Classifier) Classify(signals ...string) domain.Category {
	if cat, ok := c.Match(signals...); ok {
		return cat
	}
	if c.fallback != "" {
		return c.fallback
	}
	return domain.Attractions
}

// Chain tries each step in order; the first step that matches decides.
type Chain []Step

// Step pairs a classifier with the signals it reads.
type Step struct {
	Classifier *Classifier
	Signals    []string
}

func (ch Chain) Classify(fallback domain.Category) domain.Category {
	cat, _ := ch.Decide(fallback)
	return cat
}

// Decide is Classify that also names the classifier that matched, or
// "fallback".
func (ch Chain) Decide(fallback domain.Category) (domain.Category, string) {
	for _, s := range ch {
		if cat, ok := s.Classifier.Match(s.Signals...); ok {
			return cat, s.Classifier.Name()
		}
	}
	if fallback.Valid() {
		return fallback, "fallback"
	}
	return domain.Attractions, "fallback"
}
