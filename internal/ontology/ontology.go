// Package ontology maintains the persisted structure of durable values,
// categories, topic mappings, and discovered sources that the tiered memory
// links into.
//
// Two rules govern every operation here:
//   - Tier-0 values are human-curated and immutable: no pass regenerates or
//     mutates them once established.
//   - Resolution is deterministic: given fixed seed data and record set, a
//     rebuild produces byte-identical output.
package ontology

import "sort"

// Value is a durable tier-0/1 belief statement entries can link to.
type Value struct {
	ID    string `json:"id" yaml:"id"`
	Label string `json:"label" yaml:"label"`
	Tier  int    `json:"tier" yaml:"tier"`
}

// Category is one ontology category, keyed by slug.
type Category struct {
	Label        string   `json:"label" yaml:"label"`
	Description  string   `json:"description" yaml:"description"`
	Aliases      []string `json:"aliases,omitempty" yaml:"aliases,omitempty"`
	ExternalRefs []string `json:"external_refs,omitempty" yaml:"external_refs,omitempty"`
}

// Ontology is the full persisted structure.
type Ontology struct {
	Values     []Value             `json:"values"`
	Categories map[string]Category `json:"categories"`
	Map        map[string]string   `json:"map"`       // topic label → category slug
	ValueMap   map[string][]string `json:"value_map"` // category slug → value ids
}

// Empty returns a valid empty ontology (the fail-open reset target for
// malformed persisted state).
func Empty() *Ontology {
	return &Ontology{
		Categories: map[string]Category{},
		Map:        map[string]string{},
		ValueMap:   map[string][]string{},
	}
}

// Clone deep-copies the ontology.
func (o *Ontology) Clone() *Ontology {
	c := Empty()
	c.Values = append(c.Values, o.Values...)
	for slug, cat := range o.Categories {
		cat.Aliases = append([]string(nil), cat.Aliases...)
		cat.ExternalRefs = append([]string(nil), cat.ExternalRefs...)
		c.Categories[slug] = cat
	}
	for k, v := range o.Map {
		c.Map[k] = v
	}
	for k, v := range o.ValueMap {
		c.ValueMap[k] = append([]string(nil), v...)
	}
	return c
}

// ValueByID looks up a value.
func (o *Ontology) ValueByID(id string) (Value, bool) {
	for _, v := range o.Values {
		if v.ID == id {
			return v, true
		}
	}
	return Value{}, false
}

// TierValues returns the values of one tier, in stored order.
func (o *Ontology) TierValues(tier int) []Value {
	var out []Value
	for _, v := range o.Values {
		if v.Tier == tier {
			out = append(out, v)
		}
	}
	return out
}

// CategorySlugs returns the category slugs in sorted order, for
// deterministic iteration.
func (o *Ontology) CategorySlugs() []string {
	slugs := make([]string, 0, len(o.Categories))
	for s := range o.Categories {
		slugs = append(slugs, s)
	}
	sort.Strings(slugs)
	return slugs
}

// PatternRule maps a topic-matching regex to a category slug. Rules are
// ordered: the first match wins.
type PatternRule struct {
	Pattern string `yaml:"pattern"`
	Slug    string `yaml:"slug"`
}

// Author is a seed-registered author matched against excerpts via ISBNs or
// title patterns.
type Author struct {
	Name         string   `yaml:"name"`
	ISBNs        []string `yaml:"isbns,omitempty"`
	BookPatterns []string `yaml:"book_patterns,omitempty"`
	Subjects     []string `yaml:"subjects,omitempty"`
}

// Seeds is the human-curated input to category resolution and source
// discovery.
type Seeds struct {
	Categories map[string]Category `yaml:"categories"`
	Aliases    map[string]string   `yaml:"aliases"`  // lowercase alias → slug
	Patterns   []PatternRule       `yaml:"patterns"` // ordered
	Authors    []Author            `yaml:"authors"`
}
