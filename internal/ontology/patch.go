package ontology

import "sort"

// Patch is an additive-only difference between a current ontology and a
// freshly built candidate. Applying it never removes or rewrites anything
// that already exists.
type Patch struct {
	NewMap        map[string]string   `json:"new_map,omitempty"`
	NewCategories map[string]Category `json:"new_categories,omitempty"`
	NewValueLinks map[string][]string `json:"new_value_links,omitempty"`
}

// IsEmpty reports whether the patch would change nothing.
func (p Patch) IsEmpty() bool {
	return len(p.NewMap) == 0 && len(p.NewCategories) == 0 && len(p.NewValueLinks) == 0
}

// Suggest computes the additive difference from current to candidate: map
// entries for unseen topics, category skeletons for unseen slugs, and value
// links missing from existing value_map entries. Existing entries — and all
// values — are never part of a patch.
func Suggest(current, candidate *Ontology) Patch {
	p := Patch{
		NewMap:        map[string]string{},
		NewCategories: map[string]Category{},
		NewValueLinks: map[string][]string{},
	}

	for topic, slug := range candidate.Map {
		if _, exists := current.Map[topic]; !exists {
			p.NewMap[topic] = slug
		}
	}

	for slug, cat := range candidate.Categories {
		if _, exists := current.Categories[slug]; !exists {
			p.NewCategories[slug] = cat
		}
	}

	for slug, ids := range candidate.ValueMap {
		existing := map[string]struct{}{}
		for _, id := range current.ValueMap[slug] {
			existing[id] = struct{}{}
		}
		var missing []string
		for _, id := range ids {
			if _, ok := existing[id]; !ok {
				missing = append(missing, id)
			}
		}
		if len(missing) > 0 {
			sort.Strings(missing)
			p.NewValueLinks[slug] = missing
		}
	}

	return p
}

// Apply merges a patch into the ontology as a pure addition: new categories
// and map entries are added, value links are unioned. The receiver is not
// mutated; the merged ontology is returned.
func Apply(current *Ontology, p Patch) *Ontology {
	out := current.Clone()

	for slug, cat := range p.NewCategories {
		if _, exists := out.Categories[slug]; !exists {
			out.Categories[slug] = cat
		}
	}

	for topic, slug := range p.NewMap {
		if _, exists := out.Map[topic]; !exists {
			out.Map[topic] = slug
		}
	}

	for slug, ids := range p.NewValueLinks {
		seen := map[string]struct{}{}
		for _, id := range out.ValueMap[slug] {
			seen[id] = struct{}{}
		}
		merged := append([]string(nil), out.ValueMap[slug]...)
		for _, id := range ids {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				merged = append(merged, id)
			}
		}
		out.ValueMap[slug] = merged
	}

	return out
}
