package pipeline

import "sort"

// Dedupe merges records sharing a (excerpt, role) key. The first-seen record
// is canonical; later records fold into it:
//   - provenance ids concatenate in input order, separator-joined
//   - subtopic tags and entities union, emitted sorted
//   - priority keeps the minimum (lower number = higher importance)
//   - memory_candidate: yes dominates
//
// Output preserves the input order of first appearance. Dedupe is
// idempotent: running it over its own output is a no-op.
func Dedupe(records []Record) []Record {
	index := make(map[Key]int, len(records))
	out := make([]Record, 0, len(records))

	for _, r := range records {
		key := KeyOf(r)
		i, seen := index[key]
		if !seen {
			index[key] = len(out)
			out = append(out, r)
			continue
		}

		canonical := &out[i]
		canonical.ProvenanceID += ProvenanceSeparator + r.ProvenanceID
		canonical.SubtopicTags = sortedUnion(canonical.SubtopicTags, r.SubtopicTags)
		canonical.Entities = sortedUnion(canonical.Entities, r.Entities)
		if r.Priority < canonical.Priority {
			canonical.Priority = r.Priority
		}
		if r.MemoryCandidate {
			canonical.MemoryCandidate = true
		}
	}

	return out
}

func sortedUnion(a, b []string) []string {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(a)+len(b))
	for _, v := range a {
		if v != "" {
			set[v] = struct{}{}
		}
	}
	for _, v := range b {
		if v != "" {
			set[v] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
