package pipeline

import (
	"sort"
	"time"

	"github.com/hurttlocker/recall/internal/classify"
)

// Refine normalizes the working set after tiering: records whose excerpt
// appears in a tier-0/1 entry are forced to memory_candidate=yes with
// priority floored at 1; empty thread ids and intents are backfilled.
func Refine(records []Record, tier01Excerpts map[string]struct{}) {
	for i := range records {
		r := &records[i]
		if r.ThreadID == "" {
			r.ThreadID = "Untitled"
		}
		if r.Intent == "" {
			r.Intent = classify.Intent(r.Excerpt)
		}
		if _, ok := tier01Excerpts[r.Excerpt]; ok {
			r.MemoryCandidate = true
			if r.Priority > 1 {
				r.Priority = 1
			}
		}
	}
}

// LinkEvolution builds the per-(topic, role) chronology: within each group,
// records sort by (timestamp ascending, excerpt as tie-break; missing
// timestamps first) and each record's evolution link is set to the
// provenance id of its predecessor, empty for the first. Record order in
// the slice itself is untouched.
func LinkEvolution(records []Record) {
	type groupKey struct{ topic, role string }
	groups := make(map[groupKey][]int)
	for i, r := range records {
		k := groupKey{r.PrimaryTopic, r.Role}
		groups[k] = append(groups[k], i)
	}

	for _, idx := range groups {
		sort.SliceStable(idx, func(a, b int) bool {
			ta := tsOrZero(records[idx[a]].Timestamp)
			tb := tsOrZero(records[idx[b]].Timestamp)
			if !ta.Equal(tb) {
				return ta.Before(tb)
			}
			return records[idx[a]].Excerpt < records[idx[b]].Excerpt
		})
		prev := ""
		for _, i := range idx {
			records[i].EvolutionLink = prev
			prev = records[i].ProvenanceID
		}
	}
}

func tsOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
