package tier

import (
	"regexp"
	"sort"
	"strings"

	"github.com/hurttlocker/recall/internal/ontology"
	"github.com/hurttlocker/recall/internal/token"
)

const (
	// maxValueLinks caps linked values per entry.
	maxValueLinks = 2

	// minComputedScore is the token-overlap floor for computed candidates;
	// manual value_map hints are exempt.
	minComputedScore = 2

	// maxInfluences caps detected influence phrases per entry.
	maxInfluences = 3

	// crossRefExcerptWords caps the excerpt column of a cross-reference row.
	crossRefExcerptWords = 15
)

// ValueLink is one durable value linked to a tier entry. Tier is 0 or 1
// (values only exist at those tiers). Manual reports whether the link came
// from a curated value_map hint rather than token scoring.
type ValueLink struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Score  int    `json:"score"`
	Tier   int    `json:"tier"`
	Manual bool   `json:"manual,omitempty"`
}

// LinkValues resolves the durable values an entry relates to: token-overlap
// scored candidates combined with manual value_map hints for the entry's
// category. Manual hints always rank above computed candidates; duplicates
// keep the maximum score. Top maxValueLinks returned. Ordering within each
// group is (score desc, id asc) — the documented tie-break.
func LinkValues(e Entry, ont *ontology.Ontology) []ValueLink {
	slug := ont.Map[e.PrimaryTopic]

	manual := map[string]struct{}{}
	if slug != "" {
		for _, id := range ont.ValueMap[slug] {
			manual[id] = struct{}{}
		}
	}

	entryTokens := token.Set(e.PrimaryTopic + " " + e.Excerpt)

	links := map[string]ValueLink{}
	for _, v := range ont.Values {
		vTokens := token.Set(v.Label)
		score := token.Overlap(vTokens, entryTokens)
		_, isManual := manual[v.ID]
		if !isManual && score < minComputedScore {
			continue
		}
		cur, seen := links[v.ID]
		if seen && cur.Score >= score {
			continue
		}
		links[v.ID] = ValueLink{ID: v.ID, Label: v.Label, Score: score, Tier: v.Tier, Manual: isManual}
	}

	out := make([]ValueLink, 0, len(links))
	for _, l := range links {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Manual != out[j].Manual {
			return out[i].Manual
		}
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > maxValueLinks {
		out = out[:maxValueLinks]
	}
	return out
}

var influenceRx = regexp.MustCompile(`\b[A-Z][a-zA-Z]+(?:\s+[A-Z][a-zA-Z]+){0,2}\b`)

// influenceStops are leading words that disqualify a candidate phrase:
// sentence-starting function words and month names.
var influenceStops = map[string]struct{}{
	"The": {}, "This": {}, "That": {}, "There": {}, "These": {}, "Those": {},
	"What": {}, "When": {}, "Where": {}, "Which": {}, "While": {}, "Who": {},
	"How": {}, "Why": {}, "And": {}, "But": {}, "For": {}, "Not": {},
	"You": {}, "Your": {}, "Yes": {}, "If": {}, "Then": {}, "Else": {},
	"January": {}, "February": {}, "March": {}, "April": {}, "May": {},
	"June": {}, "July": {}, "August": {}, "September": {}, "October": {},
	"November": {}, "December": {},
}

// minSingleWordLen rejects short single-word phrases ("Go", "Ok").
const minSingleWordLen = 4

// ExtractInfluences detects capitalized 1–3 word phrases in an excerpt —
// likely proper nouns, titles, or named frameworks — deduped in appearance
// order and capped at maxInfluences.
func ExtractInfluences(excerpt string) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, phrase := range influenceRx.FindAllString(excerpt, -1) {
		words := strings.Fields(phrase)
		if _, stop := influenceStops[words[0]]; stop {
			continue
		}
		if len(words) == 1 && len(words[0]) < minSingleWordLen {
			continue
		}
		if _, dup := seen[phrase]; dup {
			continue
		}
		seen[phrase] = struct{}{}
		out = append(out, phrase)
		if len(out) == maxInfluences {
			break
		}
	}
	return out
}

// CrossRefRow is one line of the cross-reference table.
type CrossRefRow struct {
	Tier       int         `json:"tier"`
	Excerpt    string      `json:"excerpt"` // truncated to crossRefExcerptWords words
	Category   string      `json:"category"`
	Values     []ValueLink `json:"values,omitempty"`
	Influences []string    `json:"influences,omitempty"`
	Provenance string      `json:"provenance"`
}

// BuildCrossRef produces one row per tier-2 and tier-3 entry: the tier-2
// block first, then tier-3, both in tiering insertion order.
func BuildCrossRef(tiers *Tiers, ont *ontology.Ontology) []CrossRefRow {
	var rows []CrossRefRow
	for _, tierN := range []int{Tier2, Tier3} {
		for _, e := range tiers.Entries(tierN) {
			rows = append(rows, CrossRefRow{
				Tier:       tierN,
				Excerpt:    truncateWords(e.Excerpt, crossRefExcerptWords),
				Category:   ont.Map[e.PrimaryTopic],
				Values:     LinkValues(e, ont),
				Influences: ExtractInfluences(e.Excerpt),
				Provenance: e.Provenance,
			})
		}
	}
	return rows
}

func truncateWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) <= n {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:n], " ") + " …"
}
