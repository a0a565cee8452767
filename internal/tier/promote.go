package tier

import (
	"fmt"
	"regexp"

	"github.com/hurttlocker/recall/internal/ontology"
	"github.com/hurttlocker/recall/internal/pipeline"
)

// strongOpinionRx flags excerpts carrying an explicit stance or commitment.
var strongOpinionRx = regexp.MustCompile(`(?i)\b(should|must|prefer|i believe|i think|i want|i will)\b`)

// minTopicFrequency is the user-record count at which a topic is considered
// recurring enough to promote.
const minTopicFrequency = 5

// Promotion reasons.
const (
	ReasonStrongOpinion  = "strong-opinion"
	ReasonValueAlignment = "value-alignment"
	ReasonRecurringTopic = "recurring-topic"
)

// Proposal suggests moving one entry, identified by (excerpt, provenance),
// from tier 3 to tier 2. All satisfied reasons are recorded.
type Proposal struct {
	Excerpt    string   `json:"excerpt"`
	Provenance string   `json:"provenance"`
	FromTier   int      `json:"from_tier"`
	ToTier     int      `json:"to_tier"`
	Reasons    []string `json:"reasons"`
}

// ProposePromotions evaluates every tier-3 user-authored entry against the
// three promotion signals: strong-opinion phrasing, a link to a tier-0/1
// value, or a topic recurring at least minTopicFrequency times among
// user-authored records.
func ProposePromotions(tiers *Tiers, ont *ontology.Ontology, userTopicCounts map[string]int) []Proposal {
	var proposals []Proposal
	for _, e := range tiers.Entries(Tier3) {
		if e.Role != pipeline.RoleUser {
			continue
		}

		var reasons []string
		if strongOpinionRx.MatchString(e.Excerpt) {
			reasons = append(reasons, ReasonStrongOpinion)
		}
		for _, l := range LinkValues(e, ont) {
			if l.Tier == Tier0 || l.Tier == Tier1 {
				reasons = append(reasons, ReasonValueAlignment)
				break
			}
		}
		if userTopicCounts[e.PrimaryTopic] >= minTopicFrequency {
			reasons = append(reasons, ReasonRecurringTopic)
		}

		if len(reasons) > 0 {
			proposals = append(proposals, Proposal{
				Excerpt:    e.Excerpt,
				Provenance: e.Provenance,
				FromTier:   Tier3,
				ToTier:     Tier2,
				Reasons:    reasons,
			})
		}
	}
	return proposals
}

// PromotionAction records the outcome of one proposal for the audit trail.
type PromotionAction struct {
	Excerpt    string `json:"excerpt"`
	Provenance string `json:"provenance"`
	Applied    bool   `json:"applied"`
	Reason     string `json:"reason"`
}

// PromotionReport summarizes an ApplyPromotions pass.
type PromotionReport struct {
	Proposed         int               `json:"proposed"`
	Applied          int               `json:"applied"`
	SkippedStale     int               `json:"skipped_stale"`
	SkippedDuplicate int               `json:"skipped_duplicate"`
	SkippedMissing   int               `json:"skipped_missing"`
	Actions          []PromotionAction `json:"actions"`
}

// ApplyPromotions executes the only permitted tier transition. For each
// proposal it locates the (excerpt, provenance) entry in the source tier,
// then guards:
//   - staleness: the key must still exist in the authoritative current
//     record set, else the proposal is dropped (and audited);
//   - idempotence: an entry with the same key already at the destination
//     tier makes the proposal a no-op.
//
// Passing both guards removes the entry from the source array and appends
// it to the destination array.
func ApplyPromotions(tiers *Tiers, proposals []Proposal, current []pipeline.Record) PromotionReport {
	report := PromotionReport{Proposed: len(proposals)}

	live := make(map[string]struct{}, len(current))
	for _, r := range current {
		live[r.Excerpt+"\x00"+r.ProvenanceID] = struct{}{}
	}

	entryKey := func(e Entry) string { return e.Excerpt + "\x00" + e.Provenance }

	for _, p := range proposals {
		key := p.Excerpt + "\x00" + p.Provenance
		act := PromotionAction{Excerpt: p.Excerpt, Provenance: p.Provenance}

		if _, ok := live[key]; !ok {
			report.SkippedStale++
			act.Reason = "stale: key absent from current record set"
			report.Actions = append(report.Actions, act)
			continue
		}

		dupe := false
		for _, e := range tiers.Entries(p.ToTier) {
			if entryKey(e) == key {
				dupe = true
				break
			}
		}
		if dupe {
			report.SkippedDuplicate++
			act.Reason = "duplicate: key already present at destination tier"
			report.Actions = append(report.Actions, act)
			continue
		}

		srcIdx := -1
		src := tiers.Entries(p.FromTier)
		for i, e := range src {
			if entryKey(e) == key {
				srcIdx = i
				break
			}
		}
		if srcIdx < 0 {
			report.SkippedMissing++
			act.Reason = fmt.Sprintf("missing: key not found at tier %d", p.FromTier)
			report.Actions = append(report.Actions, act)
			continue
		}

		entry := src[srcIdx]
		tiers.Levels[p.FromTier] = append(src[:srcIdx:srcIdx], src[srcIdx+1:]...)
		tiers.Levels[p.ToTier] = append(tiers.Levels[p.ToTier], entry)

		report.Applied++
		act.Applied = true
		act.Reason = "promoted tier 3 → tier 2"
		report.Actions = append(report.Actions, act)
	}

	return report
}
