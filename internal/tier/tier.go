// Package tier implements the four-level importance hierarchy: assignment
// of records into tiers, cross-referencing entries against the ontology,
// and the guarded tier-3 → tier-2 promotion transition.
package tier

import (
	"github.com/hurttlocker/recall/internal/pipeline"
)

// Tier numbers. Foundational (0) down to reference catch-all (3).
const (
	Tier0 = 0
	Tier1 = 1
	Tier2 = 2
	Tier3 = 3
)

// Entry is one tiered memory item. An entry lives in exactly one tier; the
// only transition after assignment is an approved tier-3 → tier-2 promotion.
type Entry struct {
	PrimaryTopic string `json:"primary_topic"`
	CoreBelief   string `json:"core_belief"`
	Excerpt      string `json:"excerpt"`
	Provenance   string `json:"provenance"`
	Priority     int    `json:"priority"`
	Role         string `json:"role,omitempty"`
}

// Tiers holds the four tier arrays in assignment order.
type Tiers struct {
	Levels [4][]Entry
}

// Entries returns the entries of one tier; nil for out-of-range tiers.
func (t *Tiers) Entries(tier int) []Entry {
	if tier < Tier0 || tier > Tier3 {
		return nil
	}
	return t.Levels[tier]
}

// Tier01Excerpts returns the excerpt set of tier-0 and tier-1 entries, used
// by the refinement pass to force memory flags.
func (t *Tiers) Tier01Excerpts() map[string]struct{} {
	set := make(map[string]struct{})
	for _, tier := range []int{Tier0, Tier1} {
		for _, e := range t.Levels[tier] {
			set[e.Excerpt] = struct{}{}
		}
	}
	return set
}

// foundation is the fixed tier-0 content: synthesized foundational
// statements authored by the system itself, independent of the record set.
// Established tier-0 content is immutable; nothing later in the pipeline
// regenerates it.
var foundation = []Entry{
	{
		PrimaryTopic: "AI strategy & games",
		CoreBelief:   "Strategic triad: openness+consistency+cooperation underpin long-term trust.",
		Excerpt:      "Strategic triad: openness+consistency+cooperation underpin long-term trust.",
		Provenance:   "Synthesis",
		Priority:     1,
	},
	{
		PrimaryTopic: "Memory feature",
		CoreBelief:   "Memory hygiene: intentional, auditable, counter-bias by design.",
		Excerpt:      "Memory hygiene: intentional, auditable, counter-bias by design.",
		Provenance:   "Synthesis",
		Priority:     1,
	},
}

// AnchorTopics is the curated allow-list whose first user-authored record
// lands in tier 1.
var AnchorTopics = []string{
	"AI strategy & games",
	"Memory feature",
	"Copilot history",
}

// OperationalTopics is the curated allow-list whose first user- and
// assistant-authored records land in tier 2.
var OperationalTopics = []string{
	"Android dev & security",
	"Licensing philosophy",
	"Data engineering & logging",
}

// Per-tier beliefs attached to representative records.
const (
	anchorBelief      = "Openness+consistency enable long-term strategy; curate memory intentionally."
	operationalBelief = "Operational constraints and practices to note."
	referenceBelief   = "Reference interest/clarification in this topic."
)

func inList(topic string, list []string) bool {
	for _, t := range list {
		if t == topic {
			return true
		}
	}
	return false
}

// AssignTiers performs the four-state assignment over topic clusters:
// tier 0 is the fixed foundation; tier 1 takes the first user record of each
// anchor topic; tiers 2 and 3 take the first user and first assistant record
// of operational and remaining topics respectively. Assignment order follows
// cluster order, so output is deterministic.
func AssignTiers(clusters []pipeline.Cluster) *Tiers {
	t := &Tiers{}
	t.Levels[Tier0] = append(t.Levels[Tier0], foundation...)

	addRep := func(tier int, topic, belief string, r pipeline.Record) {
		t.Levels[tier] = append(t.Levels[tier], Entry{
			PrimaryTopic: topic,
			CoreBelief:   belief,
			Excerpt:      r.Excerpt,
			Provenance:   r.ProvenanceID,
			Priority:     r.Priority,
			Role:         r.Role,
		})
	}

	for _, c := range clusters {
		switch {
		case inList(c.Topic, AnchorTopics):
			if r, ok := c.FirstByRole(pipeline.RoleUser); ok {
				addRep(Tier1, c.Topic, anchorBelief, r)
			}
		case inList(c.Topic, OperationalTopics):
			if r, ok := c.FirstByRole(pipeline.RoleUser); ok {
				addRep(Tier2, c.Topic, operationalBelief, r)
			}
			if r, ok := c.FirstByRole(pipeline.RoleAssistant); ok {
				addRep(Tier2, c.Topic, operationalBelief, r)
			}
		default:
			if r, ok := c.FirstByRole(pipeline.RoleUser); ok {
				addRep(Tier3, c.Topic, referenceBelief, r)
			}
			if r, ok := c.FirstByRole(pipeline.RoleAssistant); ok {
				addRep(Tier3, c.Topic, referenceBelief, r)
			}
		}
	}

	return t
}

// TopicsAt returns the distinct topics present at the given tiers, in first
// appearance order.
func (t *Tiers) TopicsAt(tiers ...int) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, tier := range tiers {
		for _, e := range t.Entries(tier) {
			if _, ok := seen[e.PrimaryTopic]; ok {
				continue
			}
			seen[e.PrimaryTopic] = struct{}{}
			out = append(out, e.PrimaryTopic)
		}
	}
	return out
}
