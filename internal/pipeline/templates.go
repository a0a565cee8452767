package pipeline

import "fmt"

// Template is the fixed per-topic synthesis: a one-line belief, if/then
// decision rules, and up to MaxOpenQuestions open questions.
type Template struct {
	CoreBelief    string
	DecisionRules []string
	OpenQuestions []string
}

// MaxOpenQuestions caps open questions per synthesis.
const MaxOpenQuestions = 3

// stanceEvolutionNote is the fixed pointer into the per-topic provenance
// chain; stance drift itself is reconstructed from evolution links.
const stanceEvolutionNote = "See provenance chain inside topic for stance and tooling refinements over time."

// genericTemplate covers topics without a dedicated entry.
var genericTemplate = Template{
	CoreBelief: "Mixed factual clarifications across topics.",
}

// beliefTemplates is the exhaustive topic → synthesis table. It is data, not
// branching logic, so completeness can be checked independently; see
// ValidateTemplates.
var beliefTemplates = map[string]Template{
	"Copilot history": {
		CoreBelief: "Users should access/export their Copilot history; current UX needs work.",
		DecisionRules: []string{
			"If using Microsoft 365 Copilot, then use in-app Conversations; else use Privacy Dashboard.",
			"If processing share URLs, then scrape HTML/JSON; do not treat as chat logs.",
		},
		OpenQuestions: []string{
			"Exact dashboard paths or APIs for Copilot items.",
			"Scope of bulk memory ingestion vs curated summaries.",
			"Metrics for engineered patience and principled consistency.",
		},
	},
	"Memory feature": {
		CoreBelief: "Memory must be intentional, auditable, and explainable; avoid echo chambers.",
		DecisionRules: []string{
			"If revisiting a topic, then it influences but is not remembered unless asked.",
			"If maintaining memory hygiene, then review/refresh memory; delete narrow prefs; seek counterarguments.",
		},
		OpenQuestions: []string{
			"Exact dashboard paths or APIs for Copilot items.",
			"Scope of bulk memory ingestion vs curated summaries.",
			"Metrics for engineered patience and principled consistency.",
		},
	},
	"AI strategy & games": {
		CoreBelief: "Cooperation, openness, and principled consistency enable long-term strategy; encode patience.",
		DecisionRules: []string{
			"If designing systems, then reward long horizons and reputation; penalize betrayal long-term.",
			"If possible, then prefer positive-sum framing and declare consistent principles.",
		},
		OpenQuestions: []string{
			"Exact dashboard paths or APIs for Copilot items.",
			"Scope of bulk memory ingestion vs curated summaries.",
			"Metrics for engineered patience and principled consistency.",
		},
	},
	"Modern slavery Q&A": {
		CoreBelief: "Affirm Modern Slavery Act principles; recognize indicators like document retention.",
	},
	"History threads": {
		CoreBelief: "Clarify timelines/causality; institutions often outperform individuals.",
	},
	"Dishwasher tips": {
		CoreBelief: "Rinse aid depletes per cycle; salt less often; map symbols correctly.",
	},
	"Materials & outdoor": {
		CoreBelief: "Sisal tolerates UV; flax rots faster; pick materials per moisture exposure.",
	},
	"Android dev & security": {
		CoreBelief: "Android root is disabled by default; bank apps detect via integrity checks; Docker is limited.",
	},
	"Licensing philosophy": {
		CoreBelief: "Question global license enforceability; prefer public-domain-first ideals.",
	},
	"Data engineering & logging": {
		CoreBelief: "Log succinctly; avoid duplicated noise; measure bytes; prefer structured logging.",
	},
	"Culture & media": {
		CoreBelief: "Clarify cultural references and media history; separate fact from myth.",
	},
	"Ethics & policy": {
		CoreBelief: "Maintain moral clarity on harms; nuance where appropriate, clarity where required.",
	},
}

// TemplateFor returns the synthesis template for a topic, falling back to
// the generic template.
func TemplateFor(topic string) Template {
	if t, ok := beliefTemplates[topic]; ok {
		return t
	}
	return genericTemplate
}

// ValidateTemplates checks at startup that every required topic (the tiering
// allow-lists) has a dedicated template entry.
func ValidateTemplates(required []string) error {
	for _, topic := range required {
		if _, ok := beliefTemplates[topic]; !ok {
			return fmt.Errorf("synthesis template missing for topic %q", topic)
		}
	}
	return nil
}

// Synthesis is the derived per-cluster belief summary.
type Synthesis struct {
	Topic           string   `json:"topic"`
	Count           int      `json:"count"`
	CoreBelief      string   `json:"core_belief"`
	DecisionRules   []string `json:"decision_rules,omitempty"`
	OpenQuestions   []string `json:"open_questions,omitempty"`
	StanceEvolution string   `json:"stance_evolution"`
}

// Synthesize derives the belief summary for one cluster from its template.
func Synthesize(c Cluster) Synthesis {
	t := TemplateFor(c.Topic)
	open := t.OpenQuestions
	if len(open) > MaxOpenQuestions {
		open = open[:MaxOpenQuestions]
	}
	return Synthesis{
		Topic:           c.Topic,
		Count:           len(c.Records),
		CoreBelief:      t.CoreBelief,
		DecisionRules:   t.DecisionRules,
		OpenQuestions:   open,
		StanceEvolution: stanceEvolutionNote,
	}
}

// SynthesizeAll synthesizes every cluster, preserving cluster order.
func SynthesizeAll(clusters []Cluster) []Synthesis {
	out := make([]Synthesis, 0, len(clusters))
	for _, c := range clusters {
		out = append(out, Synthesize(c))
	}
	return out
}
