package ontology

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/hurttlocker/recall/internal/token"
)

const (
	// valueSlugMax caps the slug portion of a derived value id.
	valueSlugMax = 40

	// minValueScore is the token-overlap floor below which a value is not
	// suggested for a category.
	minValueScore = 2

	// maxValueLinks caps suggested value links per category.
	maxValueLinks = 2

	// maxSampleExcerpts is how many per-topic excerpts feed value scoring.
	maxSampleExcerpts = 5
)

// TierEntryRef is the minimal tier-entry shape the builder consumes.
type TierEntryRef struct {
	Topic  string
	Belief string
}

// BuildInput carries everything one deterministic ontology build needs.
type BuildInput struct {
	Tier0   []TierEntryRef // foundational entries; value source on bootstrap only
	Tier1   []TierEntryRef // anchor entries; tier-1 values rebuild every run
	Topics  []string       // topics observed at tiers 2/3
	Samples map[string][]string
	Seeds   Seeds
	// Existing carries prior persisted values. Tier-0 values present here
	// are preserved verbatim and never re-derived.
	Existing      []Value
	Sources       []SourceRecord // merged registry, for wiki promotion
	WikiThreshold int            // promotion count threshold (default 3)
}

// MapDecision records one topic → category resolution for the build log.
type MapDecision struct {
	Topic string
	Slug  string
	Rule  string // "label-match", "alias-match", "regex:<pattern>", "auto"
}

// BuildResult is the ontology plus its audit trail.
type BuildResult struct {
	Ontology           *Ontology
	Decisions          []MapDecision
	SkippedPatterns    []string // invalid seed regexes, skipped fail-open
	PromotedCategories []string // slugs created by wiki-category promotion
}

// DefaultWikiThreshold is the promotion count floor when none is configured.
const DefaultWikiThreshold = 3

// Build derives the full ontology from seeds, tier entries, and the source
// registry. The same input always yields the same output.
func Build(in BuildInput) BuildResult {
	res := BuildResult{Ontology: Empty()}
	ont := res.Ontology

	ont.Values = buildValues(in.Existing, in.Tier0, in.Tier1)

	for slug, cat := range in.Seeds.Categories {
		ont.Categories[slug] = cat
	}

	patterns, skipped := compilePatterns(in.Seeds.Patterns)
	res.SkippedPatterns = skipped

	topics := append([]string(nil), in.Topics...)
	sort.Strings(topics)

	for _, topic := range topics {
		slug, rule := resolveCategory(topic, ont, in.Seeds.Aliases, patterns)
		ont.Map[topic] = slug
		res.Decisions = append(res.Decisions, MapDecision{Topic: topic, Slug: slug, Rule: rule})
	}

	vals := valueCandidates(ont.Values)
	for _, topic := range topics {
		slug := ont.Map[topic]
		label := topic
		if cat, ok := ont.Categories[slug]; ok && cat.Label != "" {
			label = cat.Label
		}
		samples := in.Samples[topic]
		if len(samples) > maxSampleExcerpts {
			samples = samples[:maxSampleExcerpts]
		}
		linked := scoreValues(token.Set(label+" "+strings.Join(samples, " ")), vals)
		if len(linked) > 0 {
			ont.ValueMap[slug] = linked
		}
	}

	res.PromotedCategories = promoteWikiCategories(ont, in.Sources, in.WikiThreshold, vals)

	return res
}

// buildValues assembles the value list: existing tier-0 values are carried
// unchanged (immutability contract); tier-0 values are derived from entries
// only when none exist yet; tier-1 values rebuild from entries every run.
func buildValues(existing []Value, tier0, tier1 []TierEntryRef) []Value {
	var values []Value
	seen := map[string]struct{}{}

	for _, v := range existing {
		if v.Tier != 0 || v.ID == "" || v.Label == "" {
			continue
		}
		values = append(values, v)
		seen[v.Label] = struct{}{}
	}

	if len(values) == 0 {
		for _, e := range tier0 {
			label := entryLabel(e)
			if label == "" {
				continue
			}
			if _, dup := seen[label]; dup {
				continue
			}
			seen[label] = struct{}{}
			values = append(values, Value{ID: valueID("T0", label), Label: label, Tier: 0})
		}
	}

	for _, e := range tier1 {
		label := entryLabel(e)
		if label == "" {
			continue
		}
		if _, dup := seen[label]; dup {
			continue
		}
		seen[label] = struct{}{}
		values = append(values, Value{ID: valueID("T1", label), Label: label, Tier: 1})
	}

	return values
}

func entryLabel(e TierEntryRef) string {
	if e.Belief != "" {
		return e.Belief
	}
	return e.Topic
}

func valueID(prefix, label string) string {
	slug := token.Slugify(label)
	if len(slug) > valueSlugMax {
		slug = slug[:valueSlugMax]
	}
	return prefix + ":" + slug
}

type compiledPattern struct {
	rx   *regexp.Regexp
	raw  string
	slug string
}

func compilePatterns(rules []PatternRule) ([]compiledPattern, []string) {
	var out []compiledPattern
	var skipped []string
	for _, r := range rules {
		rx, err := regexp.Compile("(?i)" + r.Pattern)
		if err != nil {
			skipped = append(skipped, fmt.Sprintf("%s → %s: %v", r.Pattern, r.Slug, err))
			continue
		}
		out = append(out, compiledPattern{rx: rx, raw: r.Pattern, slug: r.Slug})
	}
	return out, skipped
}

// resolveCategory picks the category slug for a topic. Resolution order:
// exact case-insensitive label match, alias lookup, first matching seed
// pattern, then an auto-generated category created on demand.
func resolveCategory(topic string, ont *Ontology, aliases map[string]string, patterns []compiledPattern) (string, string) {
	lower := strings.ToLower(topic)

	for _, slug := range ont.CategorySlugs() {
		if lower == strings.ToLower(ont.Categories[slug].Label) {
			return slug, "label-match"
		}
	}

	if slug, ok := aliases[lower]; ok && slug != "" {
		return slug, "alias-match"
	}

	for _, p := range patterns {
		if p.rx.MatchString(topic) {
			return p.slug, "regex:" + p.raw
		}
	}

	slug := "auto-" + token.Slugify(topic)
	if _, exists := ont.Categories[slug]; !exists {
		ont.Categories[slug] = Category{
			Label:       topic,
			Description: "Auto-added from observed dataset topic (pending curation).",
		}
	}
	return slug, "auto"
}

type valueCandidate struct {
	id     string
	tier   int
	tokens map[string]struct{}
}

func valueCandidates(values []Value) []valueCandidate {
	out := make([]valueCandidate, 0, len(values))
	for _, v := range values {
		out = append(out, valueCandidate{id: v.ID, tier: v.Tier, tokens: token.Set(v.Label)})
	}
	return out
}

// scoreValues returns the top value ids whose label token set overlaps the
// given tokens by at least minValueScore. Equal scores break by ascending
// value id, the documented deterministic rule for this selection.
func scoreValues(tokens map[string]struct{}, vals []valueCandidate) []string {
	type scored struct {
		score int
		id    string
	}
	var hits []scored
	for _, v := range vals {
		if len(v.tokens) == 0 {
			continue
		}
		if s := token.Overlap(v.tokens, tokens); s >= minValueScore {
			hits = append(hits, scored{score: s, id: v.id})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].id < hits[j].id
	})
	if len(hits) > maxValueLinks {
		hits = hits[:maxValueLinks]
	}
	ids := make([]string, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, h.id)
	}
	return ids
}

// ScoreValuesFor exposes value scoring for the cross-reference engine so
// entry linking and category seeding share one scorer.
func ScoreValuesFor(text string, values []Value) []string {
	return scoreValues(token.Set(text), valueCandidates(values))
}

// promoteWikiCategories turns frequently-seen wikipedia_category sources
// into first-class categories. Creation is keyed by slug, so running the
// promotion again never duplicates a category.
func promoteWikiCategories(ont *Ontology, sources []SourceRecord, threshold int, vals []valueCandidate) []string {
	if threshold <= 0 {
		threshold = DefaultWikiThreshold
	}

	eligible := make([]SourceRecord, 0)
	for _, s := range sources {
		if s.Type == SourceWikipediaCategory && s.Count >= threshold {
			eligible = append(eligible, s)
		}
	}
	sort.Slice(eligible, func(i, j int) bool { return eligible[i].ID < eligible[j].ID })

	var promoted []string
	for _, s := range eligible {
		title := strings.TrimSpace(s.Label)
		if title == "" {
			title = strings.TrimSpace(s.ID)
		}
		if title == "" {
			continue
		}
		slug := token.Slugify(title)
		if _, exists := ont.Categories[slug]; !exists {
			cat := Category{
				Label:       strings.ReplaceAll(title, "_", " "),
				Description: "Promoted from frequent Wikipedia category source (auto).",
			}
			if s.URL != "" {
				cat.ExternalRefs = []string{s.URL}
			}
			ont.Categories[slug] = cat
			promoted = append(promoted, slug)
		}
		if linked := scoreValues(token.Set(title), vals); len(linked) > 0 {
			ont.ValueMap[slug] = linked
		}
	}
	return promoted
}
