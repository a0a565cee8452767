// Package report renders the run's markdown artifacts: cluster index and
// report, refined records, the tier-0/1 memory mart, the ontology build log,
// source suggestions, and the cross-reference table.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hurttlocker/recall/internal/ontology"
	"github.com/hurttlocker/recall/internal/pipeline"
	"github.com/hurttlocker/recall/internal/tier"
)

// ClusterIndex renders one line per topic cluster with its record count.
func ClusterIndex(clusters []pipeline.Cluster) string {
	var b strings.Builder
	b.WriteString("# Cluster Index\n\n")
	b.WriteString("| Topic | Records |\n|---|---|\n")
	for _, c := range clusters {
		fmt.Fprintf(&b, "| %s | %d |\n", escapeCell(c.Topic), len(c.Records))
	}
	return b.String()
}

// ClusterReport renders each cluster with its synthesized template and the
// records it holds.
func ClusterReport(clusters []pipeline.Cluster, syntheses []pipeline.Synthesis) string {
	byTopic := make(map[string]pipeline.Synthesis, len(syntheses))
	for _, s := range syntheses {
		byTopic[s.Topic] = s
	}

	var b strings.Builder
	b.WriteString("# Cluster Report\n")
	for _, c := range clusters {
		fmt.Fprintf(&b, "\n## %s\n\n", c.Topic)
		if s, ok := byTopic[c.Topic]; ok {
			fmt.Fprintf(&b, "**Core belief:** %s\n\n", s.CoreBelief)
			if len(s.DecisionRules) > 0 {
				b.WriteString("Decision rules:\n")
				for _, r := range s.DecisionRules {
					fmt.Fprintf(&b, "- %s\n", r)
				}
				b.WriteString("\n")
			}
			if len(s.OpenQuestions) > 0 {
				b.WriteString("Open questions:\n")
				for _, q := range s.OpenQuestions {
					fmt.Fprintf(&b, "- %s\n", q)
				}
				b.WriteString("\n")
			}
		}
		b.WriteString("| Role | Excerpt | Provenance |\n|---|---|---|\n")
		for _, r := range c.Records {
			fmt.Fprintf(&b, "| %s | %s | %s |\n", r.Role, escapeCell(r.Excerpt), escapeCell(r.ProvenanceID))
		}
	}
	return b.String()
}

// RefinedReport renders the post-refinement record set with memory flags and
// evolution links.
func RefinedReport(records []pipeline.Record) string {
	var b strings.Builder
	b.WriteString("# Refined Records\n\n")
	b.WriteString("| Topic | Role | Intent | Memory | Priority | Evolves from | Excerpt |\n")
	b.WriteString("|---|---|---|---|---|---|---|\n")
	for _, r := range records {
		mem := "no"
		if r.MemoryCandidate {
			mem = "yes"
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %d | %s | %s |\n",
			escapeCell(r.PrimaryTopic), r.Role, r.Intent, mem, r.Priority,
			escapeCell(r.EvolutionLink), escapeCell(r.Excerpt))
	}
	return b.String()
}

// MemoryMart renders the tier-0 and tier-1 entries, the durable core of the
// store.
func MemoryMart(tiers *tier.Tiers) string {
	var b strings.Builder
	b.WriteString("# Memory Mart\n")
	for _, tierN := range []int{tier.Tier0, tier.Tier1} {
		fmt.Fprintf(&b, "\n## Tier %d\n\n", tierN)
		entries := tiers.Entries(tierN)
		if len(entries) == 0 {
			b.WriteString("_empty_\n")
			continue
		}
		for _, e := range entries {
			fmt.Fprintf(&b, "- **%s** — %s\n", escapeCell(e.PrimaryTopic), escapeCell(e.CoreBelief))
			fmt.Fprintf(&b, "  - excerpt: %s\n", escapeCell(e.Excerpt))
			fmt.Fprintf(&b, "  - provenance: %s\n", escapeCell(e.Provenance))
		}
	}
	return b.String()
}

// OntologyBuildLog renders the build's audit: every topic→category decision
// with the rule that made it, skipped patterns, promoted wiki categories,
// the value map, and the most seen sources.
func OntologyBuildLog(result ontology.BuildResult, sources []ontology.SourceRecord) string {
	var b strings.Builder
	b.WriteString("# Ontology Build Log\n\n")

	b.WriteString("## Topic decisions\n\n")
	b.WriteString("| Topic | Category | Rule |\n|---|---|---|\n")
	for _, d := range result.Decisions {
		fmt.Fprintf(&b, "| %s | %s | %s |\n", escapeCell(d.Topic), d.Slug, d.Rule)
	}

	if len(result.SkippedPatterns) > 0 {
		b.WriteString("\n## Skipped patterns\n\n")
		for _, p := range result.SkippedPatterns {
			fmt.Fprintf(&b, "- `%s`\n", p)
		}
	}

	if len(result.PromotedCategories) > 0 {
		b.WriteString("\n## Promoted wiki categories\n\n")
		for _, c := range result.PromotedCategories {
			fmt.Fprintf(&b, "- %s\n", c)
		}
	}

	b.WriteString("\n## Value map\n\n")
	slugs := make([]string, 0, len(result.Ontology.ValueMap))
	for slug := range result.Ontology.ValueMap {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)
	for _, slug := range slugs {
		fmt.Fprintf(&b, "- %s: %s\n", slug, strings.Join(result.Ontology.ValueMap[slug], ", "))
	}

	if len(sources) > 0 {
		b.WriteString("\n## Top sources\n\n")
		top := topSources(sources, 10)
		b.WriteString("| Type | Source | Seen |\n|---|---|---|\n")
		for _, s := range top {
			label := s.Label
			if label == "" {
				label = s.ID
			}
			fmt.Fprintf(&b, "| %s | %s | %d |\n", s.Type, escapeCell(label), s.Count)
		}
	}

	return b.String()
}

// SourcesSuggestions renders the human-review queue: recurring wiki
// categories proposed for promotion and ISBNs with no registered author.
func SourcesSuggestions(sources []ontology.SourceRecord, wikiThreshold int, seeds ontology.Seeds) string {
	var b strings.Builder
	b.WriteString("# Source Suggestions\n\n")

	b.WriteString("## Wiki categories at promotion threshold\n\n")
	any := false
	for _, s := range sources {
		if s.Type == ontology.SourceWikipediaCategory && s.Count >= wikiThreshold {
			fmt.Fprintf(&b, "- %s (seen %d times)\n", escapeCell(s.Label), s.Count)
			any = true
		}
	}
	if !any {
		b.WriteString("_none_\n")
	}

	b.WriteString("\n## ISBNs lacking an author mapping\n\n")
	unmapped := ontology.UnmappedISBNs(sources, seeds.Authors)
	if len(unmapped) == 0 {
		b.WriteString("_none_\n")
	}
	for _, s := range unmapped {
		fmt.Fprintf(&b, "- %s (seen %d times)\n", s.ID, s.Count)
	}

	return b.String()
}

// CrossRefTable renders the tier-2/3 cross-reference rows.
func CrossRefTable(rows []tier.CrossRefRow) string {
	var b strings.Builder
	b.WriteString("# Cross-Reference\n\n")
	b.WriteString("| Tier | Excerpt | Category | Values | Influences | Provenance |\n|---|---|---|---|---|---|\n")
	for _, r := range rows {
		values := make([]string, 0, len(r.Values))
		for _, v := range r.Values {
			values = append(values, v.ID)
		}
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %s | %s |\n",
			r.Tier, escapeCell(r.Excerpt), r.Category,
			strings.Join(values, ", "), escapeCell(strings.Join(r.Influences, ", ")),
			escapeCell(r.Provenance))
	}
	return b.String()
}

// WriteArtifacts writes the named artifacts into dir, creating it if needed.
func WriteArtifacts(dir string, artifacts map[string]string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating artifact directory: %w", err)
	}
	names := make([]string, 0, len(artifacts))
	for name := range artifacts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(artifacts[name]), 0644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	return nil
}

func topSources(sources []ontology.SourceRecord, n int) []ontology.SourceRecord {
	out := make([]ontology.SourceRecord, len(sources))
	copy(out, sources)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
