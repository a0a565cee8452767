package tier

import (
	"reflect"
	"strings"
	"testing"

	"github.com/hurttlocker/recall/internal/ontology"
)

func ontologyFixture() *ontology.Ontology {
	o := ontology.Empty()
	o.Values = []ontology.Value{
		{ID: "T0:memory-hygiene", Label: "memory hygiene intentional auditable", Tier: 0},
		{ID: "T1:open-strategy", Label: "openness consistency long-term strategy", Tier: 1},
		{ID: "T1:manual-only", Label: "completely different wording", Tier: 1},
	}
	o.Categories["memory"] = ontology.Category{Label: "Memory feature"}
	o.Map["Memory feature"] = "memory"
	o.ValueMap["memory"] = []string{"T1:manual-only"}
	return o
}

func TestLinkValuesManualHintsRankFirst(t *testing.T) {
	e := Entry{
		PrimaryTopic: "Memory feature",
		Excerpt:      "memory should stay intentional and auditable",
	}
	links := LinkValues(e, ontologyFixture())
	if len(links) != 2 {
		t.Fatalf("got %d links, want 2: %+v", len(links), links)
	}
	// The manual hint scores 0 overlap but still outranks the computed hit.
	if links[0].ID != "T1:manual-only" || !links[0].Manual {
		t.Fatalf("manual hint must rank first: %+v", links)
	}
	if links[1].ID != "T0:memory-hygiene" || links[1].Tier != 0 {
		t.Fatalf("computed candidate wrong: %+v", links[1])
	}
}

func TestLinkValuesComputedThreshold(t *testing.T) {
	e := Entry{PrimaryTopic: "Unmapped topic", Excerpt: "auditable only once"}
	links := LinkValues(e, ontologyFixture())
	// Single-token overlap (score 1) is below the floor and no manual hints
	// exist for an unmapped topic.
	if len(links) != 0 {
		t.Fatalf("expected no links, got %+v", links)
	}
}

func TestExtractInfluences(t *testing.T) {
	got := ExtractInfluences("Reading Robert Axelrod on cooperation, The Evolution again, in March with Hannah Arendt and Karl Popper")
	want := []string{"Reading Robert Axelrod", "Hannah Arendt", "Karl Popper"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ExtractInfluences = %v, want %v", got, want)
	}
}

func TestExtractInfluencesRejectsShortSingles(t *testing.T) {
	got := ExtractInfluences("Go and Oak are words; Kubernetes is a name")
	want := []string{"Kubernetes"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ExtractInfluences = %v, want %v", got, want)
	}
}

func TestBuildCrossRefOrderAndTruncation(t *testing.T) {
	tiers := &Tiers{}
	tiers.Levels[Tier2] = []Entry{
		{PrimaryTopic: "Memory feature", Excerpt: strings.Repeat("word ", 20), Provenance: "p2"},
	}
	tiers.Levels[Tier3] = []Entry{
		{PrimaryTopic: "Memory feature", Excerpt: "short one", Provenance: "p3"},
	}

	rows := BuildCrossRef(tiers, ontologyFixture())
	if len(rows) != 2 || rows[0].Tier != Tier2 || rows[1].Tier != Tier3 {
		t.Fatalf("row order wrong: %+v", rows)
	}
	if n := len(strings.Fields(rows[0].Excerpt)); n != 16 { // 15 words + ellipsis
		t.Fatalf("excerpt not truncated to 15 words: %d %q", n, rows[0].Excerpt)
	}
	if rows[0].Category != "memory" {
		t.Fatalf("category not resolved: %+v", rows[0])
	}
}
