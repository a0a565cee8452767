package pipeline

import (
	"testing"
	"time"
)

func TestClusterByTopicFirstAppearanceOrder(t *testing.T) {
	records := []Record{
		{PrimaryTopic: "B", Role: RoleUser},
		{PrimaryTopic: "A", Role: RoleAssistant},
		{PrimaryTopic: "B", Role: RoleAssistant},
	}
	clusters := ClusterByTopic(records)
	if len(clusters) != 2 || clusters[0].Topic != "B" || clusters[1].Topic != "A" {
		t.Fatalf("cluster order wrong: %+v", clusters)
	}
	if len(clusters[0].Records) != 2 {
		t.Fatalf("B cluster size = %d, want 2", len(clusters[0].Records))
	}
}

func TestFirstByRole(t *testing.T) {
	c := Cluster{Topic: "B", Records: []Record{
		{Role: RoleAssistant, Excerpt: "a1"},
		{Role: RoleUser, Excerpt: "u1"},
		{Role: RoleUser, Excerpt: "u2"},
	}}
	r, ok := c.FirstByRole(RoleUser)
	if !ok || r.Excerpt != "u1" {
		t.Fatalf("FirstByRole(user) = %+v, %v", r, ok)
	}
	if _, ok := (Cluster{}).FirstByRole(RoleUser); ok {
		t.Fatal("empty cluster should report no record")
	}
}

func TestValidateTemplates(t *testing.T) {
	if err := ValidateTemplates([]string{"Memory feature", "Copilot history"}); err != nil {
		t.Fatalf("expected templates present: %v", err)
	}
	if err := ValidateTemplates([]string{"No such topic"}); err == nil {
		t.Fatal("missing template must be reported")
	}
}

func TestSynthesizeUsesTableAndFallback(t *testing.T) {
	s := Synthesize(Cluster{Topic: "Memory feature", Records: make([]Record, 4)})
	if s.Count != 4 {
		t.Fatalf("count = %d", s.Count)
	}
	if s.CoreBelief == genericTemplate.CoreBelief {
		t.Fatal("mapped topic must not use the generic template")
	}
	if len(s.OpenQuestions) > MaxOpenQuestions {
		t.Fatalf("open questions over cap: %d", len(s.OpenQuestions))
	}

	g := Synthesize(Cluster{Topic: "Something unmapped"})
	if g.CoreBelief != genericTemplate.CoreBelief {
		t.Fatalf("unmapped topic belief = %q", g.CoreBelief)
	}
}

func TestRefineEnforcesTier01Flags(t *testing.T) {
	records := []Record{
		{Excerpt: "anchored", Priority: 3},
		{Excerpt: "other", Priority: 3},
	}
	Refine(records, map[string]struct{}{"anchored": {}})
	if !records[0].MemoryCandidate || records[0].Priority != 1 {
		t.Fatalf("tier-0/1 record not enforced: %+v", records[0])
	}
	if records[1].MemoryCandidate || records[1].Priority != 3 {
		t.Fatalf("unrelated record mutated: %+v", records[1])
	}
	if records[0].ThreadID != "Untitled" {
		t.Fatalf("empty thread id not backfilled: %q", records[0].ThreadID)
	}
}

func TestLinkEvolutionChronology(t *testing.T) {
	t1 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	t3 := t1.Add(2 * time.Hour)
	records := []Record{
		{PrimaryTopic: "T", Role: RoleUser, Timestamp: &t3, Excerpt: "c", ProvenanceID: "p3"},
		{PrimaryTopic: "T", Role: RoleUser, Timestamp: &t1, Excerpt: "a", ProvenanceID: "p1"},
		{PrimaryTopic: "T", Role: RoleUser, Timestamp: &t2, Excerpt: "b", ProvenanceID: "p2"},
		{PrimaryTopic: "T", Role: RoleAssistant, Timestamp: &t2, Excerpt: "x", ProvenanceID: "pa"},
	}
	LinkEvolution(records)

	byProv := map[string]Record{}
	for _, r := range records {
		byProv[r.ProvenanceID] = r
	}
	if byProv["p1"].EvolutionLink != "" {
		t.Fatalf("first record link = %q, want empty", byProv["p1"].EvolutionLink)
	}
	if byProv["p2"].EvolutionLink != "p1" || byProv["p3"].EvolutionLink != "p2" {
		t.Fatalf("chain broken: p2→%q p3→%q", byProv["p2"].EvolutionLink, byProv["p3"].EvolutionLink)
	}
	if byProv["pa"].EvolutionLink != "" {
		t.Fatal("assistant group must chain independently")
	}
}

func TestLinkEvolutionMissingTimestampFirst(t *testing.T) {
	t1 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	records := []Record{
		{PrimaryTopic: "T", Role: RoleUser, Timestamp: &t1, Excerpt: "dated", ProvenanceID: "p2"},
		{PrimaryTopic: "T", Role: RoleUser, Timestamp: nil, Excerpt: "undated", ProvenanceID: "p1"},
	}
	LinkEvolution(records)
	for _, r := range records {
		if r.ProvenanceID == "p2" && r.EvolutionLink != "p1" {
			t.Fatalf("dated record should follow undated: %+v", r)
		}
	}
}
