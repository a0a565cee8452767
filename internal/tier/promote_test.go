package tier

import (
	"reflect"
	"testing"

	"github.com/hurttlocker/recall/internal/pipeline"
)

func promotionFixture() (*Tiers, []pipeline.Record) {
	tiers := &Tiers{}
	tiers.Levels[Tier3] = []Entry{
		{PrimaryTopic: "Dishwasher tips", Excerpt: "we should always descale monthly", Provenance: "dw-u1", Role: pipeline.RoleUser},
		{PrimaryTopic: "Dishwasher tips", Excerpt: "rinse aid depletes per cycle", Provenance: "dw-a1", Role: pipeline.RoleAssistant},
		{PrimaryTopic: "Weather chat", Excerpt: "cloudy again today", Provenance: "wx-u1", Role: pipeline.RoleUser},
	}
	current := []pipeline.Record{
		{Excerpt: "we should always descale monthly", ProvenanceID: "dw-u1"},
		{Excerpt: "rinse aid depletes per cycle", ProvenanceID: "dw-a1"},
		{Excerpt: "cloudy again today", ProvenanceID: "wx-u1"},
	}
	return tiers, current
}

func TestProposePromotionsReasons(t *testing.T) {
	tiers, _ := promotionFixture()
	counts := map[string]int{"Weather chat": minTopicFrequency}

	proposals := ProposePromotions(tiers, ontologyFixture(), counts)
	if len(proposals) != 2 {
		t.Fatalf("got %d proposals, want 2: %+v", len(proposals), proposals)
	}
	if proposals[0].Provenance != "dw-u1" || !reflect.DeepEqual(proposals[0].Reasons, []string{ReasonStrongOpinion}) {
		t.Fatalf("strong-opinion proposal wrong: %+v", proposals[0])
	}
	if proposals[1].Provenance != "wx-u1" || !reflect.DeepEqual(proposals[1].Reasons, []string{ReasonRecurringTopic}) {
		t.Fatalf("recurring-topic proposal wrong: %+v", proposals[1])
	}
	// Assistant-authored entries are never proposed.
	for _, p := range proposals {
		if p.Provenance == "dw-a1" {
			t.Fatal("assistant entry must not be proposed")
		}
	}
}

func TestProposePromotionsValueAlignment(t *testing.T) {
	tiers := &Tiers{}
	tiers.Levels[Tier3] = []Entry{
		{PrimaryTopic: "Memory feature", Excerpt: "keeping memory intentional and auditable matters", Provenance: "mf-u9", Role: pipeline.RoleUser},
	}
	proposals := ProposePromotions(tiers, ontologyFixture(), nil)
	if len(proposals) != 1 {
		t.Fatalf("got %d proposals, want 1", len(proposals))
	}
	found := false
	for _, r := range proposals[0].Reasons {
		if r == ReasonValueAlignment {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected value-alignment reason: %+v", proposals[0])
	}
}

func TestApplyPromotionsMovesEntry(t *testing.T) {
	tiers, current := promotionFixture()
	proposals := []Proposal{{
		Excerpt: "we should always descale monthly", Provenance: "dw-u1",
		FromTier: Tier3, ToTier: Tier2, Reasons: []string{ReasonStrongOpinion},
	}}

	report := ApplyPromotions(tiers, proposals, current)
	if report.Applied != 1 || report.SkippedStale != 0 {
		t.Fatalf("report = %+v", report)
	}
	if len(tiers.Entries(Tier3)) != 2 {
		t.Fatalf("entry not removed from tier 3: %+v", tiers.Entries(Tier3))
	}
	t2 := tiers.Entries(Tier2)
	if len(t2) != 1 || t2[0].Provenance != "dw-u1" {
		t.Fatalf("entry not appended to tier 2: %+v", t2)
	}
}

func TestApplyPromotionsStalenessGuard(t *testing.T) {
	tiers, current := promotionFixture()
	// The proposed entry is gone from the authoritative record set.
	stale := current[1:]
	proposals := []Proposal{{
		Excerpt: "we should always descale monthly", Provenance: "dw-u1",
		FromTier: Tier3, ToTier: Tier2,
	}}

	report := ApplyPromotions(tiers, proposals, stale)
	if report.Applied != 0 || report.SkippedStale != 1 {
		t.Fatalf("report = %+v", report)
	}
	for _, tierN := range []int{Tier0, Tier1, Tier2} {
		for _, e := range tiers.Entries(tierN) {
			if e.Provenance == "dw-u1" {
				t.Fatalf("stale entry surfaced at tier %d", tierN)
			}
		}
	}
}

func TestApplyPromotionsIdempotent(t *testing.T) {
	tiers, current := promotionFixture()
	proposals := []Proposal{{
		Excerpt: "we should always descale monthly", Provenance: "dw-u1",
		FromTier: Tier3, ToTier: Tier2,
	}}

	ApplyPromotions(tiers, proposals, current)
	report := ApplyPromotions(tiers, proposals, current)
	if report.Applied != 0 || report.SkippedDuplicate != 1 {
		t.Fatalf("second pass must be a no-op: %+v", report)
	}
	if len(tiers.Entries(Tier2)) != 1 {
		t.Fatalf("duplicate entry at destination: %+v", tiers.Entries(Tier2))
	}
}
