package engine

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/hurttlocker/recall/internal/config"
	"github.com/hurttlocker/recall/internal/store"
	"github.com/hurttlocker/recall/internal/tier"
)

const fixtureCSV = `Conversation,Time,Author,Message
Memory talk,2025-03-01T10:00:00Z,Human,I want the memory feature to stay auditable
Memory talk,2025-03-01T10:01:00Z,AI,Memory can be curated with tiers
License chat,2025-03-02T09:00:00Z,Human,The GPL license should stay enforceable
License chat,2025-03-02T09:01:00Z,AI,License terms vary by jurisdiction
Garden chat,2025-03-03T08:00:00Z,Human,We should turn the compost weekly
`

func writeFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "log.csv")
	if err := os.WriteFile(path, []byte(fixtureCSV), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func testConfig(t *testing.T, mode string) config.ResolvedConfig {
	t.Helper()
	cfg, err := config.ResolveConfig(config.ResolveOptions{
		ConfigPath:      filepath.Join(t.TempDir(), "missing.yaml"),
		CLIOntologyMode: mode,
	})
	if err != nil {
		t.Fatalf("ResolveConfig: %v", err)
	}
	return cfg
}

func TestRunEndToEnd(t *testing.T) {
	ctx := context.Background()
	s, err := store.Open(filepath.Join(t.TempDir(), "recall.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	res, err := Run(ctx, Options{
		InputPath: writeFixture(t),
		Config:    testConfig(t, "rebuild"),
		Store:     s,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.Turns != 5 || len(res.Records) != 5 {
		t.Fatalf("turns=%d records=%d, want 5 each", res.Turns, len(res.Records))
	}

	t1 := res.Tiers.Entries(tier.Tier1)
	if len(t1) != 1 || t1[0].PrimaryTopic != "Memory feature" {
		t.Fatalf("tier 1 = %+v", t1)
	}
	if len(res.Tiers.Entries(tier.Tier2)) != 2 {
		t.Fatalf("tier 2 = %+v", res.Tiers.Entries(tier.Tier2))
	}
	if len(res.Tiers.Entries(tier.Tier3)) != 1 {
		t.Fatalf("tier 3 = %+v", res.Tiers.Entries(tier.Tier3))
	}

	if res.Build == nil || len(res.Ontology.Map) == 0 {
		t.Fatalf("rebuild mode must produce a mapped ontology: %+v", res.Build)
	}

	// The rebuilt ontology was persisted.
	loaded, err := s.LoadOntology(ctx)
	if err != nil || !loaded.Found {
		t.Fatalf("ontology not persisted: %+v %v", loaded, err)
	}

	// Tier snapshot round-trips under the run id.
	snap, err := s.LoadTiers(ctx, res.RunID)
	if err != nil {
		t.Fatalf("LoadTiers: %v", err)
	}
	if len(snap.Entries(tier.Tier1)) != 1 {
		t.Fatalf("persisted snapshot wrong: %+v", snap)
	}

	events, err := s.RecentEvents(ctx, 50)
	if err != nil || len(events) == 0 {
		t.Fatalf("expected audit events: %v", err)
	}
}

func TestRunDeterministicOntologyAcrossRuns(t *testing.T) {
	ctx := context.Background()
	s, err := store.Open(filepath.Join(t.TempDir(), "recall.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	input := writeFixture(t)
	cfg := testConfig(t, "rebuild")

	first, err := Run(ctx, Options{InputPath: input, Config: cfg, Store: s})
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	second, err := Run(ctx, Options{InputPath: input, Config: cfg, Store: s})
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}

	if !reflect.DeepEqual(first.Ontology, second.Ontology) {
		t.Fatal("same input and seeds must rebuild the same ontology")
	}
	if !reflect.DeepEqual(first.Tiers, second.Tiers) {
		t.Fatal("same input must assign the same tiers")
	}
}

func TestRunAppliesPromotions(t *testing.T) {
	ctx := context.Background()
	s, err := store.Open(filepath.Join(t.TempDir(), "recall.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	res, err := Run(ctx, Options{
		InputPath:       writeFixture(t),
		Config:          testConfig(t, "load"),
		Store:           s,
		ApplyPromotions: true,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// The compost record carries strong-opinion phrasing and is the only
	// tier-3 user entry.
	if len(res.Proposals) != 1 {
		t.Fatalf("proposals = %+v", res.Proposals)
	}
	if res.Promotions == nil || res.Promotions.Applied != 1 {
		t.Fatalf("promotion not applied: %+v", res.Promotions)
	}
	if len(res.Tiers.Entries(tier.Tier3)) != 0 {
		t.Fatalf("promoted entry still at tier 3: %+v", res.Tiers.Entries(tier.Tier3))
	}
}

func TestRunSuggestModeOnlyProposes(t *testing.T) {
	ctx := context.Background()
	s, err := store.Open(filepath.Join(t.TempDir(), "recall.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	input := writeFixture(t)

	// Without the opt-in, suggest reports the patch but leaves the store
	// untouched.
	res, err := Run(ctx, Options{InputPath: input, Config: testConfig(t, "suggest"), Store: s})
	if err != nil {
		t.Fatalf("suggest Run: %v", err)
	}
	if res.Patch == nil || res.Patch.IsEmpty() {
		t.Fatalf("suggest must propose additions over an empty ontology: %+v", res.Patch)
	}
	if len(res.Ontology.Map) != 0 {
		t.Fatalf("active ontology must stay unchanged: %+v", res.Ontology.Map)
	}
	loaded, err := s.LoadOntology(ctx)
	if err != nil {
		t.Fatalf("LoadOntology: %v", err)
	}
	if loaded.Found {
		t.Fatal("plain suggest run persisted an ontology")
	}

	// With the opt-in, the patch is applied and saved.
	res, err = Run(ctx, Options{
		InputPath:     input,
		Config:        testConfig(t, "suggest"),
		Store:         s,
		ApplyOntology: true,
	})
	if err != nil {
		t.Fatalf("suggest apply Run: %v", err)
	}
	if len(res.Ontology.Map) == 0 {
		t.Fatalf("applied suggest run produced no mappings: %+v", res.Ontology)
	}
	loaded, err = s.LoadOntology(ctx)
	if err != nil || !loaded.Found {
		t.Fatalf("applied suggest run did not persist: %+v %v", loaded, err)
	}
	if !reflect.DeepEqual(loaded.Ontology.Map, res.Ontology.Map) {
		t.Fatalf("persisted map %v != result map %v", loaded.Ontology.Map, res.Ontology.Map)
	}
}

func TestRunLoadModeKeepsPersistedOntology(t *testing.T) {
	ctx := context.Background()
	s, err := store.Open(filepath.Join(t.TempDir(), "recall.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	input := writeFixture(t)
	if _, err := Run(ctx, Options{InputPath: input, Config: testConfig(t, "rebuild"), Store: s}); err != nil {
		t.Fatalf("rebuild Run: %v", err)
	}

	res, err := Run(ctx, Options{InputPath: input, Config: testConfig(t, "load"), Store: s})
	if err != nil {
		t.Fatalf("load Run: %v", err)
	}
	if res.Build != nil {
		t.Fatal("load mode must not rebuild")
	}
	if len(res.Ontology.Map) == 0 {
		t.Fatalf("load mode lost the persisted ontology: %+v", res.Ontology)
	}
}
