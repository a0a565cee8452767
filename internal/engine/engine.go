// Package engine orchestrates one batch run: ingest, classify, dedupe,
// carve, cluster, synthesize, tier, refine, ontology handling, source
// discovery, cross-reference, and guarded promotion — in that fixed order,
// with every fallback recorded on the audit trail.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hurttlocker/recall/internal/classify"
	"github.com/hurttlocker/recall/internal/config"
	"github.com/hurttlocker/recall/internal/ingest"
	"github.com/hurttlocker/recall/internal/ontology"
	"github.com/hurttlocker/recall/internal/pipeline"
	"github.com/hurttlocker/recall/internal/store"
	"github.com/hurttlocker/recall/internal/tier"
)

// Options configures one run.
type Options struct {
	InputPath       string
	Config          config.ResolvedConfig
	Store           *store.Store
	Since           *time.Time
	Until           *time.Time
	ApplyPromotions bool
	// ApplyOntology opts suggest mode into persisting the computed patch.
	// Without it a suggest run only reports the additions.
	ApplyOntology bool
}

// Result is everything one run produced, for reports and the CLI.
type Result struct {
	RunID     string
	Turns     int
	Records   []pipeline.Record
	Clusters  []pipeline.Cluster
	Syntheses []pipeline.Synthesis
	Tiers     *tier.Tiers
	Ontology  *ontology.Ontology

	SeedLoad      config.SeedLoad
	Carve         pipeline.CarveResult
	OntologyReset bool
	Build         *ontology.BuildResult // nil in load mode
	Patch         *ontology.Patch       // suggest mode only
	Sources       []ontology.SourceRecord
	CrossRef      []tier.CrossRefRow
	Proposals     []tier.Proposal
	Promotions    *tier.PromotionReport // nil unless promotions were applied
}

// Run executes the single-pass batch over the input log. The same input,
// seeds, and persisted state always produce the same output; every guarded
// no-op along the way lands in the audit log.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("engine: store is required")
	}

	res := &Result{RunID: ulid.Make().String()}
	audit := func(stage, format string, args ...any) {
		_ = opts.Store.LogEvent(ctx, &store.Event{
			RunID:  res.RunID,
			Stage:  stage,
			Detail: fmt.Sprintf(format, args...),
		})
	}

	// Seeds. Missing or malformed files never abort the run.
	res.SeedLoad = config.LoadSeeds(opts.Config.SeedsPath.Value)
	if res.SeedLoad.Reset {
		audit("seeds", "seed file reset to empty: %v", res.SeedLoad.Err)
	}
	seeds := res.SeedLoad.Seeds

	// Ingest.
	turns, err := readTurns(ctx, opts.InputPath)
	if err != nil {
		return nil, err
	}
	turns = ingest.FilterRange(turns, opts.Since, opts.Until)
	res.Turns = len(turns)
	audit("ingest", "read %d turns from %s", len(turns), opts.InputPath)

	// Classify, redact, dedupe, carve.
	red := classify.NewRedactor(seeds.AllowDomains)
	records := pipeline.FromTurns(turns, red)
	before := len(records)
	records = pipeline.Dedupe(records)
	if merged := before - len(records); merged > 0 {
		audit("dedupe", "merged %d duplicate records", merged)
	}

	res.Carve = pipeline.Carve(records, seeds.Carves, pipeline.DefaultFrequencyDiscoverer())
	for _, skipped := range res.Carve.SkippedDirectives {
		audit("carve", "skipped invalid directive %s", skipped)
	}
	if res.Carve.Reassigned > 0 {
		audit("carve", "reassigned %d records (%d directive hits, discovered %v)",
			res.Carve.Reassigned, res.Carve.DirectiveHits, res.Carve.DiscoveredTopics)
	}

	// Cluster and synthesize. A missing template for a curated topic is a
	// configuration defect, not a data problem.
	res.Clusters = pipeline.ClusterByTopic(records)
	required := append(append([]string{}, tier.AnchorTopics...), tier.OperationalTopics...)
	if err := pipeline.ValidateTemplates(required); err != nil {
		return nil, fmt.Errorf("validating templates: %w", err)
	}
	res.Syntheses = pipeline.SynthesizeAll(res.Clusters)

	// Tier, then refine against the tiered excerpts.
	res.Tiers = tier.AssignTiers(res.Clusters)
	pipeline.Refine(records, res.Tiers.Tier01Excerpts())
	pipeline.LinkEvolution(records)
	res.Records = records

	// Source discovery merges into the persisted registry before the
	// ontology build so wiki promotion sees cumulative counts.
	discovered := ontology.DiscoverSources(sourceSamples(records), seeds.Ontology.Authors)
	for _, skipped := range discovered.SkippedPatterns {
		audit("sources", "skipped invalid author pattern %s", skipped)
	}
	if err := opts.Store.MergeSources(ctx, discovered.Sources); err != nil {
		return nil, fmt.Errorf("merging sources: %w", err)
	}
	res.Sources, err = opts.Store.ListSources(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing sources: %w", err)
	}
	audit("sources", "discovered %d sources this run, registry holds %d",
		len(discovered.Sources), len(res.Sources))

	// Ontology handling per mode.
	if err := res.handleOntology(ctx, opts, seeds, audit); err != nil {
		return nil, err
	}

	// Cross-reference and guarded promotion.
	res.CrossRef = tier.BuildCrossRef(res.Tiers, res.Ontology)
	res.Proposals = tier.ProposePromotions(res.Tiers, res.Ontology, pipeline.UserTopicCounts(records))
	audit("promote", "proposed %d promotions", len(res.Proposals))
	if opts.ApplyPromotions && len(res.Proposals) > 0 {
		report := tier.ApplyPromotions(res.Tiers, res.Proposals, records)
		res.Promotions = &report
		for _, a := range report.Actions {
			audit("promote", "%s (%s)", a.Reason, a.Provenance)
		}
	}

	if err := opts.Store.SaveTiers(ctx, res.RunID, res.Tiers); err != nil {
		return nil, fmt.Errorf("saving tier snapshot: %w", err)
	}
	audit("run", "complete: %d records, %d clusters", len(records), len(res.Clusters))

	return res, nil
}

func (res *Result) handleOntology(ctx context.Context, opts Options, seeds config.SeedFile, audit func(string, string, ...any)) error {
	loaded, err := opts.Store.LoadOntology(ctx)
	if err != nil {
		return fmt.Errorf("loading ontology: %w", err)
	}
	if loaded.Reset {
		res.OntologyReset = true
		audit("ontology", "persisted ontology reset to empty: %v", loaded.Err)
	}

	mode := opts.Config.OntologyMode.Value
	if mode == config.OntologyLoad {
		res.Ontology = loaded.Ontology
		audit("ontology", "loaded persisted ontology (%d values, %d categories)",
			len(res.Ontology.Values), len(res.Ontology.Categories))
		return nil
	}

	threshold, err := opts.Config.WikiThresholdInt()
	if err != nil {
		return err
	}

	build := ontology.Build(ontology.BuildInput{
		Tier0:         tierRefs(res.Tiers, tier.Tier0),
		Tier1:         tierRefs(res.Tiers, tier.Tier1),
		Topics:        res.Tiers.TopicsAt(tier.Tier2, tier.Tier3),
		Samples:       topicSamples(res.Clusters),
		Seeds:         seeds.Ontology,
		Existing:      loaded.Ontology.Values,
		Sources:       res.Sources,
		WikiThreshold: threshold,
	})
	res.Build = &build
	for _, skipped := range build.SkippedPatterns {
		audit("ontology", "skipped invalid seed pattern %s", skipped)
	}
	for _, promoted := range build.PromotedCategories {
		audit("ontology", "promoted wiki category %s", promoted)
	}

	switch mode {
	case config.OntologyRebuild:
		res.Ontology = build.Ontology
		audit("ontology", "rebuilt: %d topics mapped", len(build.Decisions))
	case config.OntologySuggest:
		patch := ontology.Suggest(loaded.Ontology, build.Ontology)
		res.Patch = &patch
		if patch.IsEmpty() {
			res.Ontology = loaded.Ontology
			audit("ontology", "suggest: no additions")
			return nil
		}
		if !opts.ApplyOntology {
			res.Ontology = loaded.Ontology
			audit("ontology", "suggest: %d new mappings, %d new categories proposed (not applied)",
				len(patch.NewMap), len(patch.NewCategories))
			return nil
		}
		res.Ontology = ontology.Apply(loaded.Ontology, patch)
		audit("ontology", "suggest: applied %d new mappings, %d new categories",
			len(patch.NewMap), len(patch.NewCategories))
	default:
		return fmt.Errorf("unknown ontology mode %q", mode)
	}

	if err := opts.Store.SaveOntology(ctx, res.Ontology); err != nil {
		return fmt.Errorf("saving ontology: %w", err)
	}
	return nil
}

func readTurns(ctx context.Context, path string) ([]ingest.Turn, error) {
	readers := []ingest.Reader{&ingest.CSVReader{}}
	for _, r := range readers {
		if r.CanHandle(path) {
			return r.Read(ctx, path)
		}
	}
	return nil, fmt.Errorf("no reader handles %s", path)
}

func tierRefs(tiers *tier.Tiers, tierN int) []ontology.TierEntryRef {
	entries := tiers.Entries(tierN)
	out := make([]ontology.TierEntryRef, 0, len(entries))
	for _, e := range entries {
		out = append(out, ontology.TierEntryRef{Topic: e.PrimaryTopic, Belief: e.CoreBelief})
	}
	return out
}

func topicSamples(clusters []pipeline.Cluster) map[string][]string {
	out := make(map[string][]string, len(clusters))
	for _, c := range clusters {
		for _, r := range c.Records {
			out[c.Topic] = append(out[c.Topic], r.Excerpt)
		}
	}
	return out
}

func sourceSamples(records []pipeline.Record) []ontology.SourceSample {
	out := make([]ontology.SourceSample, 0, len(records))
	for _, r := range records {
		ts := ""
		if r.Timestamp != nil {
			ts = r.Timestamp.UTC().Format(time.RFC3339)
		}
		out = append(out, ontology.SourceSample{Excerpt: r.Excerpt, Timestamp: ts})
	}
	return out
}
