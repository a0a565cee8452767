package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hurttlocker/recall/internal/config"
	"github.com/hurttlocker/recall/internal/engine"
	"github.com/hurttlocker/recall/internal/report"
	"github.com/hurttlocker/recall/internal/tier"
)

func init() {
	cmd := &cobra.Command{
		Use:   "run [log file]",
		Short: "Run the batch pipeline over a conversational log",
		Long: "Runs the full single-pass pipeline: ingest, classify, dedupe, carve,\n" +
			"cluster, synthesize, tier, refine, ontology, sources, cross-reference,\n" +
			"and promotion proposals. Writes markdown artifacts and persists state.",
		Args: cobra.ExactArgs(1),
		Run:  runRun,
	}

	cmd.Flags().String("since", "", "Keep only turns on or after this date (YYYY-MM-DD)")
	cmd.Flags().String("until", "", "Keep only turns on or before this date (YYYY-MM-DD)")
	cmd.Flags().String("ontology-mode", "", "Ontology handling: load, rebuild, or suggest")
	cmd.Flags().Int("wiki-threshold", 0, "Recurring-count floor for wiki-category promotion")
	cmd.Flags().Bool("apply-promotions", false, "Apply tier-3 → tier-2 promotion proposals")
	cmd.Flags().Bool("apply-ontology", false, "In suggest mode, persist the proposed ontology additions")
	cmd.Flags().BoolP("verbose", "v", false, "Print per-stage details")

	RootCmd.AddCommand(cmd)
}

func runRun(cmd *cobra.Command, args []string) {
	mode, _ := cmd.Flags().GetString("ontology-mode")
	threshold, _ := cmd.Flags().GetInt("wiki-threshold")
	applyPromotions, _ := cmd.Flags().GetBool("apply-promotions")
	applyOntology, _ := cmd.Flags().GetBool("apply-ontology")
	verbose, _ := cmd.Flags().GetBool("verbose")

	extra := config.ResolveOptions{CLIOntologyMode: mode}
	if threshold > 0 {
		extra.CLIWikiThreshold = fmt.Sprintf("%d", threshold)
	}
	cfg := resolveCfg(extra)

	s := openStore(cfg)
	defer s.Close()

	opts := engine.Options{
		InputPath:       args[0],
		Config:          cfg,
		Store:           s,
		ApplyPromotions: applyPromotions,
		ApplyOntology:   applyOntology,
	}
	if v, _ := cmd.Flags().GetString("since"); v != "" {
		opts.Since = parseDate(v, "--since")
	}
	if v, _ := cmd.Flags().GetString("until"); v != "" {
		opts.Until = parseDate(v, "--until")
	}

	res, err := engine.Run(cmd.Context(), opts)
	if err != nil {
		exitErr("run", err)
	}

	artifacts := map[string]string{
		"cluster_index.md":  report.ClusterIndex(res.Clusters),
		"cluster_report.md": report.ClusterReport(res.Clusters, res.Syntheses),
		"refined.md":        report.RefinedReport(res.Records),
		"memory_mart.md":    report.MemoryMart(res.Tiers),
		"crossref.md":       report.CrossRefTable(res.CrossRef),
	}
	if res.Build != nil {
		artifacts["ontology_build.md"] = report.OntologyBuildLog(*res.Build, res.Sources)
	}
	if n, err := cfg.WikiThresholdInt(); err == nil {
		artifacts["sources_suggestions.md"] = report.SourcesSuggestions(
			res.Sources, n, res.SeedLoad.Seeds.Ontology)
	}

	if err := report.WriteArtifacts(cfg.OutDir.Value, artifacts); err != nil {
		exitErr("write artifacts", err)
	}

	fmt.Printf("run %s: %d turns, %d records, %d clusters\n",
		res.RunID, res.Turns, len(res.Records), len(res.Clusters))
	for tierN := tier.Tier0; tierN <= tier.Tier3; tierN++ {
		fmt.Printf("  tier %d: %d entries\n", tierN, len(res.Tiers.Entries(tierN)))
	}
	fmt.Printf("  proposals: %d", len(res.Proposals))
	if res.Promotions != nil {
		fmt.Printf(" (applied %d, stale %d, duplicate %d)",
			res.Promotions.Applied, res.Promotions.SkippedStale, res.Promotions.SkippedDuplicate)
	}
	fmt.Println()
	if res.Patch != nil {
		fmt.Printf("  ontology patch: %d new mappings, %d new categories",
			len(res.Patch.NewMap), len(res.Patch.NewCategories))
		if !applyOntology && !res.Patch.IsEmpty() {
			fmt.Print(" (not applied; re-run with --apply-ontology)")
		}
		fmt.Println()
	}
	fmt.Printf("  artifacts: %s\n", cfg.OutDir.Value)

	if verbose {
		fmt.Printf("  config: db=%s (%s), seeds=%s (%s), mode=%s (%s)\n",
			cfg.DBPath.Value, cfg.DBPath.Source,
			cfg.SeedsPath.Value, cfg.SeedsPath.Source,
			cfg.OntologyMode.Value, cfg.OntologyMode.Source)
		if res.SeedLoad.Reset {
			fmt.Printf("  seeds reset: %v\n", res.SeedLoad.Err)
		}
		if res.OntologyReset {
			fmt.Println("  ontology was corrupt and reset to empty")
		}
		if res.Carve.Reassigned > 0 {
			fmt.Printf("  carve: %d reassigned, discovered %v\n",
				res.Carve.Reassigned, res.Carve.DiscoveredTopics)
		}
	}
}

func parseDate(v, flag string) *time.Time {
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		exitErr(flag, err)
	}
	return &t
}
