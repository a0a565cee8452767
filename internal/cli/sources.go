package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hurttlocker/recall/internal/config"
	"github.com/hurttlocker/recall/internal/report"
)

func init() {
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "List the external source registry",
		Run:   runSources,
	}

	cmd.Flags().String("type", "", "Filter by source type")
	cmd.Flags().Bool("suggest", false, "Print the suggestions report instead of the raw registry")

	RootCmd.AddCommand(cmd)
}

func runSources(cmd *cobra.Command, args []string) {
	cfg := resolveCfg(config.ResolveOptions{})
	s := openStore(cfg)
	defer s.Close()

	sources, err := s.ListSources(cmd.Context())
	if err != nil {
		exitErr("list sources", err)
	}

	if suggest, _ := cmd.Flags().GetBool("suggest"); suggest {
		threshold, err := cfg.WikiThresholdInt()
		if err != nil {
			exitErr("wiki threshold", err)
		}
		seeds := config.LoadSeeds(cfg.SeedsPath.Value)
		fmt.Print(report.SourcesSuggestions(sources, threshold, seeds.Seeds.Ontology))
		return
	}

	if typ, _ := cmd.Flags().GetString("type"); typ != "" {
		filtered := sources[:0]
		for _, src := range sources {
			if src.Type == typ {
				filtered = append(filtered, src)
			}
		}
		sources = filtered
	}

	b, _ := json.MarshalIndent(sources, "", "  ")
	fmt.Println(string(b))
}
