package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hurttlocker/recall/internal/config"
	"github.com/hurttlocker/recall/internal/tier"
)

func init() {
	cmd := &cobra.Command{
		Use:   "tiers",
		Short: "Show the tier snapshot of the latest run",
		Run:   runTiers,
	}

	cmd.Flags().String("run", "", "Run id (default: latest)")
	cmd.Flags().Int("tier", -1, "Show only this tier (0-3)")

	RootCmd.AddCommand(cmd)
}

func runTiers(cmd *cobra.Command, args []string) {
	cfg := resolveCfg(config.ResolveOptions{})
	s := openStore(cfg)
	defer s.Close()

	runID, _ := cmd.Flags().GetString("run")
	if runID == "" {
		latest, err := s.LatestRunID(cmd.Context())
		if err != nil {
			exitErr("latest run", err)
		}
		if latest == "" {
			exitErr("tiers", fmt.Errorf("no tier snapshot persisted yet"))
		}
		runID = latest
	}

	tiers, err := s.LoadTiers(cmd.Context(), runID)
	if err != nil {
		exitErr("load tiers", err)
	}

	only, _ := cmd.Flags().GetInt("tier")
	out := map[string]interface{}{"run_id": runID}
	for tierN := tier.Tier0; tierN <= tier.Tier3; tierN++ {
		if only >= 0 && tierN != only {
			continue
		}
		out[fmt.Sprintf("tier_%d", tierN)] = tiers.Entries(tierN)
	}

	b, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(b))
}
