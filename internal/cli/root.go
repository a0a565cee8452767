// Package cli implements the recall CLI commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hurttlocker/recall/internal/config"
	"github.com/hurttlocker/recall/internal/store"
)

var (
	configPath string
	dbFlag     string
	seedsFlag  string
	outFlag    string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "recall",
	Short: "Deterministic batch memory engine",
	Long: "Converts a raw conversational log into a tiered, auditable memory store:\n" +
		"classification, dedup, tiering, ontology management, and guarded promotion.",
}

func init() {
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default: ~/.recall/config.yaml)")
	RootCmd.PersistentFlags().StringVarP(&dbFlag, "db", "d", "", "Database path (default: $RECALL_DB or recall.db)")
	RootCmd.PersistentFlags().StringVar(&seedsFlag, "seeds", "", "Seeds file path (default: $RECALL_SEEDS)")
	RootCmd.PersistentFlags().StringVarP(&outFlag, "out", "o", "", "Artifact output directory (default: $RECALL_OUT or artifacts)")
}

func resolveCfg(extra config.ResolveOptions) config.ResolvedConfig {
	extra.ConfigPath = configPath
	extra.CLIDBPath = dbFlag
	extra.CLISeedsPath = seedsFlag
	extra.CLIOutDir = outFlag
	cfg, err := config.ResolveConfig(extra)
	if err != nil {
		exitErr("resolve config", err)
	}
	return cfg
}

func openStore(cfg config.ResolvedConfig) *store.Store {
	s, err := store.Open(cfg.DBPath.Value)
	if err != nil {
		exitErr("open store", err)
	}
	return s
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
