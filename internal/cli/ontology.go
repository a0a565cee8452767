package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hurttlocker/recall/internal/config"
)

func init() {
	cmd := &cobra.Command{
		Use:   "ontology",
		Short: "Show the persisted ontology",
		Run:   runOntology,
	}

	RootCmd.AddCommand(cmd)
}

func runOntology(cmd *cobra.Command, args []string) {
	cfg := resolveCfg(config.ResolveOptions{})
	s := openStore(cfg)
	defer s.Close()

	loaded, err := s.LoadOntology(cmd.Context())
	if err != nil {
		exitErr("load ontology", err)
	}
	if loaded.Reset {
		exitErr("load ontology", loaded.Err)
	}
	if !loaded.Found {
		fmt.Println("no ontology persisted yet")
		return
	}

	b, _ := json.MarshalIndent(loaded.Ontology, "", "  ")
	fmt.Println(string(b))
}
