package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hurttlocker/recall/internal/config"
)

func init() {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show the audit event log, newest first",
		Run:   runEvents,
	}

	cmd.Flags().IntP("limit", "n", 50, "Maximum number of events")

	RootCmd.AddCommand(cmd)
}

func runEvents(cmd *cobra.Command, args []string) {
	cfg := resolveCfg(config.ResolveOptions{})
	s := openStore(cfg)
	defer s.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	events, err := s.RecentEvents(cmd.Context(), limit)
	if err != nil {
		exitErr("list events", err)
	}

	b, _ := json.MarshalIndent(events, "", "  ")
	fmt.Println(string(b))
}
