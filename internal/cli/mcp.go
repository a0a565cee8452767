package cli

import (
	"github.com/spf13/cobra"

	"github.com/hurttlocker/recall/internal/config"
	"github.com/hurttlocker/recall/internal/mcp"
)

func init() {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the persisted memory over MCP (stdio)",
		Long: "Starts a read-only Model Context Protocol server exposing the tiered\n" +
			"entries, ontology, source registry, and audit log over stdio.",
		Run: runMCP,
	}

	RootCmd.AddCommand(cmd)
}

func runMCP(cmd *cobra.Command, args []string) {
	cfg := resolveCfg(config.ResolveOptions{})
	s := openStore(cfg)
	defer s.Close()

	srv := mcp.NewServer(mcp.ServerConfig{Store: s, Version: Version})
	if err := mcp.ServeStdio(srv); err != nil {
		exitErr("mcp serve", err)
	}
}
