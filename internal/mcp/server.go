// Package mcp provides a Model Context Protocol server over the persisted
// memory store.
//
// It exposes the tiered entries, the ontology, the source registry, and the
// audit log as read-only MCP tools, plus store statistics as a resource.
// Stdio transport only; the server never writes to the store.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hurttlocker/recall/internal/ontology"
	"github.com/hurttlocker/recall/internal/store"
	"github.com/hurttlocker/recall/internal/tier"
)

// ServerConfig holds configuration for the MCP server.
type ServerConfig struct {
	Store   *store.Store
	Version string
}

// dbMu serializes MCP handlers that touch the database. The mcp-go library
// dispatches handlers concurrently via goroutines; SQLite supports only one
// writer at a time and we want reads to see a settled snapshot.
var dbMu sync.Mutex

// NewServer creates a configured MCP server with all tools and resources.
func NewServer(cfg ServerConfig) *server.MCPServer {
	ver := cfg.Version
	if ver == "" {
		ver = "dev"
	}

	s := server.NewMCPServer(
		"Recall",
		ver,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(true, false),
	)

	registerTiersTool(s, cfg.Store)
	registerOntologyTool(s, cfg.Store)
	registerSourcesTool(s, cfg.Store)
	registerEventsTool(s, cfg.Store)

	registerStatsResource(s, cfg.Store)

	return s
}

// ServeStdio runs the server over stdio until the client disconnects.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

// --- Tools ---

func registerTiersTool(s *server.MCPServer, st *store.Store) {
	tool := mcp.NewTool("recall_tiers",
		mcp.WithDescription("Read the tiered memory entries from the latest run (or a named run). Optionally scope to one tier (0-3)."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("run_id",
			mcp.Description("Run id of the snapshot to read. Empty = latest run."),
		),
		mcp.WithNumber("tier",
			mcp.Description("Single tier to return (0-3). Omit for all tiers."),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		runID := ""
		if v, err := req.RequireString("run_id"); err == nil {
			runID = v
		}
		if runID == "" {
			latest, err := st.LatestRunID(ctx)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("finding latest run: %v", err)), nil
			}
			if latest == "" {
				return mcp.NewToolResultError("no tier snapshot persisted yet"), nil
			}
			runID = latest
		}

		tiers, err := st.LoadTiers(ctx, runID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("loading tiers: %v", err)), nil
		}

		only := -1
		if v, err := req.RequireFloat("tier"); err == nil {
			only = int(v)
			if only < tier.Tier0 || only > tier.Tier3 {
				return mcp.NewToolResultError("tier must be between 0 and 3"), nil
			}
		}

		data, _ := json.MarshalIndent(tiersPayload(runID, tiers, only), "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerOntologyTool(s *server.MCPServer, st *store.Store) {
	tool := mcp.NewTool("recall_ontology",
		mcp.WithDescription("Read the persisted ontology: durable values, categories, the topic map, and the category value map."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		loaded, err := st.LoadOntology(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("loading ontology: %v", err)), nil
		}
		if loaded.Reset {
			return mcp.NewToolResultError(fmt.Sprintf("persisted ontology is corrupt: %v", loaded.Err)), nil
		}

		data, _ := json.MarshalIndent(loaded.Ontology, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerSourcesTool(s *server.MCPServer, st *store.Store) {
	tool := mcp.NewTool("recall_sources",
		mcp.WithDescription("List the external source registry: domains, Wikipedia pages and categories, ISBNs, and authors, with seen counts."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("type",
			mcp.Description("Filter by source type."),
			mcp.Enum(ontology.SourceURLDomain, ontology.SourceWikipediaPage,
				ontology.SourceWikipediaCategory, ontology.SourceISBN, ontology.SourceAuthor),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		sources, err := st.ListSources(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("listing sources: %v", err)), nil
		}

		if typ, err := req.RequireString("type"); err == nil && typ != "" {
			filtered := sources[:0]
			for _, s := range sources {
				if s.Type == typ {
					filtered = append(filtered, s)
				}
			}
			sources = filtered
		}

		payload := map[string]interface{}{
			"sources": sources,
			"count":   len(sources),
		}
		data, _ := json.MarshalIndent(payload, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerEventsTool(s *server.MCPServer, st *store.Store) {
	tool := mcp.NewTool("recall_events",
		mcp.WithDescription("Read the audit event log, newest first. Every fail-open fallback, skip, and applied promotion is recorded here."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of events (default: 50, max: 500)"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		limit := 50
		if v, err := req.RequireFloat("limit"); err == nil && int(v) > 0 {
			limit = int(v)
			if limit > 500 {
				limit = 500
			}
		}

		events, err := st.RecentEvents(ctx, limit)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("listing events: %v", err)), nil
		}

		payload := map[string]interface{}{
			"events": events,
			"count":  len(events),
		}
		data, _ := json.MarshalIndent(payload, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

// --- Resources ---

func registerStatsResource(s *server.MCPServer, st *store.Store) {
	resource := mcp.NewResource(
		"recall://stats",
		"Store Statistics",
		mcp.WithResourceDescription("Counts of ontology backups, registered sources, tier entries, and audit events."),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(resource, func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		stats, err := st.Stats(ctx)
		if err != nil {
			return nil, fmt.Errorf("querying stats resource: %w", err)
		}

		data, _ := json.MarshalIndent(stats, "", "  ")
		return []mcp.ResourceContents{
			mcp.TextResourceContents{URI: req.Params.URI, MIMEType: "application/json", Text: string(data)},
		}, nil
	})
}

// tiersPayload shapes a snapshot for tool output. only < 0 returns all tiers.
func tiersPayload(runID string, tiers *tier.Tiers, only int) map[string]interface{} {
	levels := map[string][]tier.Entry{}
	for tierN := tier.Tier0; tierN <= tier.Tier3; tierN++ {
		if only >= 0 && tierN != only {
			continue
		}
		levels[fmt.Sprintf("tier_%d", tierN)] = tiers.Entries(tierN)
	}
	return map[string]interface{}{
		"run_id": runID,
		"levels": levels,
	}
}
