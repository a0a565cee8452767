// Package config resolves the engine's settings from its four layers —
// built-in defaults, the yaml config file, RECALL_* environment variables,
// and CLI flags — and records where each value came from so the audit trail
// can report it.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type ValueSource string

const (
	SourceUnknown ValueSource = "unknown"
	SourceConfig  ValueSource = "config"
	SourceEnv     ValueSource = "env"
	SourceCLI     ValueSource = "cli"
	SourceDefault ValueSource = "default"
)

// ResolvedValue is one setting plus its provenance: which layer supplied it
// and the concrete file, env var, or flag it came from.
type ResolvedValue struct {
	Value  string      `json:"value"`
	Source ValueSource `json:"source"`
	From   string      `json:"from,omitempty"`
}

// Ontology handling modes for a run.
const (
	OntologyLoad    = "load"
	OntologyRebuild = "rebuild"
	OntologySuggest = "suggest"
)

// ResolveOptions carries the CLI-layer overrides into resolution. Empty
// strings mean "not set on the command line".
type ResolveOptions struct {
	ConfigPath       string
	CLIDBPath        string
	CLISeedsPath     string
	CLIOutDir        string
	CLIOntologyMode  string
	CLIWikiThreshold string
}

// ResolvedConfig is the fully resolved setting set. Every field records its
// source layer.
type ResolvedConfig struct {
	ConfigPath string `json:"config_path"`

	DBPath        ResolvedValue `json:"db_path"`
	SeedsPath     ResolvedValue `json:"seeds_path"`
	OutDir        ResolvedValue `json:"out_dir"`
	OntologyMode  ResolvedValue `json:"ontology_mode"`
	WikiThreshold ResolvedValue `json:"wiki_threshold"`
}

type fileConfig struct {
	DBPath    string `yaml:"db_path"`
	SeedsPath string `yaml:"seeds_path"`
	OutDir    string `yaml:"out_dir"`
	Ontology  struct {
		Mode          string `yaml:"mode"`
		WikiThreshold int    `yaml:"wiki_threshold"`
	} `yaml:"ontology"`
}

func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".recall", "config.yaml")
}

// ResolveConfig layers defaults, the config file, environment, and CLI flags
// in that order of increasing precedence. A missing config file is not an
// error; a malformed one is.
func ResolveConfig(opts ResolveOptions) (ResolvedConfig, error) {
	path := strings.TrimSpace(opts.ConfigPath)
	if path == "" {
		path = DefaultConfigPath()
	}

	out := ResolvedConfig{
		ConfigPath:    path,
		DBPath:        ResolvedValue{Value: "recall.db", Source: SourceDefault, From: "built-in default"},
		OutDir:        ResolvedValue{Value: "artifacts", Source: SourceDefault, From: "built-in default"},
		OntologyMode:  ResolvedValue{Value: OntologyLoad, Source: SourceDefault, From: "built-in default"},
		WikiThreshold: ResolvedValue{Value: "3", Source: SourceDefault, From: "built-in default"},
	}

	cfg, err := loadConfig(path)
	if err != nil {
		return out, err
	}

	if cfg != nil {
		apply(&out.DBPath, cfg.DBPath, SourceConfig, path)
		apply(&out.SeedsPath, cfg.SeedsPath, SourceConfig, path)
		apply(&out.OutDir, cfg.OutDir, SourceConfig, path)
		apply(&out.OntologyMode, cfg.Ontology.Mode, SourceConfig, path)
		if cfg.Ontology.WikiThreshold > 0 {
			apply(&out.WikiThreshold, strconv.Itoa(cfg.Ontology.WikiThreshold), SourceConfig, path)
		}
	}

	applyEnv(&out.DBPath, "RECALL_DB")
	applyEnv(&out.SeedsPath, "RECALL_SEEDS")
	applyEnv(&out.OutDir, "RECALL_OUT")
	applyEnv(&out.OntologyMode, "RECALL_ONTOLOGY_MODE")
	applyEnv(&out.WikiThreshold, "RECALL_WIKI_THRESHOLD")

	apply(&out.DBPath, opts.CLIDBPath, SourceCLI, "--db")
	apply(&out.SeedsPath, opts.CLISeedsPath, SourceCLI, "--seeds")
	apply(&out.OutDir, opts.CLIOutDir, SourceCLI, "--out")
	apply(&out.OntologyMode, opts.CLIOntologyMode, SourceCLI, "--ontology-mode")
	apply(&out.WikiThreshold, opts.CLIWikiThreshold, SourceCLI, "--wiki-threshold")

	for _, rv := range []*ResolvedValue{&out.DBPath, &out.SeedsPath, &out.OutDir} {
		if rv.Value != "" {
			rv.Value = expandUserPath(rv.Value)
		}
	}

	mode := strings.ToLower(strings.TrimSpace(out.OntologyMode.Value))
	switch mode {
	case OntologyLoad, OntologyRebuild, OntologySuggest:
		out.OntologyMode.Value = mode
	default:
		return out, fmt.Errorf("invalid ontology mode %q (want load, rebuild, or suggest)", out.OntologyMode.Value)
	}

	if _, err := out.WikiThresholdInt(); err != nil {
		return out, err
	}

	return out, nil
}

// WikiThresholdInt parses the resolved wiki promotion threshold.
func (r ResolvedConfig) WikiThresholdInt() (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(r.WikiThreshold.Value))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid wiki threshold %q (want a positive integer)", r.WikiThreshold.Value)
	}
	return n, nil
}

func apply(dst *ResolvedValue, raw string, source ValueSource, from string) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return
	}
	*dst = ResolvedValue{Value: v, Source: source, From: from}
}

func applyEnv(dst *ResolvedValue, envKey string) {
	if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
		*dst = ResolvedValue{Value: v, Source: SourceEnv, From: envKey}
	}
}

func loadConfig(path string) (*fileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &cfg, nil
}

func expandUserPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
