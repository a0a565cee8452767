package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hurttlocker/recall/internal/ontology"
	"github.com/hurttlocker/recall/internal/pipeline"
)

// SeedFile is the operator-curated yaml input: ontology seeds (categories,
// aliases, patterns, authors), carving directives applied before topic
// discovery, and domains exempt from URL redaction.
type SeedFile struct {
	Ontology     ontology.Seeds       `yaml:"ontology"`
	Carves       []pipeline.Directive `yaml:"carves"`
	AllowDomains []string             `yaml:"allow_domains"`
}

// SeedLoad is the outcome of loading seeds. The run never aborts on seed
// problems: a missing or malformed file yields empty seeds, with Reset set
// and Err retained for the audit trail when the file existed but would not
// parse.
type SeedLoad struct {
	Seeds SeedFile
	Path  string
	Found bool
	Reset bool
	Err   error
}

// LoadSeeds reads the seed file at path. Empty path or a missing file is a
// clean no-seeds run; unreadable or malformed yaml resets to empty seeds
// rather than failing the run.
func LoadSeeds(path string) SeedLoad {
	out := SeedLoad{Path: path}
	if path == "" {
		return out
	}

	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return out
		}
		out.Reset = true
		out.Err = fmt.Errorf("reading seeds %s: %w", path, err)
		return out
	}
	out.Found = true

	var seeds SeedFile
	if err := yaml.Unmarshal(b, &seeds); err != nil {
		out.Reset = true
		out.Err = fmt.Errorf("parsing seeds %s: %w", path, err)
		return out
	}

	out.Seeds = seeds
	return out
}
