package pipeline

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/hurttlocker/recall/internal/classify"
	"github.com/hurttlocker/recall/internal/token"
)

// Directive is a human-authored carve rule: records still unclassified after
// the classifier are pulled into Name when Pattern matches their excerpt.
// Directives fire in declaration order, first match wins.
type Directive struct {
	Name    string `yaml:"name"`
	Pattern string `yaml:"pattern"`
}

// TopicDiscoverer finds synthetic topics for records the classifier left
// unclassified. Implementations must be deterministic for a fixed input.
type TopicDiscoverer interface {
	// Discover returns synthetic topic labels in selection rank order.
	Discover(excerpts []string) []string
}

// CarveResult reports what auto-carve did, for the audit trail.
type CarveResult struct {
	DirectiveHits     int
	DiscoveredTopics  []string // selection rank order
	Reassigned        int
	SkippedDirectives []string // invalid patterns, skipped fail-open
}

// Carve reassigns "Misc" records: manual directives first, then the
// discoverer's frequency-ranked synthetic topics. Records matching neither
// stay "Misc". Non-Misc records are never touched.
func Carve(records []Record, directives []Directive, disc TopicDiscoverer) CarveResult {
	res := CarveResult{}

	compiled := make([]struct {
		name string
		rx   *regexp.Regexp
	}, 0, len(directives))
	for _, d := range directives {
		rx, err := regexp.Compile(d.Pattern)
		if err != nil {
			res.SkippedDirectives = append(res.SkippedDirectives,
				fmt.Sprintf("%s: %v", d.Name, err))
			continue
		}
		compiled = append(compiled, struct {
			name string
			rx   *regexp.Regexp
		}{d.Name, rx})
	}

	var miscIdx []int
	for i := range records {
		if records[i].PrimaryTopic != classify.TopicMisc {
			continue
		}
		assigned := false
		for _, d := range compiled {
			if d.rx.MatchString(records[i].Excerpt) {
				records[i].PrimaryTopic = d.name
				res.DirectiveHits++
				res.Reassigned++
				assigned = true
				break
			}
		}
		if !assigned {
			miscIdx = append(miscIdx, i)
		}
	}

	if disc == nil || len(miscIdx) == 0 {
		return res
	}

	excerpts := make([]string, 0, len(miscIdx))
	for _, i := range miscIdx {
		excerpts = append(excerpts, records[i].Excerpt)
	}
	topics := disc.Discover(excerpts)
	res.DiscoveredTopics = topics
	if len(topics) == 0 {
		return res
	}

	for _, i := range miscIdx {
		set := token.Set(records[i].Excerpt)
		for _, t := range topics {
			if _, ok := set[t]; ok {
				records[i].PrimaryTopic = t
				res.Reassigned++
				break
			}
		}
	}
	return res
}

// FrequencyDiscoverer selects the most document-frequent tokens across the
// remaining unclassified records as synthetic topics.
type FrequencyDiscoverer struct {
	TopN       int // max synthetic topics (default 8)
	MinDocFreq int // minimum records a token must appear in (default 3)
}

// DefaultFrequencyDiscoverer returns the standard carve heuristic.
func DefaultFrequencyDiscoverer() *FrequencyDiscoverer {
	return &FrequencyDiscoverer{TopN: 8, MinDocFreq: 3}
}

// Discover ranks tokens by (document frequency desc, token asc) and returns
// the top-N meeting the frequency floor. Fully deterministic.
func (f *FrequencyDiscoverer) Discover(excerpts []string) []string {
	topN := f.TopN
	if topN <= 0 {
		topN = 8
	}
	minDF := f.MinDocFreq
	if minDF <= 0 {
		minDF = 3
	}

	df := make(map[string]int)
	for _, e := range excerpts {
		for t := range token.Set(e) {
			df[t]++
		}
	}

	candidates := make([]string, 0, len(df))
	for t, n := range df {
		if n >= minDF {
			candidates = append(candidates, t)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if df[candidates[i]] != df[candidates[j]] {
			return df[candidates[i]] > df[candidates[j]]
		}
		return candidates[i] < candidates[j]
	})

	if len(candidates) > topN {
		candidates = candidates[:topN]
	}
	return candidates
}
