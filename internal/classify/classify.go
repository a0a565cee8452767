// Package classify assigns intent, topic, subtags, and entities to raw
// conversational text using ordered first-match pattern dispatch, and owns
// the normalizer/redactor that produces record excerpts.
package classify

import (
	"sort"
	"strings"
)

// MaxSubtags caps the subtopic tag set per record. Tags are sorted before
// the cap is applied so the kept subset is deterministic.
const MaxSubtags = 7

// Intent returns the label of the first matching intent rule, or
// DefaultIntent when nothing matches.
func Intent(text string) string {
	for _, r := range IntentRules {
		if r.Pattern.MatchString(text) {
			return r.Label
		}
	}
	return DefaultIntent
}

// Topic returns the label of the first matching topic rule, or TopicMisc.
func Topic(text string) string {
	for _, r := range TopicRules {
		if r.Pattern.MatchString(text) {
			return r.Label
		}
	}
	return TopicMisc
}

// Subtags unions the tags of every matching subtag rule, sorted, capped at
// MaxSubtags.
func Subtags(text string) []string {
	set := make(map[string]struct{})
	for _, r := range SubtagRules {
		if r.Pattern.MatchString(text) {
			for _, t := range r.Tags {
				set[t] = struct{}{}
			}
		}
	}
	tags := sortedKeys(set)
	if len(tags) > MaxSubtags {
		tags = tags[:MaxSubtags]
	}
	return tags
}

// Entities unions the labels of every matching entity rule, sorted.
func Entities(text string) []string {
	set := make(map[string]struct{})
	for _, r := range EntityRules {
		if r.Pattern.MatchString(text) {
			set[r.Label] = struct{}{}
		}
	}
	return sortedKeys(set)
}

// Memory returns (memory_candidate, priority) for a classified record using
// the ordered MemoryRules table.
func Memory(topic, role string) (bool, int) {
	t := strings.ToLower(topic)
	for _, r := range MemoryRules {
		if r.Role != "" && r.Role != role {
			continue
		}
		for _, sub := range r.TopicContains {
			if strings.Contains(t, sub) {
				return r.Candidate, r.Priority
			}
		}
	}
	return false, DefaultPriority
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
