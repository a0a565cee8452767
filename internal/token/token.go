// Package token provides the shared tokenizer and slug rules used by
// auto-carve topic discovery and ontology value scoring. Both sides must
// agree on the token alphabet or overlap scores drift between runs.
package token

import (
	"regexp"
	"strings"
)

var wordRx = regexp.MustCompile(`[a-z0-9][a-z0-9\-]{2,}`)

var nonSlugRx = regexp.MustCompile(`[^a-z0-9]+`)

var dashRunRx = regexp.MustCompile(`-+`)

// stopwords are filtered out of every tokenization. The list is fixed:
// changing it changes document frequencies and therefore carve output.
var stopwords = buildStopwords(`a an the and or but if then else for to of in on at by with
without from this that these those is are was were be been being do does did not no yes it
its itself you your i me my mine we our they them their as into about over under within
across up down out more most less least many much few lot lots very just here there now new
old other another same different also than while when where why how which who whom whose
because so such can could should would will shall may might must own per vs via etc`)

func buildStopwords(raw string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(raw) {
		set[w] = struct{}{}
	}
	return set
}

// IsStopword reports whether w is on the fixed stopword list.
func IsStopword(w string) bool {
	_, ok := stopwords[strings.ToLower(w)]
	return ok
}

// Tokenize lowercases text and returns alphanumeric-with-hyphen tokens of
// length >= 3, stopword-filtered, in order of appearance.
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}
	var out []string
	for _, t := range wordRx.FindAllString(strings.ToLower(text), -1) {
		if _, stop := stopwords[t]; stop {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Set tokenizes text and returns the distinct token set.
func Set(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, t := range Tokenize(text) {
		set[t] = struct{}{}
	}
	return set
}

// Overlap returns the size of the intersection of two token sets.
func Overlap(a, b map[string]struct{}) int {
	if len(b) < len(a) {
		a, b = b, a
	}
	n := 0
	for t := range a {
		if _, ok := b[t]; ok {
			n++
		}
	}
	return n
}

// Slugify normalizes a human-readable label into a category slug:
// lowercase, non-alphanumerics collapsed to single dashes, trimmed.
// An empty result falls back to "misc".
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = nonSlugRx.ReplaceAllString(s, "-")
	s = dashRunRx.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "misc"
	}
	return s
}
