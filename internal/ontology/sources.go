package ontology

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/hurttlocker/recall/internal/token"
)

// SourceRecord types.
const (
	SourceURLDomain         = "url_domain"
	SourceWikipediaPage     = "wikipedia_page"
	SourceWikipediaCategory = "wikipedia_category"
	SourceISBN              = "isbn"
	SourceAuthor            = "author"
)

// SourceRecord is one aggregated external reference, keyed by (Type, ID).
type SourceRecord struct {
	Type     string   `json:"type"`
	ID       string   `json:"id"`
	Label    string   `json:"label,omitempty"`
	Count    int      `json:"count"`
	LastSeen string   `json:"last_seen,omitempty"`
	URL      string   `json:"url,omitempty"`
	Subjects []string `json:"subjects,omitempty"`
}

// SourceSample is the minimal record shape source discovery scans.
type SourceSample struct {
	Excerpt   string
	Timestamp string
}

var (
	sourceURLRx = regexp.MustCompile(`(?i)https?://([A-Za-z0-9._-]+)(?:/([^\s#?\]]*))?`)
	wikiCatRx   = regexp.MustCompile(`(?i)^wiki/Category:(.+)$`)
	wikiPageRx  = regexp.MustCompile(`(?i)^wiki/([^/]+)$`)
	isbnRx      = regexp.MustCompile(`\bISBN(?:-1[03])?:?\s*([0-9Xx\-]{10,17})\b`)
	urlTokenRx  = regexp.MustCompile(`\[URL:([A-Za-z0-9._-]+)\]`)
)

// DiscoverResult holds discovered sources plus the audit trail of skipped
// author patterns.
type DiscoverResult struct {
	Sources         []SourceRecord
	SkippedPatterns []string
}

// DiscoverSources scans excerpts for URL, ISBN, and Wikipedia references and
// matches seed-registered authors, returning per-run aggregated sources.
// Redacted [URL:domain] tokens count as domain references too, since most
// excerpts have already passed through the redactor.
func DiscoverSources(samples []SourceSample, authors []Author) DiscoverResult {
	var found []SourceRecord
	var skipped []string
	skippedSeen := map[string]struct{}{}

	for _, s := range samples {
		ts := s.Timestamp
		text := s.Excerpt

		for _, m := range sourceURLRx.FindAllStringSubmatch(text, -1) {
			domain := strings.ToLower(m[1])
			path := m[2]
			if strings.HasSuffix(domain, "wikipedia.org") {
				if cm := wikiCatRx.FindStringSubmatch(path); cm != nil {
					cat := cm[1]
					found = append(found, SourceRecord{
						Type:     SourceWikipediaCategory,
						ID:       cat,
						Label:    strings.ReplaceAll(cat, "_", " "),
						URL:      fmt.Sprintf("https://%s/wiki/Category:%s", domain, cat),
						Count:    1,
						LastSeen: ts,
					})
					continue
				}
				if pm := wikiPageRx.FindStringSubmatch(path); pm != nil {
					page := pm[1]
					found = append(found, SourceRecord{
						Type:     SourceWikipediaPage,
						ID:       page,
						Label:    strings.ReplaceAll(page, "_", " "),
						URL:      fmt.Sprintf("https://%s/wiki/%s", domain, page),
						Count:    1,
						LastSeen: ts,
					})
					continue
				}
			}
			found = append(found, SourceRecord{
				Type: SourceURLDomain, ID: domain, Label: domain, Count: 1, LastSeen: ts,
			})
		}

		for _, m := range urlTokenRx.FindAllStringSubmatch(text, -1) {
			domain := strings.ToLower(m[1])
			found = append(found, SourceRecord{
				Type: SourceURLDomain, ID: domain, Label: domain, Count: 1, LastSeen: ts,
			})
		}

		var rowISBNs []string
		for _, m := range isbnRx.FindAllStringSubmatch(text, -1) {
			isbn := strings.ToUpper(strings.ReplaceAll(m[1], "-", ""))
			rowISBNs = append(rowISBNs, isbn)
			found = append(found, SourceRecord{
				Type: SourceISBN, ID: isbn, Label: "ISBN " + isbn, Count: 1, LastSeen: ts,
			})
		}

		for _, a := range authors {
			if a.Name == "" {
				continue
			}
			matched := false
			for _, ai := range a.ISBNs {
				norm := strings.ToUpper(strings.ReplaceAll(ai, "-", ""))
				for _, ri := range rowISBNs {
					if ri == norm {
						matched = true
						break
					}
				}
				if matched {
					break
				}
			}
			if !matched {
				for _, pat := range a.BookPatterns {
					rx, err := regexp.Compile("(?i)" + pat)
					if err != nil {
						key := a.Name + ": " + pat
						if _, dup := skippedSeen[key]; !dup {
							skippedSeen[key] = struct{}{}
							skipped = append(skipped, fmt.Sprintf("%s: %v", key, err))
						}
						continue
					}
					if rx.MatchString(text) {
						matched = true
						break
					}
				}
			}
			if matched {
				found = append(found, SourceRecord{
					Type:     SourceAuthor,
					ID:       token.Slugify(a.Name),
					Label:    a.Name,
					Subjects: a.Subjects,
					Count:    1,
					LastSeen: ts,
				})
			}
		}
	}

	return DiscoverResult{Sources: MergeSources(nil, found), SkippedPatterns: skipped}
}

// MergeSources folds found sources into the existing registry: counts sum,
// last_seen keeps the maximum, label/url fill in when missing. Output is
// sorted by (type, id) so persistence is deterministic.
func MergeSources(existing, found []SourceRecord) []SourceRecord {
	type key struct{ typ, id string }
	idx := make(map[key]SourceRecord, len(existing))
	order := make([]key, 0, len(existing))

	add := func(s SourceRecord, sum bool) {
		k := key{s.Type, s.ID}
		cur, ok := idx[k]
		if !ok {
			idx[k] = s
			order = append(order, k)
			return
		}
		if sum {
			cur.Count += s.Count
		} else if s.Count > cur.Count {
			cur.Count = s.Count
		}
		if s.LastSeen > cur.LastSeen {
			cur.LastSeen = s.LastSeen
		}
		if cur.URL == "" {
			cur.URL = s.URL
		}
		if cur.Label == "" {
			cur.Label = s.Label
		}
		if len(cur.Subjects) == 0 {
			cur.Subjects = s.Subjects
		}
		idx[k] = cur
	}

	for _, s := range existing {
		add(s, false)
	}
	for _, s := range found {
		add(s, true)
	}

	out := make([]SourceRecord, 0, len(idx))
	for _, k := range order {
		out = append(out, idx[k])
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// UnmappedISBNs returns ISBN sources not covered by any seed author, sorted
// by descending count then id, for the curation suggestions report.
func UnmappedISBNs(sources []SourceRecord, authors []Author) []SourceRecord {
	known := map[string]struct{}{}
	for _, a := range authors {
		for _, ai := range a.ISBNs {
			known[strings.ToUpper(strings.ReplaceAll(ai, "-", ""))] = struct{}{}
		}
	}
	var out []SourceRecord
	for _, s := range sources {
		if s.Type != SourceISBN {
			continue
		}
		if _, ok := known[strings.ToUpper(s.ID)]; !ok {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].ID < out[j].ID
	})
	return out
}
