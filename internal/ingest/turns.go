// Package ingest reads raw conversational logs into ordered turn sequences.
//
// Timestamps are parsed best-effort: a turn whose timestamp cannot be parsed
// is kept (and passes any date-range filter) rather than rejected.
package ingest

import (
	"context"
	"strings"
	"time"
)

// Turn is one raw message from the conversational log.
type Turn struct {
	ConversationID string
	Timestamp      string // raw, best-effort ISO-8601
	Role           string // "user" or "assistant"
	RawText        string
}

// Reader loads turns from a log file.
type Reader interface {
	CanHandle(path string) bool
	Read(ctx context.Context, path string) ([]Turn, error)
}

// roleMap normalizes the log's author labels.
var roleMap = map[string]string{
	"AI":        "assistant",
	"Human":     "user",
	"assistant": "assistant",
	"user":      "user",
}

// NormalizeRole maps a raw author label to a role, defaulting to "user".
func NormalizeRole(author string) string {
	if r, ok := roleMap[strings.TrimSpace(author)]; ok {
		return r
	}
	return "user"
}

// timestampLayouts are tried in order by ParseTimestamp.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTimestamp parses a best-effort ISO-8601 timestamp. A trailing Z is
// tolerated even without an offset layout. Returns nil when unparsable.
func ParseTimestamp(raw string) *time.Time {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return &ts
		}
	}
	trimmed := strings.TrimSuffix(s, "Z")
	if trimmed != s {
		for _, layout := range timestampLayouts {
			if ts, err := time.Parse(layout, trimmed); err == nil {
				return &ts
			}
		}
	}
	return nil
}

// FilterRange keeps turns whose timestamp falls inside [since, until]
// (inclusive, either bound optional). Unparsable timestamps are treated as
// in range.
func FilterRange(turns []Turn, since, until *time.Time) []Turn {
	if since == nil && until == nil {
		return turns
	}
	out := make([]Turn, 0, len(turns))
	for _, t := range turns {
		ts := ParseTimestamp(t.Timestamp)
		if ts != nil {
			if since != nil && ts.Before(*since) {
				continue
			}
			if until != nil && ts.After(*until) {
				continue
			}
		}
		out = append(out, t)
	}
	return out
}
