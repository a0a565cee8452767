package classify

import (
	"reflect"
	"strings"
	"testing"
)

func TestIntentFirstMatchWins(t *testing.T) {
	cases := []struct {
		text, want string
	}{
		{"what happened to the Apollo program?", "question"},
		{"please design a memory schema", "request"},
		{"remember this for later", "meta"},
		{"we should build an ETL pipeline", "design"},
		{"just riffing on ideas", "brainstorm"},
	}
	for _, c := range cases {
		if got := Intent(c.text); got != c.want {
			t.Errorf("Intent(%q) = %q, want %q", c.text, got, c.want)
		}
	}
}

func TestTopicPrecedence(t *testing.T) {
	// Matches both "Copilot history" (privacy) and "Memory feature" (memory);
	// the earlier rule must win.
	got := Topic("the privacy dashboard and the memory feature")
	if got != "Copilot history" {
		t.Fatalf("Topic = %q, want %q", got, "Copilot history")
	}

	// Specific appliance rule over the generic ethics rule further down.
	if got := Topic("is a dishwasher allowed here"); got != "Dishwasher tips" {
		t.Fatalf("Topic = %q, want %q", got, "Dishwasher tips")
	}
}

func TestTopicDefault(t *testing.T) {
	if got := Topic("completely unrelated chatter"); got != TopicMisc {
		t.Fatalf("Topic = %q, want %q", got, TopicMisc)
	}
}

func TestSubtagsSortedAndCapped(t *testing.T) {
	// Two rules fire: strategy tags (4) + container tags (4) = 8, capped at 7.
	text := "patience and cooperation while using termux with docker"
	tags := Subtags(text)
	if len(tags) != MaxSubtags {
		t.Fatalf("got %d tags, want %d: %v", len(tags), MaxSubtags, tags)
	}
	if !sortIsStable(tags) {
		t.Fatalf("tags not sorted: %v", tags)
	}
}

func TestEntities(t *testing.T) {
	got := Entities("SafetyNet checks inside Termux")
	want := []string{"Play Integrity API", "Termux"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Entities = %v, want %v", got, want)
	}
}

func TestMemoryRules(t *testing.T) {
	if cand, prio := Memory("Copilot history", "user"); !cand || prio != 1 {
		t.Fatalf("anchor topic user: got (%v, %d)", cand, prio)
	}
	if cand, _ := Memory("Copilot history", "assistant"); cand {
		t.Fatal("anchor topic rule must be user-only")
	}
	if cand, prio := Memory("Android dev & security", "assistant"); !cand || prio != 2 {
		t.Fatalf("operational topic: got (%v, %d)", cand, prio)
	}
	if cand, prio := Memory("History threads", "user"); cand || prio != DefaultPriority {
		t.Fatalf("default: got (%v, %d)", cand, prio)
	}
}

func TestRedactReplacesPII(t *testing.T) {
	r := NewRedactor(nil)
	in := "mail me at alice@example.com or call 555-123-4567, see https://example.com/private/page"
	got := r.Redact(in)
	if strings.Contains(got, "alice@") || strings.Contains(got, "555-123-4567") {
		t.Fatalf("PII survived redaction: %q", got)
	}
	if !strings.Contains(got, "[URL:example.com]") {
		t.Fatalf("URL not collapsed to domain token: %q", got)
	}
}

func TestRedactAllowList(t *testing.T) {
	r := NewRedactor([]string{"wikipedia.org"})
	in := "see https://en.wikipedia.org/wiki/Napoleon and https://tracker.example.com/u/42"
	got := r.Redact(in)
	if !strings.Contains(got, "https://en.wikipedia.org/wiki/Napoleon") {
		t.Fatalf("allow-listed URL was not preserved: %q", got)
	}
	if !strings.Contains(got, "[URL:tracker.example.com]") {
		t.Fatalf("non-allow-listed URL was not collapsed: %q", got)
	}
}

func TestRedactIdempotent(t *testing.T) {
	r := NewRedactor([]string{"wikipedia.org"})
	in := "alice@example.com 555 123 4567 https://a.io/x https://en.wikipedia.org/wiki/Malta"
	once := r.Redact(in)
	twice := r.Redact(once)
	if once != twice {
		t.Fatalf("redaction not idempotent:\nonce:  %q\ntwice: %q", once, twice)
	}
}

func TestBuildExcerptCollapsesAndTruncates(t *testing.T) {
	r := NewRedactor(nil)
	long := strings.Repeat("word ", 200)
	got := r.BuildExcerpt("  " + long + "  ")
	if len([]rune(got)) != MaxExcerptLen {
		t.Fatalf("excerpt length = %d, want %d", len([]rune(got)), MaxExcerptLen)
	}
	if strings.Contains(got, "  ") {
		t.Fatal("whitespace not collapsed")
	}
}

func sortIsStable(s []string) bool {
	for i := 1; i < len(s); i++ {
		if s[i-1] > s[i] {
			return false
		}
	}
	return true
}
