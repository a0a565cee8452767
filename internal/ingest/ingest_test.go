package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCSVReaderParsesLog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "activity.csv")
	csv := "Conversation,Time,Author,Message\n" +
		"Memory design,2025-01-02T10:00:00Z,Human,How should memory tiers work?\n" +
		"Memory design,2025-01-02T10:00:05Z,AI,\"Four tiers, foundational to reference.\"\n" +
		"Memory design,2025-01-02T10:01:00Z,Human,\n"
	if err := os.WriteFile(path, []byte(csv), 0o644); err != nil {
		t.Fatal(err)
	}

	r := &CSVReader{}
	if !r.CanHandle(path) {
		t.Fatal("CanHandle(.csv) = false")
	}

	turns, err := r.Read(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if len(turns) != 2 {
		t.Fatalf("got %d turns, want 2 (empty message skipped)", len(turns))
	}
	if turns[0].Role != "user" || turns[1].Role != "assistant" {
		t.Fatalf("role mapping wrong: %q, %q", turns[0].Role, turns[1].Role)
	}
	if turns[0].ConversationID != "Memory design" {
		t.Fatalf("conversation = %q", turns[0].ConversationID)
	}
}

func TestParseTimestamp(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"2025-01-02T10:00:00Z", true},
		{"2025-01-02T10:00:00", true},
		{"2025-01-02 10:00:00", true},
		{"2025-01-02", true},
		{"yesterday-ish", false},
		{"", false},
	}
	for _, c := range cases {
		got := ParseTimestamp(c.in)
		if (got != nil) != c.ok {
			t.Errorf("ParseTimestamp(%q) parsed=%v, want %v", c.in, got != nil, c.ok)
		}
	}
}

func TestFilterRangeKeepsUnparsable(t *testing.T) {
	since := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	until := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)
	turns := []Turn{
		{Timestamp: "2024-06-01T00:00:00Z", RawText: "old"},
		{Timestamp: "2025-06-01T00:00:00Z", RawText: "in range"},
		{Timestamp: "not a date", RawText: "unparsable"},
		{Timestamp: "2026-06-01T00:00:00Z", RawText: "future"},
	}
	got := FilterRange(turns, &since, &until)
	if len(got) != 2 {
		t.Fatalf("got %d turns, want 2: %+v", len(got), got)
	}
	if got[0].RawText != "in range" || got[1].RawText != "unparsable" {
		t.Fatalf("wrong survivors: %+v", got)
	}
}
