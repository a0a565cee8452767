// Package pipeline holds the record model and the single-pass batch
// transformations that turn classified turns into a deduplicated, clustered,
// chronologically linked working set.
package pipeline

import (
	"time"

	"github.com/hurttlocker/recall/internal/classify"
	"github.com/hurttlocker/recall/internal/ingest"
)

// ProvenanceSeparator joins the provenance ids of merged records. Every
// contributing source id survives a merge.
const ProvenanceSeparator = " || "

// Author roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Record is one classified, redacted conversational turn (possibly the merge
// of several identical turns).
type Record struct {
	Timestamp       *time.Time `json:"timestamp,omitempty"`
	ThreadID        string     `json:"thread_id"`
	Role            string     `json:"role"`
	Intent          string     `json:"intent"`
	PrimaryTopic    string     `json:"primary_topic"`
	SubtopicTags    []string   `json:"subtopic_tags,omitempty"`
	Entities        []string   `json:"entities,omitempty"`
	Excerpt         string     `json:"excerpt"`
	MemoryCandidate bool       `json:"memory_candidate"`
	Priority        int        `json:"priority"`
	ProvenanceID    string     `json:"provenance_id"`
	EvolutionLink   string     `json:"evolution_link,omitempty"`
}

// Key identifies a record in the working set. After Dedupe it is unique.
type Key struct {
	Excerpt string
	Role    string
}

// KeyOf returns the dedup key for a record.
func KeyOf(r Record) Key {
	return Key{Excerpt: r.Excerpt, Role: r.Role}
}

// FromTurn classifies one raw turn into a Record. Topic, subtag, and entity
// rules see the thread title alongside the message text, matching how the
// source log groups turns under a conversation heading.
func FromTurn(t ingest.Turn, red *classify.Redactor) Record {
	text := t.ConversationID + "\n" + t.RawText
	topic := classify.Topic(text)
	candidate, priority := classify.Memory(topic, t.Role)

	thread := t.ConversationID
	if thread == "" {
		thread = "Untitled"
	}

	return Record{
		Timestamp:       ingest.ParseTimestamp(t.Timestamp),
		ThreadID:        thread,
		Role:            t.Role,
		Intent:          classify.Intent(t.RawText),
		PrimaryTopic:    topic,
		SubtopicTags:    classify.Subtags(text),
		Entities:        classify.Entities(t.RawText),
		Excerpt:         red.BuildExcerpt(t.RawText),
		MemoryCandidate: candidate,
		Priority:        priority,
		ProvenanceID:    t.ConversationID + " | " + t.Timestamp,
	}
}

// FromTurns classifies an ordered sequence of turns, preserving input order.
func FromTurns(turns []ingest.Turn, red *classify.Redactor) []Record {
	records := make([]Record, 0, len(turns))
	for _, t := range turns {
		records = append(records, FromTurn(t, red))
	}
	return records
}
