package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// CSVReader handles activity-history exports with
// Conversation,Time,Author,Message columns.
type CSVReader struct{}

// CanHandle returns true for .csv files.
func (c *CSVReader) CanHandle(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".csv"
}

// Read parses the log into ordered turns. The first row is the header;
// unknown columns are ignored. Rows missing a message are skipped.
func (c *CSVReader) Read(ctx context.Context, path string) ([]Turn, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing CSV %s: %w", path, err)
	}
	if len(rows) < 2 {
		return nil, nil
	}

	col := map[string]int{}
	for i, h := range rows[0] {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}

	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	turns := make([]Turn, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		msg := field(row, "message")
		if msg == "" {
			continue
		}
		turns = append(turns, Turn{
			ConversationID: field(row, "conversation"),
			Timestamp:      field(row, "time"),
			Role:           NormalizeRole(field(row, "author")),
			RawText:        msg,
		})
	}
	return turns, nil
}
