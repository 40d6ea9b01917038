package book

import (
	"fmt"
	"strconv"
	"strings"
)

// RecordHeader is the column layout of the delimited record files: the dedup
// cache source and the delimited output sink.
var RecordHeader = []string{"title", "author", "subjects", "pages", "open_work_key", "open_edition_key"}

// Fields flattens r in RecordHeader order. Unknown pages become "".
func (r EnrichedRecord) Fields() []string {
	pages := ""
	if r.Pages != nil {
		pages = strconv.Itoa(*r.Pages)
	}
	return []string{r.Book.Title, r.Book.Author, r.Subjects, pages, r.WorkKey, r.EditionKey}
}

// ParseRecordFields is the inverse of Fields.
func ParseRecordFields(fields []string) (EnrichedRecord, error) {
	if len(fields) != len(RecordHeader) {
		return EnrichedRecord{}, fmt.Errorf("record has %d columns, want %d", len(fields), len(RecordHeader))
	}

	var pages *int
	if raw := strings.TrimSpace(fields[3]); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return EnrichedRecord{}, fmt.Errorf("invalid pages %q: %w", raw, err)
		}
		pages = &n
	}

	return EnrichedRecord{
		Book:       Identity{Title: fields[0], Author: fields[1]},
		Subjects:   fields[2],
		Pages:      pages,
		WorkKey:    fields[4],
		EditionKey: fields[5],
	}, nil
}
