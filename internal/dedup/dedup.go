// Package dedup indexes previously enriched records so the pipeline can skip
// catalog lookups for books resolved in an earlier run.
package dedup

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/lepinkainen/openshelf/internal/book"
	"github.com/lepinkainen/openshelf/internal/csvutil"
)

// Cache maps normalized identity keys to enriched records. It is read-only
// after construction; a nil *Cache is an empty cache.
type Cache struct {
	records map[string]book.EnrichedRecord
}

// New builds a cache from records. When two records share an identity key the
// first one wins.
func New(records ...book.EnrichedRecord) *Cache {
	c := &Cache{records: make(map[string]book.EnrichedRecord, len(records))}
	for _, rec := range records {
		key := rec.Book.Key()
		if _, dup := c.records[key]; dup {
			continue
		}
		c.records[key] = rec
	}
	return c
}

// Load reads a delimited record file (see book.RecordHeader). The header row is
// optional. A missing file yields an empty cache. Rows that cannot be parsed
// are skipped with a warning.
func Load(path string, comma rune) (*Cache, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		slog.Info("Dedup cache file not found, starting empty", "path", path)
		return New(), nil
	}

	records, err := csvutil.ProcessCSV(path, parseRow, csvutil.ProcessorOptions{
		Comma:        comma,
		DetectHeader: isRecordHeader,
		SkipInvalid:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("loading dedup cache %s: %w", path, err)
	}

	c := New(records...)
	slog.Info("Loaded dedup cache", "path", path, "rows", len(records), "books", c.Len())
	return c, nil
}

func isRecordHeader(first []string) bool {
	return len(first) >= 2 &&
		strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(first[0], "\ufeff")), "title") &&
		strings.EqualFold(strings.TrimSpace(first[1]), "author")
}

// parseRow reorders named columns into book.RecordHeader order when the file
// has a header, so column order in the file does not matter.
func parseRow(h csvutil.Header, rec csvutil.Record) (book.EnrichedRecord, error) {
	fields := rec.Fields
	if h != nil {
		fields = make([]string, len(book.RecordHeader))
		for i, name := range book.RecordHeader {
			idx, ok := h.Index(name)
			if !ok {
				return book.EnrichedRecord{}, fmt.Errorf("dedup cache is missing column %q", name)
			}
			if idx >= len(rec.Fields) {
				return book.EnrichedRecord{}, fmt.Errorf("record has %d columns, want at least %d", len(rec.Fields), idx+1)
			}
			fields[i] = rec.Fields[idx]
		}
	}
	return book.ParseRecordFields(fields)
}

// Lookup returns the cached record for id, matching on the normalized key.
func (c *Cache) Lookup(id book.Identity) (book.EnrichedRecord, bool) {
	if c == nil {
		return book.EnrichedRecord{}, false
	}
	rec, ok := c.records[id.Key()]
	return rec, ok
}

// Len returns the number of distinct books in the cache.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return len(c.records)
}
