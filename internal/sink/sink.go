// Package sink writes enriched records to an output file as the pipeline
// produces them.
package sink

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/lepinkainen/openshelf/internal/book"
	"github.com/lepinkainen/openshelf/internal/csvutil"
)

// RecordSink receives every record the pipeline stores.
type RecordSink interface {
	Write(rec book.EnrichedRecord) error
	Close() error
}

// Open picks a sink by file extension: .parquet writes Parquet, anything else
// appends delimited rows using comma as the separator.
func Open(path string, comma rune) (RecordSink, error) {
	if path == "" {
		return nil, fmt.Errorf("output path is empty")
	}
	if strings.EqualFold(filepath.Ext(path), ".parquet") {
		return NewParquetSink(path)
	}
	return NewDelimitedSink(path, comma)
}

// DelimitedSink appends rows in book.RecordHeader layout. The header is only
// written to a new file, so the output of one run can be loaded as the dedup
// cache of the next.
type DelimitedSink struct {
	w *csvutil.AppendWriter
}

// NewDelimitedSink opens or creates path for appending.
func NewDelimitedSink(path string, comma rune) (*DelimitedSink, error) {
	w, err := csvutil.OpenAppend(path, comma, book.RecordHeader)
	if err != nil {
		return nil, err
	}
	return &DelimitedSink{w: w}, nil
}

// Write appends rec and flushes it to disk.
func (s *DelimitedSink) Write(rec book.EnrichedRecord) error {
	return s.w.Write(rec.Fields())
}

// Close closes the underlying file.
func (s *DelimitedSink) Close() error {
	return s.w.Close()
}
