package sink

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/lepinkainen/openshelf/internal/book"
	"github.com/parquet-go/parquet-go"
)

// Row is the Parquet schema of an enriched record.
type Row struct {
	Title      string `parquet:"title"`
	Author     string `parquet:"author"`
	Subjects   string `parquet:"subjects"`
	Pages      *int64 `parquet:"pages,optional"`
	WorkKey    string `parquet:"open_work_key"`
	EditionKey string `parquet:"open_edition_key"`
}

// NewRow converts rec into its Parquet row.
func NewRow(rec book.EnrichedRecord) Row {
	row := Row{
		Title:      rec.Book.Title,
		Author:     rec.Book.Author,
		Subjects:   rec.Subjects,
		WorkKey:    rec.WorkKey,
		EditionKey: rec.EditionKey,
	}
	if rec.Pages != nil {
		p := int64(*rec.Pages)
		row.Pages = &p
	}
	return row
}

// ParquetSink writes a fresh Parquet file per run. Rows are buffered by the
// writer and the file is only readable after Close.
type ParquetSink struct {
	file   *os.File
	writer *parquet.GenericWriter[Row]
	rows   int
}

// NewParquetSink creates (or truncates) path.
func NewParquetSink(path string) (*ParquetSink, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create parquet file: %w", err)
	}

	return &ParquetSink{
		file:   file,
		writer: parquet.NewGenericWriter[Row](file),
	}, nil
}

// Write buffers rec.
func (s *ParquetSink) Write(rec book.EnrichedRecord) error {
	if _, err := s.writer.Write([]Row{NewRow(rec)}); err != nil {
		return fmt.Errorf("failed to write parquet row: %w", err)
	}
	s.rows++
	return nil
}

// Close flushes the footer and closes the file.
func (s *ParquetSink) Close() error {
	if err := s.writer.Close(); err != nil {
		_ = s.file.Close()
		return fmt.Errorf("failed to finish parquet file: %w", err)
	}
	return s.file.Close()
}

// Rows returns the number of rows written so far.
func (s *ParquetSink) Rows() int {
	return s.rows
}
