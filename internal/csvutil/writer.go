package csvutil

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
)

// AppendWriter appends delimited rows to a file, flushing after every row so
// an aborted run keeps everything written so far.
type AppendWriter struct {
	file *os.File
	w    *csv.Writer
}

// OpenAppend opens path for appending, creating it and its directory when
// missing. header is written only when the file is new or empty.
func OpenAppend(path string, comma rune, header []string) (*AppendWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open output file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to stat output file: %w", err)
	}

	w := csv.NewWriter(file)
	if comma != 0 {
		w.Comma = comma
	}

	aw := &AppendWriter{file: file, w: w}
	if info.Size() == 0 && len(header) > 0 {
		if err := aw.Write(header); err != nil {
			_ = file.Close()
			return nil, err
		}
	}
	return aw, nil
}

// Write writes one row and flushes it.
func (a *AppendWriter) Write(fields []string) error {
	if err := a.w.Write(fields); err != nil {
		return fmt.Errorf("failed to write row: %w", err)
	}
	a.w.Flush()
	if err := a.w.Error(); err != nil {
		return fmt.Errorf("failed to flush row: %w", err)
	}
	return nil
}

// Close closes the underlying file.
func (a *AppendWriter) Close() error {
	a.w.Flush()
	flushErr := a.w.Error()
	closeErr := a.file.Close()
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}
