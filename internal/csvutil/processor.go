package csvutil

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// ProcessorOptions configures CSV processing behavior.
type ProcessorOptions struct {
	// Comma is the field delimiter. Zero means ','.
	Comma rune

	// HasHeader treats the first record as a header.
	HasHeader bool

	// DetectHeader, when set and HasHeader is false, decides whether the first
	// record is a header.
	DetectHeader func(first []string) bool

	// ValidateHeader, when set, checks the header once before any data record.
	// Its error aborts processing.
	ValidateHeader func(Header) error

	// SkipInvalid controls whether to skip invalid records or return an error.
	SkipInvalid bool
}

// Record is one data row together with its position in the file.
type Record struct {
	// Line is the file line the record starts on.
	Line   int
	Fields []string
}

// Header maps lower-cased, trimmed column names to their index.
type Header map[string]int

// NewHeader indexes the given column names.
func NewHeader(columns []string) Header {
	h := make(Header, len(columns))
	for i, col := range columns {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")))
		if _, dup := h[name]; !dup {
			h[name] = i
		}
	}
	return h
}

// Index returns the column index for name, case-insensitively.
func (h Header) Index(name string) (int, bool) {
	i, ok := h[strings.ToLower(strings.TrimSpace(name))]
	return i, ok
}

// ParseDelimiter turns a configured delimiter string into a rune. "\t" and
// "tab" both mean a tab.
func ParseDelimiter(value string) (rune, error) {
	switch value {
	case "":
		return ',', nil
	case `\t`, "tab":
		return '\t', nil
	}
	runes := []rune(value)
	if len(runes) != 1 {
		return 0, fmt.Errorf("delimiter must be a single character, got %q", value)
	}
	if runes[0] == '"' || runes[0] == '\n' || runes[0] == '\r' {
		return 0, fmt.Errorf("invalid delimiter %q", value)
	}
	return runes[0], nil
}

// ProcessCSV reads a delimited file and parses each data record into type T.
// The parser receives the header (nil when the file has none) and the record.
func ProcessCSV[T any](filename string, parser func(Header, Record) (T, error), opts ProcessorOptions) ([]T, error) {
	csvFile, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer func() { _ = csvFile.Close() }()

	return ProcessReader(csvFile, parser, opts)
}

// ProcessReader is ProcessCSV over an io.Reader.
func ProcessReader[T any](r io.Reader, parser func(Header, Record) (T, error), opts ProcessorOptions) ([]T, error) {
	reader := csv.NewReader(r)
	reader.Comma = opts.Comma
	if reader.Comma == 0 {
		reader.Comma = ','
	}
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var (
		header Header
		items  []T
		first  = true
	)

	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) && opts.SkipInvalid {
				slog.Warn("Error reading record", "error", err)
				continue
			}
			return nil, fmt.Errorf("failed to read record: %w", err)
		}

		if first {
			first = false
			if opts.HasHeader || (opts.DetectHeader != nil && opts.DetectHeader(fields)) {
				header = NewHeader(fields)
				if opts.ValidateHeader != nil {
					if err := opts.ValidateHeader(header); err != nil {
						return nil, fmt.Errorf("invalid header: %w", err)
					}
				}
				continue
			}
		}

		line, _ := reader.FieldPos(0)
		item, err := parser(header, Record{Line: line, Fields: fields})
		if err != nil {
			if opts.SkipInvalid {
				slog.Warn("Skipping invalid record", "line", line, "error", err)
				continue
			}
			return nil, fmt.Errorf("invalid record on line %d: %w", line, err)
		}

		items = append(items, item)
	}

	if opts.HasHeader && header == nil {
		return nil, fmt.Errorf("CSV file is empty, expected a header row")
	}

	return items, nil
}
