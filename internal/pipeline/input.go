package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lepinkainen/openshelf/internal/book"
	"github.com/lepinkainen/openshelf/internal/config"
	"github.com/lepinkainen/openshelf/internal/csvutil"
	"github.com/lepinkainen/openshelf/internal/dedup"
	"golang.org/x/sync/errgroup"
)

// InputOptions describes the layout of the input file.
type InputOptions struct {
	Comma        rune
	TitleColumn  string
	AuthorColumn string
}

// ReadInputs parses the input file. The header row is required and must name
// the title and author columns. Rows without a title are skipped with a
// warning; every other column is kept in Extra.
func ReadInputs(path string, opts InputOptions) ([]book.InputRecord, error) {
	var titleIdx, authorIdx int

	validateHeader := func(h csvutil.Header) error {
		var okTitle, okAuthor bool
		titleIdx, okTitle = h.Index(opts.TitleColumn)
		authorIdx, okAuthor = h.Index(opts.AuthorColumn)
		if !okTitle || !okAuthor {
			return fmt.Errorf("input is missing the %q or %q column", opts.TitleColumn, opts.AuthorColumn)
		}
		return nil
	}

	parse := func(h csvutil.Header, rec csvutil.Record) (book.InputRecord, error) {
		field := func(idx int) string {
			if idx < len(rec.Fields) {
				return strings.TrimSpace(rec.Fields[idx])
			}
			return ""
		}

		title := field(titleIdx)
		if title == "" {
			return book.InputRecord{}, fmt.Errorf("row has no title")
		}

		extra := make(map[string]string)
		for name, idx := range h {
			if idx == titleIdx || idx == authorIdx || idx >= len(rec.Fields) {
				continue
			}
			extra[name] = rec.Fields[idx]
		}

		return book.InputRecord{
			Identity: book.Identity{Title: title, Author: field(authorIdx)},
			Line:     rec.Line,
			Extra:    extra,
		}, nil
	}

	records, err := csvutil.ProcessCSV(path, parse, csvutil.ProcessorOptions{
		Comma:          opts.Comma,
		HasHeader:      true,
		ValidateHeader: validateHeader,
		SkipInvalid:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("reading input %s: %w", path, err)
	}
	return records, nil
}

// Inputs is everything a run needs from disk.
type Inputs struct {
	Records []book.InputRecord
	Cache   *dedup.Cache
}

// LoadInputs reads the input file and the dedup cache file concurrently.
func LoadInputs(ctx context.Context, cfg config.Config) (Inputs, error) {
	var in Inputs
	g, _ := errgroup.WithContext(ctx)

	g.Go(func() error {
		records, err := ReadInputs(cfg.Input.File, InputOptions{
			Comma:        cfg.Input.Delimiter,
			TitleColumn:  cfg.Input.TitleColumn,
			AuthorColumn: cfg.Input.AuthorColumn,
		})
		if err != nil {
			return err
		}
		in.Records = records
		return nil
	})

	g.Go(func() error {
		if cfg.CacheFile.Path == "" {
			in.Cache = dedup.New()
			return nil
		}
		cache, err := dedup.Load(cfg.CacheFile.Path, cfg.CacheFile.Delimiter)
		if err != nil {
			return err
		}
		in.Cache = cache
		return nil
	})

	if err := g.Wait(); err != nil {
		return Inputs{}, err
	}

	slog.Info("Loaded input", "file", cfg.Input.File, "books", len(in.Records), "cached", in.Cache.Len())
	return in, nil
}
