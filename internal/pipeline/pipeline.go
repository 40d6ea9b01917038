// Package pipeline drives the enrichment of input rows: store check, dedup
// cache, catalog resolution, persistence and output, one row at a time.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lepinkainen/openshelf/internal/book"
	"github.com/lepinkainen/openshelf/internal/datastore"
	"github.com/lepinkainen/openshelf/internal/dedup"
	olerrors "github.com/lepinkainen/openshelf/internal/errors"
	"github.com/lepinkainen/openshelf/internal/sink"
)

// Resolver turns an input row into an enriched record.
type Resolver interface {
	Resolve(ctx context.Context, rec book.InputRecord) (book.EnrichedRecord, error)
}

// Pipeline processes input rows sequentially. Cache and Sink are optional.
type Pipeline struct {
	Resolver Resolver
	Cache    *dedup.Cache
	Store    datastore.Store
	Sink     sink.RecordSink

	// ContinueOnError skips rows that fail with anything but a constraint
	// violation or cancellation. Skipped rows are retried on the next run.
	ContinueOnError bool
}

// Run processes records in input order. Rows stored before an error stay
// stored; the returned Stats cover everything up to the failing row.
func (p *Pipeline) Run(ctx context.Context, records []book.InputRecord) (Stats, error) {
	stats := NewStats(len(records))
	seen := make(map[string]book.EnrichedRecord)

	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			stats.Finish()
			return stats, fmt.Errorf("run cancelled: %w", err)
		}

		if err := p.processRow(ctx, rec, seen, &stats); err != nil {
			if olerrors.IsConstraintViolation(err) || !p.ContinueOnError || ctx.Err() != nil {
				stats.Finish()
				return stats, fmt.Errorf("line %d (%q by %q): %w", rec.Line, rec.Title, rec.Author, err)
			}
			stats.Failed++
			slog.Warn("Skipping book after error",
				"line", rec.Line,
				"title", rec.Title,
				"author", rec.Author,
				"transient", olerrors.IsTransient(err),
				"error", err)
		}

		logBookProgress(i+1, len(records))
	}

	stats.Finish()
	slog.Info("Enrichment finished",
		"run_id", stats.RunID,
		"total", stats.Total,
		"inserted", stats.Inserted,
		"already_stored", stats.AlreadyStored,
		"cache_hits", stats.CacheHits,
		"resolved", stats.Resolved,
		"not_found", stats.NotFound,
		"failed", stats.Failed,
		"duration", stats.Duration)
	return stats, nil
}

func (p *Pipeline) processRow(ctx context.Context, rec book.InputRecord, seen map[string]book.EnrichedRecord, stats *Stats) error {
	if _, ok, err := p.Store.Exists(ctx, rec.Identity); err != nil {
		return err
	} else if ok {
		stats.AlreadyStored++
		slog.Debug("Book already stored", "line", rec.Line, "title", rec.Title, "author", rec.Author)
		return nil
	}

	key := rec.Key()
	enriched, ok := seen[key]
	switch {
	case ok:
		stats.Repeated++
		slog.Debug("Book repeated in input", "line", rec.Line, "title", rec.Title)
	default:
		if cached, hit := p.Cache.Lookup(rec.Identity); hit {
			enriched = cached
			stats.CacheHits++
			slog.Debug("Dedup cache hit", "line", rec.Line, "title", rec.Title, "work_key", cached.WorkKey)
			break
		}

		resolved, err := p.Resolver.Resolve(ctx, rec)
		if err != nil {
			return err
		}
		enriched = resolved
		stats.Resolved++
		if enriched.NotFound() {
			stats.NotFound++
		}
	}

	id, inserted, err := p.Store.Insert(ctx, enriched)
	if err != nil {
		return err
	}
	seen[key] = enriched

	if !inserted {
		stats.Skipped++
		slog.Debug("Book already stored under cached identity", "line", rec.Line, "book_id", id)
		return nil
	}

	stats.Inserted++
	slog.Debug("Stored book", "line", rec.Line, "book_id", id, "title", enriched.Book.Title, "work_key", enriched.WorkKey)

	if p.Sink != nil {
		if err := p.Sink.Write(enriched); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
	}
	return nil
}

func logBookProgress(processed, total int) {
	if processed == 0 || processed%10 != 0 {
		return
	}

	percentage := "0%"
	if total > 0 {
		percentage = fmt.Sprintf("%.1f%%", float64(processed)/float64(total)*100)
	}

	slog.Info("Processing books",
		"processed", processed,
		"total", total,
		"percentage", percentage,
	)
}
