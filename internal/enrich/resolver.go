// Package enrich turns input rows into enriched records by driving the
// catalog's search, work and edition lookups.
package enrich

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lepinkainen/openshelf/internal/book"
)

// Catalog is the subset of the OpenLibrary client the resolver depends on.
type Catalog interface {
	Search(ctx context.Context, id book.Identity) (book.CatalogKey, error)
	WorkSubjects(ctx context.Context, workKey string) ([]string, error)
	EditionPages(ctx context.Context, editionKey string) (*int, error)
}

// Resolver produces an EnrichedRecord for a single input row.
type Resolver struct {
	catalog Catalog
}

// NewResolver creates a Resolver backed by catalog.
func NewResolver(catalog Catalog) *Resolver {
	return &Resolver{catalog: catalog}
}

// Resolve searches the catalog for input and, on a match, fetches its subjects
// and page count. A book with no match yields a not-found record and a nil
// error. Errors after a successful search are returned as-is; there is no
// partial record.
func (r *Resolver) Resolve(ctx context.Context, input book.InputRecord) (book.EnrichedRecord, error) {
	key, err := r.catalog.Search(ctx, input.Identity)
	if err != nil {
		return book.EnrichedRecord{}, fmt.Errorf("search: %w", err)
	}

	if !key.Found() {
		slog.Info("Book not found in catalog", "title", input.Title, "author", input.Author, "line", input.Line)
		return book.NotFoundRecord(input.Identity), nil
	}

	subjects, err := r.catalog.WorkSubjects(ctx, key.WorkKey)
	if err != nil {
		return book.EnrichedRecord{}, fmt.Errorf("work details: %w", err)
	}

	var pages *int
	if key.EditionKey != "" {
		pages, err = r.catalog.EditionPages(ctx, key.EditionKey)
		if err != nil {
			return book.EnrichedRecord{}, fmt.Errorf("edition details: %w", err)
		}
	}

	return book.EnrichedRecord{
		Book:       input.Identity,
		Subjects:   book.EncodeSubjects(subjects),
		Pages:      pages,
		WorkKey:    key.WorkKey,
		EditionKey: key.EditionKey,
	}, nil
}
