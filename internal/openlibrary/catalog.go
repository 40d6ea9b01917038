package openlibrary

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/lepinkainen/openshelf/internal/book"
	"github.com/lepinkainen/openshelf/internal/cache"
)

// searchFields limits the search response to the two keys the resolver needs.
const searchFields = "fields=key,edition_key&limit=1"

// Search looks up the first catalog match for id. A book with no match returns
// a CatalogKey with empty keys and a nil error.
func (c *Client) Search(ctx context.Context, id book.Identity) (book.CatalogKey, error) {
	pathQuery := "/search.json?" + id.Key() + "&" + searchFields

	body, err := c.get(ctx, EndpointSearch, cache.SearchTable, pathQuery, validateWith(parseSearch))
	if err != nil {
		return book.CatalogKey{}, err
	}

	match, err := parseSearch(body)
	if err != nil {
		return book.CatalogKey{}, fmt.Errorf("searching %q by %q: %w", id.Title, id.Author, err)
	}

	key := book.CatalogKey{Book: id, WorkKey: match.workKey, EditionKey: match.editionKey}
	if !key.Found() {
		slog.Debug("No catalog match", "title", id.Title, "author", id.Author)
	}
	return key, nil
}

// WorkSubjects fetches the subject tags of a work. workKey is the full key
// returned by Search, e.g. "/works/OL12345W".
func (c *Client) WorkSubjects(ctx context.Context, workKey string) ([]string, error) {
	if workKey == "" {
		return nil, fmt.Errorf("work lookup needs a work key")
	}
	if !strings.HasPrefix(workKey, "/") {
		workKey = "/" + workKey
	}

	body, err := c.get(ctx, EndpointWork, cache.WorkTable, workKey+".json", validateWith(parseWork))
	if err != nil {
		return nil, err
	}

	subjects, err := parseWork(body)
	if err != nil {
		return nil, fmt.Errorf("work %s: %w", workKey, err)
	}
	return subjects, nil
}

// EditionPages fetches the page count of an edition. A nil result means the
// edition does not record one.
func (c *Client) EditionPages(ctx context.Context, editionKey string) (*int, error) {
	if editionKey == "" {
		return nil, fmt.Errorf("edition lookup needs an edition key")
	}

	pathQuery := "/books/" + url.PathEscape(editionKey) + ".json"
	body, err := c.get(ctx, EndpointEdition, cache.EditionTable, pathQuery, validateWith(parseEdition))
	if err != nil {
		return nil, err
	}

	pages, err := parseEdition(body)
	if err != nil {
		return nil, fmt.Errorf("edition %s: %w", editionKey, err)
	}
	return pages, nil
}

// validateWith adapts a response parser into a cache admission check.
func validateWith[T any](parse func([]byte) (T, error)) func([]byte) error {
	return func(body []byte) error {
		_, err := parse(body)
		return err
	}
}
