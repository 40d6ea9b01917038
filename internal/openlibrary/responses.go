package openlibrary

import (
	"encoding/json"

	olerrors "github.com/lepinkainen/openshelf/internal/errors"
)

// searchResponse matches /search.json. Docs is a pointer so a missing field
// can be told apart from an empty list.
type searchResponse struct {
	Docs *[]json.RawMessage `json:"docs"`
}

type searchDoc struct {
	Key        *string  `json:"key"`
	EditionKey []string `json:"edition_key"`
}

// workResponse matches /works/<key>.json. Subject entries are usually strings
// but some records carry {"name": ...} objects.
type workResponse struct {
	Subjects []json.RawMessage `json:"subjects"`
}

// editionResponse matches /books/<key>.json.
type editionResponse struct {
	NumberOfPages *int `json:"number_of_pages"`
}

type searchMatch struct {
	workKey    string
	editionKey string
}

func parseSearch(body []byte) (searchMatch, error) {
	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return searchMatch{}, olerrors.NewMalformedResponseError(EndpointSearch, "docs: %v", err)
	}
	if resp.Docs == nil {
		return searchMatch{}, olerrors.NewMalformedResponseError(EndpointSearch, "docs field is missing")
	}
	if len(*resp.Docs) == 0 {
		return searchMatch{}, nil
	}

	var doc searchDoc
	if err := json.Unmarshal((*resp.Docs)[0], &doc); err != nil {
		return searchMatch{}, olerrors.NewMalformedResponseError(EndpointSearch, "first doc: %v", err)
	}
	if doc.Key == nil {
		return searchMatch{}, olerrors.NewMalformedResponseError(EndpointSearch, "first doc has no key")
	}
	if *doc.Key == "" {
		return searchMatch{}, olerrors.NewMalformedResponseError(EndpointSearch, "first doc has an empty key")
	}

	match := searchMatch{workKey: *doc.Key}
	if len(doc.EditionKey) > 0 {
		match.editionKey = doc.EditionKey[0]
	}
	return match, nil
}

func parseWork(body []byte) ([]string, error) {
	var resp workResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, olerrors.NewMalformedResponseError(EndpointWork, "subjects: %v", err)
	}
	return extractSubjects(resp.Subjects), nil
}

// extractSubjects keeps string entries and the name of object entries.
// Anything else is skipped.
func extractSubjects(items []json.RawMessage) []string {
	if len(items) == 0 {
		return nil
	}
	result := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			if s != "" {
				result = append(result, s)
			}
			continue
		}
		var named struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(item, &named); err == nil && named.Name != "" {
			result = append(result, named.Name)
		}
	}
	return result
}

func parseEdition(body []byte) (*int, error) {
	var resp editionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, olerrors.NewMalformedResponseError(EndpointEdition, "number_of_pages: %v", err)
	}
	return resp.NumberOfPages, nil
}
