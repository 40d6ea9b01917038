package book

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordFieldsRoundTrip(t *testing.T) {
	pages := 310
	rec := EnrichedRecord{
		Book:       Identity{Title: "The Hobbit", Author: "J.R.R. Tolkien"},
		Subjects:   `["Fantasy","Fiction"]`,
		Pages:      &pages,
		WorkKey:    "/works/OL12345W",
		EditionKey: "OL6789M",
	}

	fields := rec.Fields()
	assert.Equal(t, []string{"The Hobbit", "J.R.R. Tolkien", `["Fantasy","Fiction"]`, "310", "/works/OL12345W", "OL6789M"}, fields)

	parsed, err := ParseRecordFields(fields)
	require.NoError(t, err)
	assert.Equal(t, rec, parsed)
}

func TestParseRecordFieldsNotFound(t *testing.T) {
	rec, err := ParseRecordFields([]string{"Unknown Tome", "Nobody", "", "", "", ""})
	require.NoError(t, err)
	assert.True(t, rec.NotFound())
	assert.Nil(t, rec.Pages)
	assert.Equal(t, []string{"Unknown Tome", "Nobody", "", "", "", ""}, rec.Fields())
}

func TestParseRecordFieldsInvalid(t *testing.T) {
	_, err := ParseRecordFields([]string{"a", "b"})
	require.Error(t, err)

	_, err = ParseRecordFields([]string{"a", "b", "", "many", "", ""})
	require.Error(t, err)
}
