package openlibrary

import (
	"testing"

	olerrors "github.com/lepinkainen/openshelf/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSearch(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantWork    string
		wantEdition string
		wantErr     bool
	}{
		{
			name:        "match with edition",
			body:        `{"numFound":1,"docs":[{"key":"/works/OL12345W","edition_key":["OL6789M","OL1M"]}]}`,
			wantWork:    "/works/OL12345W",
			wantEdition: "OL6789M",
		},
		{
			name: "empty docs is not found",
			body: `{"numFound":0,"docs":[]}`,
		},
		{
			name:     "missing edition_key",
			body:     `{"docs":[{"key":"/works/OL1W"}]}`,
			wantWork: "/works/OL1W",
		},
		{
			name:     "empty edition_key",
			body:     `{"docs":[{"key":"/works/OL1W","edition_key":[]}]}`,
			wantWork: "/works/OL1W",
		},
		{name: "missing docs", body: `{"numFound":0}`, wantErr: true},
		{name: "null docs", body: `{"docs":null}`, wantErr: true},
		{name: "docs not a list", body: `{"docs":{"key":"/works/OL1W"}}`, wantErr: true},
		{name: "doc not an object", body: `{"docs":["OL1W"]}`, wantErr: true},
		{name: "missing key", body: `{"docs":[{"edition_key":["OL1M"]}]}`, wantErr: true},
		{name: "key not a string", body: `{"docs":[{"key":42}]}`, wantErr: true},
		{name: "empty key", body: `{"docs":[{"key":""}]}`, wantErr: true},
		{name: "edition_key wrong shape", body: `{"docs":[{"key":"/works/OL1W","edition_key":"OL1M"}]}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			match, err := parseSearch([]byte(tt.body))
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, olerrors.IsMalformedResponse(err), "got %T", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantWork, match.workKey)
			assert.Equal(t, tt.wantEdition, match.editionKey)
		})
	}
}

func TestParseWork(t *testing.T) {
	subjects, err := parseWork([]byte(`{"title":"The Hobbit","subjects":["Fantasy","Fiction"]}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"Fantasy", "Fiction"}, subjects)

	subjects, err = parseWork([]byte(`{"title":"No subjects"}`))
	require.NoError(t, err)
	assert.Empty(t, subjects)

	subjects, err = parseWork([]byte(`{"subjects":null}`))
	require.NoError(t, err)
	assert.Empty(t, subjects)

	subjects, err = parseWork([]byte(`{"subjects":["Dragons",{"name":"Middle Earth"},{"url":"x"},7,null,""]}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"Dragons", "Middle Earth"}, subjects)

	_, err = parseWork([]byte(`{"subjects":"Fantasy"}`))
	require.Error(t, err)
	assert.True(t, olerrors.IsMalformedResponse(err))
}

func TestParseEdition(t *testing.T) {
	pages, err := parseEdition([]byte(`{"number_of_pages":310}`))
	require.NoError(t, err)
	require.NotNil(t, pages)
	assert.Equal(t, 310, *pages)

	pages, err = parseEdition([]byte(`{"title":"No count"}`))
	require.NoError(t, err)
	assert.Nil(t, pages)

	for _, body := range []string{`{"number_of_pages":"310"}`, `{"number_of_pages":310.5}`} {
		_, err = parseEdition([]byte(body))
		require.Error(t, err, body)
		assert.True(t, olerrors.IsMalformedResponse(err))
	}
}
