package sink

import (
	"os"
	"testing"

	"github.com/lepinkainen/openshelf/internal/book"
	"github.com/lepinkainen/openshelf/internal/dedup"
	"github.com/lepinkainen/openshelf/internal/testutil"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecords() []book.EnrichedRecord {
	pages := 310
	return []book.EnrichedRecord{
		{
			Book:       book.Identity{Title: "The Hobbit", Author: "J.R.R. Tolkien"},
			Subjects:   `["Fantasy","Fiction"]`,
			Pages:      &pages,
			WorkKey:    "/works/OL12345W",
			EditionKey: "OL6789M",
		},
		book.NotFoundRecord(book.Identity{Title: "Unknown Tome", Author: "Nobody"}),
	}
}

func TestDelimitedSinkFeedsDedupCache(t *testing.T) {
	env := testutil.NewTestEnv(t)
	path := env.Path("out/enriched.csv")

	s, err := Open(path, ';')
	require.NoError(t, err)
	for _, rec := range sampleRecords() {
		require.NoError(t, s.Write(rec))
	}
	require.NoError(t, s.Close())

	got := env.ReadFileString("out/enriched.csv")
	assert.Equal(t, "title;author;subjects;pages;open_work_key;open_edition_key\n"+
		`The Hobbit;J.R.R. Tolkien;"[""Fantasy"",""Fiction""]";310;/works/OL12345W;OL6789M`+"\n"+
		"Unknown Tome;Nobody;;;;\n", got)

	c, err := dedup.Load(path, ';')
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())

	rec, ok := c.Lookup(book.Identity{Title: "The Hobbit", Author: "J.R.R. Tolkien"})
	require.True(t, ok)
	assert.Equal(t, sampleRecords()[0], rec)
}

func TestDelimitedSinkAppendsWithoutSecondHeader(t *testing.T) {
	env := testutil.NewTestEnv(t)
	path := env.Path("enriched.csv")
	records := sampleRecords()

	for _, rec := range records {
		s, err := NewDelimitedSink(path, ';')
		require.NoError(t, err)
		require.NoError(t, s.Write(rec))
		require.NoError(t, s.Close())
	}

	c, err := dedup.Load(path, ';')
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())
}

func TestParquetSink(t *testing.T) {
	env := testutil.NewTestEnv(t)
	path := env.Path("enriched.parquet")

	s, err := Open(path, ';')
	require.NoError(t, err)
	require.IsType(t, &ParquetSink{}, s)

	for _, rec := range sampleRecords() {
		require.NoError(t, s.Write(rec))
	}
	assert.Equal(t, 2, s.(*ParquetSink).Rows())
	require.NoError(t, s.Close())

	file, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = file.Close() }()

	info, err := file.Stat()
	require.NoError(t, err)

	pf, err := parquet.OpenFile(file, info.Size())
	require.NoError(t, err)
	assert.Equal(t, int64(2), pf.NumRows())

	reader := parquet.NewGenericReader[Row](pf)
	defer func() { _ = reader.Close() }()

	rows := make([]Row, 2)
	n, _ := reader.Read(rows)
	require.Equal(t, 2, n)

	assert.Equal(t, "The Hobbit", rows[0].Title)
	require.NotNil(t, rows[0].Pages)
	assert.Equal(t, int64(310), *rows[0].Pages)
	assert.Equal(t, "Unknown Tome", rows[1].Title)
	assert.Nil(t, rows[1].Pages)
	assert.Empty(t, rows[1].WorkKey)
}

func TestOpenEmptyPath(t *testing.T) {
	_, err := Open("", ';')
	require.Error(t, err)
}
