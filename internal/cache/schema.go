package cache

// SQL schemas for cache tables
// All cache tables use "cache_key" as the primary key column for consistency

// Table names for the three catalog endpoints.
const (
	SearchTable  = "openlibrary_search_cache"
	WorkTable    = "openlibrary_work_cache"
	EditionTable = "openlibrary_edition_cache"
)

// SearchCacheSchema defines the schema for OpenLibrary search responses
const SearchCacheSchema = `
CREATE TABLE IF NOT EXISTS openlibrary_search_cache (
	cache_key TEXT PRIMARY KEY NOT NULL,
	data TEXT NOT NULL,
	cached_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_openlibrary_search_cached_at ON openlibrary_search_cache(cached_at);
`

// WorkCacheSchema defines the schema for OpenLibrary work documents
const WorkCacheSchema = `
CREATE TABLE IF NOT EXISTS openlibrary_work_cache (
	cache_key TEXT PRIMARY KEY NOT NULL,
	data TEXT NOT NULL,
	cached_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_openlibrary_work_cached_at ON openlibrary_work_cache(cached_at);
`

// EditionCacheSchema defines the schema for OpenLibrary edition documents
const EditionCacheSchema = `
CREATE TABLE IF NOT EXISTS openlibrary_edition_cache (
	cache_key TEXT PRIMARY KEY NOT NULL,
	data TEXT NOT NULL,
	cached_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_openlibrary_edition_cached_at ON openlibrary_edition_cache(cached_at);
`

// AllCacheSchemas contains all cache table schemas for easy initialization
var AllCacheSchemas = []string{
	SearchCacheSchema,
	WorkCacheSchema,
	EditionCacheSchema,
}

// ValidCacheTableNames is the whitelist of allowed cache table names
// Used to prevent SQL injection when interpolating table names
var ValidCacheTableNames = map[string]bool{
	SearchTable:  true,
	WorkTable:    true,
	EditionTable: true,
}

// SourceTables maps the short source names accepted on the command line to
// their cache tables.
var SourceTables = map[string]string{
	"search":  SearchTable,
	"work":    WorkTable,
	"edition": EditionTable,
}
