// Package book defines the records that flow through the enrichment pipeline.
package book

// Identity is the natural key of a book. Title and Author hold the raw values
// as read from the input; use Key for comparisons.
type Identity struct {
	Title  string `json:"title" yaml:"title"`
	Author string `json:"author" yaml:"author"`
}

// Key returns the normalized identity key. The same string is used as the
// search query fragment, so two identities with equal keys are never looked up
// twice.
func (i Identity) Key() string {
	return "title=" + Normalize(i.Title) + "&author=" + Normalize(i.Author)
}

// InputRecord is a single row of the input file.
type InputRecord struct {
	Identity

	// Line is the 1-based file line the row starts on, used for logging.
	Line int

	// Extra holds the passthrough columns keyed by header name.
	Extra map[string]string
}

// CatalogKey is the outcome of a catalog search. An empty WorkKey means no
// match was found.
type CatalogKey struct {
	Book       Identity
	WorkKey    string
	EditionKey string
}

// Found reports whether the search matched a work.
func (k CatalogKey) Found() bool {
	return k.WorkKey != ""
}

// EnrichedRecord is the unit of persistence and of dedup cache storage.
type EnrichedRecord struct {
	Book Identity `json:"book"`

	// Subjects is a JSON list of strings, or empty when unknown.
	Subjects string `json:"subjects"`

	// Pages is nil when no page count is known.
	Pages *int `json:"pages,omitempty"`

	WorkKey    string `json:"open_work_key"`
	EditionKey string `json:"open_edition_key"`
}

// NotFoundRecord returns the terminal record for a book the catalog has no
// match for.
func NotFoundRecord(id Identity) EnrichedRecord {
	return EnrichedRecord{Book: id}
}

// NotFound reports whether r is a not-found record.
func (r EnrichedRecord) NotFound() bool {
	return r.WorkKey == "" && r.EditionKey == ""
}

// SubjectList decodes Subjects. Empty or malformed payloads yield nil.
func (r EnrichedRecord) SubjectList() []string {
	return DecodeSubjects(r.Subjects)
}
