// Package datastore persists enriched book records in a relational database.
package datastore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/lepinkainen/openshelf/internal/book"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Store is the persistence surface the pipeline depends on.
type Store interface {
	// Exists reports whether a book with the same normalized identity is stored.
	Exists(ctx context.Context, id book.Identity) (int64, bool, error)

	// Insert stores rec and its subjects unless the book is already present.
	Insert(ctx context.Context, rec book.EnrichedRecord) (int64, bool, error)

	// Close closes the connection to the data store
	Close() error
}

// Dialect identifies the SQL flavour behind a BookStore.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// DialectFor picks the dialect for a DSN. postgres:// and postgresql:// URLs
// select Postgres, anything else is treated as a SQLite file path.
func DialectFor(dsn string) Dialect {
	lower := strings.ToLower(dsn)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return DialectPostgres
	}
	return DialectSQLite
}

func (d Dialect) driverName() string {
	if d == DialectPostgres {
		return "pgx"
	}
	return "sqlite"
}

// BookStore implements Store over database/sql.
type BookStore struct {
	db      *sql.DB
	dialect Dialect

	// keys maps book.Identity.Key() of every stored book to its id. It is
	// loaded on first use and kept current by Insert.
	mu   sync.Mutex
	keys map[string]int64
}

var _ Store = (*BookStore)(nil)

// Open connects to the database named by dsn. The schema is not touched; call
// EnsureSchema before the first insert.
func Open(ctx context.Context, dsn string) (*BookStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("store DSN is empty")
	}

	dialect := DialectFor(dsn)
	db, err := sql.Open(dialect.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if dialect == DialectSQLite {
		// PRAGMAs are per connection.
		db.SetMaxOpenConns(1)
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Debug("Opened book store", "dialect", dialect)
	return &BookStore{db: db, dialect: dialect}, nil
}

// Dialect returns the SQL dialect in use.
func (s *BookStore) Dialect() Dialect {
	return s.dialect
}

// Close closes the database connection
func (s *BookStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// rebind rewrites ? placeholders to $n for Postgres.
func (s *BookStore) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
