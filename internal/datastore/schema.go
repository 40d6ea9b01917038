package datastore

import (
	"context"
	"fmt"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS books (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		author TEXT NOT NULL,
		pages INTEGER,
		open_work_key TEXT NOT NULL DEFAULT '',
		open_edition_key TEXT NOT NULL DEFAULT '',
		UNIQUE (title, author)
	)`,
	`CREATE TABLE IF NOT EXISTS book_subjects (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		book_id INTEGER NOT NULL REFERENCES books(id),
		subject TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_book_subjects_book_id ON book_subjects(book_id)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS books (
		id BIGSERIAL PRIMARY KEY,
		title TEXT NOT NULL,
		author TEXT NOT NULL,
		pages INTEGER,
		open_work_key TEXT NOT NULL DEFAULT '',
		open_edition_key TEXT NOT NULL DEFAULT '',
		UNIQUE (title, author)
	)`,
	`CREATE TABLE IF NOT EXISTS book_subjects (
		id BIGSERIAL PRIMARY KEY,
		book_id BIGINT NOT NULL REFERENCES books(id),
		subject TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_book_subjects_book_id ON book_subjects(book_id)`,
}

// EnsureSchema creates the books and book_subjects tables if they don't exist.
// Existing tables are left as they are.
func (s *BookStore) EnsureSchema(ctx context.Context) error {
	statements := sqliteSchema
	if s.dialect == DialectPostgres {
		statements = postgresSchema
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return nil
}
