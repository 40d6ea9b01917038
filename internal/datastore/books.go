package datastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lepinkainen/openshelf/internal/book"
	olerrors "github.com/lepinkainen/openshelf/internal/errors"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const (
	selectBookID  = `SELECT id FROM books WHERE title = ? AND author = ?`
	insertBook    = `INSERT INTO books (title, author, pages, open_work_key, open_edition_key) VALUES (?, ?, ?, ?, ?) RETURNING id`
	insertSubject = `INSERT INTO book_subjects (book_id, subject) VALUES (?, ?)`
)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Exists looks the book up by raw title and author first, then by the
// normalized identity key so titles differing only in case or apostrophes
// match the stored book.
func (s *BookStore) Exists(ctx context.Context, id book.Identity) (int64, bool, error) {
	if bookID, ok, err := s.lookup(ctx, s.db, id); err != nil || ok {
		return bookID, ok, err
	}
	return s.lookupKey(ctx, id)
}

// lookupKey matches id against the normalized keys of the stored books.
func (s *BookStore) lookupKey(ctx context.Context, id book.Identity) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.keys == nil {
		keys, err := s.loadKeys(ctx)
		if err != nil {
			return 0, false, err
		}
		s.keys = keys
	}

	bookID, ok := s.keys[id.Key()]
	return bookID, ok, nil
}

func (s *BookStore) loadKeys(ctx context.Context) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, title, author FROM books ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to load stored identities: %w", err)
	}
	defer func() { _ = rows.Close() }()

	keys := make(map[string]int64)
	for rows.Next() {
		var (
			bookID int64
			id     book.Identity
		)
		if err := rows.Scan(&bookID, &id.Title, &id.Author); err != nil {
			return nil, fmt.Errorf("failed to scan stored identity: %w", err)
		}
		if _, dup := keys[id.Key()]; !dup {
			keys[id.Key()] = bookID
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load stored identities: %w", err)
	}

	slog.Debug("Loaded stored book identities", "books", len(keys))
	return keys, nil
}

func (s *BookStore) rememberKey(id book.Identity, bookID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.keys != nil {
		if _, dup := s.keys[id.Key()]; !dup {
			s.keys[id.Key()] = bookID
		}
	}
}

func (s *BookStore) lookup(ctx context.Context, q queryer, id book.Identity) (int64, bool, error) {
	var bookID int64
	err := q.QueryRowContext(ctx, s.rebind(selectBookID), id.Title, id.Author).Scan(&bookID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return 0, false, nil
	case err != nil:
		return 0, false, fmt.Errorf("failed to look up book: %w", err)
	}
	return bookID, true, nil
}

// Insert writes rec and one book_subjects row per subject in a single
// transaction. When the book is already stored, by raw values or by
// normalized identity, its id is returned with inserted=false and nothing is
// written. A uniqueness violation on insert is reported as a
// ConstraintViolationError.
func (s *BookStore) Insert(ctx context.Context, rec book.EnrichedRecord) (int64, bool, error) {
	if existing, ok, err := s.lookupKey(ctx, rec.Book); err != nil {
		return 0, false, err
	} else if ok {
		return existing, false, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		// Rollback after a commit is a no-op error
		_ = tx.Rollback()
	}()

	if existing, ok, err := s.lookup(ctx, tx, rec.Book); err != nil {
		return 0, false, err
	} else if ok {
		return existing, false, nil
	}

	var pages any
	if rec.Pages != nil {
		pages = *rec.Pages
	}

	var bookID int64
	err = tx.QueryRowContext(ctx, s.rebind(insertBook),
		rec.Book.Title, rec.Book.Author, pages, rec.WorkKey, rec.EditionKey,
	).Scan(&bookID)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, false, &olerrors.ConstraintViolationError{Title: rec.Book.Title, Author: rec.Book.Author, Err: err}
		}
		return 0, false, fmt.Errorf("failed to insert book: %w", err)
	}

	subjects := rec.SubjectList()
	if rec.Subjects != "" && subjects == nil {
		slog.Warn("Ignoring malformed subjects", "title", rec.Book.Title, "author", rec.Book.Author)
	}
	for _, subject := range subjects {
		if _, err := tx.ExecContext(ctx, s.rebind(insertSubject), bookID, subject); err != nil {
			return 0, false, fmt.Errorf("failed to insert subject %q: %w", subject, err)
		}
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return 0, false, &olerrors.ConstraintViolationError{Title: rec.Book.Title, Author: rec.Book.Author, Err: err}
		}
		return 0, false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.rememberKey(rec.Book, bookID)
	return bookID, true, nil
}

// CountBooks returns the number of stored books.
func (s *BookStore) CountBooks(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM books").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count books: %w", err)
	}
	return n, nil
}

// Book returns the stored record with the given id.
func (s *BookStore) Book(ctx context.Context, bookID int64) (book.EnrichedRecord, error) {
	var (
		rec   book.EnrichedRecord
		pages sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT title, author, pages, open_work_key, open_edition_key FROM books WHERE id = ?`), bookID,
	).Scan(&rec.Book.Title, &rec.Book.Author, &pages, &rec.WorkKey, &rec.EditionKey)
	if err != nil {
		return book.EnrichedRecord{}, fmt.Errorf("failed to load book %d: %w", bookID, err)
	}
	if pages.Valid {
		p := int(pages.Int64)
		rec.Pages = &p
	}

	subjects, err := s.Subjects(ctx, bookID)
	if err != nil {
		return book.EnrichedRecord{}, err
	}
	rec.Subjects = book.EncodeSubjects(subjects)
	return rec, nil
}

// Subjects returns the subjects of a book in insertion order.
func (s *BookStore) Subjects(ctx context.Context, bookID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT subject FROM book_subjects WHERE book_id = ? ORDER BY id`), bookID)
	if err != nil {
		return nil, fmt.Errorf("failed to query subjects: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var subjects []string
	for rows.Next() {
		var subject string
		if err := rows.Scan(&subject); err != nil {
			return nil, fmt.Errorf("failed to scan subject: %w", err)
		}
		subjects = append(subjects, subject)
	}
	return subjects, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		if code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY {
			return true
		}
		return code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(sqliteErr.Error(), "UNIQUE")
	}
	return false
}
