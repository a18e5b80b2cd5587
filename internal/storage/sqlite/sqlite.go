// Package sqlite provides a SQLite-backed implementation of the
// storage.Storage interface using Go's standard database/sql package.
//
// WHY SQLite?
// ───────────
// SQLite stores everything in a single file on disk, just like the CSV
// backend, but a save happens inside a transaction: either the whole new
// table is committed or the previous one stays intact.
//
// The table keeps an explicit position column so the insertion order of
// the in-memory table survives a round-trip; rows are always read back
// ORDER BY position.
//
// The blank import below registers the sqlite3 driver with database/sql.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/types"

	// Blank import: side-effect only (registers the "sqlite3" driver).
	_ "github.com/mattn/go-sqlite3"
)

const createTable = `
	CREATE TABLE IF NOT EXISTS students (
		position     INTEGER PRIMARY KEY,
		id           TEXT NOT NULL UNIQUE,
		name         TEXT NOT NULL,
		street       TEXT NOT NULL,
		number       TEXT NOT NULL,
		neighborhood TEXT NOT NULL,
		city         TEXT NOT NULL,
		region       TEXT NOT NULL,
		phone        TEXT NOT NULL,
		email        TEXT NOT NULL
	)
`

// SQLite is the concrete implementation of storage.Storage.
//
// The connection is opened lazily: Load on a file that does not exist
// must not create it, so New only records the path.
//
// mu serialises Load, Save and Close: Close waits for a save that is
// already running, and nothing reopens the file once it is closed.
type SQLite struct {
	path string

	mu     sync.Mutex
	db     *sql.DB
	closed bool
}

// ErrClosed is returned by Load and Save after Close.
var ErrClosed = errors.New("sqlite backend closed")

// New returns a SQLite backend for the database file at path.
func New(path string) *SQLite {
	return &SQLite{path: path}
}

func (s *SQLite) Path() string { return s.path }

// open connects (once) and makes sure the students table exists.
// Callers hold s.mu.
func (s *SQLite) open() (*sql.DB, error) {
	if s.closed {
		return nil, ErrClosed
	}
	if s.db != nil {
		return s.db, nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}

	// sql.Open does NOT open a real connection yet — it just validates
	// the driver name and data source name (DSN).
	db, err := sql.Open("sqlite3", s.path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One actor, one connection.
	db.SetMaxOpenConns(1)

	// CREATE TABLE IF NOT EXISTS is idempotent — safe on every startup.
	if _, err := db.Exec(createTable); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}
	s.db = db
	return db, nil
}

// Load reads every row ordered by position.
func (s *SQLite) Load() ([]types.Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []types.Record{}, false, nil
		}
		return nil, true, s.fail("load", err)
	}

	records, err := s.load()
	if err != nil {
		return nil, true, s.fail("load", err)
	}
	if err := storage.CheckTable(records); err != nil {
		return nil, true, s.fail("load", err)
	}
	return records, true, nil
}

func (s *SQLite) load() ([]types.Record, error) {
	db, err := s.open()
	if err != nil {
		return nil, err
	}

	// Explicitly list columns — never SELECT *. The order of the columns
	// here must match the order of the Scan targets below.
	rows, err := db.Query(`
		SELECT id, name, street, number, neighborhood, city, region, phone, email
		FROM students ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	records := make([]types.Record, 0)
	for rows.Next() {
		var r types.Record
		if err := rows.Scan(
			&r.ID,
			&r.Name,
			&r.Street,
			&r.Number,
			&r.Neighborhood,
			&r.City,
			&r.Region,
			&r.Phone,
			&r.Email,
		); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return records, nil
}

// Save replaces the table contents inside a single transaction.
//
// HOW THE REWRITE STAYS ATOMIC:
// ─────────────────────────────
// DELETE and every INSERT run in the same transaction. If any statement
// fails the deferred Rollback discards them all and the file keeps the
// previously committed table.
func (s *SQLite) Save(records []types.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.save(records); err != nil {
		return s.fail("save", err)
	}
	return nil
}

func (s *SQLite) save(records []types.Record) error {
	db, err := s.open()
	if err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	// Rollback after Commit is a no-op returning sql.ErrTxDone.
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.Exec("DELETE FROM students"); err != nil {
		return fmt.Errorf("clear: %w", err)
	}

	// Prepared statements use placeholders (?); values are sent separately
	// from the SQL so user input is never interpreted as syntax.
	stmt, err := tx.Prepare(`
		INSERT INTO students
			(position, id, name, street, number, neighborhood, city, region, phone, email)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		if _, err := stmt.Exec(i, r.ID, r.Name, r.Street, r.Number,
			r.Neighborhood, r.City, r.Region, r.Phone, r.Email); err != nil {
			return fmt.Errorf("insert %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Close waits for a running Load or Save, then releases the database
// handle. Later calls to Load or Save fail with ErrClosed.
func (s *SQLite) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLite) fail(op string, err error) error {
	return &storage.StorageError{Op: op, Path: s.path, Err: err}
}
