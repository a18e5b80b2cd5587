// Package storage defines the Storage interface — the contract every
// persistence backend must satisfy to hold the student table.
//
// WHY AN INTERFACE?
// ─────────────────
// The record store should not know or care whether the table lives in a
// CSV file or a SQLite file. By depending only on this interface:
//
//   - Switching backends = implement the interface, change one line of
//     wiring in cmd/students. Zero store changes.
//
//   - Writing tests = pass an in-memory fake that satisfies the interface.
//
// The contract is deliberately coarse: the whole table goes in and out in
// one call. There is no per-row API because the store owns the table in
// memory and persistence is a full rewrite after every mutation.
package storage

import (
	"fmt"
	"strings"

	"github.com/aanand-mishra/student-records/internal/types"
)

// Storage is the persistence contract.
type Storage interface {
	// Load reads the full table. When the backing file does not exist yet
	// it returns an empty table, existed=false and a nil error; any other
	// failure (unreadable file, bad header, malformed row, duplicate or
	// empty id) is a *StorageError.
	Load() (records []types.Record, existed bool, err error)

	// Save overwrites the backing file with exactly the given records, in
	// order. Failures are returned as *StorageError.
	Save(records []types.Record) error

	// Path is the location of the backing file, for messages and logs.
	Path() string
}

// StorageError reports a failed load or save.
type StorageError struct {
	Op   string // "load" or "save"
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// CheckTable verifies the table-level invariants every backend must
// enforce on load: each id is non-empty and unique. Ids are looked up
// ignoring case, so "abc1" and "ABC1" count as the same id.
func CheckTable(records []types.Record) error {
	seen := make(map[string]int, len(records))
	for i, r := range records {
		if r.ID == "" {
			return fmt.Errorf("row %d: empty id", i+1)
		}
		key := strings.ToUpper(r.ID)
		if prev, ok := seen[key]; ok {
			return fmt.Errorf("row %d: duplicate id %q (first seen in row %d)", i+1, r.ID, prev+1)
		}
		seen[key] = i
	}
	return nil
}
