// Package records implements the record store: the in-memory student
// table and the operations allowed on it.
//
// The Store is the single owner of the table. It is built once at
// startup by Open (which loads the table through a storage.Storage
// backend) and then handed to whatever drives it — the interactive
// console or the export command.
//
// MUTATION RULE:
// ──────────────
// Every mutating operation (Insert, Edit, Delete) first finishes changing
// the in-memory table and only then calls Save. A save therefore always
// writes a fully-mutated table, never a half-applied one. If the save
// fails the change is KEPT in memory and the *storage.StorageError is
// returned next to the result; the next successful save will persist it.
//
// The store is not safe for concurrent use: there is exactly one actor.
package records

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/types"
)

// maxIDAttempts bounds the collision-retry loop of Insert. With 32 bits of
// randomness per id it is only ever reached by a broken generator.
const maxIDAttempts = 100

// ErrIDExhausted is returned by Insert when no unused id could be generated.
var ErrIDExhausted = errors.New("could not generate a unique id")

// Store owns the student table.
type Store struct {
	backend  storage.Storage
	table    []types.Record
	newID    func() string
	validate *validator.Validate
	log      *slog.Logger
}

// Option customises a Store.
type Option func(*Store)

// WithLogger sets the logger used for load/save/mutation events.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithIDGenerator replaces the default id generator. Tests use it to get
// predictable ids and to force collisions.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// NewID returns a short uppercase token: the first 8 hex digits of a
// random (v4) UUID.
func NewID() string {
	return strings.ToUpper(uuid.NewString()[:8])
}

// Open loads the table from backend and returns a ready-to-use Store.
//
// A missing backing file is not an error — the store starts empty and the
// fallback is logged. A present but unreadable or malformed file is, and
// the caller is expected to abort startup.
func Open(backend storage.Storage, opts ...Option) (*Store, error) {
	s := &Store{
		backend:  backend,
		newID:    NewID,
		validate: validator.New(),
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	records, existed, err := backend.Load()
	if err != nil {
		return nil, err
	}
	if !existed {
		s.log.Info("storage file not found, starting with an empty table",
			slog.String("path", backend.Path()))
	} else {
		s.log.Info("table loaded",
			slog.String("path", backend.Path()),
			slog.Int("records", len(records)))
	}
	s.table = records
	return s, nil
}

// Len returns the number of records in the table.
func (s *Store) Len() int { return len(s.table) }

// Records returns a copy of the whole table in order.
func (s *Store) Records() []types.Record {
	return slices.Clone(s.table)
}

// Save writes the current table through the backend. It is called after
// every mutation and once more by the driver on exit.
func (s *Store) Save() error {
	if err := s.backend.Save(s.table); err != nil {
		s.log.Error("failed to save table",
			slog.String("path", s.backend.Path()),
			slog.String("error", err.Error()))
		return err
	}
	s.log.Debug("table saved",
		slog.String("path", s.backend.Path()),
		slog.Int("records", len(s.table)))
	return nil
}

// Insert creates a record from values, assigns it a fresh unique id and
// appends it to the end of the table.
//
// Any FieldID entry in values is ignored: ids are always generated. An
// entry for a field outside the schema aborts the insert before the table
// is touched. Fields missing from values are stored empty.
func (s *Store) Insert(values map[types.Field]string) (types.Record, error) {
	var rec types.Record
	for f, v := range values {
		if !f.Valid() {
			return types.Record{}, fmt.Errorf("%w: %s", ErrInvalidField, f)
		}
		if f == types.FieldID {
			continue
		}
		rec.Set(f, v)
	}

	id, err := s.uniqueID()
	if err != nil {
		return types.Record{}, err
	}
	rec.ID = id

	if err := s.validate.Struct(rec); err != nil {
		return types.Record{}, fmt.Errorf("invalid record: %w", err)
	}

	s.table = append(s.table, rec)
	s.log.Info("student inserted", slog.String("id", rec.ID), slog.String("name", rec.Name))

	return rec, s.Save()
}

func (s *Store) uniqueID() (string, error) {
	for range maxIDAttempts {
		id := s.newID()
		if id != "" && s.indexOf(id) < 0 {
			return id, nil
		}
	}
	return "", ErrIDExhausted
}

// Search returns, in table order, every record whose id equals term or
// whose name contains term. Both comparisons ignore case and surrounding
// whitespace. No match (or an empty table) yields an empty slice.
func (s *Store) Search(term string) []types.Record {
	term = strings.ToLower(strings.TrimSpace(term))
	results := make([]types.Record, 0)
	for _, r := range s.table {
		if strings.ToLower(r.ID) == term || strings.Contains(strings.ToLower(r.Name), term) {
			results = append(results, r)
		}
	}
	return results
}

// Get returns the record with the given id.
func (s *Store) Get(id string) (types.Record, error) {
	i := s.indexOf(id)
	if i < 0 {
		return types.Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.table[i], nil
}

// Resolve applies the ambiguity policy to a search: exactly one match is
// returned, zero is ErrNoMatch and more than one is an *AmbiguousError.
// Edit and delete flows call this so the store never guesses a target.
func (s *Store) Resolve(term string) (types.Record, error) {
	matches := s.Search(term)
	switch len(matches) {
	case 0:
		return types.Record{}, fmt.Errorf("%w %q", ErrNoMatch, strings.TrimSpace(term))
	case 1:
		return matches[0], nil
	default:
		return types.Record{}, &AmbiguousError{Term: strings.TrimSpace(term), Matches: matches}
	}
}

// Edit sets one field of the record with the given id and persists the
// table. The id itself can never be edited.
func (s *Store) Edit(id string, field types.Field, value string) (types.Record, error) {
	i := s.indexOf(id)
	if i < 0 {
		return types.Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if !field.Editable() {
		return types.Record{}, fmt.Errorf("%w: %s", ErrInvalidField, field)
	}

	s.table[i].Set(field, value)
	rec := s.table[i]
	s.log.Info("student edited",
		slog.String("id", rec.ID),
		slog.String("field", field.String()))

	return rec, s.Save()
}

// Delete removes the record with the given id once the caller confirms.
//
// Without confirmation nothing changes and (false, nil) is returned — a
// cancellation, not an error. On confirmed deletion the remaining records
// keep their relative order and the table is saved.
func (s *Store) Delete(id string, confirmed bool) (bool, error) {
	i := s.indexOf(id)
	if i < 0 {
		return false, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if !confirmed {
		s.log.Info("deletion cancelled", slog.String("id", s.table[i].ID))
		return false, nil
	}

	removed := s.table[i]
	s.table = slices.Delete(s.table, i, i+1)
	s.log.Info("student deleted", slog.String("id", removed.ID))

	return true, s.Save()
}

// indexOf returns the position of id in the table, or -1.
func (s *Store) indexOf(id string) int {
	id = strings.TrimSpace(id)
	if id == "" {
		return -1
	}
	return slices.IndexFunc(s.table, func(r types.Record) bool {
		return strings.EqualFold(r.ID, id)
	})
}
