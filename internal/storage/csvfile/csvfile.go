// Package csvfile provides the default storage.Storage implementation: the
// whole student table in a single CSV file.
//
// FILE LAYOUT:
//
//	id,name,street,number,neighborhood,city,region,phone,email
//	A1B2C3D4,Ana Silva,"Rua das Flores, 12",...
//
// The first row is always the schema header (types.Header). Quoting
// follows RFC 4180 via encoding/csv, so commas, quotes and line breaks
// inside a value survive a save/load round-trip.
package csvfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/types"
)

// CSV is the file-backed table. It holds only the path: the rows live in
// the record store, and every Save rewrites the file from scratch.
type CSV struct {
	path string
}

// New returns a CSV backend for the file at path. Nothing is read or
// created until Load or Save is called.
func New(path string) *CSV {
	return &CSV{path: path}
}

func (c *CSV) Path() string { return c.path }

// Load reads the table. A missing file is not an error: it yields an
// empty table and existed=false so the caller can report that a new
// database will be created on the first save.
func (c *CSV) Load() ([]types.Record, bool, error) {
	f, err := os.Open(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []types.Record{}, false, nil
		}
		return nil, true, c.fail("load", err)
	}
	defer func() {
		_ = f.Close()
	}()

	records, err := decode(f)
	if err != nil {
		return nil, true, c.fail("load", err)
	}
	if err := storage.CheckTable(records); err != nil {
		return nil, true, c.fail("load", err)
	}
	return records, true, nil
}

func decode(r io.Reader) ([]types.Record, error) {
	cr := csv.NewReader(r)
	// Every row, header included, must have exactly one value per column.
	cr.FieldsPerRecord = len(types.Fields)

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("missing header row")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if !slices.Equal(header, types.Header()) {
		return nil, fmt.Errorf("unexpected header %v, want %v", header, types.Header())
	}

	records := make([]types.Record, 0)
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		rec, err := types.RecordFromValues(row)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// Save writes the table to a temporary file next to the target and then
// renames it into place, so a crash mid-write never leaves a truncated
// table behind.
func (c *CSV) Save(records []types.Record) error {
	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return c.fail("save", fmt.Errorf("create directory: %w", err))
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(c.path)+".*.tmp")
	if err != nil {
		return c.fail("save", fmt.Errorf("create temp file: %w", err))
	}
	tmpName := tmp.Name()
	// Removing after a successful rename fails harmlessly.
	defer func() {
		_ = os.Remove(tmpName)
	}()

	// CreateTemp makes the file 0600; keep the mode of the table being
	// replaced, or use 0644 for a new one.
	mode := os.FileMode(0o644)
	if info, err := os.Stat(c.path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		return c.fail("save", fmt.Errorf("chmod: %w", err))
	}

	if err := encode(tmp, records); err != nil {
		_ = tmp.Close()
		return c.fail("save", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return c.fail("save", fmt.Errorf("sync: %w", err))
	}
	if err := tmp.Close(); err != nil {
		return c.fail("save", fmt.Errorf("close: %w", err))
	}
	if err := os.Rename(tmpName, c.path); err != nil {
		return c.fail("save", fmt.Errorf("rename: %w", err))
	}
	return nil
}

func encode(w io.Writer, records []types.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(types.Header()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range records {
		if err := cw.Write(r.Values()); err != nil {
			return fmt.Errorf("write row %s: %w", r.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}

func (c *CSV) fail(op string, err error) error {
	return &storage.StorageError{Op: op, Path: c.path, Err: err}
}
