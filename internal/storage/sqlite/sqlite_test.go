package sqlite

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/types"
)

func TestLoadMissingFile(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "students.db"))
	t.Cleanup(func() { _ = s.Close() })

	records, existed, err := s.Load()
	require.NoError(t, err)
	assert.False(t, existed)
	assert.Empty(t, records)

	_, statErr := os.Stat(s.Path())
	assert.True(t, os.IsNotExist(statErr))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "students.db")
	want := []types.Record{
		{ID: "ZZ000001", Name: "Zélia", City: "Natal, RN", Email: "z@example.com"},
		{ID: "AA000002", Name: `Ana "Aninha" Silva`, Street: "Rua 1\nFundos"},
		{ID: "MM000003", Name: "Márcio"},
	}

	s := New(path)
	require.NoError(t, s.Save(want))
	require.NoError(t, s.Close())

	reopened := New(path)
	t.Cleanup(func() { _ = reopened.Close() })
	got, existed, err := reopened.Load()
	require.NoError(t, err)
	assert.True(t, existed)
	assert.Equal(t, want, got, "insertion order must survive, not id order")

	require.NoError(t, reopened.Save(want[1:2]))
	got, _, err = reopened.Load()
	require.NoError(t, err)
	assert.Equal(t, want[1:2], got)
}

func TestSaveDuplicateIDKeepsPreviousTable(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "students.db"))
	t.Cleanup(func() { _ = s.Close() })

	first := []types.Record{{ID: "A1"}, {ID: "B2"}}
	require.NoError(t, s.Save(first))

	err := s.Save([]types.Record{{ID: "C3"}, {ID: "C3"}})
	var se *storage.StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "save", se.Op)

	got, _, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, first, got)
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "students.db")
	require.NoError(t, os.WriteFile(path, []byte("this is not a sqlite database, just text padding it out"), 0o644))

	s := New(path)
	t.Cleanup(func() { _ = s.Close() })
	_, existed, err := s.Load()

	var se *storage.StorageError
	require.ErrorAs(t, err, &se)
	assert.True(t, existed)
	assert.Equal(t, "load", se.Op)
}

func TestSaveAfterClose(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "students.db"))
	require.NoError(t, s.Save([]types.Record{{ID: "A1"}}))
	require.NoError(t, s.Close())

	err := s.Save([]types.Record{{ID: "B2"}})
	var se *storage.StorageError
	require.ErrorAs(t, err, &se)
	assert.ErrorIs(t, err, ErrClosed)
	assert.NoError(t, s.Close(), "closing twice is harmless")
}

func TestCloseWaitsForRunningSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "students.db")
	s := New(path)
	require.NoError(t, s.Save([]types.Record{{ID: "A1"}}))

	big := make([]types.Record, 500)
	for i := range big {
		big[i] = types.Record{ID: fmt.Sprintf("R%07d", i), Name: "Student"}
	}

	saved := make(chan error, 1)
	go func() {
		saved <- s.Save(big)
	}()
	require.NoError(t, s.Close())
	saveErr := <-saved

	reopened := New(path)
	t.Cleanup(func() { _ = reopened.Close() })
	got, _, err := reopened.Load()
	require.NoError(t, err)

	// Either the save finished before Close or it never started.
	if saveErr == nil {
		assert.Equal(t, big, got)
	} else {
		assert.ErrorIs(t, saveErr, ErrClosed)
		assert.Equal(t, []types.Record{{ID: "A1"}}, got)
	}
}
