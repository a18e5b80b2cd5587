package csvfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/types"
)

func sampleRecords() []types.Record {
	return []types.Record{
		{
			ID: "A1B2C3D4", Name: "Ana Silva", Street: "Rua das Flores, 12", Number: "12",
			Neighborhood: "Boa Vista", City: "Recife", Region: "PE",
			Phone: "+55 (81) 9999-0000", Email: "ana@example.com",
		},
		{
			ID: "0F9E8D7C", Name: `João "Jota" Souza`, Street: "Av. Brasil\nBloco B", Number: "s/n",
			Neighborhood: "  Centro  ", City: "São Paulo", Region: "SP",
		},
		{ID: "FFFF0000"},
	}
}

func TestLoadMissingFile(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "students.csv"))

	records, existed, err := c.Load()
	require.NoError(t, err)
	assert.False(t, existed)
	assert.Empty(t, records)
	assert.NotNil(t, records)

	_, statErr := os.Stat(c.Path())
	assert.True(t, os.IsNotExist(statErr), "load must not create the file")
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "students.csv")
	c := New(path)
	want := sampleRecords()

	require.NoError(t, c.Save(want))

	got, existed, err := New(path).Load()
	require.NoError(t, err)
	assert.True(t, existed)
	assert.Equal(t, want, got)
}

func TestSaveOverwrites(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "students.csv"))
	require.NoError(t, c.Save(sampleRecords()))
	require.NoError(t, c.Save(sampleRecords()[:1]))

	got, _, err := c.Load()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "A1B2C3D4", got[0].ID)

	// Only the header remains after saving an empty table.
	require.NoError(t, c.Save(nil))
	data, err := os.ReadFile(c.Path())
	require.NoError(t, err)
	assert.Equal(t, "id,name,street,number,neighborhood,city,region,phone,email\n", string(data))

	entries, err := os.ReadDir(filepath.Dir(c.Path()))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestLoadMalformed(t *testing.T) {
	const header = "id,name,street,number,neighborhood,city,region,phone,email\n"
	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{name: "empty file", content: "", wantMsg: "missing header"},
		{name: "wrong header", content: "Matricula,Nome,Rua,Numero,Bairro,Cidade,UF,Telefone,e-mail\n", wantMsg: "unexpected header"},
		{name: "short row", content: header + "A1,Ana\n", wantMsg: "wrong number of fields"},
		{name: "bad quoting", content: header + `A1,"Ana,,,,,,,` + "\n", wantMsg: "read row"},
		{name: "empty id", content: header + ",Ana,,,,,,,\n", wantMsg: "empty id"},
		{name: "duplicate id", content: header + "A1,Ana,,,,,,,\nA1,Bia,,,,,,,\n", wantMsg: "duplicate id"},
		{name: "duplicate id differing in case", content: header + "abc1,First,,,,,,,\nABC1,Second,,,,,,,\n", wantMsg: `duplicate id "ABC1"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "students.csv")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			_, existed, err := New(path).Load()
			require.Error(t, err)
			assert.True(t, existed)

			var se *storage.StorageError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, "load", se.Op)
			assert.Equal(t, path, se.Path)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestSaveFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	err := New(filepath.Join(blocker, "students.csv")).Save(sampleRecords())

	var se *storage.StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "save", se.Op)
}

func TestSaveKeepsFileMode(t *testing.T) {
	dir := t.TempDir()

	fresh := New(filepath.Join(dir, "new.csv"))
	require.NoError(t, fresh.Save(sampleRecords()))
	info, err := os.Stat(fresh.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())

	existing := filepath.Join(dir, "existing.csv")
	require.NoError(t, os.WriteFile(existing, nil, 0o600))
	require.NoError(t, os.Chmod(existing, 0o640))
	require.NoError(t, New(existing).Save(sampleRecords()))
	info, err = os.Stat(existing)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())
}
