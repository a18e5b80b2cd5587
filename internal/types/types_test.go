package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderMatchesFieldOrder(t *testing.T) {
	h := Header()
	require.Len(t, h, len(Fields))
	for i, f := range Fields {
		assert.Equal(t, f.String(), h[i])
	}
	assert.Equal(t, "id", h[0])
	assert.Equal(t, "email", h[len(h)-1])
}

func TestEditableFieldsExcludeID(t *testing.T) {
	assert.NotContains(t, EditableFields, FieldID)
	assert.Len(t, EditableFields, len(Fields)-1)
	assert.False(t, FieldID.Editable())
	assert.True(t, FieldCity.Editable())
	assert.False(t, Field(99).Editable())
}

func TestParseField(t *testing.T) {
	tests := []struct {
		in      string
		want    Field
		wantErr bool
	}{
		{in: "city", want: FieldCity},
		{in: "  EMAIL ", want: FieldEmail},
		{in: "Neighborhood", want: FieldNeighborhood},
		{in: "id", want: FieldID},
		{in: "age", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseField(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnknownField)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRecordGetSet(t *testing.T) {
	var r Record
	for i, f := range Fields {
		r.Set(f, f.String()+string(rune('a'+i)))
	}
	for i, f := range Fields {
		assert.Equal(t, f.String()+string(rune('a'+i)), r.Get(f))
	}

	before := r
	r.Set(Field(42), "ignored")
	assert.Equal(t, before, r)
	assert.Empty(t, r.Get(Field(-1)))
}

func TestRecordFromValues(t *testing.T) {
	r := Record{ID: "AB12CD34", Name: "Ana Silva", City: "Recife", Email: "ana@example.com"}

	got, err := RecordFromValues(r.Values())
	require.NoError(t, err)
	assert.Equal(t, r, got)

	_, err = RecordFromValues([]string{"only", "two"})
	assert.Error(t, err)
}
