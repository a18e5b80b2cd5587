// Package types holds the shared data structures (models) used across
// the application. Keeping them in one place prevents import cycles —
// the store, the storage backends, the console and the exporters can all
// import types without depending on each other.
package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownField is returned by ParseField when a name does not belong
// to the schema.
var ErrUnknownField = errors.New("unknown field")

// Field identifies one column of the student table.
//
// The schema is FIXED: the set of fields and their order never change at
// runtime, and the persisted header row is derived from the same list.
// Using an enumerated type (instead of free-form strings) means an edit
// can only ever target a column that actually exists.
type Field int

const (
	FieldID Field = iota
	FieldName
	FieldStreet
	FieldNumber
	FieldNeighborhood
	FieldCity
	FieldRegion
	FieldPhone
	FieldEmail

	fieldCount
)

// Fields lists every column in schema order.
var Fields = []Field{
	FieldID,
	FieldName,
	FieldStreet,
	FieldNumber,
	FieldNeighborhood,
	FieldCity,
	FieldRegion,
	FieldPhone,
	FieldEmail,
}

// EditableFields is every column except the id, in schema order.
// The id is generated by the store and immutable afterwards.
var EditableFields = Fields[1:]

var fieldNames = [fieldCount]string{
	"id", "name", "street", "number", "neighborhood", "city", "region", "phone", "email",
}

var fieldLabels = [fieldCount]string{
	"ID", "Name", "Street", "Number", "Neighborhood", "City", "Region", "Phone", "E-mail",
}

// Valid reports whether f is one of the schema columns.
func (f Field) Valid() bool {
	return f >= 0 && f < fieldCount
}

// Editable reports whether f may be changed after insert.
func (f Field) Editable() bool {
	return f.Valid() && f != FieldID
}

// String returns the column name as written in the persisted header.
func (f Field) String() string {
	if !f.Valid() {
		return fmt.Sprintf("Field(%d)", int(f))
	}
	return fieldNames[f]
}

// Label returns the human-readable name shown in prompts.
func (f Field) Label() string {
	if !f.Valid() {
		return f.String()
	}
	return fieldLabels[f]
}

// ParseField resolves a column name (case-insensitive) to its Field.
func ParseField(name string) (Field, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range fieldNames {
		if n == name {
			return Field(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownField, name)
}

// Header returns the column names in schema order.
func Header() []string {
	h := make([]string, len(fieldNames))
	copy(h, fieldNames[:])
	return h
}

// Record represents one student.
//
// Struct tags:
//
//  1. json/yaml:"..." — key names used by the exporters.
//  2. validate:"..."  — rules checked by go-playground/validator before a
//     record is accepted into the table. Only the id is constrained; every
//     other field is free-form text.
type Record struct {
	ID           string `json:"id"           yaml:"id"           validate:"required,alphanum"`
	Name         string `json:"name"         yaml:"name"`
	Street       string `json:"street"       yaml:"street"`
	Number       string `json:"number"       yaml:"number"`
	Neighborhood string `json:"neighborhood" yaml:"neighborhood"`
	City         string `json:"city"         yaml:"city"`
	Region       string `json:"region"       yaml:"region"`
	Phone        string `json:"phone"        yaml:"phone"`
	Email        string `json:"email"        yaml:"email"`
}

// field returns a pointer to the struct member backing f, or nil when f
// is outside the schema.
func (r *Record) field(f Field) *string {
	switch f {
	case FieldID:
		return &r.ID
	case FieldName:
		return &r.Name
	case FieldStreet:
		return &r.Street
	case FieldNumber:
		return &r.Number
	case FieldNeighborhood:
		return &r.Neighborhood
	case FieldCity:
		return &r.City
	case FieldRegion:
		return &r.Region
	case FieldPhone:
		return &r.Phone
	case FieldEmail:
		return &r.Email
	}
	return nil
}

// Get returns the value of column f ("" for an unknown field).
func (r Record) Get(f Field) string {
	if p := r.field(f); p != nil {
		return *p
	}
	return ""
}

// Set assigns column f. Unknown fields are ignored; callers that need to
// reject them check Field.Valid first.
func (r *Record) Set(f Field, value string) {
	if p := r.field(f); p != nil {
		*p = value
	}
}

// Values returns the record's columns in schema order.
func (r Record) Values() []string {
	out := make([]string, len(Fields))
	for i, f := range Fields {
		out[i] = r.Get(f)
	}
	return out
}

// RecordFromValues is the inverse of Values. It fails when the number of
// values does not match the schema, so a short or long row can never
// produce a half-filled record.
func RecordFromValues(values []string) (Record, error) {
	if len(values) != len(Fields) {
		return Record{}, fmt.Errorf("expected %d columns, got %d", len(Fields), len(values))
	}
	var r Record
	for i, f := range Fields {
		r.Set(f, values[i])
	}
	return r, nil
}
