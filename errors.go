package recgo

import (
	"errors"
	"fmt"

	"github.com/hupe1980/recgo/model"
	"github.com/hupe1980/recgo/store"
)

var (
	// ErrDatabaseNotFound is returned by Open when the database file does
	// not exist.
	ErrDatabaseNotFound = store.ErrDatabaseNotFound

	// ErrTableNotFound is returned by Open when the named table does not
	// exist in the database.
	ErrTableNotFound = store.ErrTableNotFound

	// ErrReservedID is returned when an operation targets row id 0, the
	// table metadata row.
	ErrReservedID = errors.New("record id 0 is reserved for table metadata")
)

// ErrInvalidIdentifier indicates a table or field name that cannot be used
// as a column identifier, or that collides with a reserved column.
type ErrInvalidIdentifier struct {
	Name   string
	Reason string
}

func (e *ErrInvalidIdentifier) Error() string {
	return fmt.Sprintf("invalid identifier %q: %s", e.Name, e.Reason)
}

// ErrInvalidFieldType indicates a declared field type that is not one of
// the four primitives (Integer, Real, Text, Blob). It surfaces both at
// schema definition time and when reopening a table whose stored column
// type cannot be mapped back.
type ErrInvalidFieldType struct {
	Field    string
	DeclType string
}

func (e *ErrInvalidFieldType) Error() string {
	return fmt.Sprintf("field %q has invalid type %q, expected one of INTEGER, REAL, TEXT, BLOB", e.Field, e.DeclType)
}

// ErrRecordNotFound indicates that a fetch or delete target id is absent
// from the table.
type ErrRecordNotFound struct {
	Table string
	ID    model.ID
}

func (e *ErrRecordNotFound) Error() string {
	return fmt.Sprintf("no record in %s with id %d", e.Table, e.ID)
}

// ErrInvalidRecord indicates a record that failed validation against its
// table schema. Reason carries the first encountered violation; violations
// are not aggregated.
type ErrInvalidRecord struct {
	Table  string
	Reason string
}

func (e *ErrInvalidRecord) Error() string {
	return fmt.Sprintf("invalid record for %s: %s", e.Table, e.Reason)
}

// ErrUnknownField indicates a search against a field the schema does not
// declare.
type ErrUnknownField struct {
	Table string
	Field string
}

func (e *ErrUnknownField) Error() string {
	return fmt.Sprintf("%q is not a field of %s", e.Field, e.Table)
}

// ErrUnknownChildTable indicates a child-table name the schema does not
// declare.
type ErrUnknownChildTable struct {
	Table string
	Child string
}

func (e *ErrUnknownChildTable) Error() string {
	return fmt.Sprintf("%q is not a declared child table of %s", e.Child, e.Table)
}
