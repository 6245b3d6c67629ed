package model

import (
	"fmt"
	"strconv"
	"strings"
)

// PrimitiveType is the storage type of a record field.
// The four values map directly onto SQLite's storage classes.
type PrimitiveType uint8

const (
	Integer PrimitiveType = iota
	Real
	Text
	Blob
)

// String returns the string representation of the PrimitiveType.
// It doubles as the declared column type in the backing store.
func (t PrimitiveType) String() string {
	switch t {
	case Integer:
		return "INTEGER"
	case Real:
		return "REAL"
	case Text:
		return "TEXT"
	case Blob:
		return "BLOB"
	default:
		return "Unknown"
	}
}

// Valid reports whether t is one of the four primitives.
func (t PrimitiveType) Valid() bool {
	return t <= Blob
}

// ParsePrimitiveType parses a declared column type back into a
// PrimitiveType. Matching is case-insensitive because SQLite preserves
// whatever casing the DDL used.
func ParsePrimitiveType(s string) (PrimitiveType, bool) {
	switch strings.ToUpper(s) {
	case "INTEGER":
		return Integer, true
	case "REAL":
		return Real, true
	case "TEXT":
		return Text, true
	case "BLOB":
		return Blob, true
	default:
		return 0, false
	}
}

// ID is the stable identifier of a record within its table.
// ID 0 is reserved for the table metadata row and never identifies a record.
type ID int64

// RefList is an ordered list of child record ids referenced from a parent
// row. It is a reference list, not an owning container: the records it
// points to live in their own table and may outlive, or be deleted out
// from under, any parent that lists them.
type RefList []ID

// Record is a node in a persisted tree: an id, typed scalar fields and
// named groups of child records.
//
// Invariants (enforced by validation, not by construction):
//   - Fields has exactly the owning schema's field names, with values
//     matching their declared PrimitiveType.
//   - Children has exactly the schema's child table names as keys, even
//     when a group is empty.
type Record struct {
	ID       ID                   `json:"id"`
	Fields   map[string]any       `json:"fields"`
	Children map[string][]*Record `json:"children"`
}

// Refs returns the ordered id list of one child group.
func (r *Record) Refs(childTable string) RefList {
	children := r.Children[childTable]
	refs := make(RefList, 0, len(children))
	for _, c := range children {
		refs = append(refs, c.ID)
	}
	return refs
}

// Normalize coerces v to the canonical in-memory representation of t:
// int64 for Integer, float64 for Real, string for Text, []byte for Blob.
// It returns false when v cannot represent t, leaving the caller (the
// validator) to produce the diagnostic.
func Normalize(v any, t PrimitiveType) (any, bool) {
	switch t {
	case Integer:
		switch val := v.(type) {
		case int64:
			return val, true
		case int:
			return int64(val), true
		case int8:
			return int64(val), true
		case int16:
			return int64(val), true
		case int32:
			return int64(val), true
		case uint:
			return int64(val), true
		case uint8:
			return int64(val), true
		case uint16:
			return int64(val), true
		case uint32:
			return int64(val), true
		case float64:
			// Codecs decode numbers as float64. Accept only whole values.
			if val == float64(int64(val)) {
				return int64(val), true
			}
		}
	case Real:
		switch val := v.(type) {
		case float64:
			return val, true
		case float32:
			return float64(val), true
		case int:
			return float64(val), true
		case int64:
			return float64(val), true
		}
	case Text:
		if s, ok := v.(string); ok {
			return s, true
		}
	case Blob:
		if b, ok := v.([]byte); ok {
			return b, true
		}
	}
	return nil, false
}

// FormatValue renders a canonical field value as text for search matching.
// Blob bytes are matched as raw strings, the same containment semantics the
// other primitives get.
func FormatValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case []byte:
		return string(val)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", val)
	}
}
