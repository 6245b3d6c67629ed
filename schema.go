package recgo

import (
	"regexp"
	"sort"

	"github.com/hupe1980/recgo/model"
)

const manifestColumn = "manifest"

// identPattern is the shape every table and field name must have. Names are
// interpolated into statement text as column identifiers, so this check is
// what keeps statement construction injection-free; values are always
// parameter-bound.
var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Field declares one scalar column of a table: its name and primitive
// storage type.
type Field struct {
	Name string
	Type model.PrimitiveType
}

// Schema declares the shape of a table: an ordered list of typed fields
// and the set of child table names its records may reference.
//
// Every table additionally carries two implicit columns: "id", the integer
// primary key, and "manifest", the serialized child-reference mapping.
// Those names are reserved and cannot be declared as fields.
type Schema struct {
	Name     string
	Fields   []Field
	Children []string
}

// validate checks the schema at definition time: identifier shape,
// duplicate names, reserved columns, and field types.
func (s Schema) validate() error {
	if !identPattern.MatchString(s.Name) {
		return &ErrInvalidIdentifier{Name: s.Name, Reason: "table name is not a valid identifier"}
	}

	seen := make(map[string]struct{}, len(s.Fields))
	for _, f := range s.Fields {
		if !identPattern.MatchString(f.Name) {
			return &ErrInvalidIdentifier{Name: f.Name, Reason: "field name is not a valid identifier"}
		}
		if f.Name == "id" || f.Name == manifestColumn {
			return &ErrInvalidIdentifier{Name: f.Name, Reason: "field name collides with a reserved column"}
		}
		if _, dup := seen[f.Name]; dup {
			return &ErrInvalidIdentifier{Name: f.Name, Reason: "duplicate field name"}
		}
		seen[f.Name] = struct{}{}

		if !f.Type.Valid() {
			return &ErrInvalidFieldType{Field: f.Name, DeclType: f.Type.String()}
		}
	}

	children := make(map[string]struct{}, len(s.Children))
	for _, child := range s.Children {
		if !identPattern.MatchString(child) {
			return &ErrInvalidIdentifier{Name: child, Reason: "child table name is not a valid identifier"}
		}
		if _, dup := children[child]; dup {
			return &ErrInvalidIdentifier{Name: child, Reason: "duplicate child table name"}
		}
		children[child] = struct{}{}
	}

	return nil
}

// normalized returns a copy with the child-table set in sorted order, so
// that schemas recovered from storage and schemas passed to Create compare
// equal.
func (s Schema) normalized() Schema {
	children := make([]string, len(s.Children))
	copy(children, s.Children)
	sort.Strings(children)

	fields := make([]Field, len(s.Fields))
	copy(fields, s.Fields)

	return Schema{Name: s.Name, Fields: fields, Children: children}
}
