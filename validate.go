package recgo

import (
	"context"
	"fmt"
	"sort"

	"github.com/hupe1980/recgo/model"
)

// Validate checks a record's shape and field types against the table
// schema, recursing into every child record against its own table's
// schema. It returns nil for a valid record, or an *ErrInvalidRecord
// carrying the first encountered violation; violations are not aggregated.
//
// Checks run in order and short-circuit: field count, record id, child
// group count, declared fields present and well-typed, child groups
// declared, children recursively valid.
func (t *Table) Validate(ctx context.Context, rec *model.Record) error {
	if diag := t.check(ctx, rec); diag != "" {
		return &ErrInvalidRecord{Table: t.name, Reason: diag}
	}
	return nil
}

func (t *Table) check(ctx context.Context, rec *model.Record) string {
	if rec == nil {
		return "record is nil"
	}

	if len(rec.Fields) != len(t.schema.Fields) {
		return fmt.Sprintf("%s requires %d fields, got %d",
			t.name, len(t.schema.Fields), len(rec.Fields))
	}

	if rec.ID < 1 {
		return fmt.Sprintf("record id must be a positive integer, got %d", rec.ID)
	}

	if len(rec.Children) != len(t.schema.Children) {
		return fmt.Sprintf("%s requires %d child groups, got %d",
			t.name, len(t.schema.Children), len(rec.Children))
	}

	for _, f := range t.schema.Fields {
		v, ok := rec.Fields[f.Name]
		if !ok {
			return fmt.Sprintf("field %q must be defined in records belonging to %s", f.Name, t.name)
		}
		if _, ok := model.Normalize(v, f.Type); !ok {
			return fmt.Sprintf("field %q has invalid type %T, expected %s", f.Name, v, f.Type)
		}
	}

	names := make([]string, 0, len(rec.Children))
	for name := range rec.Children {
		if _, ok := t.childSet[name]; !ok {
			return fmt.Sprintf("%q is not a declared child table of %s", name, t.name)
		}
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		child, err := t.reg.open(ctx, name)
		if err != nil {
			return fmt.Sprintf("child table %q: %v", name, err)
		}
		for _, crec := range rec.Children[name] {
			if diag := child.check(ctx, crec); diag != "" {
				return diag
			}
		}
	}

	return ""
}
