package recgo

import (
	"context"

	"github.com/hupe1980/recgo/model"
)

// Build formats caller-supplied fields and child groups into a record with
// a freshly allocated id. Child groups missing from children default to
// empty for every declared child table. The record is validated and
// returned in memory only; it becomes durable when the caller passes it to
// Save.
func (t *Table) Build(ctx context.Context, fields map[string]any, children map[string][]*model.Record) (*model.Record, error) {
	id, err := t.alloc.Next(ctx)
	if err != nil {
		return nil, err
	}

	rec := &model.Record{
		ID:       id,
		Fields:   make(map[string]any, len(fields)),
		Children: make(map[string][]*model.Record, len(t.schema.Children)),
	}

	for name, v := range fields {
		if typ, ok := t.fieldTypes[name]; ok {
			if nv, ok := model.Normalize(v, typ); ok {
				rec.Fields[name] = nv
				continue
			}
		}
		// Left as given; validation produces the diagnostic.
		rec.Fields[name] = v
	}

	for _, name := range t.schema.Children {
		rec.Children[name] = []*model.Record{}
	}
	for name, group := range children {
		if group == nil {
			group = []*model.Record{}
		}
		rec.Children[name] = group
	}

	if err := t.Validate(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}
