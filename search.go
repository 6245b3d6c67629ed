package recgo

import (
	"context"
	"time"

	"github.com/hupe1980/recgo/model"
	"github.com/hupe1980/recgo/search"
)

// SearchOptions configures a search.
type SearchOptions struct {
	// Strict switches from substring/phrase containment to exact equality
	// on the searched field.
	Strict bool

	// Exclude removes the given ids from the result set regardless of
	// whether they match.
	Exclude []model.ID
}

// Search returns the fully hydrated records whose named field matches the
// query.
//
// In the default relative mode the query is tokenized into bare words and
// double-quoted phrases; a record matches when the field's text contains
// any token as a substring, or contains the whole original query.
// Containment is case-sensitive. In strict mode only exact equality
// matches. It fails with *ErrUnknownField when the field is not declared.
//
// Predicates evaluate in process over the field values, so the backing
// store's collation rules never soften the case-sensitivity guarantee.
func (t *Table) Search(ctx context.Context, field, query string, optFns ...func(*SearchOptions)) (recs []*model.Record, err error) {
	start := time.Now()
	defer func() {
		t.reg.opts.metrics.RecordSearch(len(recs), time.Since(start), err)
		t.reg.opts.logger.LogSearch(ctx, t.name, field, len(recs), err)
	}()

	typ, ok := t.fieldTypes[field]
	if !ok {
		return nil, &ErrUnknownField{Table: t.name, Field: field}
	}

	var o SearchOptions
	for _, fn := range optFns {
		fn(&o)
	}

	mode := search.Relative
	if o.Strict {
		mode = search.Strict
	}
	pred := search.NewPredicate(query, mode)

	rows, err := t.reg.db.SelectAll(ctx, t.name, []string{"id", field})
	if err != nil {
		return nil, err
	}

	candidates := search.NewIDSet()
	for _, vals := range rows {
		id, ok := vals[0].(int64)
		if !ok {
			continue
		}
		v := vals[1]
		if nv, ok := model.Normalize(v, typ); ok {
			v = nv
		}
		if pred(model.FormatValue(v)) {
			candidates.Add(model.ID(id))
		}
	}
	candidates.AndNot(search.NewIDSet(o.Exclude...))

	recs = make([]*model.Record, 0, candidates.Cardinality())
	for _, id := range candidates.IDs() {
		rec, err := t.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}
