package recgo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/hupe1980/recgo/manifest"
	"github.com/hupe1980/recgo/model"
	"github.com/hupe1980/recgo/pk"
	"github.com/hupe1980/recgo/store"
)

// Table maps records of one logical table onto rows of the backing store.
// It owns the table's schema and id allocator and resolves child tables by
// name through a registry shared across the whole tree.
//
// A Table is not safe for concurrent use. Two independently-opened handles
// to the same table race on id allocation and manifest updates with no
// coordination; correctness under concurrent writers is out of scope.
type Table struct {
	name   string
	schema Schema

	fieldTypes map[string]model.PrimitiveType
	childSet   map[string]struct{}

	alloc *pk.Allocator
	reg   *registry
}

// registry shares one backing store handle and one set of options across
// every table handle of a tree, and memoizes handles by table name.
// Registration happens before a table's child schemas are loaded, so
// mutually-referencing tables resolve to the already-registered handle
// instead of recursing without bound.
type registry struct {
	db   *store.DB
	opts options

	tables map[string]*Table
}

func newRegistry(db *store.DB, opts options) *registry {
	return &registry{
		db:     db,
		opts:   opts,
		tables: make(map[string]*Table),
	}
}

// open loads the named table's schema from storage, recursively opening
// each declared child table.
func (r *registry) open(ctx context.Context, name string) (*Table, error) {
	if t, ok := r.tables[name]; ok {
		return t, nil
	}

	cols, err := r.db.TableColumns(ctx, name)
	if err != nil {
		return nil, err
	}

	schema := Schema{Name: name}
	for _, col := range cols {
		if col.Name == "id" || col.Name == manifestColumn {
			continue
		}
		typ, ok := model.ParsePrimitiveType(col.DeclType)
		if !ok {
			return nil, &ErrInvalidFieldType{Field: col.Name, DeclType: col.DeclType}
		}
		schema.Fields = append(schema.Fields, Field{Name: col.Name, Type: typ})
	}

	// The metadata row carries the declared child-table set.
	vals, ok, err := r.db.SelectRow(ctx, name, []string{manifestColumn}, 0)
	if err != nil {
		return nil, err
	}
	if ok {
		m, err := manifest.Decode(r.opts.codec, rawBytes(vals[0]))
		if err != nil {
			return nil, fmt.Errorf("table %s metadata row: %w", name, err)
		}
		schema.Children = m.ChildTables()
	}

	t := r.register(schema)
	for _, child := range schema.Children {
		if _, err := r.open(ctx, child); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (r *registry) register(schema Schema) *Table {
	schema = schema.normalized()

	t := &Table{
		name:       schema.Name,
		schema:     schema,
		fieldTypes: make(map[string]model.PrimitiveType, len(schema.Fields)),
		childSet:   make(map[string]struct{}, len(schema.Children)),
		alloc:      pk.New(r.db, schema.Name),
		reg:        r,
	}
	for _, f := range schema.Fields {
		t.fieldTypes[f.Name] = f.Type
	}
	for _, child := range schema.Children {
		t.childSet[child] = struct{}{}
	}

	r.tables[schema.Name] = t
	return t
}

// Open opens an existing table from the database at path. It fails with
// ErrDatabaseNotFound when the file is missing and ErrTableNotFound when
// the table is not in it. The schema is recovered from the relation's
// columns and the metadata row; declared child tables are opened
// recursively.
func Open(ctx context.Context, path, table string, optFns ...Option) (*Table, error) {
	o := applyOptions(optFns)

	db, err := store.Open(path)
	if err != nil {
		o.logger.LogOpen(ctx, table, err)
		return nil, err
	}

	reg := newRegistry(db, o)
	t, err := reg.open(ctx, table)
	o.logger.LogOpen(ctx, table, err)
	if err != nil {
		db.Close() //nolint:errcheck // open error takes precedence
		return nil, err
	}
	return t, nil
}

// Create opens the table declared by schema, materializing it first when it
// does not exist: a relation with an id column, one column per field and a
// manifest column, plus the id-0 metadata row recording the declared child
// tables. When the relation already exists the stored schema is
// authoritative and is recovered exactly as Open does.
//
// Child tables are not materialized; create them with their own Create
// calls before building records that reference them.
func Create(ctx context.Context, path string, schema Schema, optFns ...Option) (*Table, error) {
	o := applyOptions(optFns)

	if err := schema.validate(); err != nil {
		o.logger.LogOpen(ctx, schema.Name, err)
		return nil, err
	}

	db, err := store.Create(path)
	if err != nil {
		o.logger.LogOpen(ctx, schema.Name, err)
		return nil, err
	}

	reg := newRegistry(db, o)
	t, err := createTable(ctx, reg, schema)
	o.logger.LogOpen(ctx, schema.Name, err)
	if err != nil {
		db.Close() //nolint:errcheck
		return nil, err
	}
	return t, nil
}

func createTable(ctx context.Context, reg *registry, schema Schema) (*Table, error) {
	exists, err := reg.db.TableExists(ctx, schema.Name)
	if err != nil {
		return nil, err
	}
	if exists {
		return reg.open(ctx, schema.Name)
	}

	cols := make([]store.Column, 0, len(schema.Fields)+1)
	for _, f := range schema.Fields {
		cols = append(cols, store.Column{Name: f.Name, DeclType: f.Type.String()})
	}
	cols = append(cols, store.Column{Name: manifestColumn, DeclType: "TEXT"})

	if err := reg.db.CreateTable(ctx, schema.Name, cols); err != nil {
		return nil, err
	}

	meta, err := manifest.ForSchema(schema.Children).Encode(reg.opts.codec)
	if err != nil {
		return nil, err
	}
	if err := reg.db.InsertRow(ctx, schema.Name,
		[]string{"id", manifestColumn}, []any{int64(0), string(meta)}); err != nil {
		return nil, err
	}

	return reg.register(schema), nil
}

// Close releases the backing store connection shared by every handle of
// this table tree.
func (t *Table) Close() error {
	return t.reg.db.Close()
}

// Name returns the table name.
func (t *Table) Name() string { return t.name }

// Fields returns the declared fields in column order.
func (t *Table) Fields() []Field {
	fields := make([]Field, len(t.schema.Fields))
	copy(fields, t.schema.Fields)
	return fields
}

// ChildTables returns the declared child table names in sorted order.
func (t *Table) ChildTables() []string {
	children := make([]string, len(t.schema.Children))
	copy(children, t.schema.Children)
	return children
}

// Child returns the handle of a declared child table, opening it from
// storage on first use.
func (t *Table) Child(ctx context.Context, name string) (*Table, error) {
	if _, ok := t.childSet[name]; !ok {
		return nil, &ErrUnknownChildTable{Table: t.name, Child: name}
	}
	return t.reg.open(ctx, name)
}

// NextID allocates an id unused at call time. Ids are non-decreasing per
// handle; see the pk package for the cross-handle caveat.
func (t *Table) NextID(ctx context.Context) (model.ID, error) {
	return t.alloc.Next(ctx)
}

// Count returns the number of records in the table, excluding the metadata
// row.
func (t *Table) Count(ctx context.Context) (int64, error) {
	return t.reg.db.CountRows(ctx, t.name)
}

// columns returns the full column list of the relation in layout order:
// id, declared fields, manifest.
func (t *Table) columns() []string {
	cols := make([]string, 0, len(t.schema.Fields)+2)
	cols = append(cols, "id")
	for _, f := range t.schema.Fields {
		cols = append(cols, f.Name)
	}
	cols = append(cols, manifestColumn)
	return cols
}

// Save persists a record tree depth-first: the record's row is written
// before its children are saved through their own table handles, each
// child in turn through its whole subtree. Saving is an upsert keyed on the
// record id and is idempotent; every child in the tree is rewritten on
// every save, even if unchanged.
//
// A multi-row tree save is not atomic. A failure partway through leaves the
// already-written rows in place with no rollback; the caller owns any
// compensating action.
func (t *Table) Save(ctx context.Context, rec *model.Record) (err error) {
	start := time.Now()
	defer func() {
		t.reg.opts.metrics.RecordSave(time.Since(start), err)
	}()

	if err = t.Validate(ctx, rec); err != nil {
		t.reg.opts.logger.LogSave(ctx, t.name, recID(rec), err)
		return err
	}

	err = t.save(ctx, rec)
	t.reg.opts.logger.LogSave(ctx, t.name, rec.ID, err)
	return err
}

// save writes one validated record row and recurses into its children.
func (t *Table) save(ctx context.Context, rec *model.Record) error {
	data, err := manifest.FromRecord(rec).Encode(t.reg.opts.codec)
	if err != nil {
		return err
	}

	cols := make([]string, 0, len(t.schema.Fields)+1)
	vals := make([]any, 0, len(t.schema.Fields)+1)
	for _, f := range t.schema.Fields {
		v, _ := model.Normalize(rec.Fields[f.Name], f.Type)
		cols = append(cols, f.Name)
		vals = append(vals, v)
	}
	cols = append(cols, manifestColumn)
	vals = append(vals, string(data))

	exists, err := t.reg.db.RowExists(ctx, t.name, int64(rec.ID))
	if err != nil {
		return err
	}
	if exists {
		err = t.reg.db.UpdateRow(ctx, t.name, cols, vals, int64(rec.ID))
	} else {
		err = t.reg.db.InsertRow(ctx, t.name,
			append([]string{"id"}, cols...), append([]any{int64(rec.ID)}, vals...))
	}
	if err != nil {
		return err
	}

	for _, name := range sortedChildNames(rec.Children) {
		child, err := t.reg.open(ctx, name)
		if err != nil {
			return err
		}
		for _, crec := range rec.Children[name] {
			if err := child.Save(ctx, crec); err != nil {
				return err
			}
		}
	}
	return nil
}

// Get fetches the record at id and hydrates its full tree: the manifest is
// parsed and every referenced child is fetched recursively through its own
// table handle. It fails with *ErrRecordNotFound when the row is absent;
// id 0 is the metadata row and is never a record.
//
// A manifest entry pointing at a deleted child is skipped with a warning
// log; deletion is non-cascading, so dangling references are a legal state.
func (t *Table) Get(ctx context.Context, id model.ID) (rec *model.Record, err error) {
	start := time.Now()
	defer func() {
		t.reg.opts.metrics.RecordFetch(time.Since(start), err)
		t.reg.opts.logger.LogFetch(ctx, t.name, id, err)
	}()

	if id == 0 {
		return nil, &ErrRecordNotFound{Table: t.name, ID: id}
	}

	vals, ok, err := t.reg.db.SelectRow(ctx, t.name, t.columns(), int64(id))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &ErrRecordNotFound{Table: t.name, ID: id}
	}

	rec, m, err := t.decodeRow(vals)
	if err != nil {
		return nil, err
	}
	if err = t.hydrate(ctx, rec, m); err != nil {
		return nil, err
	}
	return rec, nil
}

// FetchAll fetches and hydrates every record of the table, in whatever
// order the backing store yields.
func (t *Table) FetchAll(ctx context.Context) (recs []*model.Record, err error) {
	start := time.Now()
	defer func() {
		t.reg.opts.metrics.RecordFetch(time.Since(start), err)
	}()

	rows, err := t.reg.db.SelectAll(ctx, t.name, t.columns())
	if err != nil {
		return nil, err
	}

	recs = make([]*model.Record, 0, len(rows))
	for _, vals := range rows {
		rec, m, err := t.decodeRow(vals)
		if err != nil {
			return nil, err
		}
		if err := t.hydrate(ctx, rec, m); err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// Delete removes exactly the row at id from this table. Children it
// references are untouched and manifests of referring parents are not
// cleaned up; the resulting dangling references are intentional
// (see Get). It fails with *ErrRecordNotFound when no row exists at id and
// with ErrReservedID for the metadata row.
func (t *Table) Delete(ctx context.Context, id model.ID) (err error) {
	start := time.Now()
	defer func() {
		t.reg.opts.metrics.RecordDelete(time.Since(start), err)
		t.reg.opts.logger.LogDelete(ctx, t.name, id, err)
	}()

	if id == 0 {
		return ErrReservedID
	}

	removed, err := t.reg.db.DeleteRow(ctx, t.name, int64(id))
	if err != nil {
		return err
	}
	if !removed {
		return &ErrRecordNotFound{Table: t.name, ID: id}
	}
	return nil
}

// decodeRow reconstructs a record's id and field mapping from a row and
// parses its manifest. Children are not resolved here; see hydrate.
func (t *Table) decodeRow(vals []any) (*model.Record, manifest.Manifest, error) {
	rec := &model.Record{
		Fields: make(map[string]any, len(t.schema.Fields)),
	}

	if id, ok := vals[0].(int64); ok {
		rec.ID = model.ID(id)
	}

	for i, f := range t.schema.Fields {
		v := vals[i+1]
		if nv, ok := model.Normalize(v, f.Type); ok {
			v = nv
		}
		rec.Fields[f.Name] = v
	}

	m, err := manifest.Decode(t.reg.opts.codec, rawBytes(vals[len(vals)-1]))
	if err != nil {
		return nil, nil, fmt.Errorf("row %d in %s: %w", rec.ID, t.name, err)
	}
	return rec, m, nil
}

// hydrate assembles rec.Children from the manifest, fetching every
// referenced child recursively. Declared groups are present even when
// empty.
func (t *Table) hydrate(ctx context.Context, rec *model.Record, m manifest.Manifest) error {
	rec.Children = make(map[string][]*model.Record, len(t.schema.Children))
	for _, name := range t.schema.Children {
		rec.Children[name] = []*model.Record{}
	}

	for _, name := range m.ChildTables() {
		refs := m[name]
		if len(refs) == 0 {
			continue
		}

		child, err := t.reg.open(ctx, name)
		if err != nil {
			return err
		}

		group := make([]*model.Record, 0, len(refs))
		for _, id := range refs {
			crec, err := child.Get(ctx, id)
			if err != nil {
				var notFound *ErrRecordNotFound
				if errors.As(err, &notFound) {
					t.reg.opts.logger.WarnContext(ctx, "skipping dangling child reference",
						"table", t.name,
						"child_table", name,
						"child_id", int64(id),
					)
					continue
				}
				return err
			}
			group = append(group, crec)
		}
		rec.Children[name] = group
	}
	return nil
}

func sortedChildNames(children map[string][]*model.Record) []string {
	names := make([]string, 0, len(children))
	for name := range children {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// rawBytes converts a scanned manifest column value to bytes regardless of
// whether the driver yielded string or []byte.
func rawBytes(v any) []byte {
	switch val := v.(type) {
	case []byte:
		return val
	case string:
		return []byte(val)
	default:
		return nil
	}
}

func recID(rec *model.Record) model.ID {
	if rec == nil {
		return 0
	}
	return rec.ID
}
