// Package store implements the backing-store collaborator: a SQLite
// database accessed through database/sql with the pure-Go modernc.org
// driver.
//
// The contract is deliberately narrow: introspect a named relation's
// columns or report that it does not exist, execute parameterized
// statements, and commit mutations. Nothing here spans multiple relations
// in one transaction.
//
// Identifier safety: table and column names are interpolated into statement
// text (SQL cannot bind identifiers) and are therefore quoted here and
// validated upstream at schema-definition time. Every value is bound.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	_ "modernc.org/sqlite"
)

var (
	// ErrDatabaseNotFound is returned by Open when the database file does
	// not exist. Open never creates files; that is what Create is for.
	ErrDatabaseNotFound = errors.New("database not found")

	// ErrTableNotFound is returned when a named relation does not exist.
	ErrTableNotFound = errors.New("table not found")
)

// Column describes one column of a relation: its name and declared type.
type Column struct {
	Name     string
	DeclType string
}

// DB is a handle to one SQLite database file. A DB is shared by every
// table handle opened from the same root; Close releases the underlying
// connection pool.
type DB struct {
	sql  *sql.DB
	path string
}

// Open opens an existing database file. It fails with ErrDatabaseNotFound
// when the file is missing, to avoid silently creating a database in an
// erroneous location.
func Open(path string) (*DB, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrDatabaseNotFound, path)
		}
		return nil, err
	}
	return open(path)
}

// Create opens the database file at path, creating it if necessary.
func Create(path string) (*DB, error) {
	return open(path)
}

func open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &DB{sql: db, path: path}, nil
}

// Path returns the filesystem path of the database file.
func (d *DB) Path() string { return d.path }

// Close releases the connection pool.
func (d *DB) Close() error { return d.sql.Close() }

// quoteIdent quotes an identifier for interpolation into statement text.
// Names reaching this point already passed the schema identifier check;
// quoting guards against keyword collisions, not against injection.
func quoteIdent(name string) string {
	return `"` + name + `"`
}

func quoteIdents(names []string) []string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = quoteIdent(n)
	}
	return quoted
}

// TableColumns introspects the named relation. It fails with
// ErrTableNotFound when no such relation exists.
func (d *DB) TableColumns(ctx context.Context, table string) ([]Column, error) {
	rows, err := d.sql.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(table)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []Column
	for rows.Next() {
		var (
			cid      int
			col      Column
			notNull  int
			dfltVal  any
			pkColumn int
		)
		if err := rows.Scan(&cid, &col.Name, &col.DeclType, &notNull, &dfltVal, &pkColumn); err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("%w: %s in %s", ErrTableNotFound, table, d.path)
	}
	return cols, nil
}

// TableExists reports whether the named relation exists.
func (d *DB) TableExists(ctx context.Context, table string) (bool, error) {
	_, err := d.TableColumns(ctx, table)
	if errors.Is(err, ErrTableNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CreateTable creates a relation with an integer primary key column "id"
// followed by the given columns.
func (d *DB) CreateTable(ctx context.Context, table string, cols []Column) error {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %s (id INTEGER PRIMARY KEY NOT NULL", quoteIdent(table))
	for _, col := range cols {
		fmt.Fprintf(&b, ", %s %s", quoteIdent(col.Name), col.DeclType)
	}
	b.WriteString(")")

	_, err := d.sql.ExecContext(ctx, b.String())
	return err
}

// InsertRow inserts one row. cols and vals run in lockstep and include the
// id column.
func (d *DB) InsertRow(ctx context.Context, table string, cols []string, vals []any) error {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(vals)), ", ")
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(table), strings.Join(quoteIdents(cols), ", "), placeholders)

	_, err := d.sql.ExecContext(ctx, stmt, vals...)
	return err
}

// UpdateRow updates the non-id columns of the row at id.
func (d *DB) UpdateRow(ctx context.Context, table string, cols []string, vals []any, id int64) error {
	assignments := make([]string, len(cols))
	for i, col := range cols {
		assignments[i] = quoteIdent(col) + " = ?"
	}
	stmt := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?",
		quoteIdent(table), strings.Join(assignments, ", "))

	_, err := d.sql.ExecContext(ctx, stmt, append(vals, id)...)
	return err
}

// SelectRow fetches the listed columns of the row at id. The second return
// value reports whether the row exists.
func (d *DB) SelectRow(ctx context.Context, table string, cols []string, id int64) ([]any, bool, error) {
	stmt := fmt.Sprintf("SELECT %s FROM %s WHERE id = ?",
		strings.Join(quoteIdents(cols), ", "), quoteIdent(table))

	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}

	err := d.sql.QueryRowContext(ctx, stmt, id).Scan(ptrs...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return vals, true, nil
}

// SelectAll fetches the listed columns of every row except the metadata
// row, in whatever order the store yields.
func (d *DB) SelectAll(ctx context.Context, table string, cols []string) ([][]any, error) {
	stmt := fmt.Sprintf("SELECT %s FROM %s WHERE id != 0",
		strings.Join(quoteIdents(cols), ", "), quoteIdent(table))

	rows, err := d.sql.QueryContext(ctx, stmt)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out [][]any
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		out = append(out, vals)
	}
	return out, rows.Err()
}

// DeleteRow removes the row at id and reports whether a row was removed.
func (d *DB) DeleteRow(ctx context.Context, table string, id int64) (bool, error) {
	res, err := d.sql.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE id = ?", quoteIdent(table)), id)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// MaxID returns the largest id present in the table. The metadata row
// guarantees at least id 0.
func (d *DB) MaxID(ctx context.Context, table string) (int64, error) {
	var max sql.NullInt64
	err := d.sql.QueryRowContext(ctx,
		fmt.Sprintf("SELECT MAX(id) FROM %s", quoteIdent(table))).Scan(&max)
	if err != nil {
		return 0, err
	}
	return max.Int64, nil
}

// RowExists reports whether a row with the given id exists.
func (d *DB) RowExists(ctx context.Context, table string, id int64) (bool, error) {
	var one int
	err := d.sql.QueryRowContext(ctx,
		fmt.Sprintf("SELECT 1 FROM %s WHERE id = ?", quoteIdent(table)), id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CountRows returns the number of ordinary rows (id != 0).
func (d *DB) CountRows(ctx context.Context, table string) (int64, error) {
	var n int64
	err := d.sql.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE id != 0", quoteIdent(table))).Scan(&n)
	return n, err
}
