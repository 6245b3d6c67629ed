package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/recgo/testutil"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Create(testutil.DBPath(t))
	require.NoError(t, err)

	t.Cleanup(func() { _ = db.Close() })

	return db
}

func TestOpenMissing(t *testing.T) {
	_, err := Open("/nonexistent/dir/test.db")
	assert.ErrorIs(t, err, ErrDatabaseNotFound)
}

func TestCreateAndReopen(t *testing.T) {
	ctx := context.Background()
	path := testutil.DBPath(t)

	db, err := Create(path)
	require.NoError(t, err)

	require.NoError(t, db.CreateTable(ctx, "pets", []Column{
		{Name: "name", DeclType: "TEXT"},
	}))
	require.NoError(t, db.InsertRow(ctx, "pets", []string{"id", "name"}, []any{int64(0), ""}))
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()

	cols, err := db.TableColumns(ctx, "pets")
	require.NoError(t, err)
	assert.Equal(t, []Column{
		{Name: "id", DeclType: "INTEGER"},
		{Name: "name", DeclType: "TEXT"},
	}, cols)
}

func TestTableIntrospection(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	_, err := db.TableColumns(ctx, "missing")
	assert.ErrorIs(t, err, ErrTableNotFound)

	exists, err := db.TableExists(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, db.CreateTable(ctx, "pets", []Column{
		{Name: "name", DeclType: "TEXT"},
		{Name: "age", DeclType: "INTEGER"},
	}))

	exists, err = db.TableExists(ctx, "pets")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRowLifecycle(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	require.NoError(t, db.CreateTable(ctx, "pets", []Column{
		{Name: "name", DeclType: "TEXT"},
		{Name: "age", DeclType: "INTEGER"},
	}))

	cols := []string{"id", "name", "age"}

	t.Run("Insert", func(t *testing.T) {
		require.NoError(t, db.InsertRow(ctx, "pets", cols, []any{int64(1), "Rex", int64(3)}))

		vals, ok, err := db.SelectRow(ctx, "pets", cols, 1)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, int64(1), vals[0])
		assert.Equal(t, "Rex", vals[1])
		assert.Equal(t, int64(3), vals[2])
	})

	t.Run("Update", func(t *testing.T) {
		require.NoError(t, db.UpdateRow(ctx, "pets", []string{"name", "age"}, []any{"Rex", int64(4)}, 1))

		vals, ok, err := db.SelectRow(ctx, "pets", cols, 1)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, int64(4), vals[2])
	})

	t.Run("Exists", func(t *testing.T) {
		ok, err := db.RowExists(ctx, "pets", 1)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = db.RowExists(ctx, "pets", 99)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Delete", func(t *testing.T) {
		removed, err := db.DeleteRow(ctx, "pets", 1)
		require.NoError(t, err)
		assert.True(t, removed)

		removed, err = db.DeleteRow(ctx, "pets", 1)
		require.NoError(t, err)
		assert.False(t, removed)

		_, ok, err := db.SelectRow(ctx, "pets", cols, 1)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestSelectAllSkipsMetadataRow(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	require.NoError(t, db.CreateTable(ctx, "pets", []Column{
		{Name: "name", DeclType: "TEXT"},
	}))

	cols := []string{"id", "name"}
	require.NoError(t, db.InsertRow(ctx, "pets", cols, []any{int64(0), "meta"}))
	require.NoError(t, db.InsertRow(ctx, "pets", cols, []any{int64(1), "Rex"}))
	require.NoError(t, db.InsertRow(ctx, "pets", cols, []any{int64(2), "Mia"}))

	rows, err := db.SelectAll(ctx, "pets", cols)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	ids := []int64{rows[0][0].(int64), rows[1][0].(int64)}
	assert.ElementsMatch(t, []int64{1, 2}, ids)
}

func TestMaxIDAndCount(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	require.NoError(t, db.CreateTable(ctx, "pets", []Column{
		{Name: "name", DeclType: "TEXT"},
	}))

	max, err := db.MaxID(ctx, "pets")
	require.NoError(t, err)
	assert.Equal(t, int64(0), max)

	cols := []string{"id", "name"}
	require.NoError(t, db.InsertRow(ctx, "pets", cols, []any{int64(0), ""}))
	require.NoError(t, db.InsertRow(ctx, "pets", cols, []any{int64(7), "Rex"}))

	max, err = db.MaxID(ctx, "pets")
	require.NoError(t, err)
	assert.Equal(t, int64(7), max)

	n, err := db.CountRows(ctx, "pets")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestKeywordTableName(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	// "order" is a SQL keyword; quoting must keep it usable.
	require.NoError(t, db.CreateTable(ctx, "order", []Column{
		{Name: "name", DeclType: "TEXT"},
	}))
	require.NoError(t, db.InsertRow(ctx, "order", []string{"id", "name"}, []any{int64(1), "x"}))

	ok, err := db.RowExists(ctx, "order", 1)
	require.NoError(t, err)
	assert.True(t, ok)
}
