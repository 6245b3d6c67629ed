package recgo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/recgo/model"
	"github.com/hupe1980/recgo/testutil"
)

func petSchema() Schema {
	return Schema{
		Name: "pets",
		Fields: []Field{
			{Name: "name", Type: model.Text},
			{Name: "age", Type: model.Integer},
		},
		Children: []string{"toys"},
	}
}

func toySchema() Schema {
	return Schema{
		Name: "toys",
		Fields: []Field{
			{Name: "name", Type: model.Text},
		},
	}
}

// newPetTable materializes the toys and pets tables in a fresh database and
// returns the pets handle.
func newPetTable(t *testing.T, optFns ...Option) *Table {
	t.Helper()
	ctx := context.Background()
	path := testutil.DBPath(t)

	toys, err := Create(ctx, path, toySchema())
	require.NoError(t, err)
	require.NoError(t, toys.Close())

	pets, err := Create(ctx, path, petSchema(), optFns...)
	require.NoError(t, err)

	t.Cleanup(func() { _ = pets.Close() })

	return pets
}

func TestOpenErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("MissingDatabase", func(t *testing.T) {
		_, err := Open(ctx, "/nonexistent/dir/test.db", "pets")
		assert.ErrorIs(t, err, ErrDatabaseNotFound)
	})

	t.Run("MissingTable", func(t *testing.T) {
		pets := newPetTable(t)

		_, err := Open(ctx, pets.reg.db.Path(), "owners")
		assert.ErrorIs(t, err, ErrTableNotFound)
	})
}

func TestCreateRejectsInvalidSchema(t *testing.T) {
	ctx := context.Background()

	_, err := Create(ctx, testutil.DBPath(t), Schema{Name: "bad name"})

	var invalid *ErrInvalidIdentifier
	assert.ErrorAs(t, err, &invalid)
}

func TestPetLifecycle(t *testing.T) {
	ctx := context.Background()
	pets := newPetTable(t)

	rec, err := pets.Build(ctx, map[string]any{"name": "Rex", "age": 3}, nil)
	require.NoError(t, err)

	assert.Equal(t, model.ID(1), rec.ID)
	assert.Equal(t, "Rex", rec.Fields["name"])
	assert.Equal(t, int64(3), rec.Fields["age"])
	assert.Equal(t, []*model.Record{}, rec.Children["toys"])

	require.NoError(t, pets.Save(ctx, rec))

	got, err := pets.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	require.NoError(t, pets.Delete(ctx, rec.ID))

	_, err = pets.Get(ctx, rec.ID)
	var notFound *ErrRecordNotFound
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "pets", notFound.Table)
	assert.Equal(t, rec.ID, notFound.ID)
}

func TestRoundTripAllTypes(t *testing.T) {
	ctx := context.Background()
	path := testutil.DBPath(t)

	table, err := Create(ctx, path, Schema{
		Name: "samples",
		Fields: []Field{
			{Name: "count", Type: model.Integer},
			{Name: "ratio", Type: model.Real},
			{Name: "label", Type: model.Text},
			{Name: "payload", Type: model.Blob},
		},
	})
	require.NoError(t, err)
	defer table.Close()

	rec, err := table.Build(ctx, map[string]any{
		"count":   42,
		"ratio":   2.5,
		"label":   "sample one",
		"payload": []byte{0x01, 0x02, 0xFF},
	}, nil)
	require.NoError(t, err)
	require.NoError(t, table.Save(ctx, rec))

	got, err := table.Get(ctx, rec.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(42), got.Fields["count"])
	assert.Equal(t, float64(2.5), got.Fields["ratio"])
	assert.Equal(t, "sample one", got.Fields["label"])
	assert.Equal(t, []byte{0x01, 0x02, 0xFF}, got.Fields["payload"])
	assert.Equal(t, rec, got)
}

func TestSaveTree(t *testing.T) {
	ctx := context.Background()
	pets := newPetTable(t)

	toys, err := pets.Child(ctx, "toys")
	require.NoError(t, err)

	ball, err := toys.Build(ctx, map[string]any{"name": "ball"}, nil)
	require.NoError(t, err)
	rope, err := toys.Build(ctx, map[string]any{"name": "rope"}, nil)
	require.NoError(t, err)

	rex, err := pets.Build(ctx, map[string]any{"name": "Rex", "age": 3},
		map[string][]*model.Record{"toys": {ball, rope}})
	require.NoError(t, err)

	// One save persists the whole tree.
	require.NoError(t, pets.Save(ctx, rex))

	got, err := pets.Get(ctx, rex.ID)
	require.NoError(t, err)
	require.Len(t, got.Children["toys"], 2)
	assert.Equal(t, "ball", got.Children["toys"][0].Fields["name"])
	assert.Equal(t, "rope", got.Children["toys"][1].Fields["name"])

	// Children are reachable through their own table too.
	gotBall, err := toys.Get(ctx, ball.ID)
	require.NoError(t, err)
	assert.Equal(t, ball, gotBall)
}

func TestSaveUpdatesInPlace(t *testing.T) {
	ctx := context.Background()
	pets := newPetTable(t)

	rec, err := pets.Build(ctx, map[string]any{"name": "Rex", "age": 3}, nil)
	require.NoError(t, err)
	require.NoError(t, pets.Save(ctx, rec))

	rec.Fields["age"] = int64(4)
	require.NoError(t, pets.Save(ctx, rec))

	got, err := pets.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), got.Fields["age"])

	n, err := pets.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestSaveRejectsInvalidRecord(t *testing.T) {
	ctx := context.Background()
	pets := newPetTable(t)

	err := pets.Save(ctx, &model.Record{
		ID:       1,
		Fields:   map[string]any{"name": "Rex", "age": "three"},
		Children: map[string][]*model.Record{"toys": {}},
	})

	var invalid *ErrInvalidRecord
	require.ErrorAs(t, err, &invalid)

	// Nothing was written.
	n, err := pets.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestIDAllocation(t *testing.T) {
	ctx := context.Background()
	pets := newPetTable(t)

	// Ids stay distinct even before anything is saved.
	first, err := pets.Build(ctx, map[string]any{"name": "Rex", "age": 3}, nil)
	require.NoError(t, err)
	second, err := pets.Build(ctx, map[string]any{"name": "Mia", "age": 5}, nil)
	require.NoError(t, err)

	assert.Equal(t, model.ID(1), first.ID)
	assert.Equal(t, model.ID(2), second.ID)

	require.NoError(t, pets.Save(ctx, second))

	id, err := pets.NextID(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.ID(3), id)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	pets := newPetTable(t)

	t.Run("Absent", func(t *testing.T) {
		err := pets.Delete(ctx, 42)

		var notFound *ErrRecordNotFound
		assert.ErrorAs(t, err, &notFound)
	})

	t.Run("MetadataRow", func(t *testing.T) {
		assert.ErrorIs(t, pets.Delete(ctx, 0), ErrReservedID)
	})

	t.Run("NonCascading", func(t *testing.T) {
		toys, err := pets.Child(ctx, "toys")
		require.NoError(t, err)

		ball, err := toys.Build(ctx, map[string]any{"name": "ball"}, nil)
		require.NoError(t, err)
		rex, err := pets.Build(ctx, map[string]any{"name": "Rex", "age": 3},
			map[string][]*model.Record{"toys": {ball}})
		require.NoError(t, err)
		require.NoError(t, pets.Save(ctx, rex))

		require.NoError(t, pets.Delete(ctx, rex.ID))

		// The child row survives its parent.
		got, err := toys.Get(ctx, ball.ID)
		require.NoError(t, err)
		assert.Equal(t, "ball", got.Fields["name"])
	})
}

func TestGetSkipsDanglingChildReference(t *testing.T) {
	ctx := context.Background()
	pets := newPetTable(t)

	toys, err := pets.Child(ctx, "toys")
	require.NoError(t, err)

	ball, err := toys.Build(ctx, map[string]any{"name": "ball"}, nil)
	require.NoError(t, err)
	rope, err := toys.Build(ctx, map[string]any{"name": "rope"}, nil)
	require.NoError(t, err)
	rex, err := pets.Build(ctx, map[string]any{"name": "Rex", "age": 3},
		map[string][]*model.Record{"toys": {ball, rope}})
	require.NoError(t, err)
	require.NoError(t, pets.Save(ctx, rex))

	// Delete one child directly; the parent's manifest still lists it.
	require.NoError(t, toys.Delete(ctx, ball.ID))

	got, err := pets.Get(ctx, rex.ID)
	require.NoError(t, err)
	require.Len(t, got.Children["toys"], 1)
	assert.Equal(t, "rope", got.Children["toys"][0].Fields["name"])
}

func TestGetMetadataRow(t *testing.T) {
	ctx := context.Background()
	pets := newPetTable(t)

	_, err := pets.Get(ctx, 0)

	var notFound *ErrRecordNotFound
	assert.ErrorAs(t, err, &notFound)
}

func TestFetchAll(t *testing.T) {
	ctx := context.Background()
	pets := newPetTable(t)

	for _, name := range []string{"Rex", "Mia", "Ivy"} {
		rec, err := pets.Build(ctx, map[string]any{"name": name, "age": 1}, nil)
		require.NoError(t, err)
		require.NoError(t, pets.Save(ctx, rec))
	}

	recs, err := pets.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 3)

	names := make([]string, len(recs))
	for i, rec := range recs {
		names[i] = rec.Fields["name"].(string)
	}
	assert.ElementsMatch(t, []string{"Rex", "Mia", "Ivy"}, names)
}

func TestReopenRecoversSchema(t *testing.T) {
	ctx := context.Background()
	path := testutil.DBPath(t)

	toys, err := Create(ctx, path, toySchema())
	require.NoError(t, err)
	require.NoError(t, toys.Close())

	pets, err := Create(ctx, path, petSchema())
	require.NoError(t, err)

	rec, err := pets.Build(ctx, map[string]any{"name": "Rex", "age": 3}, nil)
	require.NoError(t, err)
	require.NoError(t, pets.Save(ctx, rec))
	require.NoError(t, pets.Close())

	reopened, err := Open(ctx, path, "pets")
	require.NoError(t, err)
	defer reopened.Close()

	assert.Equal(t, petSchema().Fields, reopened.Fields())
	assert.Equal(t, []string{"toys"}, reopened.ChildTables())

	got, err := reopened.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestCreateExistingTableRecoversStoredSchema(t *testing.T) {
	ctx := context.Background()
	pets := newPetTable(t)

	// A second Create against the existing relation ignores the passed
	// fields; the stored schema is authoritative.
	other, err := Create(ctx, pets.reg.db.Path(), Schema{
		Name:   "pets",
		Fields: []Field{{Name: "color", Type: model.Text}},
	})
	require.NoError(t, err)
	defer other.Close()

	assert.Equal(t, petSchema().Fields, other.Fields())
}

func TestChild(t *testing.T) {
	ctx := context.Background()
	pets := newPetTable(t)

	toys, err := pets.Child(ctx, "toys")
	require.NoError(t, err)
	assert.Equal(t, "toys", toys.Name())

	// Resolution is memoized per tree.
	again, err := pets.Child(ctx, "toys")
	require.NoError(t, err)
	assert.Same(t, toys, again)

	_, err = pets.Child(ctx, "collars")
	var unknown *ErrUnknownChildTable
	assert.ErrorAs(t, err, &unknown)
}

func TestMutuallyReferencingTables(t *testing.T) {
	ctx := context.Background()
	path := testutil.DBPath(t)

	a, err := Create(ctx, path, Schema{
		Name:     "alpha",
		Fields:   []Field{{Name: "label", Type: model.Text}},
		Children: []string{"beta"},
	})
	require.NoError(t, err)
	require.NoError(t, a.Close())

	b, err := Create(ctx, path, Schema{
		Name:     "beta",
		Fields:   []Field{{Name: "label", Type: model.Text}},
		Children: []string{"alpha"},
	})
	require.NoError(t, err)
	require.NoError(t, b.Close())

	// Opening either table must terminate despite the reference cycle.
	alpha, err := Open(ctx, path, "alpha")
	require.NoError(t, err)
	defer alpha.Close()

	assert.Equal(t, []string{"beta"}, alpha.ChildTables())

	beta, err := alpha.Child(ctx, "beta")
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha"}, beta.ChildTables())
}
