package pk

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/recgo/model"
)

// fakeStore answers allocator probes from an in-memory id set.
type fakeStore struct {
	ids map[int64]bool
	err error
}

func (f *fakeStore) MaxID(_ context.Context, _ string) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	var max int64
	for id := range f.ids {
		if id > max {
			max = id
		}
	}
	return max, nil
}

func (f *fakeStore) RowExists(_ context.Context, _ string, id int64) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.ids[id], nil
}

func TestAllocatorNext(t *testing.T) {
	ctx := context.Background()

	t.Run("EmptyTable", func(t *testing.T) {
		a := New(&fakeStore{ids: map[int64]bool{0: true}}, "pets")

		id, err := a.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, model.ID(1), id)
	})

	t.Run("AdoptsStoreMax", func(t *testing.T) {
		a := New(&fakeStore{ids: map[int64]bool{0: true, 7: true}}, "pets")

		id, err := a.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, model.ID(8), id)
	})

	t.Run("MonotonicWithoutPersisting", func(t *testing.T) {
		// Ids handed out but not yet saved must not repeat.
		store := &fakeStore{ids: map[int64]bool{0: true}}
		a := New(store, "pets")

		first, err := a.Next(ctx)
		require.NoError(t, err)
		second, err := a.Next(ctx)
		require.NoError(t, err)

		assert.Equal(t, model.ID(1), first)
		assert.Equal(t, model.ID(2), second)
	})

	t.Run("SkipsPastOccupiedIds", func(t *testing.T) {
		store := &fakeStore{ids: map[int64]bool{0: true}}
		a := New(store, "pets")

		id, err := a.Next(ctx)
		require.NoError(t, err)
		require.Equal(t, model.ID(1), id)

		// Rows appear behind this handle's back while id 1 is still
		// unsaved; the next call must not hand out either of them.
		store.ids[2] = true
		store.ids[3] = true

		id, err = a.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, model.ID(4), id)
	})

	t.Run("StoreError", func(t *testing.T) {
		wantErr := errors.New("boom")
		a := New(&fakeStore{err: wantErr}, "pets")

		_, err := a.Next(ctx)
		assert.ErrorIs(t, err, wantErr)
	})
}
