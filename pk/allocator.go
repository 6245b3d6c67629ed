// Package pk allocates record ids for one table handle.
//
// Ids are locally monotonic: an Allocator never repeats a value it already
// handed out and never hands out a value present as a row id at call time.
// They are NOT globally unique across independently-opened handles to the
// same table; there is no cross-process locking. Two handles racing on the
// same table can allocate the same id. This is a documented limitation of
// the single-writer model, not a bug.
package pk

import (
	"context"

	"github.com/hupe1980/recgo/model"
)

// Store is the minimal probe surface the allocator needs from the backing
// store.
type Store interface {
	// MaxID returns the largest row id currently in the table.
	MaxID(ctx context.Context, table string) (int64, error)
	// RowExists reports whether a row with the given id exists.
	RowExists(ctx context.Context, table string, id int64) (bool, error)
}

// Allocator produces unused, non-decreasing ids for one table. It is owned
// by a single table handle and mutated only through Next; it is not safe
// for concurrent use.
type Allocator struct {
	store Store
	table string

	// next is the local high-water mark: the smallest id this handle may
	// hand out. It starts at 1 because id 0 is the metadata row; the first
	// Next call adopts the store's maximum.
	next model.ID
}

// New creates an allocator for the named table.
func New(store Store, table string) *Allocator {
	return &Allocator{
		store: store,
		table: table,
		next:  1,
	}
}

// Next returns an id unused at call time.
//
// The store's current maximum is compared against the local high-water
// mark. If the store is at or ahead of the cache, the cache adopts the
// maximum and advances past it. If the cache is ahead (ids allocated but
// not yet persisted), the cached id is probed: absent means it is free,
// present means the cache advances and the probe repeats.
func (a *Allocator) Next(ctx context.Context) (model.ID, error) {
	max, err := a.store.MaxID(ctx, a.table)
	if err != nil {
		return 0, err
	}
	if model.ID(max) >= a.next {
		a.next = model.ID(max) + 1
	}

	for {
		exists, err := a.store.RowExists(ctx, a.table, int64(a.next))
		if err != nil {
			return 0, err
		}
		if !exists {
			id := a.next
			a.next++
			return id, nil
		}
		a.next++
	}
}
