// Package recgo maps hierarchical record documents onto rows of a flat
// SQLite table and back, letting an application persist tree-shaped data
// without adopting a document database.
//
// A record is an id, typed scalar fields (Integer, Real, Text, Blob) and
// named groups of child records. Each logical table stores its records as
// rows; child records live in their own tables and are referenced from the
// parent row's manifest by id. References do not own: deleting a child
// never cascades, and a parent manifest may legally point at ids that no
// longer exist.
//
// # Quick Start
//
// Create a table and persist a record tree:
//
//	ctx := context.Background()
//
//	pets, err := recgo.Create(ctx, "petclub.db", recgo.Schema{
//	    Name: "Pet",
//	    Fields: []recgo.Field{
//	        {Name: "name", Type: model.Text},
//	        {Name: "age", Type: model.Integer},
//	    },
//	})
//	if err != nil {
//	    panic(err)
//	}
//	defer pets.Close()
//
//	rex, err := pets.Build(ctx, map[string]any{"name": "Rex", "age": 3}, nil)
//	if err != nil {
//	    panic(err)
//	}
//	if err := pets.Save(ctx, rex); err != nil {
//	    panic(err)
//	}
//
//	got, err := pets.Get(ctx, rex.ID)
//
// Search by substring, phrase or exact match:
//
//	matches, err := pets.Search(ctx, "name", `"Re" x`)
//	exact, err := pets.Search(ctx, "name", "Rex", func(o *recgo.SearchOptions) {
//	    o.Strict = true
//	})
//
// Tables declaring child tables reference records stored elsewhere:
//
//	owners, err := recgo.Create(ctx, "petclub.db", recgo.Schema{
//	    Name:     "Owner",
//	    Fields:   []recgo.Field{{Name: "name", Type: model.Text}},
//	    Children: []string{"Pet"},
//	})
//	ann, err := owners.Build(ctx,
//	    map[string]any{"name": "Ann"},
//	    map[string][]*model.Record{"Pet": {rex}},
//	)
//	err = owners.Save(ctx, ann) // writes Ann, then re-saves Rex
//
// # Concurrency
//
// Operations are synchronous and single-threaded: a Table handle is not
// safe for concurrent use, a multi-row tree save is not atomic, and two
// independently-opened handles to the same table race on id allocation
// with no coordination. Failed saves leave already-written rows in place;
// there are no internal retries and no rollback.
package recgo
