// Package manifest implements the per-row reference manifest: the persisted
// mapping from child table name to the ordered list of child record ids a
// row currently references.
//
// The manifest is a side channel, not an owning container. Child records
// are stored independently in their own tables; a manifest entry is a
// reference that may dangle after a child is deleted.
//
// Row id 0 of every table holds a special manifest listing the table's
// declared child tables with empty id lists. It is written once when the
// table is materialized and read back to recover the declared child set
// whenever the table is reopened from storage.
package manifest

import (
	"fmt"
	"sort"

	"github.com/hupe1980/recgo/codec"
	"github.com/hupe1980/recgo/model"
)

// Manifest maps a child table name to the ordered ids referenced from one
// row.
type Manifest map[string]model.RefList

// FromRecord builds the manifest of a record from its child groups,
// emitting ids only. Empty groups are kept as empty lists so the declared
// child set survives the round trip.
func FromRecord(rec *model.Record) Manifest {
	m := make(Manifest, len(rec.Children))
	for name := range rec.Children {
		m[name] = rec.Refs(name)
	}
	return m
}

// ForSchema builds the metadata-row manifest for a table declaring the
// given child tables: every name present, every list empty.
func ForSchema(childTables []string) Manifest {
	m := make(Manifest, len(childTables))
	for _, name := range childTables {
		m[name] = model.RefList{}
	}
	return m
}

// ChildTables returns the declared child table names in sorted order.
func (m Manifest) ChildTables() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Encode serializes the manifest with c. A nil RefList encodes as an empty
// list, never as null.
func (m Manifest) Encode(c codec.Codec) ([]byte, error) {
	if c == nil {
		c = codec.Default
	}
	norm := make(map[string]model.RefList, len(m))
	for name, refs := range m {
		if refs == nil {
			refs = model.RefList{}
		}
		norm[name] = refs
	}
	data, err := c.Marshal(norm)
	if err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	return data, nil
}

// Decode parses manifest bytes read back from a row. Malformed content is a
// backing-store-level failure and propagates to the caller.
func Decode(c codec.Codec, data []byte) (Manifest, error) {
	if c == nil {
		c = codec.Default
	}
	var m Manifest
	if err := c.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	if m == nil {
		m = Manifest{}
	}
	for name, refs := range m {
		if refs == nil {
			m[name] = model.RefList{}
		}
	}
	return m, nil
}
