package search

import (
	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/hupe1980/recgo/model"
)

// IDSet is a set of record ids backed by a 64-bit Roaring Bitmap.
// It wraps the official roaring implementation.
type IDSet struct {
	rb *roaring64.Bitmap
}

// NewIDSet creates a set containing the given ids. Ids are non-negative,
// so the int64 -> uint64 mapping is lossless.
func NewIDSet(ids ...model.ID) *IDSet {
	s := &IDSet{rb: roaring64.New()}
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add adds an id to the set.
func (s *IDSet) Add(id model.ID) {
	s.rb.Add(uint64(id))
}

// Contains checks if an id is in the set.
func (s *IDSet) Contains(id model.ID) bool {
	return s.rb.Contains(uint64(id))
}

// AndNot removes every id of other from the set.
func (s *IDSet) AndNot(other *IDSet) {
	s.rb.AndNot(other.rb)
}

// IsEmpty returns true if the set is empty.
func (s *IDSet) IsEmpty() bool {
	return s.rb.IsEmpty()
}

// Cardinality returns the number of ids in the set.
func (s *IDSet) Cardinality() int {
	return int(s.rb.GetCardinality())
}

// IDs returns the ids in ascending order.
func (s *IDSet) IDs() []model.ID {
	out := make([]model.ID, 0, s.rb.GetCardinality())
	it := s.rb.Iterator()
	for it.HasNext() {
		out = append(out, model.ID(it.Next()))
	}
	return out
}
