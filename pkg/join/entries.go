package join

import (
	"github.com/loom-engine/loom/pkg/bitset"
	"github.com/loom-engine/loom/pkg/storage"
)

// Entries adapts a Storage into a Source yielding a StorageEntry per
// visited id instead of the component value directly, so a join can
// insert-or-mutate a component for every entity matched by the rest of
// the join without a second Get+Insert round trip. Its own mask is
// universal: an Entries participant never narrows the join by itself,
// since the whole point is to visit ids the storage does not yet hold
// a value for.
func Entries[T any](s *storage.Storage[T]) Source[storage.StorageEntry[T]] {
	return entriesSource[T]{s: s}
}

type entriesSource[T any] struct {
	s *storage.Storage[T]
}

func (e entriesSource[T]) Mask() bitset.Like { return bitset.Universal{} }

func (e entriesSource[T]) Fetch(id Index) storage.StorageEntry[T] {
	return e.s.EntryByIndex(id)
}
