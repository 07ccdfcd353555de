// Package storage provides the typed component backends, the bitset-masked
// wrapper that tracks which entities carry a value, and the safe
// read/write facade the world hands out to systems.
package storage

import (
	"github.com/google/btree"

	"github.com/loom-engine/loom/pkg/bitset"
)

// Index is the entity slot a component value is attached to.
type Index = bitset.Index

// Backend is the unprotected, per-type component store. Every method
// assumes the caller has already checked the owning MaskedStorage's mask:
// a Backend on its own does not know which indices hold a value, and
// Get/Remove on an absent index is undefined (concretely: it either
// panics or returns a zero value, backend-dependent).
type Backend[T any] interface {
	// Get returns a pointer to the stored value, usable for both read
	// and in-place mutation.
	Get(id Index) *T
	// Insert stores v at id, overwriting any previous value.
	Insert(id Index, v T)
	// Remove deletes and returns the value at id.
	Remove(id Index) T
	// Clean is called when the owning mask is about to be cleared; has
	// reports whether a given index is actually present, since sparse
	// backends may hold stale entries for previously-removed indices.
	Clean(has func(Index) bool)
}

// DenseStorage is a slice-backed Backend indexed directly by Index. It is
// the default choice for components most entities carry: O(1) access, no
// hashing, but memory proportional to the highest index ever inserted.
type DenseStorage[T any] struct {
	data []T
}

// NewDenseStorage returns an empty DenseStorage.
func NewDenseStorage[T any]() *DenseStorage[T] { return &DenseStorage[T]{} }

func (s *DenseStorage[T]) Get(id Index) *T { return &s.data[id] }

func (s *DenseStorage[T]) Insert(id Index, v T) {
	if int(id) >= len(s.data) {
		grown := make([]T, int(id)+1)
		copy(grown, s.data)
		s.data = grown
	}
	s.data[id] = v
}

func (s *DenseStorage[T]) Remove(id Index) T {
	v := s.data[id]
	var zero T
	s.data[id] = zero
	return v
}

func (s *DenseStorage[T]) Clean(func(Index) bool) {
	s.data = s.data[:0]
}

// SparseDenseStorage keeps component values in a dense, swap-remove-backed
// slice while redirecting from sparse entity indices through a parallel
// "data id" slice. It suits components that are moderately common but
// benefit from tight iteration over a packed slice rather than one slot
// per possible index: population density sits between DenseStorage (one
// slot per index, however high) and HashMapStorage (no wasted slots, but
// hashed access). The caller's owning mask is always consulted before
// Get/Remove, so a stale redirect entry for a previously-removed index is
// never read.
type SparseDenseStorage[T any] struct {
	data     []T
	entityID []Index
	dataID   []Index
}

// NewSparseDenseStorage returns an empty SparseDenseStorage.
func NewSparseDenseStorage[T any]() *SparseDenseStorage[T] {
	return &SparseDenseStorage[T]{}
}

func (s *SparseDenseStorage[T]) Get(id Index) *T {
	return &s.data[s.dataID[id]]
}

func (s *SparseDenseStorage[T]) Insert(id Index, v T) {
	if int(id) >= len(s.dataID) {
		grown := make([]Index, int(id)+1)
		copy(grown, s.dataID)
		s.dataID = grown
	}
	s.dataID[id] = Index(len(s.data))
	s.entityID = append(s.entityID, id)
	s.data = append(s.data, v)
}

// Remove swap-removes the dense slot at id, patching the redirect entry of
// whichever entity used to occupy the slot that moved into its place.
func (s *SparseDenseStorage[T]) Remove(id Index) T {
	did := s.dataID[id]
	last := len(s.entityID) - 1
	movedEntity := s.entityID[last]
	s.dataID[movedEntity] = did

	s.entityID[did] = movedEntity
	s.entityID = s.entityID[:last]

	v := s.data[did]
	s.data[did] = s.data[last]
	s.data = s.data[:last]
	return v
}

func (s *SparseDenseStorage[T]) Clean(func(Index) bool) {
	s.data = s.data[:0]
	s.entityID = s.entityID[:0]
	s.dataID = s.dataID[:0]
}

// HashMapStorage is a map-backed Backend. Best suited to components only a
// few entities ever carry, where a dense slice would waste memory sized to
// the highest index in the whole world.
type HashMapStorage[T any] struct {
	data map[Index]*T
}

// NewHashMapStorage returns an empty HashMapStorage.
func NewHashMapStorage[T any]() *HashMapStorage[T] {
	return &HashMapStorage[T]{data: make(map[Index]*T)}
}

func (s *HashMapStorage[T]) Get(id Index) *T { return s.data[id] }

func (s *HashMapStorage[T]) Insert(id Index, v T) { s.data[id] = &v }

func (s *HashMapStorage[T]) Remove(id Index) T {
	v := s.data[id]
	delete(s.data, id)
	return *v
}

func (s *HashMapStorage[T]) Clean(func(Index) bool) {
	s.data = make(map[Index]*T)
}

// btreeItem adapts an (Index, T) pair to btree.Item ordering by Index. It
// holds a pointer rather than a value so that a Get result stays a stable
// handle into the tree across further inserts elsewhere in the tree.
type btreeItem[T any] struct {
	id Index
	v  *T
}

func (i btreeItem[T]) Less(than btree.Item) bool {
	return i.id < than.(btreeItem[T]).id
}

// BTreeStorage is a google/btree-backed Backend. It trades DenseStorage's
// raw access speed for ordered, memory-proportional-to-population storage,
// which suits components with a sparse but range-scanned population (e.g.
// spatial partitioning keys).
type BTreeStorage[T any] struct {
	tree *btree.BTree
}

// NewBTreeStorage returns an empty BTreeStorage with the given node degree.
func NewBTreeStorage[T any](degree int) *BTreeStorage[T] {
	return &BTreeStorage[T]{tree: btree.New(degree)}
}

func (s *BTreeStorage[T]) Get(id Index) *T {
	item := s.tree.Get(btreeItem[T]{id: id})
	return item.(btreeItem[T]).v
}

func (s *BTreeStorage[T]) Insert(id Index, v T) {
	s.tree.ReplaceOrInsert(btreeItem[T]{id: id, v: &v})
}

func (s *BTreeStorage[T]) Remove(id Index) T {
	item := s.tree.Delete(btreeItem[T]{id: id})
	return *item.(btreeItem[T]).v
}

func (s *BTreeStorage[T]) Clean(func(Index) bool) {
	s.tree.Clear(false)
}

// NullStorage is a zero-size Backend for marker components: every present
// index shares the single zero value, and mutation is refused. The mask
// alone carries all the information the component has.
type NullStorage[T any] struct {
	zero T
}

// NewNullStorage returns a NullStorage.
func NewNullStorage[T any]() *NullStorage[T] { return &NullStorage[T]{} }

func (s *NullStorage[T]) Get(Index) *T { return &s.zero }

func (s *NullStorage[T]) Insert(Index, T) {}

func (s *NullStorage[T]) Remove(Index) T { var zero T; return zero }

func (s *NullStorage[T]) Clean(func(Index) bool) {}

// Distinct is implemented by backends whose Get pointers for two different
// indices never alias the same memory, which is what licenses a parallel
// join to hand out concurrent mutable access to distinct indices. All five
// backends in this package qualify: DenseStorage, SparseDenseStorage and
// BTreeStorage each index into distinct backing slots per id, HashMapStorage
// stores one heap-allocated *T per id, and NullStorage's shared zero value is
// harmless to alias since it is never written to.
type Distinct interface {
	distinctStorage()
}

func (*DenseStorage[T]) distinctStorage() {}
func (*BTreeStorage[T]) distinctStorage() {}
func (*SparseDenseStorage[T]) distinctStorage() {}
func (*HashMapStorage[T]) distinctStorage() {}
func (*NullStorage[T]) distinctStorage() {}
