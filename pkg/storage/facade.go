package storage

import (
	"github.com/loom-engine/loom/pkg/bitset"
	"github.com/loom-engine/loom/pkg/entity"
)

// InsertResult reports what Storage.Insert did.
type InsertResult int

const (
	// Inserted means there was no previous value at this entity.
	Inserted InsertResult = iota
	// Updated means a previous value was overwritten; Insert also returns
	// that previous value.
	Updated
)

// Storage is the safe, generation-checked facade over a MaskedStorage that
// the world hands to systems. It is the only way component data should
// ever be read or written: every access is checked against the allocator
// so a stale Entity handle (wrong generation, or already dead) can never
// observe or corrupt another occupant's data.
type Storage[T any] struct {
	alloc *entity.Allocator
	data  *MaskedStorage[T]
}

// New builds a Storage facade over data, checked against alloc.
func New[T any](alloc *entity.Allocator, data *MaskedStorage[T]) *Storage[T] {
	return &Storage[T]{alloc: alloc, data: data}
}

// Get returns the component for e, or ok=false if e carries none or is
// dead/stale.
func (s *Storage[T]) Get(e entity.Entity) (v *T, ok bool) {
	if !s.alloc.IsAlive(e) {
		return nil, false
	}
	return s.data.Get(e.Index)
}

// GetMut is Get with intent to mutate; same checks, same result. It exists
// as a separate name so callers document which access mode they need at
// the call site, even though Go makes no enforced distinction.
func (s *Storage[T]) GetMut(e entity.Entity) (v *T, ok bool) {
	return s.Get(e)
}

// Insert stores v for e. If e is dead, nothing is written and err is a
// *entity.WrongGenerationError naming the entity that was rejected.
func (s *Storage[T]) Insert(e entity.Entity, v T) (old *T, result InsertResult, err error) {
	if !s.alloc.IsAlive(e) {
		return nil, Inserted, &entity.WrongGenerationError{
			Action: "insert", ActualGen: 0, Entity: e,
		}
	}
	prev, had := s.data.Insert(e.Index, v)
	if had {
		return prev, Updated, nil
	}
	return nil, Inserted, nil
}

// Remove deletes e's component, if any.
func (s *Storage[T]) Remove(e entity.Entity) (T, bool) {
	var zero T
	if !s.alloc.IsAlive(e) {
		return zero, false
	}
	return s.data.Remove(e.Index)
}

// Contains reports whether e currently carries this component, without
// fetching the value.
func (s *Storage[T]) Contains(e entity.Entity) bool {
	return s.alloc.IsAlive(e) && s.data.Mask.Contains(e.Index)
}

// Clear drops every stored value.
func (s *Storage[T]) Clear() { s.data.Clear() }

// Mask exposes the membership bitset so joins can combine it with other
// storages' masks without going through per-entity Get calls.
func (s *Storage[T]) Mask() *bitset.BitSet { return s.data.Mask }

// Raw returns the id directly, bypassing the allocator's aliveness check.
// Only joins that already intersected against a live mask (Entities, or
// another Storage's mask) may call this; it is not part of the safe path.
func (s *Storage[T]) Raw(id Index) *T { return s.data.Backend.Get(id) }

// Not returns an anti-storage view: the set of ids e does NOT hold a
// value for. Combined with Join it drives "entities missing component T"
// queries.
func (s *Storage[T]) Not() bitset.Like {
	return bitset.Not{A: s.data.Mask}
}

// EntryByIndex is Entry without the aliveness check, for callers (joins)
// that already obtained id from a mask known to be alive-filtered.
func (s *Storage[T]) EntryByIndex(id Index) StorageEntry[T] {
	return StorageEntry[T]{storage: s, id: id}
}

// Entry returns a StorageEntry for e, giving callers an insert-or-mutate
// operation without a separate Contains+Get+Insert round trip.
func (s *Storage[T]) Entry(e entity.Entity) (StorageEntry[T], error) {
	if !s.alloc.IsAlive(e) {
		return StorageEntry[T]{}, &entity.WrongGenerationError{
			Action: "entry", ActualGen: 0, Entity: e,
		}
	}
	return StorageEntry[T]{storage: s, id: e.Index}, nil
}

// StorageEntry is a handle for "get the value at this entity, inserting a
// default if absent" without a second lookup.
type StorageEntry[T any] struct {
	storage *Storage[T]
	id      Index
}

// OrInsertWith returns the existing value at the entry's entity, or
// computes and stores make() if none exists yet.
func (e StorageEntry[T]) OrInsertWith(make func() T) *T {
	if v, ok := e.storage.data.Get(e.id); ok {
		return v
	}
	v := make()
	e.storage.data.Insert(e.id, v)
	return e.storage.data.Backend.Get(e.id)
}

// Get returns the current value, if any, without inserting.
func (e StorageEntry[T]) Get() (*T, bool) {
	return e.storage.data.Get(e.id)
}
