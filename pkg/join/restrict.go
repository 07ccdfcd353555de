package join

import (
	"github.com/loom-engine/loom/pkg/bitset"
	"github.com/loom-engine/loom/pkg/storage"
)

// Accessor is what a Restrict-joined participant yields per row: a handle
// bound to one entity index that can consult its own component, or any
// other storage's component for the same index, without re-deriving or
// invalidating the outer join's already-opened mask. It exists so a
// system can peek at a second component only for entities the main join
// already selected, instead of paying for a second intersection.
type Accessor[T any] struct {
	storage *storage.Storage[T]
	id      Index
}

// Get returns this row's own component.
func (a Accessor[T]) Get() *T { return a.storage.Raw(a.id) }

// Index returns the entity index this accessor is bound to, for use with
// GetOther against a storage the caller holds directly.
func (a Accessor[T]) Index() Index { return a.id }

// GetOther consults a different storage for the same entity this accessor
// is bound to. It is safe to call even though the outer join never
// intersected other's mask: GetOther checks other's own mask itself, so a
// miss returns ok=false rather than reading a stale or absent slot.
func GetOther[T any](a interface{ Index() Index }, other *storage.Storage[T]) (*T, bool) {
	id := a.Index()
	if !other.Mask().Contains(id) {
		return nil, false
	}
	return other.Raw(id), true
}

type restrictSource[T any] struct {
	s *storage.Storage[T]
}

// Restrict adapts a Storage into a join Source yielding an Accessor per
// visited row instead of a direct pointer. Combine it with positive joins
// over the same or other storages to read additional components for the
// matched entity inline, without a second join pass.
func Restrict[T any](s *storage.Storage[T]) Source[Accessor[T]] {
	return restrictSource[T]{s: s}
}

func (r restrictSource[T]) Mask() bitset.Like { return r.s.Mask() }

func (r restrictSource[T]) Fetch(id Index) Accessor[T] {
	return Accessor[T]{storage: r.s, id: id}
}
