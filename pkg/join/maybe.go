package join

import "github.com/loom-engine/loom/pkg/bitset"

// Option is the per-row result of a Maybe-wrapped join participant: it was
// present (Value, Present=true) or absent (Present=false) at this id.
type Option[T any] struct {
	Value   T
	Present bool
}

type maybeSource[T any] struct {
	inner Source[T]
}

// Maybe turns inner into an optional join participant: its mask becomes
// universal, so it never filters the combined join, and Fetch reports
// whether a value was actually present at each visited id.
func Maybe[T any](inner Source[T]) Source[Option[T]] {
	return maybeSource[T]{inner: inner}
}

func (m maybeSource[T]) Mask() bitset.Like { return bitset.Universal{} }

// unboundedMaybeJoin marks maybeSource as a Maybe participant so Join2/3/4
// can warn when a join's every participant is one (see warnIfAllMaybe).
func (m maybeSource[T]) unboundedMaybeJoin() {}

func (m maybeSource[T]) Fetch(id Index) Option[T] {
	if !bitset.Contains(m.inner.Mask(), id) {
		var zero T
		return Option[T]{Value: zero, Present: false}
	}
	return Option[T]{Value: m.inner.Fetch(id), Present: true}
}

type notSource struct {
	mask bitset.Like
}

// Not returns a Source over "ids NOT present in inner", carrying no
// payload (its Fetch returns struct{}{}); it exists purely to narrow a
// combined join's mask, mirroring the AntiStorage join in storage.rs.
func Not[T any](inner Source[T]) Source[struct{}] {
	return notSource{mask: bitset.Not{A: inner.Mask()}}
}

func (n notSource) Mask() bitset.Like         { return n.mask }
func (n notSource) Fetch(Index) struct{}      { return struct{}{} }
