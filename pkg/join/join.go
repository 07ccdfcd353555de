// Package join implements the join algebra over masked component storages:
// plain intersection joins across two to four storages, Maybe for optional
// participation, Not/Anti for negation, and (in par.go/lend.go) the
// parallel and streaming join variants.
package join

import (
	"github.com/loom-engine/loom/pkg/bitset"
	"github.com/loom-engine/loom/pkg/ecslog"
	"github.com/loom-engine/loom/pkg/storage"
)

var joinLog = ecslog.WithComponent("join")

// unboundedMaybe is implemented by maybeSource so a join can detect, at
// open time, that every one of its participants is a Maybe wrapper: such
// a join's combined mask is universal and iterates every possible index,
// which is almost never what was intended.
type unboundedMaybe interface{ unboundedMaybeJoin() }

func warnIfAllMaybe(sources ...any) {
	for _, s := range sources {
		if _, ok := s.(unboundedMaybe); !ok {
			return
		}
	}
	joinLog.Warn().Msg("join consists only of maybe participants; its mask is universal and unbounded")
}

// Index is an entity slot, as iterated by a join.
type Index = bitset.Index

// Source is anything a join can pull a value from once it knows an id is
// present in the combined mask: a component storage, a Maybe/Not wrapper,
// or the allocator's own alive set (for joining against Entities).
type Source[T any] interface {
	Mask() bitset.Like
	Fetch(id Index) T
}

type funcSource[T any] struct {
	mask  bitset.Like
	fetch func(Index) T
}

func (f funcSource[T]) Mask() bitset.Like   { return f.mask }
func (f funcSource[T]) Fetch(id Index) T    { return f.fetch(id) }

// From adapts a component Storage into a join Source yielding pointers to
// the component value.
func From[T any](s *storage.Storage[T]) Source[*T] {
	return funcSource[*T]{mask: s.Mask(), fetch: s.Raw}
}

// Distinct is implemented by a Source whose Fetch pointers for distinct
// ids never alias, licensing ParJoin to hand them out concurrently. A
// Source built with From is distinct exactly when the underlying storage's
// backend is (see storage.Distinct).
type Distinct[T any] interface {
	Source[T]
	distinct()
}

type distinctSource[T any] struct{ funcSource[T] }

func (distinctSource[T]) distinct() {}

// FromDistinct is From, additionally asserting (and, if wrong, panicking
// on first ParJoin use rather than here) that the backend is distinct.
// Callers that already know their backend is a DenseStorage or
// BTreeStorage use this to unlock ParJoin.
func FromDistinct[T any](s *storage.Storage[T]) Distinct[*T] {
	return distinctSource[*T]{funcSource[*T]{mask: s.Mask(), fetch: s.Raw}}
}

// combinedMask intersects n masks via bitset.And, left-folded, the same
// pairwise tree construction used for larger join arities.
func combinedMask(masks ...bitset.Like) bitset.Like {
	if len(masks) == 0 {
		return bitset.Universal{}
	}
	acc := masks[0]
	for _, m := range masks[1:] {
		acc = bitset.And{A: acc, B: m}
	}
	return acc
}

// Pair2 is one row of a two-way join.
type Pair2[A, B any] struct {
	Entity Index
	A      A
	B      B
}

// Join2 intersects a's and b's masks and returns one Pair2 per id present
// in both, in ascending id order.
func Join2[A, B any](a Source[A], b Source[B]) []Pair2[A, B] {
	warnIfAllMaybe(a, b)
	mask := combinedMask(a.Mask(), b.Mask())
	var out []Pair2[A, B]
	bitset.Each(mask, func(id Index) {
		out = append(out, Pair2[A, B]{Entity: id, A: a.Fetch(id), B: b.Fetch(id)})
	})
	return out
}

// Pair3 is one row of a three-way join.
type Pair3[A, B, C any] struct {
	Entity Index
	A      A
	B      B
	C      C
}

// Join3 intersects a's, b's and c's masks.
func Join3[A, B, C any](a Source[A], b Source[B], c Source[C]) []Pair3[A, B, C] {
	warnIfAllMaybe(a, b, c)
	mask := combinedMask(a.Mask(), b.Mask(), c.Mask())
	var out []Pair3[A, B, C]
	bitset.Each(mask, func(id Index) {
		out = append(out, Pair3[A, B, C]{Entity: id, A: a.Fetch(id), B: b.Fetch(id), C: c.Fetch(id)})
	})
	return out
}

// Pair4 is one row of a four-way join.
type Pair4[A, B, C, D any] struct {
	Entity Index
	A      A
	B      B
	C      C
	D      D
}

// Join4 intersects a's, b's, c's and d's masks.
func Join4[A, B, C, D any](a Source[A], b Source[B], c Source[C], d Source[D]) []Pair4[A, B, C, D] {
	warnIfAllMaybe(a, b, c, d)
	mask := combinedMask(a.Mask(), b.Mask(), c.Mask(), d.Mask())
	var out []Pair4[A, B, C, D]
	bitset.Each(mask, func(id Index) {
		out = append(out, Pair4[A, B, C, D]{Entity: id, A: a.Fetch(id), B: b.Fetch(id), C: c.Fetch(id), D: d.Fetch(id)})
	})
	return out
}
