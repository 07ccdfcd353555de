package join

import "github.com/loom-engine/loom/pkg/bitset"

// Lend2 is the streaming counterpart to Join2: instead of materialising
// every matched row up front, it pushes each row to yield one at a time
// via a Go 1.23 range-over-func iterator, stopping as soon as yield
// returns false. It supplants the borrow-checked `Lend` join from the
// original Rust implementation, which existed only to guarantee the
// previous row's borrow had ended before producing the next one, a
// constraint Go's escape analysis and the single-threaded iteration
// protocol here make unnecessary; the useful part, not materialising the
// whole result set, is what Lend2 keeps.
func Lend2[A, B any](a Source[A], b Source[B]) func(yield func(Index, A, B) bool) {
	return func(yield func(Index, A, B) bool) {
		mask := combinedMask(a.Mask(), b.Mask())
		it := bitset.NewIter(mask)
		for {
			id, ok := it.Next()
			if !ok {
				return
			}
			if !yield(id, a.Fetch(id), b.Fetch(id)) {
				return
			}
		}
	}
}

// Lend3 is Lend2 for three join participants.
func Lend3[A, B, C any](a Source[A], b Source[B], c Source[C]) func(yield func(Index, A, B, C) bool) {
	return func(yield func(Index, A, B, C) bool) {
		mask := combinedMask(a.Mask(), b.Mask(), c.Mask())
		it := bitset.NewIter(mask)
		for {
			id, ok := it.Next()
			if !ok {
				return
			}
			if !yield(id, a.Fetch(id), b.Fetch(id), c.Fetch(id)) {
				return
			}
		}
	}
}
