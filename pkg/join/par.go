package join

import (
	"golang.org/x/sync/errgroup"

	"github.com/loom-engine/loom/pkg/bitset"
)

// ParJoin2 splits the combined mask of a and b into population-balanced
// shards and visits each shard's rows on a separate goroutine via fn. It
// requires both participants to be Distinct: distinct backends guarantee
// two different ids never yield aliasing pointers, so concurrent mutation
// through fn is safe without any per-row locking.
//
// workers bounds the number of shards (and therefore goroutines); ids are
// split along layer-2 boundaries so a shard boundary never falls inside a
// densely-populated run of indices.
func ParJoin2[A, B any](a Distinct[A], b Distinct[B], workers int, fn func(id Index, va A, vb B)) error {
	mask := combinedMask(a.Mask(), b.Mask())
	shards := shardMask(mask, workers)

	var g errgroup.Group
	for _, shard := range shards {
		shard := shard
		g.Go(func() error {
			bitset.Each(shard, func(id Index) {
				fn(id, a.Fetch(id), b.Fetch(id))
			})
			return nil
		})
	}
	return g.Wait()
}

// shardMask splits set into up to n disjoint Like views along layer-2
// boundaries (each shard owns a distinct, non-overlapping range of layer-2
// words), so every id is visited by exactly one shard.
func shardMask(set bitset.Like, n int) []bitset.Like {
	if n < 1 {
		n = 1
	}
	layer2Words := 1 << 6 // one layer-3 bit spans 64 layer-2 words
	per := (layer2Words + n - 1) / n
	var shards []bitset.Like
	for lo := 0; lo < layer2Words; lo += per {
		hi := lo + per
		if hi > layer2Words {
			hi = layer2Words
		}
		shards = append(shards, rangeShard{inner: set, lo: lo, hi: hi})
	}
	return shards
}

// rangeShard restricts a Like set to layer-2 word indices in [lo, hi).
type rangeShard struct {
	inner  bitset.Like
	lo, hi int
}

func (r rangeShard) Layer3() uint64 {
	// Conservatively report every layer-3 bit whose word range overlaps
	// this shard; the underlying Layer2 call still returns 0 outside
	// [lo, hi), so no id outside the shard is ever yielded.
	return r.inner.Layer3()
}

func (r rangeShard) Layer2(i int) uint64 {
	if i < r.lo || i >= r.hi {
		return 0
	}
	return r.inner.Layer2(i)
}

func (r rangeShard) Layer1(i int) uint64 { return r.inner.Layer1(i) }
func (r rangeShard) Layer0(i int) uint64 { return r.inner.Layer0(i) }
