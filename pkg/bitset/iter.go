package bitset

// Iter walks a Like set and yields its indices in strictly ascending order,
// each exactly once. It carries a 4-deep stack of masks, popping the lowest
// populated bit at each level and only descending into a branch when that
// branch's word is known to be non-zero, so whole empty subtrees are never
// visited.
type Iter struct {
	set    Like
	masks  [4]uint64
	prefix [3]uint32
}

// NewIter returns an iterator over set.
func NewIter(set Like) *Iter {
	return &Iter{set: set, masks: [4]uint64{0, 0, 0, set.Layer3()}}
}

// Next returns the next index in the set, and false once exhausted.
func (it *Iter) Next() (Index, bool) {
	for {
		if it.masks[0] != 0 {
			bit := trailingZeros64(it.masks[0])
			it.masks[0] &^= 1 << bit
			return it.prefix[0] | uint32(bit), true
		}

		if it.masks[1] != 0 {
			bit := trailingZeros64(it.masks[1])
			it.masks[1] &^= 1 << bit
			idx := it.prefix[1] | uint32(bit)
			it.masks[0] = it.set.Layer0(int(idx))
			it.prefix[0] = idx << bitsPerLevel
			continue
		}

		if it.masks[2] != 0 {
			bit := trailingZeros64(it.masks[2])
			it.masks[2] &^= 1 << bit
			idx := it.prefix[2] | uint32(bit)
			it.masks[1] = it.set.Layer1(int(idx))
			it.prefix[1] = idx << bitsPerLevel
			continue
		}

		if it.masks[3] != 0 {
			bit := trailingZeros64(it.masks[3])
			it.masks[3] &^= 1 << bit
			it.masks[2] = it.set.Layer2(int(bit))
			it.prefix[2] = uint32(bit) << bitsPerLevel
			continue
		}

		return 0, false
	}
}

// Each calls fn for every index in set, in ascending order.
func Each(set Like, fn func(Index)) {
	it := NewIter(set)
	for {
		idx, ok := it.Next()
		if !ok {
			return
		}
		fn(idx)
	}
}

// Collect materialises every index in set into a slice, in ascending order.
func Collect(set Like) []Index {
	var out []Index
	Each(set, func(idx Index) { out = append(out, idx) })
	return out
}
