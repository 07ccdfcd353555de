package bitset

import "sync/atomic"

// atomicBlock covers one layer-1 word's worth of layer-0 storage: 64 words
// of 64 bits, i.e. 4096 indices. It is allocated lazily so an AtomicBitSet
// that only ever receives a few adds doesn't pay for the whole index space
// up front.
type atomicBlock struct {
	mask atomic.Uint64
	l0   atomic.Pointer[[wordBits]atomic.Uint64]
}

func (blk *atomicBlock) ensure() *[wordBits]atomic.Uint64 {
	if p := blk.l0.Load(); p != nil {
		return p
	}
	fresh := new([wordBits]atomic.Uint64)
	blk.l0.CompareAndSwap(nil, fresh)
	return blk.l0.Load()
}

func (blk *atomicBlock) localIndex(id Index) int {
	return int((id >> shift1) & levelMask)
}

func (blk *atomicBlock) add(id Index) bool {
	l0 := blk.ensure()
	i, m := blk.localIndex(id), row(id, shift0)
	old := l0[i].Or(m)
	blk.mask.Or(uint64(1) << uint(i))
	return old&m != 0
}

func (blk *atomicBlock) contains(id Index) bool {
	p := blk.l0.Load()
	if p == nil {
		return false
	}
	return p[blk.localIndex(id)].Load()&row(id, shift0) != 0
}

func (blk *atomicBlock) remove(id Index) bool {
	p := blk.l0.Load()
	if p == nil {
		return false
	}
	i, m := blk.localIndex(id), row(id, shift0)
	v := p[i].Load()
	p[i].Store(v &^ m)
	if v&^m == 0 {
		blk.mask.And(^(uint64(1) << uint(i)))
	}
	return v&m == m
}

func (blk *atomicBlock) clear() {
	blk.mask.Store(0)
	if p := blk.l0.Load(); p != nil {
		for i := range p {
			p[i].Store(0)
		}
	}
}

// AtomicBitSet is a hierarchical set that supports concurrent insertion
// without exclusive access. Only AddAtomic is lock-free; Remove, Clear and
// iteration require exclusive access, since clearing a bit may need to
// clear ancestor bits and there is no way to do that atomically without a
// race against a concurrent add to a sibling in the same ancestor word.
type AtomicBitSet struct {
	layer3 atomic.Uint64
	layer2 atomic.Pointer[[wordBits]atomic.Uint64]
	blocks []atomicBlock // indexed by p1 = id>>shift2, one per layer-1 word
}

// NewAtomic returns an AtomicBitSet sized for the full loom index space.
func NewAtomic() *AtomicBitSet {
	blockCount := (int(MaxIndex) >> shift2) + 1
	return &AtomicBitSet{blocks: make([]atomicBlock, blockCount)}
}

func (s *AtomicBitSet) ensureLayer2() *[wordBits]atomic.Uint64 {
	if p := s.layer2.Load(); p != nil {
		return p
	}
	fresh := new([wordBits]atomic.Uint64)
	s.layer2.CompareAndSwap(nil, fresh)
	return s.layer2.Load()
}

// AddAtomic inserts id into the set. It reports whether id was already
// present. Safe for concurrent use; never blocks.
func (s *AtomicBitSet) AddAtomic(id Index) bool {
	validRange(id)
	p1 := offset(id, shift2)
	already := s.blocks[p1].add(id)
	p2 := offset(id, shift3)
	s.ensureLayer2()[p2].Or(row(id, shift2))
	s.layer3.Or(row(id, shift3))
	return already
}

// Contains reports whether id is in the set. Safe for concurrent use.
func (s *AtomicBitSet) Contains(id Index) bool {
	p1 := offset(id, shift2)
	if p1 < 0 || p1 >= len(s.blocks) {
		return false
	}
	return s.blocks[p1].contains(id)
}

// Remove deletes id from the set. Requires exclusive access.
func (s *AtomicBitSet) Remove(id Index) bool {
	p1 := offset(id, shift2)
	if p1 < 0 || p1 >= len(s.blocks) {
		return false
	}
	removed := s.blocks[p1].remove(id)
	if removed && s.blocks[p1].mask.Load() == 0 {
		if l2 := s.layer2.Load(); l2 != nil {
			p2 := offset(id, shift3)
			l2[p2].And(^row(id, shift2))
			if l2[p2].Load() == 0 {
				s.layer3.And(^row(id, shift3))
			}
		}
	}
	return removed
}

// Clear empties the set. Requires exclusive access.
func (s *AtomicBitSet) Clear() {
	for i := range s.blocks {
		s.blocks[i].clear()
	}
	if l2 := s.layer2.Load(); l2 != nil {
		for i := range l2 {
			l2[i].Store(0)
		}
	}
	s.layer3.Store(0)
}

// Layer3, Layer2, Layer1 and Layer0 implement Like, so an AtomicBitSet can
// be combined into a join's mask the same way a BitSet can. They take a
// point-in-time snapshot: a concurrent AddAtomic may or may not be visible
// to an iteration already in progress.
func (s *AtomicBitSet) Layer3() uint64 { return s.layer3.Load() }

func (s *AtomicBitSet) Layer2(i int) uint64 {
	l2 := s.layer2.Load()
	if l2 == nil || i < 0 || i >= len(l2) {
		return 0
	}
	return l2[i].Load()
}

func (s *AtomicBitSet) Layer1(i int) uint64 {
	if i < 0 || i >= len(s.blocks) {
		return 0
	}
	return s.blocks[i].mask.Load()
}

func (s *AtomicBitSet) Layer0(i int) uint64 {
	blockIdx, wordIdx := i>>bitsPerLevel, i&int(levelMask)
	if blockIdx < 0 || blockIdx >= len(s.blocks) {
		return 0
	}
	p := s.blocks[blockIdx].l0.Load()
	if p == nil {
		return 0
	}
	return p[wordIdx].Load()
}
