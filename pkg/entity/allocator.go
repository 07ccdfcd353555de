package entity

import (
	"sync"
	"sync/atomic"

	"github.com/loom-engine/loom/pkg/bitset"
)

// Allocator issues generational entity identifiers. It supports both an
// exclusive, immediately-consistent path (Allocate, Kill) and a concurrent,
// deferred path (AllocateAtomic, KillAtomic) whose effects are only folded
// into the exclusive state by Merge. World.Maintain is the only caller of
// Merge; everything else goes through one of the two allocation paths.
//
// The exclusive path holds a mutex for its whole duration. The atomic path
// only ever touches lock-free state (an atomic counter and two
// bitset.AtomicBitSets) plus a read-lock over the generations slice, so it
// never blocks regardless of how many callers use it concurrently or how
// long an exclusive Allocate/Kill/Merge call takes elsewhere.
type Allocator struct {
	mu          sync.RWMutex
	generations []Generation
	alive       *bitset.BitSet
	raised      *bitset.AtomicBitSet
	killed      *bitset.AtomicBitSet
	cache       []Index // recycle stack for the exclusive path only
	maxID       atomic.Uint32
	maxIDSet    bool // true once the first id has been handed out, guards the "no ids yet" case
}

// New returns an empty Allocator.
func New() *Allocator {
	return &Allocator{
		alive:  bitset.New(),
		raised: bitset.NewAtomic(),
		killed: bitset.NewAtomic(),
	}
}

// Allocate reserves a fresh or recycled index and returns a live Entity for
// it. Requires exclusive access; never blocks on other Allocate/Kill calls
// because the caller is expected to hold the surrounding World's mutation
// lock while calling it.
func (a *Allocator) Allocate() Entity {
	a.mu.Lock()
	defer a.mu.Unlock()

	var id Index
	if n := len(a.cache); n > 0 {
		id = a.cache[n-1]
		a.cache = a.cache[:n-1]
	} else {
		id = a.allocateFreshLocked()
	}

	a.growGenerationsLocked(id)
	a.alive.Add(id)

	gen := a.generations[id]
	if gen.Alive() {
		panic("entity: allocate picked an already-alive index")
	}
	if gen == 0 {
		gen = 1
	} else {
		gen = gen.revived()
	}
	a.generations[id] = gen

	return Entity{Index: id, Generation: gen}
}

func (a *Allocator) allocateFreshLocked() Index {
	id := a.maxID.Load()
	if id == bitset.MaxIndex && a.maxIDSet {
		panic("entity: no indices left to allocate")
	}
	if !a.maxIDSet {
		a.maxIDSet = true
		a.maxID.Store(1)
		return 0
	}
	a.maxID.Store(id + 1)
	return id
}

// AllocateAtomic reserves an index via a lock-free atomic fetch-add and
// marks it pending-alive. The entity only becomes visible to Kill,
// IsAlive-after-merge bookkeeping and iteration over the exclusive alive
// set once Merge runs; until then it is only visible through the
// "raised" bitset that IsAlive and joins over Entities already consult.
func (a *Allocator) AllocateAtomic() Entity {
	a.mu.RLock()
	defer a.mu.RUnlock()

	id := a.allocateFreshAtomic()
	a.raised.AddAtomic(id)

	gen := a.generationLocked(id)
	if gen.Alive() {
		return Entity{Index: id, Generation: gen}
	}
	return Entity{Index: id, Generation: gen.revived()}
}

func (a *Allocator) allocateFreshAtomic() Index {
	for {
		cur := a.maxID.Load()
		if cur == 0 && !a.maxIDSetSnapshot() {
			if a.maxID.CompareAndSwap(0, 1) {
				return 0
			}
			continue
		}
		if cur >= bitset.MaxIndex {
			panic("entity: no indices left to allocate")
		}
		if a.maxID.CompareAndSwap(cur, cur+1) {
			return cur
		}
	}
}

func (a *Allocator) maxIDSetSnapshot() bool {
	// maxIDSet is only ever flipped true under a.mu, and the atomic path
	// holds RLock, so this is a benign read racing only against readers.
	return a.maxIDSet
}

func (a *Allocator) generationLocked(id Index) Generation {
	if int(id) < len(a.generations) {
		return a.generations[id]
	}
	return 0
}

// Kill immediately removes the given entities. Any entity not currently
// alive yields a WrongGenerationError and aborts before mutating state for
// the remaining entities in the batch.
func (a *Allocator) Kill(entities ...Entity) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, e := range entities {
		if !a.isAliveLocked(e) {
			return &WrongGenerationError{Action: "kill", ActualGen: a.generationLocked(e.Index), Entity: e}
		}
	}
	for _, e := range entities {
		a.alive.Remove(e.Index)
		a.raised.Remove(e.Index)
		gen := a.generations[e.Index]
		if gen == 0 {
			gen = 1
		}
		a.generations[e.Index] = gen.died()
		a.cache = append(a.cache, e.Index)
	}
	return nil
}

// KillAtomic marks e pending-dead. The kill, and the resulting component
// drops, take effect on the next Merge.
func (a *Allocator) KillAtomic(e Entity) error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if !a.isAliveLocked(e) {
		return &WrongGenerationError{Action: "kill", ActualGen: a.generationLocked(e.Index), Entity: e}
	}
	a.killed.AddAtomic(e.Index)
	return nil
}

// IsAlive reports whether e is the current live occupant of its index.
func (a *Allocator) IsAlive(e Entity) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.isAliveLocked(e)
}

func (a *Allocator) isAliveLocked(e Entity) bool {
	gen := a.generationLocked(e.Index)
	if !gen.Alive() && a.raised.Contains(e.Index) {
		gen = gen.revived()
	} else if gen == 0 {
		gen = 1
	}
	return gen == e.Generation
}

// Generation returns the current generation for idx, if any slot has ever
// been allocated at idx.
func (a *Allocator) Generation(idx Index) (Generation, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if int(idx) >= len(a.generations) {
		return 0, false
	}
	g := a.generations[idx]
	return g, g != 0
}

// CurrentEntity returns the Entity value that would currently be considered
// alive at idx, whether or not anything has actually been allocated there
// yet (freshly-never-touched indices report generation 1, matching a first
// Allocate at that slot).
func (a *Allocator) CurrentEntity(idx Index) Entity {
	a.mu.RLock()
	defer a.mu.RUnlock()
	gen := a.generationLocked(idx)
	if !gen.Alive() && a.raised.Contains(idx) {
		gen = gen.revived()
	} else if gen == 0 {
		gen = 1
	}
	return Entity{Index: idx, Generation: gen}
}

func (a *Allocator) growGenerationsLocked(id Index) {
	if int(id) >= len(a.generations) {
		grown := make([]Generation, int(id)+1)
		copy(grown, a.generations)
		a.generations = grown
	}
}

// Merge folds every pending atomic create and kill into the exclusive
// state, births before deaths. It returns the entities that were actually
// dropped this merge, the exact and only input to the world's
// component-cleanup sweep.
func (a *Allocator) Merge() []Entity {
	a.mu.Lock()
	defer a.mu.Unlock()

	raisedIDs := bitset.Collect(a.raised)
	for _, id := range raisedIDs {
		a.growGenerationsLocked(id)
		gen := a.generations[id]
		if gen == 0 {
			gen = 1
		} else if !gen.Alive() {
			gen = gen.revived()
		}
		a.generations[id] = gen
		a.alive.Add(id)
	}
	a.raised.Clear()

	var dead []Entity
	killedIDs := bitset.Collect(a.killed)
	for _, id := range killedIDs {
		a.alive.Remove(id)
		gen := a.generations[id]
		dead = append(dead, Entity{Index: id, Generation: gen})
		a.generations[id] = gen.died()
	}
	a.killed.Clear()

	for _, e := range dead {
		a.cache = append(a.cache, e.Index)
	}

	return dead
}

// Alive exposes the current, merged, alive-index set. It is the mask the
// Entities join (and anything else that needs "every currently alive
// index") iterates.
func (a *Allocator) Alive() *bitset.BitSet {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.alive
}

// Raised exposes the pending-alive set for joins that must also see
// atomically-created-but-not-yet-merged entities (Entities' own join does
// this, per spec: its mask is alive-or-raised).
func (a *Allocator) Raised() *bitset.AtomicBitSet {
	return a.raised
}
