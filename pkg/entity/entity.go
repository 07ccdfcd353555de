// Package entity implements loom's generational entity identifiers and the
// lock-free allocator that issues, recycles and kills them.
package entity

import "fmt"

// Index identifies an allocator slot. Indices are reused once their
// occupant dies and is merged.
type Index = uint32

// Generation distinguishes successive occupants of the same Index. It is
// never zero: positive means the current occupant is alive, negative means
// the slot is dead. Reviving a dead slot flips the sign and adds one, via
// the same `1 - gen` transform every alive/dead pair uses.
type Generation int32

// Alive reports whether g denotes a live generation.
func (g Generation) Alive() bool { return g > 0 }

func (g Generation) died() Generation { return -g }

func (g Generation) revived() Generation {
	if g.Alive() {
		panic("entity: revived called on an already-alive generation")
	}
	return 1 - g
}

// Entity is an (Index, Generation) pair identifying a logical object. It is
// a plain comparable value: copying an Entity is free, and two Entity
// values with different generations for the same index compare unequal.
type Entity struct {
	Index      Index
	Generation Generation
}

func (e Entity) String() string {
	return fmt.Sprintf("Entity(%d, gen=%d)", e.Index, e.Generation)
}

// WrongGenerationError is returned when an operation addresses an Entity
// whose generation no longer matches the allocator's record for that
// index, i.e. the entity has died (and possibly been replaced) since the
// caller last saw it.
type WrongGenerationError struct {
	Action    string
	ActualGen Generation
	Entity    Entity
}

func (e *WrongGenerationError) Error() string {
	return fmt.Sprintf("entity: %s failed: %s has generation %d, wanted %d",
		e.Action, e.Entity, e.ActualGen, e.Entity.Generation)
}
