package change

import "github.com/loom-engine/loom/pkg/storage"

// Flagged wraps a component Backend and emits Inserted/Removed events on
// every Insert/Remove, and a Modified event only when a caller goes
// through ModifyGuard (ModifyGuard.Commit or WithModify), never merely
// because a pointer into the storage was dereferenced.
//
// This departs from the naive get_mut-flags-everything approach a literal
// port would have: that approach turns any mutable join over a Flagged
// storage into an accidental "mark everything modified" operation, which
// defeats the point of tracking the change at all. Requiring an explicit
// guard means a system can join mutably for cheap read-mostly access and
// still choose, per row, whether this particular row counts as modified.
type Flagged[T any] struct {
	backend storage.Backend[T]
	channel *Channel
}

// NewFlagged wraps backend with change tracking.
func NewFlagged[T any](backend storage.Backend[T]) *Flagged[T] {
	return &Flagged[T]{backend: backend, channel: NewChannel()}
}

// NewFlaggedNamed is NewFlagged with its channel labeled for the
// loom_change_channel_depth gauge under component.
func NewFlaggedNamed[T any](backend storage.Backend[T], component string) *Flagged[T] {
	return &Flagged[T]{backend: backend, channel: NewChannel().Label(component)}
}

// Channel exposes the event channel for reader registration and draining.
func (f *Flagged[T]) Channel() *Channel { return f.channel }

// Get returns a pointer to the stored value without emitting any event.
func (f *Flagged[T]) Get(id storage.Index) *T { return f.backend.Get(id) }

// Insert stores v at id and emits Inserted.
func (f *Flagged[T]) Insert(id storage.Index, v T) {
	f.backend.Insert(id, v)
	f.channel.Write(Event{Kind: Inserted, Index: id})
}

// Remove deletes the value at id and emits Removed.
func (f *Flagged[T]) Remove(id storage.Index) T {
	v := f.backend.Remove(id)
	f.channel.Write(Event{Kind: Removed, Index: id})
	return v
}

// Clean clears the backend without emitting individual events: a bulk
// clear is not a per-index modification, and the storage's MaskedStorage
// owns the mask reset that makes the cleared indices actually invisible.
func (f *Flagged[T]) Clean(has func(storage.Index) bool) { f.backend.Clean(has) }

// Modify runs fn against the value stored at id and then emits Modified.
// fn is always called if id is present; a caller that wants conditional
// flagging should itself decide whether to call Modify at all, since any
// call here is an unconditional commit.
func (f *Flagged[T]) Modify(id storage.Index, fn func(*T)) {
	fn(f.backend.Get(id))
	f.channel.Write(Event{Kind: Modified, Index: id})
}

// Guard returns a ModifyGuard for id: a handle to mutate in place over
// several steps, with the Modified event only emitted once, on Commit.
func (f *Flagged[T]) Guard(id storage.Index) ModifyGuard[T] {
	return ModifyGuard[T]{flagged: f, id: id}
}

// ModifyGuard defers the Modified event until Commit is called, so a
// caller that decides mid-computation not to actually change anything can
// simply not call Commit.
type ModifyGuard[T any] struct {
	flagged *Flagged[T]
	id      storage.Index
}

// Value returns the pointer to mutate.
func (g ModifyGuard[T]) Value() *T { return g.flagged.backend.Get(g.id) }

// Commit emits the deferred Modified event.
func (g ModifyGuard[T]) Commit() {
	g.flagged.channel.Write(Event{Kind: Modified, Index: g.id})
}
