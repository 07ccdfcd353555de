package world

import "github.com/loom-engine/loom/pkg/entity"

// EntityBuilder accumulates component inserts for one entity and applies
// them immediately when Build is called. World.CreateEntityBuilder()
// starts one over an entity already allocated via the exclusive path.
//
// Go has no variadic heterogeneous-type method, so the fluent chain is
// built with the package-level generic function With rather than a
// method: With(With(b, Position{...}), Velocity{...}).Build().
type EntityBuilder struct {
	w     *World
	e     entity.Entity
	apply []func(*World, entity.Entity)
}

// CreateEntityBuilder allocates a fresh entity immediately and returns a
// builder for attaching its initial components.
func (w *World) CreateEntityBuilder() *EntityBuilder {
	return &EntityBuilder{w: w, e: w.CreateEntity()}
}

// With queues v to be inserted as entity b's component of type T once
// Build runs.
func With[T any](b *EntityBuilder, v T) *EntityBuilder {
	b.apply = append(b.apply, func(w *World, e entity.Entity) {
		WriteStorage[T](w).Insert(e, v)
	})
	return b
}

// Build inserts every queued component and returns the finished entity.
func (b *EntityBuilder) Build() entity.Entity {
	for _, fn := range b.apply {
		fn(b.w, b.e)
	}
	return b.e
}

// LazyEntityBuilder is the deferred counterpart to EntityBuilder: the
// entity itself is reserved now via the lock-free atomic allocation path
// (so its identity is usable immediately, e.g. to hand to other systems),
// but every component insert is compiled into a closure appended to the
// world's lazy queue, applied in submission order on the next Maintain.
// This is the fluent with(c).build() API spec.md §4.7 describes: a system
// that only declared Entities in its SystemData, and so cannot borrow a
// component storage directly, still creates a fully-populated entity this
// way.
type LazyEntityBuilder struct {
	w     *World
	e     entity.Entity
	apply []func(*World, entity.Entity)
}

// LazyCreateEntityBuilder reserves an entity atomically and returns a
// builder whose component inserts are deferred to the next Maintain.
func (w *World) LazyCreateEntityBuilder() *LazyEntityBuilder {
	return &LazyEntityBuilder{w: w, e: w.CreateEntityAtomic()}
}

// LazyWith is With for a LazyEntityBuilder.
func LazyWith[T any](b *LazyEntityBuilder, v T) *LazyEntityBuilder {
	b.apply = append(b.apply, func(w *World, e entity.Entity) {
		WriteStorage[T](w).Insert(e, v)
	})
	return b
}

// Build enqueues every component insert onto the world's lazy queue and
// returns the entity's identity immediately; the components themselves
// are not actually present until the next Maintain runs.
func (b *LazyEntityBuilder) Build() entity.Entity {
	fns := b.apply
	e := b.e
	b.w.LazyUpdate().Exec(func(w *World) {
		for _, fn := range fns {
			fn(w, e)
		}
	})
	return e
}
