// Package world is loom's composition root: it owns the entity allocator,
// every registered component storage, the resource container, the lazy
// update queue, and the Maintain cycle that folds pending entity
// creations/deletions and applies queued lazy updates.
package world

import (
	"reflect"
	"sync"

	"github.com/rs/zerolog"

	"github.com/loom-engine/loom/pkg/bitset"
	"github.com/loom-engine/loom/pkg/ecslog"
	"github.com/loom-engine/loom/pkg/entity"
	"github.com/loom-engine/loom/pkg/lazy"
	"github.com/loom-engine/loom/pkg/metrics"
	"github.com/loom-engine/loom/pkg/resource"
	"github.com/loom-engine/loom/pkg/storage"
)

type componentSlot struct {
	masked any // *storage.MaskedStorage[T], type-erased
	remove func(id entity.Index)
}

// World is the top-level container every system operates on.
type World struct {
	mu         sync.RWMutex
	alloc      *entity.Allocator
	components map[reflect.Type]*componentSlot
	resources  *resource.Container
	lazyQ      *lazy.Queue[*World]
	log        zerolog.Logger
}

// New returns an empty World with no registered components or resources.
func New() *World {
	w := &World{
		alloc:      entity.New(),
		components: make(map[reflect.Type]*componentSlot),
		resources:  resource.New(),
		log:        ecslog.WithComponent("world"),
	}
	w.lazyQ = lazy.New[*World]()
	resource.Insert(w.resources, w.lazyQ)
	return w
}

func componentKey[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Register adds component type T to the world, backed by backend. It must
// be called once per component type before any Insert/ReadStorage/
// WriteStorage call for T, and before any reader registers against its
// change channel. The masked storage is registered both in w.components,
// for Maintain's type-erased component-drop sweep, and as a resource in
// w.resources, so ReadStorage/WriteStorage borrow it through the same
// runtime-checked slot every other resource uses.
func Register[T any](w *World, backend storage.Backend[T]) {
	w.mu.Lock()
	defer w.mu.Unlock()

	key := componentKey[T]()
	if _, ok := w.components[key]; ok {
		return
	}
	masked := storage.NewMaskedStorage[T](backend)
	w.components[key] = &componentSlot{
		masked: masked,
		remove: func(id entity.Index) { masked.Remove(id) },
	}
	resource.Insert(w.resources, masked)
}

// ReadStorage borrows component type T's storage through the resource
// container's shared-read slot and returns the safe, generation-checked
// facade over it. loom does not distinguish read- and write-typed facades
// at the type level the way the original did (Go has no borrow checker to
// enforce it statically); ReadStorage and WriteStorage differ only in
// which of resource.Read/resource.Write they borrow with, both releasing
// the borrow immediately once the underlying storage pointer is in hand.
// The dispatcher's Access declarations are what prevent two systems from
// racing on the same storage within a layer; this borrow is the same
// belt-and-suspenders guard every other resource gets, catching a system
// that fetches storages outside the dispatcher's own scheduling.
func ReadStorage[T any](w *World) *storage.Storage[T] {
	guard := resource.Read[*storage.MaskedStorage[T]](w.resources)
	masked := *guard.Get()
	guard.Release()
	return storage.New(w.alloc, masked)
}

// WriteStorage is ReadStorage, borrowing exclusively instead of shared;
// see its doc comment.
func WriteStorage[T any](w *World) *storage.Storage[T] {
	guard := resource.Write[*storage.MaskedStorage[T]](w.resources)
	masked := *guard.Get()
	guard.Release()
	return storage.New(w.alloc, masked)
}

// InsertResource registers v as a resource of type T.
func InsertResource[T any](w *World, v T) {
	resource.Insert(w.resources, v)
}

// ReadResource borrows the resource of type T for shared reading.
func ReadResource[T any](w *World) resource.ReadGuard[T] {
	return resource.Read[T](w.resources)
}

// WriteResource borrows the resource of type T for exclusive mutation.
func WriteResource[T any](w *World) resource.WriteGuard[T] {
	return resource.Write[T](w.resources)
}

// Allocator exposes the entity allocator directly, for packages (join,
// system implementations iterating Entities) that need it without a
// generic resource lookup.
func (w *World) Allocator() *entity.Allocator { return w.alloc }

// LazyUpdate returns the queue of deferred world mutations; systems
// holding only a read-only view of the world still use this to schedule
// work for the next Maintain.
func (w *World) LazyUpdate() *lazy.Queue[*World] { return w.lazyQ }

// CreateEntity allocates a new entity immediately.
func (w *World) CreateEntity() entity.Entity {
	return w.alloc.Allocate()
}

// CreateEntityAtomic allocates a new entity via the lock-free path,
// usable concurrently from inside a running dispatch layer.
func (w *World) CreateEntityAtomic() entity.Entity {
	return w.alloc.AllocateAtomic()
}

// DeleteEntity kills e immediately and drops its components from every
// registered storage.
func (w *World) DeleteEntity(e entity.Entity) error {
	if err := w.alloc.Kill(e); err != nil {
		return err
	}
	w.dropComponents(e.Index)
	return nil
}

// DeleteEntityAtomic marks e pending-dead; its components are dropped on
// the next Maintain, alongside every other atomically-killed entity.
func (w *World) DeleteEntityAtomic(e entity.Entity) error {
	return w.alloc.KillAtomic(e)
}

// DeleteAll immediately kills every currently alive entity.
func (w *World) DeleteAll() {
	ids := bitset.Collect(w.alloc.Alive())
	toKill := make([]entity.Entity, 0, len(ids))
	for _, idx := range ids {
		toKill = append(toKill, w.alloc.CurrentEntity(idx))
	}
	for _, e := range toKill {
		w.alloc.Kill(e)
		w.dropComponents(e.Index)
	}
}

func (w *World) dropComponents(id entity.Index) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, slot := range w.components {
		slot.remove(id)
	}
}

// Maintain applies every lazily-queued world mutation, then merges
// pending atomic entity creations and deletions into the exclusive
// allocator state, dropping components for every entity merge killed.
func (w *World) Maintain() {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.MaintainDuration)

	for _, update := range w.lazyQ.Drain() {
		update(w)
	}

	dead := w.alloc.Merge()
	for _, e := range dead {
		w.dropComponents(e.Index)
	}
	if len(dead) > 0 {
		metrics.EntitiesKilledTotal.Add(float64(len(dead)))
		w.log.Debug().Int("killed", len(dead)).Msg("maintain merged pending entity deaths")
	}
	metrics.EntitiesAlive.Set(float64(len(bitset.Collect(w.alloc.Alive()))))
}
