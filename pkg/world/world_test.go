package world

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/loom-engine/loom/pkg/change"
	"github.com/loom-engine/loom/pkg/join"
	"github.com/loom-engine/loom/pkg/storage"
)

type position struct{ X, Y int }
type velocity struct{ DX, DY int }

type tickCount struct{ N int }

func newTestWorld() *World {
	w := New()
	Register[position](w, storage.NewDenseStorage[position]())
	Register[velocity](w, storage.NewDenseStorage[velocity]())
	InsertResource(w, tickCount{})
	return w
}

func TestRegisterThenInsertRoundTrips(t *testing.T) {
	w := newTestWorld()
	e := w.CreateEntity()

	positions := WriteStorage[position](w)
	positions.Insert(e, position{1, 2})

	got, ok := ReadStorage[position](w).Get(e)
	require.True(t, ok)
	require.Equal(t, position{1, 2}, *got)
}

func TestReadStorageOnUnregisteredComponentPanics(t *testing.T) {
	w := New()
	require.Panics(t, func() {
		ReadStorage[position](w)
	})
}

func TestJoinOverTwoComponentsThroughWorld(t *testing.T) {
	w := newTestWorld()
	e0 := w.CreateEntity()
	e1 := w.CreateEntity()
	e2 := w.CreateEntity()

	positions := WriteStorage[position](w)
	velocities := WriteStorage[velocity](w)
	positions.Insert(e0, position{0, 0})
	positions.Insert(e1, position{1, 1})
	positions.Insert(e2, position{2, 2})
	velocities.Insert(e1, velocity{9, 9})

	rows := join.Join2(join.From(positions), join.From(velocities))
	require.Len(t, rows, 1)
	require.Equal(t, e1.Index, rows[0].Entity)
}

func TestDeleteEntityDropsComponentsImmediately(t *testing.T) {
	w := newTestWorld()
	e := w.CreateEntity()
	WriteStorage[position](w).Insert(e, position{3, 4})

	require.NoError(t, w.DeleteEntity(e))
	_, ok := ReadStorage[position](w).Get(e)
	require.False(t, ok)
}

func TestGenerationReusedAfterDeleteThroughWorld(t *testing.T) {
	w := newTestWorld()
	e := w.CreateEntity()
	require.NoError(t, w.DeleteEntity(e))

	reborn := w.CreateEntity()
	require.Equal(t, e.Index, reborn.Index)
	require.NotEqual(t, e.Generation, reborn.Generation)
	require.False(t, w.Allocator().IsAlive(e))
	require.True(t, w.Allocator().IsAlive(reborn))
}

func TestAtomicCreateIsUsableBeforeMaintainButMergedOnMaintain(t *testing.T) {
	w := newTestWorld()
	e := w.CreateEntityAtomic()

	// IsAlive already honours the pending "raised" set, so component
	// access works immediately; only the allocator's own merged Alive
	// bitset waits for Maintain.
	require.True(t, w.Allocator().IsAlive(e))
	require.False(t, w.Allocator().Alive().Contains(e.Index))

	w.Maintain()
	require.True(t, w.Allocator().Alive().Contains(e.Index))
}

func TestAtomicDeleteDropsComponentsOnMaintain(t *testing.T) {
	w := newTestWorld()
	e := w.CreateEntity()
	WriteStorage[position](w).Insert(e, position{5, 5})

	require.NoError(t, w.DeleteEntityAtomic(e))
	_, ok := ReadStorage[position](w).Get(e)
	require.True(t, ok, "component survives until Maintain merges the kill")

	w.Maintain()
	_, ok = ReadStorage[position](w).Get(e)
	require.False(t, ok)
}

func TestLazyUpdateAppliesOnMaintain(t *testing.T) {
	w := newTestWorld()
	var created bool
	w.LazyUpdate().Exec(func(lw *World) {
		e := lw.CreateEntity()
		WriteStorage[position](lw).Insert(e, position{7, 7})
		created = true
	})
	require.False(t, created)

	w.Maintain()
	require.True(t, created)
}

func TestDeleteAllClearsEveryEntity(t *testing.T) {
	w := newTestWorld()
	w.CreateEntity()
	w.CreateEntity()
	w.CreateEntity()

	w.DeleteAll()

	rows := join.Join2(w.Entities(), join.From(WriteStorage[position](w)))
	require.Empty(t, rows)
}

func TestResourceReadWriteThroughWorld(t *testing.T) {
	w := newTestWorld()
	WriteResource[tickCount](w).Set(tickCount{N: 1})

	got := ReadResource[tickCount](w)
	require.Equal(t, 1, got.Get().N)
	got.Release()
}

func TestEntityBuilderInsertsAllComponentsImmediately(t *testing.T) {
	w := newTestWorld()
	e := With(With(w.CreateEntityBuilder(), position{1, 2}), velocity{3, 4}).Build()

	pos, ok := ReadStorage[position](w).Get(e)
	require.True(t, ok)
	require.Equal(t, position{1, 2}, *pos)

	vel, ok := ReadStorage[velocity](w).Get(e)
	require.True(t, ok)
	require.Equal(t, velocity{3, 4}, *vel)
}

func TestLazyEntityBuilderDefersComponentsToMaintain(t *testing.T) {
	w := newTestWorld()
	e := LazyWith(LazyWith(w.LazyCreateEntityBuilder(), position{5, 6}), velocity{7, 8}).Build()

	// The entity's identity is usable immediately...
	require.True(t, w.Allocator().IsAlive(e))
	// ...but its components are not present until Maintain runs.
	_, ok := ReadStorage[position](w).Get(e)
	require.False(t, ok)

	w.Maintain()

	pos, ok := ReadStorage[position](w).Get(e)
	require.True(t, ok)
	require.Equal(t, position{5, 6}, *pos)
}

func TestFlaggedBackendComposesThroughWorldRegistration(t *testing.T) {
	w := New()
	flagged := change.NewFlagged[position](storage.NewDenseStorage[position]())
	Register[position](w, flagged)
	reader := flagged.Channel().RegisterReader()

	e := w.CreateEntity()
	WriteStorage[position](w).Insert(e, position{1, 1})

	events := flagged.Channel().Drain(reader)
	require.Len(t, events, 1)
	require.Equal(t, change.Inserted, events[0].Kind)
}
