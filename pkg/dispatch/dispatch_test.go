package dispatch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/loom-engine/loom/pkg/system"
)

type recSystem struct {
	name    string
	access  system.Access
	run     func() error
	cost    int
	hasCost bool
}

func (s recSystem) Name() string           { return s.name }
func (s recSystem) Access() system.Access  { return s.access }
func (s recSystem) Run() error {
	if s.run != nil {
		return s.run()
	}
	return nil
}
func (s recSystem) EstimatedCost() int { return s.cost }

func rw(name string, reads, writes []system.ResourceID) recSystem {
	return recSystem{name: name, access: system.Access{Reads: reads, Writes: writes}}
}

func TestConflictingWritesAreSeparatedIntoLayers(t *testing.T) {
	a := rw("a", nil, []system.ResourceID{"pos"})
	b := rw("b", nil, []system.ResourceID{"pos"})

	d, err := NewBuilder().Add(a).Add(b).Build()
	require.NoError(t, err)
	require.Equal(t, 2, d.LayerCount())
}

func TestNonConflictingSystemsShareALayer(t *testing.T) {
	a := rw("a", nil, []system.ResourceID{"pos"})
	b := rw("b", nil, []system.ResourceID{"vel"})

	d, err := NewBuilder().Add(a).Add(b).Build()
	require.NoError(t, err)
	require.Equal(t, 1, d.LayerCount())
	require.Len(t, d.layers[0], 2)
}

func TestReadersDoNotConflictWithEachOther(t *testing.T) {
	a := rw("a", []system.ResourceID{"pos"}, nil)
	b := rw("b", []system.ResourceID{"pos"}, nil)

	d, err := NewBuilder().Add(a).Add(b).Build()
	require.NoError(t, err)
	require.Equal(t, 1, d.LayerCount())
}

func TestExplicitDependencyForcesOrderingEvenWithoutConflict(t *testing.T) {
	a := rw("a", nil, []system.ResourceID{"pos"})
	b := rw("b", nil, []system.ResourceID{"vel"})

	d, err := NewBuilder().Add(a).Add(b, "a").Build()
	require.NoError(t, err)
	require.Equal(t, 2, d.LayerCount())
	require.Equal(t, "a", d.layers[0][0].Name())
	require.Equal(t, "b", d.layers[1][0].Name())
}

func TestUnknownDependencyErrors(t *testing.T) {
	a := rw("a", nil, nil)
	_, err := NewBuilder().Add(a, "nope").Build()
	require.Error(t, err)
}

func TestBarrierSeparatesSegmentsRegardlessOfConflicts(t *testing.T) {
	a := rw("a", nil, []system.ResourceID{"x"})
	b := rw("b", nil, []system.ResourceID{"y"})

	d, err := NewBuilder().Add(a).Barrier().Add(b).Build()
	require.NoError(t, err)
	require.Equal(t, 2, d.LayerCount())
	require.Equal(t, "a", d.layers[0][0].Name())
	require.Equal(t, "b", d.layers[1][0].Name())
}

func TestEstimatedCostOrdersWithinALayerDescending(t *testing.T) {
	cheap := recSystem{name: "cheap", cost: 1}
	pricey := recSystem{name: "pricey", cost: 10}

	d, err := NewBuilder().Add(cheap).Add(pricey).Build()
	require.NoError(t, err)
	require.Equal(t, 1, d.LayerCount())
	require.Equal(t, "pricey", d.layers[0][0].Name())
	require.Equal(t, "cheap", d.layers[0][1].Name())
}

func TestDispatchRunsAllSystems(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	record := func(name string) func() error {
		return func() error {
			mu.Lock()
			defer mu.Unlock()
			seen = append(seen, name)
			return nil
		}
	}

	a := recSystem{name: "a", run: record("a")}
	b := recSystem{name: "b", run: record("b")}

	d, err := NewBuilder().Add(a).Add(b).Build()
	require.NoError(t, err)
	require.NoError(t, d.Dispatch(context.Background()))
	require.ElementsMatch(t, []string{"a", "b"}, seen)
}

func TestDispatchSurfacesSystemPanicAsError(t *testing.T) {
	boom := recSystem{name: "boom", run: func() error { panic("kaboom") }}

	d, err := NewBuilder().Add(boom).Build()
	require.NoError(t, err)

	err = d.Dispatch(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "boom")
	require.Contains(t, err.Error(), "kaboom")
}

func TestDispatchStopsAtFirstFailingLayer(t *testing.T) {
	var laterRan atomic.Bool

	failing := rw("failing", nil, []system.ResourceID{"pos"})
	failing.run = func() error { return errors.New("boom") }

	later := rw("later", nil, []system.ResourceID{"pos"})
	later.run = func() error { laterRan.Store(true); return nil }

	d, err := NewBuilder().Add(failing).Add(later).Build()
	require.NoError(t, err)
	require.Equal(t, 2, d.LayerCount())

	err = d.Dispatch(context.Background())
	require.Error(t, err)
	require.False(t, laterRan.Load())
}
