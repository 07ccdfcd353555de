// Package dispatch builds a conflict-free, dependency-respecting schedule
// over a set of systems and runs each layer of it concurrently. A layer's
// systems are guaranteed, by construction, to touch no resource in common
// that would make concurrent execution unsafe.
package dispatch

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/loom-engine/loom/pkg/ecslog"
	"github.com/loom-engine/loom/pkg/system"
)

type node struct {
	sys       system.System
	dependsOn map[string]bool
	segment   int
}

// Builder accumulates systems and their ordering constraints, then
// compiles them into a Dispatcher.
type Builder struct {
	nodes   []*node
	byName  map[string]*node
	segment int
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{byName: make(map[string]*node)}
}

// Add registers s, optionally depending on the named systems already added
// to this Builder. A dependency forces s to start only after every named
// system has finished, regardless of what Access conflicts alone would
// require.
func (b *Builder) Add(s system.System, dependsOn ...string) *Builder {
	n := &node{sys: s, dependsOn: make(map[string]bool), segment: b.segment}
	for _, d := range dependsOn {
		n.dependsOn[d] = true
	}
	b.nodes = append(b.nodes, n)
	b.byName[s.Name()] = n
	return b
}

// Barrier forces every system added so far to complete before any system
// added after it starts, regardless of Access conflicts. Use it sparingly,
// to fence off a stage (e.g. "all movement systems, then all collision
// systems") without naming every cross-stage dependency by hand.
func (b *Builder) Barrier() *Builder {
	b.segment++
	return b
}

// Build compiles the accumulated systems into a layered schedule. It
// returns an error if a dependency names a system that was never added.
func (b *Builder) Build() (*Dispatcher, error) {
	for _, n := range b.nodes {
		for dep := range n.dependsOn {
			if _, ok := b.byName[dep]; !ok {
				return nil, fmt.Errorf("dispatch: %s depends on unknown system %q", n.sys.Name(), dep)
			}
		}
	}

	layerOf := make(map[string]int, len(b.nodes))
	maxLayerInSegment := -1
	curSegment := 0
	segmentBase := 0

	for _, n := range b.nodes {
		if n.segment != curSegment {
			segmentBase = maxLayerInSegment + 1
			curSegment = n.segment
		}

		layer := segmentBase
		for _, prev := range b.nodes {
			if prev == n {
				break
			}
			if prev.segment != n.segment {
				continue
			}
			if n.dependsOn[prev.sys.Name()] || conflicts(prev.sys.Access(), n.sys.Access()) {
				if l := layerOf[prev.sys.Name()] + 1; l > layer {
					layer = l
				}
			}
		}
		layerOf[n.sys.Name()] = layer
		if layer > maxLayerInSegment {
			maxLayerInSegment = layer
		}
	}

	layerCount := 0
	for _, l := range layerOf {
		if l+1 > layerCount {
			layerCount = l + 1
		}
	}
	layers := make([][]system.System, layerCount)
	for _, n := range b.nodes {
		l := layerOf[n.sys.Name()]
		layers[l] = append(layers[l], n.sys)
	}
	for _, layer := range layers {
		sortByEstimatedCostDesc(layer)
	}

	return &Dispatcher{layers: layers, log: ecslog.WithComponent("dispatch")}, nil
}

func conflicts(a, b system.Access) bool {
	writesA := toSet(a.Writes)
	writesB := toSet(b.Writes)
	for w := range writesA {
		if writesB[w] {
			return true
		}
	}
	for _, r := range a.Reads {
		if writesB[system.ResourceID(r)] {
			return true
		}
	}
	for _, r := range b.Reads {
		if writesA[system.ResourceID(r)] {
			return true
		}
	}
	return false
}

func toSet(ids []system.ResourceID) map[system.ResourceID]bool {
	s := make(map[system.ResourceID]bool, len(ids))
	for _, id := range ids {
		s[id] = true
	}
	return s
}

func sortByEstimatedCostDesc(systems []system.System) {
	sort.SliceStable(systems, func(i, j int) bool {
		return cost(systems[i]) > cost(systems[j])
	})
}

func cost(s system.System) int {
	if c, ok := s.(system.EstimatedCost); ok {
		return c.EstimatedCost()
	}
	return 0
}

// Dispatcher runs a compiled, layered schedule.
type Dispatcher struct {
	layers [][]system.System
	log    zerolog.Logger
}

// LayerCount reports how many sequential layers the schedule has.
func (d *Dispatcher) LayerCount() int { return len(d.layers) }
