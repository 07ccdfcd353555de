package main

import (
	"github.com/loom-engine/loom/pkg/join"
	"github.com/loom-engine/loom/pkg/system"
	"github.com/loom-engine/loom/pkg/world"
)

// movementSystem advances every entity with both a Position and a
// Velocity by one tick: position += velocity.
type movementSystem struct {
	w *world.World
}

func (s *movementSystem) Name() string { return "movement" }

func (s *movementSystem) Access() system.Access {
	return system.Access{
		Reads:  []system.ResourceID{"Velocity"},
		Writes: []system.ResourceID{"Position"},
	}
}

func (s *movementSystem) Run() error {
	positions := world.WriteStorage[Position](s.w)
	velocities := world.WriteStorage[Velocity](s.w)

	for _, row := range join.Join2(join.From(positions), join.From(velocities)) {
		row.A.X += row.B.DX
		row.A.Y += row.B.DY
	}
	return nil
}
