package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/loom-engine/loom/pkg/entity"
	"github.com/loom-engine/loom/pkg/storage"
	"github.com/loom-engine/loom/pkg/world"
)

// Position and Velocity are loomctl's own demo components; the engine
// itself knows nothing about them. Any scene YAML can only populate the
// components loomctl registers here.
type Position struct {
	X, Y float64
}

type Velocity struct {
	DX, DY float64
}

// Scene is the YAML document shape a scene file must follow:
//
//	entities:
//	  - position: {x: 1, y: 2}
//	    velocity: {dx: 1, dy: 0}
//	  - position: {x: 5, y: 5}
type Scene struct {
	Entities []SceneEntity `yaml:"entities"`
}

type SceneEntity struct {
	Position *struct {
		X float64 `yaml:"x"`
		Y float64 `yaml:"y"`
	} `yaml:"position"`
	Velocity *struct {
		DX float64 `yaml:"dx"`
		DY float64 `yaml:"dy"`
	} `yaml:"velocity"`
}

// LoadScene reads and parses a scene file. It does not touch a world;
// callers pick what to do with the result (build a world, or just print
// a summary for inspect).
func LoadScene(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loomctl: read scene %s: %w", path, err)
	}
	var scene Scene
	if err := yaml.Unmarshal(data, &scene); err != nil {
		return nil, fmt.Errorf("loomctl: parse scene %s: %w", path, err)
	}
	return &scene, nil
}

// NewDemoWorld registers Position and Velocity and returns an empty world
// ready for BuildScene.
func NewDemoWorld() *world.World {
	w := world.New()
	world.Register[Position](w, storage.NewDenseStorage[Position]())
	world.Register[Velocity](w, storage.NewDenseStorage[Velocity]())
	return w
}

// BuildScene creates one entity per scene.Entities element in w, inserting
// whichever of Position/Velocity each element specified.
func BuildScene(w *world.World, scene *Scene) []entity.Entity {
	positions := world.WriteStorage[Position](w)
	velocities := world.WriteStorage[Velocity](w)

	entities := make([]entity.Entity, 0, len(scene.Entities))
	for _, se := range scene.Entities {
		e := w.CreateEntity()
		if se.Position != nil {
			positions.Insert(e, Position{X: se.Position.X, Y: se.Position.Y})
		}
		if se.Velocity != nil {
			velocities.Insert(e, Velocity{DX: se.Velocity.DX, DY: se.Velocity.DY})
		}
		entities = append(entities, e)
	}
	return entities
}
