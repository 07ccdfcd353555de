package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/loom-engine/loom/internal/snapshot"
	"github.com/loom-engine/loom/pkg/dispatch"
	"github.com/loom-engine/loom/pkg/entity"
	"github.com/loom-engine/loom/pkg/storage"
	"github.com/loom-engine/loom/pkg/world"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Build a world from a scene file and run N dispatch steps",
	RunE:  runRun,
}

func init() {
	runCmd.Flags().StringP("scene", "f", "", "YAML scene file (required)")
	runCmd.Flags().Int("steps", 10, "Number of dispatch steps to run")
	runCmd.Flags().String("save", "", "Path to write a component snapshot after the run")
	_ = runCmd.MarkFlagRequired("scene")
}

func runRun(cmd *cobra.Command, args []string) error {
	scenePath, _ := cmd.Flags().GetString("scene")
	steps, _ := cmd.Flags().GetInt("steps")
	savePath, _ := cmd.Flags().GetString("save")

	sessionID := uuid.New()
	fmt.Printf("Run %s\n", sessionID)
	fmt.Printf("  Scene: %s\n", scenePath)
	fmt.Printf("  Steps: %d\n", steps)

	scene, err := LoadScene(scenePath)
	if err != nil {
		return err
	}

	w := NewDemoWorld()
	entities := BuildScene(w, scene)
	fmt.Printf("✓ Loaded %d entities\n", len(entities))

	d, err := dispatch.NewBuilder().Add(&movementSystem{w: w}).Build()
	if err != nil {
		return fmt.Errorf("loomctl: build dispatcher: %w", err)
	}

	ctx := context.Background()
	for i := 0; i < steps; i++ {
		if err := d.Dispatch(ctx); err != nil {
			return fmt.Errorf("loomctl: step %d: %w", i, err)
		}
		w.Maintain()
	}
	fmt.Printf("✓ Ran %d steps\n", steps)

	positions := world.ReadStorage[Position](w)

	if savePath != "" {
		if err := saveSnapshot(positions, entities, savePath); err != nil {
			return err
		}
		fmt.Printf("✓ Snapshot written: %s\n", savePath)
	}

	for _, e := range entities {
		if p, ok := positions.Get(e); ok {
			fmt.Printf("  entity %d: position=(%.2f, %.2f)\n", e.Index, p.X, p.Y)
		}
	}
	return nil
}

func saveSnapshot(positions *storage.Storage[Position], entities []entity.Entity, path string) error {
	store, err := snapshot.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	values := make(map[uint32]Position, len(entities))
	for _, e := range entities {
		if p, ok := positions.Get(e); ok {
			values[e.Index] = *p
		}
	}
	return snapshot.SaveComponents(store, "position", values)
}
