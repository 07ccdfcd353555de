package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/loom-engine/loom/pkg/dispatch"
	"github.com/loom-engine/loom/pkg/metrics"
	"github.com/loom-engine/loom/pkg/world"
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Run a synthetic dispatch benchmark over N entities",
	RunE:  runBench,
}

func init() {
	benchCmd.Flags().Int("entities", 10000, "Number of synthetic entities to create")
	benchCmd.Flags().Int("steps", 100, "Number of dispatch steps to run")
}

func runBench(cmd *cobra.Command, args []string) error {
	numEntities, _ := cmd.Flags().GetInt("entities")
	steps, _ := cmd.Flags().GetInt("steps")

	w := NewDemoWorld()
	positions := world.WriteStorage[Position](w)
	velocities := world.WriteStorage[Velocity](w)

	for i := 0; i < numEntities; i++ {
		e := w.CreateEntity()
		positions.Insert(e, Position{X: float64(i), Y: float64(i)})
		if i%2 == 0 {
			velocities.Insert(e, Velocity{DX: 1, DY: 1})
		}
	}

	d, err := dispatch.NewBuilder().Add(&movementSystem{w: w}).Build()
	if err != nil {
		return fmt.Errorf("loomctl: build dispatcher: %w", err)
	}

	timer := metrics.NewTimer()
	ctx := context.Background()
	for i := 0; i < steps; i++ {
		if err := d.Dispatch(ctx); err != nil {
			return fmt.Errorf("loomctl: step %d: %w", i, err)
		}
		w.Maintain()
	}
	elapsed := timer.Duration()

	fmt.Printf("Bench: %d entities (%d moving), %d steps\n", numEntities, numEntities/2, steps)
	fmt.Printf("  Total:     %s\n", elapsed)
	fmt.Printf("  Per step:  %s\n", elapsed/time.Duration(steps))
	return nil
}
