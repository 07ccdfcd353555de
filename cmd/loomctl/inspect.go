package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print a summary of a scene file without running it",
	RunE:  runInspect,
}

func init() {
	inspectCmd.Flags().StringP("scene", "f", "", "YAML scene file (required)")
	_ = inspectCmd.MarkFlagRequired("scene")
}

func runInspect(cmd *cobra.Command, args []string) error {
	scenePath, _ := cmd.Flags().GetString("scene")

	scene, err := LoadScene(scenePath)
	if err != nil {
		return err
	}

	withPosition, withVelocity, withBoth := 0, 0, 0
	for _, e := range scene.Entities {
		if e.Position != nil {
			withPosition++
		}
		if e.Velocity != nil {
			withVelocity++
		}
		if e.Position != nil && e.Velocity != nil {
			withBoth++
		}
	}

	fmt.Printf("Scene: %s\n", scenePath)
	fmt.Printf("  Entities:        %d\n", len(scene.Entities))
	fmt.Printf("  With Position:   %d\n", withPosition)
	fmt.Printf("  With Velocity:   %d\n", withVelocity)
	fmt.Printf("  Moving (both):   %d\n", withBoth)
	return nil
}
