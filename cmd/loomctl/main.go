// Command loomctl is a small demonstration harness around the loom ECS
// runtime: it loads a YAML scene description, builds a world and
// dispatcher from it, and runs or benchmarks a dispatch loop over it.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/loom-engine/loom/pkg/ecslog"
)

var (
	// Version information, set via ldflags during build.
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "loomctl",
	Short:   "loomctl drives a loom world from a YAML scene description",
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"loomctl version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(benchCmd)
}

func initLogging() {
	level, _ := rootCmd.PersistentFlags().GetString("log-level")
	jsonOut, _ := rootCmd.PersistentFlags().GetBool("log-json")
	ecslog.Init(ecslog.Config{
		Level:      ecslog.Level(level),
		JSONOutput: jsonOut,
	})
}
