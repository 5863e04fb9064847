package main

import (
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE:  versionRun,
	Args:  cobra.ExactArgs(0),
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// Version is set with -ldflags when releasing; otherwise we make do with the VCS stamp.
var Version = "unknown"

func versionRun(cmd *cobra.Command, args []string) error {
	fmt.Printf("wp-migrate version %s\n", shortVersion())
	return nil
}

func shortVersion() string {
	revision, dirty := "", false
	if info, ok := debug.ReadBuildInfo(); ok {
		if Version == "unknown" {
			Version = info.Main.Version
		}
		for _, kv := range info.Settings {
			switch kv.Key {
			case "vcs.revision":
				revision = kv.Value
			case "vcs.modified":
				dirty = kv.Value == "true"
			}
		}
	}

	parts := make([]string, 0, 3)
	if Version != "unknown" && Version != "(devel)" && Version != "" {
		parts = append(parts, Version)
	}
	if revision != "" {
		parts = append(parts, "rev", revision)
		if dirty {
			parts = append(parts, "dirty")
		}
	}
	if len(parts) == 0 {
		return "devel"
	}
	return strings.Join(parts, "-")
}
