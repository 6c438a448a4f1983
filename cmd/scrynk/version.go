package main

import (
	"fmt"
	"runtime/debug"

	"github.com/scrynk/scrynk/api/handler"
	"github.com/spf13/cobra"
)

// Set at build time via -ldflags "-X main.version=... -X main.commit=...".
var (
	version = ""
	commit  = ""
)

// getVersion prefers ldflags, then module build info, then the version the
// health endpoint reports.
func getVersion() string {
	if version != "" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return handler.Version
}

// getCommit prefers ldflags, then the VCS revision recorded by the Go tool.
func getCommit() string {
	if commit != "" {
		return commit
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && s.Value != "" {
				if len(s.Value) > 7 {
					return s.Value[:7]
				}
				return s.Value
			}
		}
	}
	return "unknown"
}

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "scrynk version %s (commit %s)\n", getVersion(), getCommit())
		},
	}
}
