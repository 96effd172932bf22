// Package commands implements the taskhive CLI commands using cobra.
package commands

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version is set at build time
	Version = "0.2.0"
)

var (
	userEmailFlag string
	userNameFlag  string
)

var rootCmd = &cobra.Command{
	Use:   "taskhive",
	Short: "Team task manager with AI-assisted planning",
	Long: `Taskhive manages team tasks with workload-aware assignment.

Create groups, enroll members, and let taskhive pick assignees based on
who has the lightest load. With a Gemini API key configured it can also
break free-text requests into tasks, suggest related work, and estimate
durations.`,
	Version: Version,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&userEmailFlag, "email", "", "Act as this email (overrides user.email in config)")
	rootCmd.PersistentFlags().StringVar(&userNameFlag, "name", "", "Act under this name (overrides user.name in config)")
}
