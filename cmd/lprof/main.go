package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"lprof/internal/version"
)

var rootCmd = &cobra.Command{
	Use:           "lprof",
	Short:         "Call-stack timing profiler toolkit",
	Long:          `lprof replays recorded hook events into flat call traces and summarizes trace files`,
	SilenceUsage:  true,
	SilenceErrors: false,
}

// main registers subcommands and persistent flags, then executes the root
// command. A command error exits with status 1.
func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(recordDemoCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(treeCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("config", "", "path to lprof.toml (default: nearest one above the working directory)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// isTerminal reports whether f is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
