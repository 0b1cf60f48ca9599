package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lprof/internal/report"
)

var treeCmd = &cobra.Command{
	Use:   "tree [flags] <trace>",
	Short: "Print the call tree rebuilt from a trace file",
	Args:  cobra.ExactArgs(1),
	RunE:  runTree,
}

func init() {
	treeCmd.Flags().Int("max-depth", 0, "stop descending below this depth (0 = unlimited)")
}

func runTree(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	maxDepth, err := cmd.Flags().GetInt("max-depth")
	if err != nil {
		return fmt.Errorf("failed to get max-depth flag: %w", err)
	}
	tr, err := report.ReadFile(args[0])
	if err != nil {
		return err
	}
	return report.WriteTree(cmd.OutOrStdout(), tr.Tree(), report.TableOptions{
		Color:    s.color,
		MaxDepth: maxDepth,
	})
}
