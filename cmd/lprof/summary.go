package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lprof/internal/report"
)

var summaryCmd = &cobra.Command{
	Use:   "summary [flags] <trace>...",
	Short: "Summarize trace files per function",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSummary,
}

func init() {
	summaryCmd.Flags().Int("top", 0, "show only the N functions with the most local time (0 = all)")
	summaryCmd.Flags().String("format", "table", "output format (table|json)")
	summaryCmd.Flags().Int("jobs", 0, "files parsed in parallel (0 = GOMAXPROCS)")
	summaryCmd.Flags().Int("name-width", 40, "function column width")
}

func runSummary(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	top, err := cmd.Flags().GetInt("top")
	if err != nil {
		return fmt.Errorf("failed to get top flag: %w", err)
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	width, err := cmd.Flags().GetInt("name-width")
	if err != nil {
		return fmt.Errorf("failed to get name-width flag: %w", err)
	}
	switch format {
	case "table", "json":
	default:
		return fmt.Errorf("unsupported format %q (must be table or json)", format)
	}

	traces, err := report.ReadFiles(cmd.Context(), jobs, args...)
	if err != nil {
		return err
	}
	trees := make([]*report.Tree, 0, len(traces))
	for _, tr := range traces {
		tree := tr.Tree()
		if tree.Orphans > 0 {
			s.log.Warn().Str("path", tr.Path).Int("orphans", tree.Orphans).Msg("trace ends inside unfinished calls")
		}
		trees = append(trees, tree)
	}
	stats := report.Hotspots(report.Summarize(trees...), top)

	if format == "json" {
		return report.WriteJSON(cmd.OutOrStdout(), stats)
	}
	return report.WriteTable(cmd.OutOrStdout(), stats, report.TableOptions{Color: s.color, NameWidth: width})
}
