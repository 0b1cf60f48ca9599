package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"lprof/internal/hook"
)

var recordDemoCmd = &cobra.Command{
	Use:   "record-demo [flags] <events.mp>",
	Short: "Write a sample recorded event stream",
	Long:  `Write a recorded event stream of a small recursive program, suitable as input for replay`,
	Args:  cobra.ExactArgs(1),
	RunE:  runRecordDemo,
}

func init() {
	recordDemoCmd.Flags().Int("depth", 5, "recursion depth of the sample program")
}

func runRecordDemo(cmd *cobra.Command, args []string) error {
	depth, err := cmd.Flags().GetInt("depth")
	if err != nil {
		return fmt.Errorf("failed to get depth flag: %w", err)
	}
	if depth < 0 {
		return fmt.Errorf("depth must not be negative: %d", depth)
	}

	f, err := os.Create(args[0])
	if err != nil {
		return fmt.Errorf("failed to create events file: %w", err)
	}
	rec := hook.NewRecorder(f)
	if err := recordFib(rec, depth); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (%d events)\n", args[0], rec.Count())
	return nil
}

// recordFib records the calls of a naive fib(n) called from a main chunk.
func recordFib(rec *hook.Recorder, n int) error {
	if err := rec.Call("@fib.lua", "main", 0, 12); err != nil {
		return err
	}
	var fib func(n, line int) error
	fib = func(n, line int) error {
		if err := rec.Call("@fib.lua", "fib", 1, line); err != nil {
			return err
		}
		if n > 1 {
			if err := fib(n-1, 3); err != nil {
				return err
			}
			if err := fib(n-2, 3); err != nil {
				return err
			}
		}
		return rec.Return()
	}
	if err := fib(n, 12); err != nil {
		return err
	}
	if err := rec.TailCall("@fib.lua", "print", 0, 13); err != nil {
		return err
	}
	return rec.Return()
}
