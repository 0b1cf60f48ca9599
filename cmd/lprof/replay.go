package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"lprof/internal/clock"
	"lprof/internal/hook"
	"lprof/internal/profiler"
	"lprof/internal/tracelog"
)

var replayCmd = &cobra.Command{
	Use:   "replay [flags] <events.mp>",
	Short: "Replay recorded hook events into a trace file",
	Long:  `Replay a msgpack stream of call/return events through a profiling session and write the resulting trace`,
	Args:  cobra.ExactArgs(1),
	RunE:  runReplay,
}

func init() {
	replayCmd.Flags().StringP("output", "o", "", "trace path template, %s is replaced by the session id")
	replayCmd.Flags().Bool("header", true, "write the column header line")
	replayCmd.Flags().Float64("overhead", 0, "seconds added to every call to compensate hook cost")
	replayCmd.Flags().String("clock", "", "time source (cpu|wall)")
	replayCmd.Flags().String("format", "", "trace format (tsv|ndjson)")
	replayCmd.Flags().String("session-id", "", "session id substituted into the output template")
}

// replayConfig merges explicitly set flags over the configuration file.
func replayConfig(cmd *cobra.Command, s settings) (profiler.Config, error) {
	cfg, err := s.file.SessionConfig()
	if err != nil {
		return profiler.Config{}, err
	}
	flags := cmd.Flags()
	if flags.Changed("output") {
		if cfg.OutputPathTemplate, err = flags.GetString("output"); err != nil {
			return profiler.Config{}, fmt.Errorf("failed to get output flag: %w", err)
		}
	}
	if flags.Changed("header") {
		if cfg.EmitHeader, err = flags.GetBool("header"); err != nil {
			return profiler.Config{}, fmt.Errorf("failed to get header flag: %w", err)
		}
	}
	if flags.Changed("overhead") {
		if cfg.CallOverhead, err = flags.GetFloat64("overhead"); err != nil {
			return profiler.Config{}, fmt.Errorf("failed to get overhead flag: %w", err)
		}
	}
	if flags.Changed("clock") {
		v, _ := flags.GetString("clock")
		if cfg.Clock, err = clock.ParseKind(v); err != nil {
			return profiler.Config{}, err
		}
	}
	if flags.Changed("format") {
		v, _ := flags.GetString("format")
		if cfg.Format, err = tracelog.ParseFormat(v); err != nil {
			return profiler.Config{}, err
		}
	}
	if cfg.SessionID, err = flags.GetString("session-id"); err != nil {
		return profiler.Config{}, fmt.Errorf("failed to get session-id flag: %w", err)
	}
	return cfg, nil
}

func runReplay(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	cfg, err := replayConfig(cmd, s)
	if err != nil {
		return err
	}

	in, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open events: %w", err)
	}
	defer in.Close()

	session, err := profiler.Open(cfg, profiler.WithLogger(s.log))
	if err != nil {
		return fmt.Errorf("failed to start profiling session: %w", err)
	}

	n, replayErr := hook.Replay(cmd.Context(), in, hook.NewDispatcher(session))
	depth := session.Depth()
	if err := session.Close(); err != nil {
		s.log.Warn().Err(err).Msg("failed to close trace")
	}
	if replayErr != nil {
		dumpRing(cmd, s, session)
		return fmt.Errorf("replay stopped after %d events: %w", n, replayErr)
	}
	if depth > 0 {
		s.log.Warn().Int("depth", depth).Msg("events ended inside unfinished calls")
	}
	if dropped := session.Dropped(); dropped > 0 {
		dumpRing(cmd, s, session)
		return fmt.Errorf("%d trace records could not be written to %s", dropped, session.Path())
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s (%d events)\n", session.Path(), n)
	return nil
}

// dumpRing prints the last records kept in memory (ring_size in
// lprof.toml) to stderr after a failed replay.
func dumpRing(cmd *cobra.Command, s settings, session *profiler.Session) {
	ring := session.Ring()
	if ring == nil {
		return
	}
	out := cmd.ErrOrStderr()
	fmt.Fprintf(out, "last %d trace records:\n", len(ring.Snapshot()))
	if err := session.DumpRing(out); err != nil {
		s.log.Warn().Err(err).Msg("failed to dump ring buffer")
	}
}
