package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"lprof/internal/config"
	"lprof/internal/logging"
)

// settings is what every subcommand needs from persistent flags and the
// configuration file.
type settings struct {
	file  config.File
	log   zerolog.Logger
	color bool
}

// loadSettings reads persistent flags, loads the configuration file and
// builds the logger.
func loadSettings(cmd *cobra.Command) (settings, error) {
	root := cmd.Root()

	configPath, err := root.PersistentFlags().GetString("config")
	if err != nil {
		return settings{}, fmt.Errorf("failed to get config flag: %w", err)
	}
	logLevel, err := root.PersistentFlags().GetString("log-level")
	if err != nil {
		return settings{}, fmt.Errorf("failed to get log-level flag: %w", err)
	}
	colorMode, err := root.PersistentFlags().GetString("color")
	if err != nil {
		return settings{}, fmt.Errorf("failed to get color flag: %w", err)
	}

	var file config.File
	if configPath != "" {
		file, err = config.Load(configPath)
	} else {
		file, err = config.Discover(".")
	}
	if err != nil {
		return settings{}, err
	}

	useColor, err := resolveColor(colorMode)
	if err != nil {
		return settings{}, err
	}

	logCfg := file.LoggingConfig()
	if logLevel != "" {
		if _, err := logging.ParseLevel(logLevel); err != nil {
			return settings{}, err
		}
		logCfg.Level = logLevel
	}
	logCfg.Output = cmd.ErrOrStderr()
	logCfg.NoColor = !useColor

	s := settings{
		file:  file,
		log:   logging.NewWithComponent(logCfg, "lprof"),
		color: useColor,
	}
	if file.Path != "" {
		s.log.Debug().Str("path", file.Path).Msg("loaded configuration")
	}
	return s, nil
}

func resolveColor(mode string) (bool, error) {
	switch mode {
	case "on":
		return true, nil
	case "off":
		return false, nil
	case "auto", "":
		return isTerminal(os.Stdout) && os.Getenv("NO_COLOR") == "", nil
	default:
		return false, fmt.Errorf("invalid color mode: %q (expected: auto|on|off)", mode)
	}
}
