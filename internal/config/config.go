// Package config loads lprof.toml.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"lprof/internal/clock"
	"lprof/internal/logging"
	"lprof/internal/profiler"
	"lprof/internal/tracelog"
)

// FileName is the configuration file looked up by Find.
const FileName = "lprof.toml"

// ErrNotFound is returned by Find when no configuration file exists.
var ErrNotFound = errors.New("no " + FileName + " found")

// File mirrors lprof.toml.
type File struct {
	Profile ProfileConfig `toml:"profile"`
	Log     LogConfig     `toml:"log"`

	// Path is where the file was loaded from ("" for defaults).
	Path string `toml:"-"`
}

// ProfileConfig is the [profile] table.
type ProfileConfig struct {
	Output       string  `toml:"output"`
	Header       bool    `toml:"header"`
	CallOverhead float64 `toml:"call_overhead"`
	Clock        string  `toml:"clock"`
	Format       string  `toml:"format"`
	RingSize     int     `toml:"ring_size"`
}

// LogConfig is the [log] table.
type LogConfig struct {
	Level  string `toml:"level"`
	Pretty bool   `toml:"pretty"`
}

// Default returns the configuration used when no file exists.
func Default() File {
	return File{
		Profile: ProfileConfig{
			Output: profiler.DefaultOutputTemplate,
			Header: true,
			Clock:  clock.KindCPU.String(),
			Format: tracelog.FormatTSV.String(),
		},
		Log: LogConfig{
			Level:  "warn",
			Pretty: true,
		},
	}
}

// Find walks from startDir up to the filesystem root looking for lprof.toml.
func Find(startDir string) (string, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNotFound
		}
		dir = parent
	}
}

// Load decodes path on top of Default. Keys absent from the file keep
// their default values; unknown keys are rejected.
func Load(path string) (File, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return File{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return File{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	cfg.Path = path
	if err := cfg.Validate(); err != nil {
		return File{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Discover loads the nearest lprof.toml above startDir, or Default when
// there is none.
func Discover(startDir string) (File, error) {
	path, err := Find(startDir)
	if errors.Is(err, ErrNotFound) {
		return Default(), nil
	}
	if err != nil {
		return File{}, err
	}
	return Load(path)
}

// Validate checks enumerated and numeric values.
func (f File) Validate() error {
	if _, err := clock.ParseKind(f.Profile.Clock); err != nil {
		return fmt.Errorf("[profile].clock: %w", err)
	}
	if _, err := tracelog.ParseFormat(f.Profile.Format); err != nil {
		return fmt.Errorf("[profile].format: %w", err)
	}
	if math.IsNaN(f.Profile.CallOverhead) || math.IsInf(f.Profile.CallOverhead, 0) {
		return fmt.Errorf("[profile].call_overhead must be a finite number")
	}
	if f.Profile.CallOverhead < 0 {
		return fmt.Errorf("[profile].call_overhead must not be negative")
	}
	if f.Profile.RingSize < 0 {
		return fmt.Errorf("[profile].ring_size must not be negative")
	}
	if _, err := logging.ParseLevel(f.Log.Level); err != nil {
		return fmt.Errorf("[log].level: %w", err)
	}
	return nil
}

// SessionConfig converts the [profile] table into a session configuration.
func (f File) SessionConfig() (profiler.Config, error) {
	kind, err := clock.ParseKind(f.Profile.Clock)
	if err != nil {
		return profiler.Config{}, err
	}
	format, err := tracelog.ParseFormat(f.Profile.Format)
	if err != nil {
		return profiler.Config{}, err
	}
	return profiler.Config{
		OutputPathTemplate: f.Profile.Output,
		EmitHeader:         f.Profile.Header,
		CallOverhead:       f.Profile.CallOverhead,
		Clock:              kind,
		Format:             format,
		RingSize:           f.Profile.RingSize,
	}, nil
}

// LoggingConfig converts the [log] table into a logger configuration.
func (f File) LoggingConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = f.Log.Level
	cfg.Pretty = f.Log.Pretty
	return cfg
}
