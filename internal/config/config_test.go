package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"lprof/internal/clock"
	"lprof/internal/profiler"
	"lprof/internal/tracelog"
)

func writeConfig(t *testing.T, dir, data string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	return path
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `# test config
[profile]
output = "/tmp/run_%s.out"
call_overhead = 0.000002
clock = "wall"
ring_size = 128

[log]
level = "debug"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, path, cfg.Path)
	require.True(t, cfg.Profile.Header, "header keeps its default")
	require.Equal(t, "tsv", cfg.Profile.Format)

	sc, err := cfg.SessionConfig()
	require.NoError(t, err)
	require.Equal(t, profiler.Config{
		OutputPathTemplate: "/tmp/run_%s.out",
		EmitHeader:         true,
		CallOverhead:       0.000002,
		Clock:              clock.KindWall,
		Format:             tracelog.FormatTSV,
		RingSize:           128,
	}, sc)
	require.Equal(t, "debug", cfg.LoggingConfig().Level)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"clock":    "[profile]\nclock = \"sundial\"\n",
		"format":   "[profile]\nformat = \"xml\"\n",
		"overhead": "[profile]\ncall_overhead = -1.0\n",
		"nan":      "[profile]\ncall_overhead = nan\n",
		"inf":      "[profile]\ncall_overhead = +inf\n",
		"ring":     "[profile]\nring_size = -3\n",
		"level":    "[log]\nlevel = \"loud\"\n",
		"syntax":   "[profile\n",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, t.TempDir(), data))
			require.Error(t, err)
		})
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "[profile]\ncall_overhed = 0.5\nheadr = false\n\n[logging]\nlevel = \"debug\"\n")
	_, err := Load(path)
	require.Error(t, err)
	for _, key := range []string{"profile.call_overhed", "profile.headr", "logging"} {
		require.ErrorContains(t, err, key)
	}
}

func TestFindWalksUp(t *testing.T) {
	root := t.TempDir()
	path := writeConfig(t, root, "[profile]\nheader = false\n")
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	found, err := Find(nested)
	require.NoError(t, err)
	require.Equal(t, path, found)

	cfg, err := Discover(nested)
	require.NoError(t, err)
	require.False(t, cfg.Profile.Header)
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	sc, err := cfg.SessionConfig()
	require.NoError(t, err)
	require.Equal(t, profiler.DefaultOutputTemplate, sc.OutputPathTemplate)
	require.Equal(t, clock.KindCPU, sc.Clock)
}
