package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"codestat/internal/languages"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "codestat.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Positive(t, cfg.Scan.Workers)
	assert.Equal(t, "table", cfg.Scan.Format)
	assert.True(t, cfg.HeadersAsObjectiveC())
	assert.Contains(t, cfg.Scan.Exclude, "Pods")
	assert.Equal(t, 500*time.Millisecond, cfg.Watch.Debounce.Duration)
	assert.Equal(t, "info", cfg.Log.Level)
	require.NoError(t, cfg.Validate())
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
[scan]
workers = 3
languages = ["swift", "objc"]
exclude = ["vendor/**"]
top = 5
format = "JSON"
headers_as_objc = false

[watch]
debounce = "2s"
max_rescans_per_second = 0.5
metrics_addr = ":9100"

[history]
enabled = true
path = "runs.db"

[log]
level = "debug"
format = "json"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Scan.Workers)
	assert.Equal(t, []languages.Tag{languages.Swift, languages.ObjectiveC}, cfg.LanguageTags())
	assert.Equal(t, []string{"vendor/**"}, cfg.Scan.Exclude)
	assert.Equal(t, 5, cfg.Scan.Top)
	assert.Equal(t, "json", cfg.Scan.Format)
	assert.False(t, cfg.HeadersAsObjectiveC())
	assert.Equal(t, 2*time.Second, cfg.Watch.Debounce.Duration)
	assert.Equal(t, 0.5, cfg.Watch.MaxRescansPerSecond)
	assert.Equal(t, ":9100", cfg.Watch.MetricsAddr)
	assert.True(t, cfg.History.Enabled)
	assert.Equal(t, "runs.db", cfg.History.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadExplicitMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}

func TestLoadDefaultFileMissingUsesDefaults(t *testing.T) {
	chdirForTest(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "table", cfg.Scan.Format)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := map[string]string{
		"format":   "[scan]\nformat = \"xml\"\n",
		"workers":  "[scan]\nworkers = -2\n",
		"language": "[scan]\nlanguages = [\"cobol\"]\n",
		"glob":     "[scan]\nexclude = [\"[oops\"]\n",
		"level":    "[log]\nlevel = \"loud\"\n",
		"top":      "[scan]\ntop = -1\n",
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, content))
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("CODESTAT_WORKERS", "7")
	t.Setenv("CODESTAT_LANGUAGES", "kotlin, swift")
	t.Setenv("CODESTAT_HISTORY", "true")
	t.Setenv("CODESTAT_LOG_LEVEL", "warn")

	cfg, err := Load(writeConfig(t, "[scan]\nworkers = 2\n"))
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Scan.Workers)
	assert.Equal(t, []languages.Tag{languages.Kotlin, languages.Swift}, cfg.LanguageTags())
	assert.True(t, cfg.History.Enabled)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestApplyEnvRejectsBadNumbers(t *testing.T) {
	cfg := Default()
	lookup := func(key string) (string, bool) {
		if key == "CODESTAT_WORKERS" {
			return "many", true
		}
		return "", false
	}

	assert.ErrorIs(t, applyEnv(cfg, lookup), ErrInvalid)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, SplitList(" a, ,b ,"))
	assert.Empty(t, SplitList(""))
}

// chdirForTest mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdirForTest(t *testing.T, dir string) {
	t.Helper()

	previous, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		require.NoError(t, os.Chdir(previous))
	})
}
