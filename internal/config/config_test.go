package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielnichiata96/RemoteJobsBR-sub000/internal/domain"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, DefaultFetchConcurrency, cfg.Harvest.Concurrency)
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := writeFile(t, t.TempDir(), "app.yml", `
log_level: debug
harvest:
  concurrency: 3
  schedule: "*/30 * * * *"
  host_rate_per_sec: 2
  host_rate_burst: 4
  cache_ttl_seconds: 60
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 3, cfg.Harvest.Concurrency)
	assert.Equal(t, "*/30 * * * *", cfg.Harvest.Schedule)
	// Untouched sections keep their defaults.
	assert.Equal(t, 9090, cfg.App.OpsPort)
	assert.Equal(t, "config", cfg.Paths.FilterConfigDir)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "app.yml", "log_level: [unclosed\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("FETCH_CONCURRENCY", "9")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("DATA_DIR", "/tmp/harvest-data")

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv())

	assert.Equal(t, 9, cfg.Harvest.Concurrency)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "/tmp/harvest-data", cfg.App.DataDir)
}

func TestApplyEnvRejectsNonInteger(t *testing.T) {
	t.Setenv("FETCH_CONCURRENCY", "lots")
	cfg := Default()
	assert.Error(t, cfg.ApplyEnv())
}

func TestNormalizeAndValidate(t *testing.T) {
	t.Run("defaults are valid", func(t *testing.T) {
		out, v := NormalizeAndValidate(Default())
		assert.True(t, v.OK())
		assert.NoError(t, v.Err())
		assert.Empty(t, v.Warnings)
		assert.Equal(t, Default(), out)
	})

	t.Run("concurrency clamps to one", func(t *testing.T) {
		cfg := Default()
		cfg.Harvest.Concurrency = 0
		out, v := NormalizeAndValidate(cfg)
		assert.True(t, v.OK())
		assert.NotEmpty(t, v.Warnings)
		assert.Equal(t, 1, out.Harvest.Concurrency)
	})

	t.Run("bad cron expression", func(t *testing.T) {
		cfg := Default()
		cfg.Harvest.Schedule = "every tuesday"
		_, v := NormalizeAndValidate(cfg)
		assert.False(t, v.OK())
		assert.Error(t, v.Err())
	})

	t.Run("bad log level", func(t *testing.T) {
		cfg := Default()
		cfg.LogLevel = "loud"
		_, v := NormalizeAndValidate(cfg)
		assert.False(t, v.OK())
	})

	t.Run("bad ops port", func(t *testing.T) {
		cfg := Default()
		cfg.App.OpsPort = 70000
		_, v := NormalizeAndValidate(cfg)
		assert.False(t, v.OK())
	})

	t.Run("rate must be positive", func(t *testing.T) {
		cfg := Default()
		cfg.Harvest.HostRatePerSec = 0
		_, v := NormalizeAndValidate(cfg)
		assert.False(t, v.OK())
	})
}

func TestEnsureUserConfigSeedsOnce(t *testing.T) {
	dataDir := t.TempDir()
	defaultPath := writeFile(t, t.TempDir(), "app.yml", "log_level: debug\n")

	userPath, err := EnsureUserConfig(dataDir, defaultPath)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dataDir, "app.yml"), userPath)

	seeded, err := os.ReadFile(userPath)
	require.NoError(t, err)
	assert.Equal(t, "log_level: debug\n", string(seeded))

	// The user's copy is never overwritten.
	require.NoError(t, os.WriteFile(userPath, []byte("log_level: error\n"), 0o644))
	again, err := EnsureUserConfig(dataDir, defaultPath)
	require.NoError(t, err)
	assert.Equal(t, userPath, again)

	kept, err := os.ReadFile(userPath)
	require.NoError(t, err)
	assert.Equal(t, "log_level: error\n", string(kept))
}

func TestEnsureUserConfigNoDefaultShipped(t *testing.T) {
	dataDir := t.TempDir()
	userPath, err := EnsureUserConfig(dataDir, filepath.Join(t.TempDir(), "absent.yml"))
	require.NoError(t, err)
	_, statErr := os.Stat(userPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestBootSeedsLoadsAndValidates(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv("DATA_DIR", dataDir)
	t.Setenv("FETCH_CONCURRENCY", "2")
	t.Setenv("LOG_LEVEL", "")

	defaultPath := writeFile(t, t.TempDir(), "app.yml", "log_level: debug\n")

	cfg, v, err := Boot(defaultPath)
	require.NoError(t, err)
	assert.True(t, v.OK())
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 2, cfg.Harvest.Concurrency)
	assert.Equal(t, dataDir, cfg.App.DataDir)

	// The default landed in the data dir for the operator to edit.
	_, statErr := os.Stat(filepath.Join(dataDir, "app.yml"))
	assert.NoError(t, statErr)
}

func TestBootReportsInvalidConfig(t *testing.T) {
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("FETCH_CONCURRENCY", "")
	t.Setenv("LOG_LEVEL", "loud")

	_, v, err := Boot(filepath.Join(t.TempDir(), "absent.yml"))
	require.NoError(t, err)
	assert.False(t, v.OK())
	assert.Error(t, v.Err())
}

func TestLoadSources(t *testing.T) {
	path := writeFile(t, t.TempDir(), "sources.yml", `
sources:
  - kind: greenhouse
    name: acme
    config:
      boardToken: acme
  - kind: ashby
    name: globex
    company_id: 7
    enabled: false
    config:
      jobBoardName: Globex
  - kind: lever
    name: initech
`)
	descs, err := LoadSources(path)
	require.NoError(t, err)
	require.Len(t, descs, 3)

	assert.Equal(t, domain.KindGreenhouse, descs[0].Kind)
	assert.Equal(t, "acme", descs[0].Name)
	assert.True(t, descs[0].Enabled)
	assert.JSONEq(t, `{"boardToken":"acme"}`, string(descs[0].Config))

	assert.False(t, descs[1].Enabled)
	require.NotNil(t, descs[1].CompanyID)
	assert.Equal(t, int64(7), *descs[1].CompanyID)

	// Entries without a config block carry an empty JSON object.
	assert.True(t, descs[2].Enabled)
	assert.JSONEq(t, `{}`, string(descs[2].Config))
}

func TestLoadSourcesRequiresKindAndName(t *testing.T) {
	path := writeFile(t, t.TempDir(), "sources.yml", `
sources:
  - kind: greenhouse
`)
	_, err := LoadSources(path)
	assert.Error(t, err)
}

func TestLoadSourcesMissingFile(t *testing.T) {
	_, err := LoadSources(filepath.Join(t.TempDir(), "absent.yml"))
	assert.True(t, os.IsNotExist(err))
}
