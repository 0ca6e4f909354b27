package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(viper.New(), filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_ReadsYAML(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `storage:
  path: /tmp/tb.db
http:
  addr: 127.0.0.1:9000
  read_timeout: 3s
cache:
  redis_url: redis://localhost:6379/0
  ttl: 90s
hydration:
  concurrency: 2
board:
  stages: [Backlog, Review]
log:
  format: json
`)

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/tb.db", cfg.Storage.Path)
	assert.Equal(t, "127.0.0.1:9000", cfg.HTTP.Addr)
	assert.Equal(t, 3*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, 15*time.Second, cfg.HTTP.WriteTimeout)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Cache.RedisURL)
	assert.Equal(t, 90*time.Second, cfg.Cache.TTL)
	assert.Equal(t, 2, cfg.Hydration.Concurrency)
	assert.Equal(t, []string{"Backlog", "Review"}, cfg.Board.Stages)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "http:\n  addr: :9000\n")
	t.Setenv("TASKBOARD_HTTP_ADDR", ":7000")
	t.Setenv("TASKBOARD_BOARD_STAGES", "One,Two")

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.HTTP.Addr)
	assert.Equal(t, []string{"One", "Two"}, cfg.Board.Stages)
}

func TestLoad_RejectsUnknownLogFormatFromEnv(t *testing.T) {
	path := writeConfig(t, "log:\n  format: json\n")
	t.Setenv("TASKBOARD_LOG_FORMAT", "xml")

	_, err := Load(viper.New(), path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalid)
	assert.ErrorContains(t, err, "log.format")
}

func TestLoad_RejectsUnknownKeys(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "agents:\n  plan: codex\n")
	_, err := Load(viper.New(), path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "config schema validation failed")
}

func TestValidateSettings_RejectsBadDuration(t *testing.T) {
	t.Parallel()

	settings := map[string]any{
		"storage": map[string]any{"path": "db"},
		"cache":   map[string]any{"ttl": "five minutes"},
	}
	err := ValidateSettings(settings)
	assert.ErrorIs(t, err, ErrInvalid)
	assert.ErrorContains(t, err, "cache.ttl")
}

func TestValidateSettings_RejectsZeroConcurrency(t *testing.T) {
	t.Parallel()

	settings := map[string]any{
		"storage":   map[string]any{"path": "db"},
		"hydration": map[string]any{"concurrency": 0},
	}
	err := ValidateSettings(settings)
	assert.ErrorIs(t, err, ErrInvalid)
	assert.ErrorContains(t, err, "hydration.concurrency")
}

func TestConfigValidate_RejectsDuplicateStages(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Board.Stages = []string{"To Do", "To Do"}
	assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
}
