package infra

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_DefaultsAndEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("AGENTIQ_AUTH_SESSION_SECRET", "s3cret")
	t.Setenv("AGENTIQ_SERVER_PORT", "9100")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.Auth.SessionSecret)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, 12*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 2*time.Hour, cfg.Session.IdleTTL)
	assert.Equal(t, "84922", cfg.Tickets.ProjectID)
	assert.Equal(t, []string{"AgentIQ", "AutoAlert"}, cfg.Tickets.Labels)
	assert.Equal(t, 100, cfg.Archive.BatchSize)
	assert.Empty(t, cfg.Database.URL)
	assert.Empty(t, cfg.Redis.Addr)
}

func TestLoadConfig_File(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(t.TempDir())

	yaml := `
auth:
  session_secret: from-file
server:
  port: 8081
session:
  rate_limit: 0.5
  burst: 3
tickets:
  base_url: https://tickets.local/create
  labels: [A, B]
logger:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.Auth.SessionSecret)
	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, 0.5, cfg.Session.RateLimit)
	assert.Equal(t, 3, cfg.Session.Burst)
	assert.Equal(t, "https://tickets.local/create", cfg.Tickets.BaseURL)
	assert.Equal(t, []string{"A", "B"}, cfg.Tickets.Labels)
	assert.Equal(t, "console", cfg.Logger.Format)
}

func TestLoadConfig_RequiresSecret(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := LoadConfig()
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestLoadConfig_RejectsNonPositiveIntervals(t *testing.T) {
	for _, env := range []string{
		"AGENTIQ_SESSION_SWEEP_INTERVAL",
		"AGENTIQ_SESSION_IDLE_TTL",
		"AGENTIQ_ARCHIVE_FLUSH_INTERVAL",
		"AGENTIQ_AUTH_TOKEN_TTL",
	} {
		t.Run(env, func(t *testing.T) {
			t.Chdir(t.TempDir())
			t.Setenv("AGENTIQ_AUTH_SESSION_SECRET", "s3cret")
			t.Setenv(env, "0s")

			_, err := LoadConfig()
			assert.ErrorIs(t, err, ErrInvalidInterval)
		})
	}

	t.Run("negative", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("AGENTIQ_AUTH_SESSION_SECRET", "s3cret")
		t.Setenv("AGENTIQ_SESSION_SWEEP_INTERVAL", "-1m")

		_, err := LoadConfig()
		assert.ErrorIs(t, err, ErrInvalidInterval)
	})
}
