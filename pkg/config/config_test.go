package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Empty(t, cfg.Server.APIKey)
	assert.InDelta(t, 0.5, cfg.Server.RatePerSecond, 0.001)
	assert.Equal(t, 10, cfg.Server.RateBurst)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 8, cfg.Scan.Workers)
	// No region default; the entrypoint discovers enabled regions when unset.
	assert.Empty(t, cfg.Scan.Regions)
	assert.Equal(t, 5*time.Minute, cfg.Remediation.TokenTTL)
	assert.Equal(t, 4000, cfg.Chat.MaxMessageLen)
	assert.Equal(t, "OrganizationAccountAccessRole", cfg.Org.RoleName)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
profile: ops
server:
  addr: ":9090"
  api_key: secret
scan:
  workers: 4
  regions:
    - eu-west-1
    - eu-central-1
remediation:
  token_ttl: 90s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "ops", cfg.Profile)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "secret", cfg.Server.APIKey)
	assert.Equal(t, 4, cfg.Scan.Workers)
	assert.Equal(t, []string{"eu-west-1", "eu-central-1"}, cfg.Scan.Regions)
	assert.Equal(t, 90*time.Second, cfg.Remediation.TokenTTL)

	// Untouched sections keep their defaults.
	assert.Equal(t, 10, cfg.Server.RateBurst)
	assert.Equal(t, "us-east-1", cfg.Chat.Region)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("OPS_AGENT_SERVER_ADDR", ":7070")
	t.Setenv("OPS_AGENT_ORG_MANAGEMENT_ACCOUNT_ID", "999999999999")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, "999999999999", cfg.Org.ManagementAccountID)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
