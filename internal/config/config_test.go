package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 15, cfg.Sync.VisibleIntervalSec)
	assert.Equal(t, 60, cfg.Sync.HiddenIntervalSec)
	assert.Equal(t, 2, cfg.Sync.DebounceSec)
	assert.False(t, cfg.Metrics.Enabled)
	assert.NotEmpty(t, cfg.DBPath)
}

func TestLoadReadsFileAndFillsGaps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
google:
  client_id: my-client
  client_secret: my-secret
sync:
  visible_interval_sec: 5
metrics:
  enabled: true
  address: "localhost:9999"
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "my-client", cfg.Google.ClientID)
	assert.Equal(t, "my-secret", cfg.Google.ClientSecret)
	assert.Equal(t, 5, cfg.Sync.VisibleIntervalSec)
	assert.Equal(t, 60, cfg.Sync.HiddenIntervalSec, "unset keys keep defaults")
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "localhost:9999", cfg.Metrics.Address)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("google: [not: valid"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := defaultAppConfig()
	cfg.Google.ClientID = "saved-client"
	cfg.DBPath = "/tmp/custom.db"
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "saved-client", loaded.Google.ClientID)
	assert.Equal(t, "/tmp/custom.db", loaded.DBPath)
}
