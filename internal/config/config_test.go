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
	cfg := &Config{}
	cfg.LoadDefaults()

	assert.Equal(t, "focuskeeper.db", cfg.DatabaseDSN)
	assert.Equal(t, 60*time.Second, cfg.SyncInterval)
	assert.Equal(t, 3*time.Second, cfg.TokenTimeout)
	assert.Equal(t, 10*time.Second, cfg.RemoteTimeout)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Empty(t, cfg.RemoteEndpointAddr)
}

func TestParseJson_Overlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "conf.json")
	body := `{
		"database_dsn": "custom.db",
		"remote_endpoint_addr": "https://api.example.com",
		"user_id": "5f0c9f9e-0a1c-4f7e-9dce-0fb24c2a3a11",
		"sync_interval": "90s",
		"token_timeout": 2000000000,
		"remote_timeout": "5s",
		"log_format": "text"
	}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	origArgs := os.Args
	os.Args = []string{"focuskeeper", "-c", path}
	t.Cleanup(func() { os.Args = origArgs })

	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)

	assert.Equal(t, "custom.db", cfg.DatabaseDSN)
	assert.Equal(t, "https://api.example.com", cfg.RemoteEndpointAddr)
	assert.Equal(t, "5f0c9f9e-0a1c-4f7e-9dce-0fb24c2a3a11", cfg.UserID)
	assert.Equal(t, 90*time.Second, cfg.SyncInterval)
	assert.Equal(t, 2*time.Second, cfg.TokenTimeout)
	assert.Equal(t, 5*time.Second, cfg.RemoteTimeout)
	assert.Equal(t, "text", cfg.LogFormat)
	// untouched fields keep defaults
	assert.Empty(t, cfg.LogFile)
}

func TestParseFlags_Overlay(t *testing.T) {
	origArgs := os.Args
	os.Args = []string{"focuskeeper", "-a", "https://flag.example.com", "-i", "15", "-f", "text"}
	t.Cleanup(func() { os.Args = origArgs })

	cfg := &Config{}
	cfg.LoadDefaults()
	parseFlags(cfg)

	assert.Equal(t, "https://flag.example.com", cfg.RemoteEndpointAddr)
	assert.Equal(t, 15*time.Second, cfg.SyncInterval)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.RemoteTimeout)
}
