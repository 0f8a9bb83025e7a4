package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := NewFromViper(NewEmptyViper())

	triage := cfg.GetTriage()
	assert.Equal(t, "config/newsletter-rules.json", triage.RulesPath)
	assert.Equal(t, "memory/newsletter-triage-state.json", triage.StatePath)
	assert.Equal(t, 200, triage.Limit)
	assert.Equal(t, 20, triage.MaxItems)

	assert.Equal(t, "himalaya", cfg.GetMail().Backend)
	assert.Equal(t, "Europe/Berlin", cfg.GetCosts().Timezone)
	assert.Equal(t, "file", cfg.GetPriceCache().Type)
	assert.Equal(t, time.Duration(0), cfg.GetOpenRouter().Timeout)
	assert.Equal(t, 50, cfg.GetGitHub().Limit)
}

func TestHomeAssistantDerivedPaths(t *testing.T) {
	v := NewEmptyViper()
	v.Set("homeassistant.workspace", "/ws")
	ha := NewFromViper(v).GetHomeAssistant()

	assert.Equal(t, "/ws/secrets", ha.SecretsDir)
	assert.Equal(t, "/ws/memory/homeassistant-overview.md", ha.InventoryPath)
	assert.Equal(t, "/ws/skills/homeassistant/references", ha.ContextDir)
}

func TestNewWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "triage:\n  account: work\n  max_items: 5\nopenrouter:\n  base_url: https://example.test/api/v1/\n  timeout: 45s\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := NewWithFile(path)
	require.NoError(t, err)

	assert.Equal(t, "work", cfg.GetTriage().Account)
	assert.Equal(t, 5, cfg.GetTriage().MaxItems)
	assert.Equal(t, "https://example.test/api/v1", cfg.GetOpenRouter().BaseURL)
	assert.Equal(t, 45*time.Second, cfg.GetOpenRouter().Timeout)
	assert.Equal(t, 200, cfg.GetTriage().Limit)
}

func TestNewWithFileMissing(t *testing.T) {
	_, err := NewWithFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLegacyEnv(t *testing.T) {
	t.Setenv("HA_TOKEN", "secret-token")
	t.Setenv("OPENCLAW_TZ", "UTC")

	cfg, err := NewWithFile("")
	require.NoError(t, err)

	assert.Equal(t, "secret-token", cfg.GetHomeAssistant().Token)
	assert.Equal(t, "UTC", cfg.GetCosts().Timezone)
}
