package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("API_BASE_URL", "")
	t.Setenv("STORAGE_BACKEND", "")
	t.Setenv("ACTIVITY_POLL_SECONDS", "")
	t.Setenv("TICKETS_PAGE_SIZE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:5000", cfg.API.BaseURL)
	assert.Equal(t, "file", cfg.Storage.Backend)
	assert.Equal(t, 12, cfg.Tickets.PageSize)
	assert.Equal(t, 30*time.Second, cfg.Polling.ActivityInterval())
	assert.Zero(t, cfg.Polling.DashboardInterval())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://helpdesk.example.com")
	t.Setenv("STORAGE_BACKEND", "redis")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("ACTIVITY_POLL_SECONDS", "10")
	t.Setenv("DASHBOARD_REFRESH_SECONDS", "60")
	t.Setenv("APP_PORT", "9000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://helpdesk.example.com", cfg.API.BaseURL)
	assert.Equal(t, "redis", cfg.Storage.Backend)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, 10*time.Second, cfg.Polling.ActivityInterval())
	assert.Equal(t, time.Minute, cfg.Polling.DashboardInterval())
	assert.Equal(t, "127.0.0.1:9000", cfg.App.Addr())
}

func TestLoadRejectsUnknownStorage(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "localstorage")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsBadRedisDB(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "")
	t.Setenv("REDIS_DB", "primary")

	_, err := Load()
	require.Error(t, err)
}
