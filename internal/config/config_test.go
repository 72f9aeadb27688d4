package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "support-bot", cfg.App.Name)
	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	assert.Equal(t, int64(0), cfg.Support.StaffChannel)
	assert.Equal(t, 5, cfg.Support.MaxAttachments)
	assert.False(t, cfg.Support.NotifyOnTake)
	assert.True(t, cfg.Support.MediaDuringConfirm)
	assert.Equal(t, "memory", cfg.Session.Backend)
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL())
	assert.Equal(t, 10*time.Second, cfg.Gateway.RequestTimeout())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SUPPORT_STAFF_CHANNEL", "-100900")
	t.Setenv("SUPPORT_MAX_ATTACHMENTS", "3")
	t.Setenv("SUPPORT_NOTIFY_ON_TAKE", "true")
	t.Setenv("SESSION_BACKEND", "redis")
	t.Setenv("SESSION_TTL_MINUTES", "30")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, int64(-100900), cfg.Support.StaffChannel)
	assert.Equal(t, 3, cfg.Support.MaxAttachments)
	assert.True(t, cfg.Support.NotifyOnTake)
	assert.Equal(t, "redis", cfg.Session.Backend)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL())
}

func TestLoadRejectsBadStaffChannel(t *testing.T) {
	t.Setenv("SUPPORT_STAFF_CHANNEL", "not-a-number")

	_, err := Load()
	assert.Error(t, err)
}
