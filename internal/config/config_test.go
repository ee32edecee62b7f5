package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "ws://localhost:8000/ws/chat", cfg.Client.WSURL)
	assert.Equal(t, "http://localhost:8000", cfg.Client.APIURL)
	assert.Equal(t, "constitutional", cfg.Client.ExpertID)

	assert.Equal(t, time.Second, cfg.Backoff.BaseDelay)
	assert.Equal(t, 30*time.Second, cfg.Backoff.MaxDelay)
	assert.Equal(t, 5, cfg.Backoff.MaxAttempts)

	assert.Equal(t, "0.0.0.0:8000", cfg.Address())
	assert.Equal(t, int64(65536), cfg.Server.MaxMessageSize)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("LEGALCHAT_CLIENT_WS_URL", "ws://example.test/ws/chat")
	t.Setenv("LEGALCHAT_SERVER_PORT", "9000")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "ws://example.test/ws/chat", cfg.Client.WSURL)
	assert.Equal(t, 9000, cfg.Server.Port)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/legalchat.yaml")
	assert.Error(t, err)
}
