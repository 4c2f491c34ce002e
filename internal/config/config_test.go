package config

import (
	"os"
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "d")
	t.Setenv("YANDEX_TOKEN", "y")

	cfg := &Config{}
	require.NoError(t, env.Parse(cfg))

	require.Equal(t, 50, cfg.MaxQueueSize)
	require.Equal(t, 600, cfg.MaxSongLength)
	require.Equal(t, 10, cfg.MaxRefillAttempts)
	require.Equal(t, 10*time.Second, cfg.RefillTimeout)
	require.Equal(t, "datastore.json", cfg.StoragePath)
	require.Empty(t, cfg.StatusAddr)
}

func TestOverrides(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "d")
	t.Setenv("YANDEX_TOKEN", "y")
	t.Setenv("MAX_QUEUE_SIZE", "2")
	t.Setenv("REFILL_TIMEOUT", "3s")

	cfg := &Config{}
	require.NoError(t, env.Parse(cfg))

	require.Equal(t, 2, cfg.MaxQueueSize)
	require.Equal(t, 3*time.Second, cfg.RefillTimeout)
}

func TestRequiredToken(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "")
	t.Setenv("YANDEX_TOKEN", "")
	require.NoError(t, os.Unsetenv("DISCORD_TOKEN"))
	require.NoError(t, os.Unsetenv("YANDEX_TOKEN"))

	cfg := &Config{}
	require.Error(t, env.Parse(cfg))
}
