package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/as2gw/gateway/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"AS2HOST", "AS2PORT", "AS2URI", "SSLCERTIFICATE", "SSLPRIVATEKEY",
		"ASYNCMDNWAIT", "MAXRETRIES", "MAXARCHDAYS", "LOGLEVEL", "AS2_DEBUG",
		"DATA_DIR", "DB_PATH", "METRICS_ADDR", "MDNURL",
	}
	for _, k := range keys {
		original, existed := os.LookupEnv(k)
		require.NoError(t, os.Unsetenv(k))
		t.Cleanup(func() {
			if existed {
				os.Setenv(k, original)
			}
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "/as2/receive", cfg.URI)
	assert.Equal(t, 30*time.Minute, cfg.AsyncMDNWait)
	assert.Equal(t, 30, cfg.MaxRetries)
	assert.Equal(t, 30, cfg.MaxArchDays)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.Debug)
	assert.Equal(t, "http://0.0.0.0:8080/as2/receive", cfg.MDNURL)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("AS2HOST", "127.0.0.1")
	t.Setenv("AS2PORT", "9999")
	t.Setenv("MAXRETRIES", "5")
	t.Setenv("AS2_DEBUG", "1")
	t.Setenv("SSLCERTIFICATE", "/etc/as2gw/cert.pem")
	t.Setenv("SSLPRIVATEKEY", "/etc/as2gw/key.pem")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, 9999, cfg.Port)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.True(t, cfg.Debug)
	assert.Equal(t, "https://127.0.0.1:9999/as2/receive", cfg.MDNURL)
}

func TestLoad_InvalidIntFallsBackToDefault(t *testing.T) {
	clearEnv(t)
	t.Setenv("AS2PORT", "not-a-number")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
}
