package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{envAddr, envPolicy, envTokenHeader, envLogLevel, envReadTimeout, envWriteTimeout, envShutdownTimeout} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, defaultAddr, cfg.Addr)
	assert.Equal(t, defaultPolicy, cfg.PolicyPath)
	assert.Equal(t, defaultTokenHeader, cfg.TokenHeader)
	assert.Equal(t, defaultReadTimeout, cfg.ReadTimeout)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(envAddr, "127.0.0.1:9000")
	t.Setenv(envWriteTimeout, "3s")
	t.Setenv(envShutdownTimeout, "1m")
	t.Setenv(envLogLevel, "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
	assert.Equal(t, 3*time.Second, cfg.WriteTimeout)
	assert.Equal(t, time.Minute, cfg.ShutdownTimeout)
	assert.Equal(t, defaultReadTimeout, cfg.ReadTimeout)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_BadTimeout(t *testing.T) {
	for name, value := range map[string]string{
		"unparseable": "not-a-duration",
		"negative":    "-5s",
		"zero":        "0s",
	} {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(envShutdownTimeout, value)

			cfg, err := Load()
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), envShutdownTimeout)
		})
	}
}

func TestLoad_ReportsEveryBadTimeout(t *testing.T) {
	clearEnv(t)
	t.Setenv(envReadTimeout, "soon")
	t.Setenv(envWriteTimeout, "-1s")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), envReadTimeout)
	assert.Contains(t, err.Error(), envWriteTimeout)
}

func TestValidate_RejectsNonPositiveTimeout(t *testing.T) {
	cfg := &Config{
		Addr:            defaultAddr,
		PolicyPath:      defaultPolicy,
		TokenHeader:     defaultTokenHeader,
		LogLevel:        defaultLogLevel,
		ReadTimeout:     defaultReadTimeout,
		WriteTimeout:    defaultWriteTimeout,
		ShutdownTimeout: 0,
	}
	assert.ErrorContains(t, cfg.Validate(), envShutdownTimeout)

	cfg.ShutdownTimeout = defaultShutdownTimeout
	assert.NoError(t, cfg.Validate())
}

func TestLoad_BadLogLevel(t *testing.T) {
	clearEnv(t)
	t.Setenv(envLogLevel, "loud")

	_, err := Load()
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("WARN")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)

	require.NoError(t, LoadEnvFile(""))
	require.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(envPolicy+"=from-file.yaml\n"), 0o600))

	// godotenv does not override variables that are already set, so
	// unset the one cleared above first.
	require.NoError(t, os.Unsetenv(envPolicy))
	require.NoError(t, LoadEnvFile(path))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-file.yaml", cfg.PolicyPath)
}
