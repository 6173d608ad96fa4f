package config

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func writeConfig(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
}

func clearReloadEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"LOG_LEVEL", "ALLOWED_ORIGINS", "ENVIRONMENT", "STAGE", "STORE_BACKEND"} {
		t.Setenv(key, "")
	}
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	clearReloadEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, "store_backend: memory\nlog_level: info\n")

	w, err := NewWatcher(path, zap.NewNop())
	require.NoError(t, err)
	defer w.Stop()
	assert.Equal(t, "info", w.Current().LogLevel)

	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	var origins atomic.Value
	w.OnChange(func(cfg *Config) {
		if l, err := zapcore.ParseLevel(cfg.LogLevel); err == nil {
			level.SetLevel(l)
		}
		origins.Store(cfg.AllowedOrigins)
	})
	w.Start()

	writeConfig(t, path, "store_backend: memory\nlog_level: debug\nallowed_origins:\n  - https://app.example.com\n")

	require.Eventually(t, func() bool {
		return level.Level() == zapcore.DebugLevel
	}, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, "debug", w.Current().LogLevel)
	assert.Equal(t, []string{"https://app.example.com"}, origins.Load())
}

func TestWatcher_InvalidFileKeepsCurrent(t *testing.T) {
	clearReloadEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, "store_backend: memory\nlog_level: warn\n")

	w, err := NewWatcher(path, zap.NewNop())
	require.NoError(t, err)
	defer w.Stop()

	called := false
	w.OnChange(func(*Config) { called = true })

	tests := []struct {
		name string
		body string
	}{
		{name: "unknown level", body: "store_backend: memory\nlog_level: loud\n"},
		{name: "broken yaml", body: "log_level: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writeConfig(t, path, tt.body)
			w.reload()

			assert.Equal(t, "warn", w.Current().LogLevel)
			assert.False(t, called)
		})
	}
}

func TestWatcher_EnvStillOverridesFile(t *testing.T) {
	clearReloadEnv(t)
	t.Setenv("LOG_LEVEL", "error")
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, "store_backend: memory\nlog_level: debug\n")

	w, err := NewWatcher(path, zap.NewNop())
	require.NoError(t, err)
	defer w.Stop()

	assert.Equal(t, "error", w.Current().LogLevel)
}

func TestNewWatcher_MissingFile(t *testing.T) {
	_, err := NewWatcher(filepath.Join(t.TempDir(), "absent.yaml"), zap.NewNop())
	assert.Error(t, err)
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	clearReloadEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, "store_backend: memory\n")

	w, err := NewWatcher(path, zap.NewNop())
	require.NoError(t, err)
	w.Start()

	w.Stop()
	assert.NotPanics(t, w.Stop)
}
