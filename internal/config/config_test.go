package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ring.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":3000", cfg.Server.Address)
	assert.Equal(t, "nethttp", cfg.Server.Engine)
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout.Duration())
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.Pipeline.TrackLifetime())
	assert.False(t, cfg.IsProduction())
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
env: production
server:
  address: ":8080"
  max_header_bytes: 64KB
  shutdown_timeout: 2.5
  engine: fasthttp
logging:
  level: debug
pipeline:
  expose_errors: true
  lifetime: false
  mounts:
    - prefix: /hello
      body: hi
    - prefix: /slow
      method: get
      status: 202
      delay: 150ms
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, 64000, cfg.Server.MaxHeaderBytes.Int())
	assert.Equal(t, 2500*time.Millisecond, cfg.Server.ShutdownTimeout.Duration())
	assert.Equal(t, "fasthttp", cfg.Server.Engine)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Pipeline.ExposeErrors)
	assert.False(t, cfg.Pipeline.TrackLifetime())

	require.Len(t, cfg.Pipeline.Mounts, 2)
	assert.Equal(t, MountConfig{Prefix: "/hello", Status: 200, Body: "hi"}, cfg.Pipeline.Mounts[0])
	assert.Equal(t, "GET", cfg.Pipeline.Mounts[1].Method)
	assert.Equal(t, 202, cfg.Pipeline.Mounts[1].Status)
	assert.Equal(t, 150*time.Millisecond, cfg.Pipeline.Mounts[1].Delay.Duration())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("RING_ADDRESS", ":9999")
	t.Setenv("RING_LOG_LEVEL", "warn")
	t.Setenv("RING_ENV", "staging")

	cfg, err := Load(writeConfig(t, "server:\n  address: \":8080\"\n"))
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Server.Address)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "staging", cfg.Env)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{"RING_EXPOSE_ERRORS": "true", "RING_ENGINE": "fasthttp"}
	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(func(k string) string { return env[k] }))
	assert.True(t, cfg.Pipeline.ExposeErrors)
	assert.Equal(t, "fasthttp", cfg.Server.Engine)

	env["RING_EXPOSE_ERRORS"] = "maybe"
	assert.Error(t, cfg.ApplyEnv(func(k string) string { return env[k] }))
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad yaml", "server: [unclosed"},
		{"bad size", "server:\n  max_header_bytes: lots\n"},
		{"bad duration", "server:\n  shutdown_timeout: soon\n"},
		{"empty address", "server:\n  address: \" \"\n"},
		{"bad engine", "server:\n  engine: gopher\n"},
		{"mount without prefix", "pipeline:\n  mounts:\n    - prefix: /\n"},
		{"mount bad status", "pipeline:\n  mounts:\n    - prefix: /x\n      status: 42\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}
