package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, int64(50*1024*1024), cfg.Conversion.MaxPayloadBytes)
	assert.Equal(t, 30*time.Second, cfg.Events.HeartbeatInterval)
}

func TestLoad_MissingFileFails(t *testing.T) {
	_, err := Load("/nonexistent/docpivot.yaml")
	assert.Error(t, err)
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Conversion.MaxConcurrentJobs, cfg.Conversion.MaxConcurrentJobs)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("server:\n  port: 9100\nevents:\n  buffer_capacity: 8\n")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, 8, cfg.Events.BufferCapacity)
	// Untouched sections keep their defaults.
	assert.Equal(t, 10, cfg.Conversion.MaxConcurrentJobs)
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	t.Setenv("SERVER_PORT", "9200")
	t.Setenv("MAX_PAYLOAD_MB", "2")
	t.Setenv("CONVERSION_TIMEOUT", "45s")
	t.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 9200, cfg.Server.Port)
	assert.Equal(t, int64(2*1024*1024), cfg.Conversion.MaxPayloadBytes)
	assert.Equal(t, 45*time.Second, cfg.Conversion.Timeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.Origins)
}

func TestValidate_RejectsBadValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.Port = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Conversion.MaxPayloadBytes = -1
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Events.BufferCapacity = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Conversion.MaxConcurrentJobs = 0
	assert.Error(t, cfg.Validate())
}
