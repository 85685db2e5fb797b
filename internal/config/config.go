// Package config provides unified configuration loading for docpivot.
// Supports YAML files, environment variables, and programmatic overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for docpivot.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Conversion    ConversionConfig    `yaml:"conversion"`
	Events        EventsConfig        `yaml:"events"`
	CORS          CORSConfig          `yaml:"cors"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
}

// ConversionConfig holds job engine settings.
type ConversionConfig struct {
	MaxPayloadBytes   int64         `yaml:"max_payload_bytes"`
	Timeout           time.Duration `yaml:"timeout"`
	MaxConcurrentJobs int           `yaml:"max_concurrent_jobs"`
	RetentionWindow   time.Duration `yaml:"retention_window"`
	EvictInterval     time.Duration `yaml:"evict_interval"`
}

// EventsConfig holds event broadcaster settings.
type EventsConfig struct {
	BufferCapacity      int           `yaml:"buffer_capacity"`
	HeartbeatInterval   time.Duration `yaml:"heartbeat_interval"`
	InactivityTimeout   time.Duration `yaml:"inactivity_timeout"`
	MaxConsecutiveDrops int           `yaml:"max_consecutive_drops"`
	MaxSubscribers      int           `yaml:"max_subscribers"`
}

// CORSConfig holds cross-origin settings for the REST surface.
type CORSConfig struct {
	Enabled bool     `yaml:"enabled"`
	Origins []string `yaml:"origins"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Load reads configuration from a YAML file and applies environment
// overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a configuration with sensible defaults for
// development.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8000,
			ReadTimeout:      30 * time.Second,
			WriteTimeout:     0, // streaming responses must not time out
			IdleTimeout:      120 * time.Second,
			GracefulShutdown: 10 * time.Second,
		},
		Conversion: ConversionConfig{
			MaxPayloadBytes:   50 * 1024 * 1024,
			Timeout:           5 * time.Minute,
			MaxConcurrentJobs: 10,
			RetentionWindow:   time.Hour,
			EvictInterval:     time.Minute,
		},
		Events: EventsConfig{
			BufferCapacity:      64,
			HeartbeatInterval:   30 * time.Second,
			InactivityTimeout:   time.Hour,
			MaxConsecutiveDrops: 128,
			MaxSubscribers:      100,
		},
		CORS: CORSConfig{
			Enabled: true,
			Origins: []string{"*"},
		},
		Observability: ObservabilityConfig{
			LogLevel:  "info",
			LogFormat: "json",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Conversion.MaxPayloadBytes <= 0 {
		return fmt.Errorf("max_payload_bytes must be positive")
	}

	if c.Conversion.Timeout <= 0 {
		return fmt.Errorf("conversion timeout must be positive")
	}

	if c.Conversion.MaxConcurrentJobs <= 0 {
		return fmt.Errorf("max_concurrent_jobs must be positive")
	}

	if c.Conversion.RetentionWindow <= 0 {
		return fmt.Errorf("retention_window must be positive")
	}

	if c.Events.BufferCapacity <= 0 {
		return fmt.Errorf("buffer_capacity must be positive")
	}

	if c.Events.HeartbeatInterval <= 0 {
		return fmt.Errorf("heartbeat_interval must be positive")
	}

	if c.Events.InactivityTimeout <= 0 {
		return fmt.Errorf("inactivity_timeout must be positive")
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}

	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	if v := os.Getenv("MAX_PAYLOAD_MB"); v != "" {
		if mb, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Conversion.MaxPayloadBytes = mb * 1024 * 1024
		}
	}

	if v := os.Getenv("CONVERSION_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Conversion.Timeout = d
		}
	}

	if v := os.Getenv("MAX_CONCURRENT_CONVERSIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Conversion.MaxConcurrentJobs = n
		}
	}

	if v := os.Getenv("JOB_RETENTION_WINDOW"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Conversion.RetentionWindow = d
		}
	}

	if v := os.Getenv("SSE_HEARTBEAT_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Events.HeartbeatInterval = d
		}
	}

	if v := os.Getenv("SSE_BUFFER_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Events.BufferCapacity = n
		}
	}

	if v := os.Getenv("SSE_INACTIVITY_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Events.InactivityTimeout = d
		}
	}

	if v := os.Getenv("SSE_MAX_CONNECTIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Events.MaxSubscribers = n
		}
	}

	if v := os.Getenv("ENABLE_CORS"); v != "" {
		cfg.CORS.Enabled = strings.EqualFold(v, "true")
	}

	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.CORS.Origins = strings.Split(v, ",")
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}
}
