// Package config handles configuration loading and defaults.
package config

import (
	"fmt"
	"time"

	"github.com/nibzard/smarttodo/internal/breakdown"
)

// ConfigSource represents where a configuration value came from.
type ConfigSource string

const (
	SourceDefault  ConfigSource = "default"
	SourceUserFile ConfigSource = "user file"
	SourceProjFile ConfigSource = "project file"
	SourceDotEnv   ConfigSource = ".env"
	SourceEnv      ConfigSource = "environment"
	SourceFlag     ConfigSource = "flag"
)

// Default values.
const (
	DefaultListenAddr = "127.0.0.1:8080"
	DefaultLogDir     = "~/.smarttodo/logs"
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "text"
)

// Config holds the full configuration for smarttodo.
type Config struct {
	// Breakdown service
	WebhookURL string `toml:"webhook_url"`
	// RequestTimeout bounds one breakdown request at the transport. Zero
	// leaves requests unbounded.
	RequestTimeout time.Duration `toml:"request_timeout"`

	// Browser UI
	ListenAddr string `toml:"listen_addr"`

	// Logging configuration
	LogDir        string `toml:"log_dir"`
	LogLevel      string `toml:"log_level"`
	LogFormat     string `toml:"log_format"`
	LogTimestamps bool   `toml:"log_timestamps"`
	LogCaller     bool   `toml:"log_caller"`

	// Project root (computed)
	ProjectRoot string `toml:"-"`
}

// ConfigWithSources holds configuration along with source information for each field.
type ConfigWithSources struct {
	Config  *Config
	Sources map[string]ConfigSource
	// Files lists the config files that were read, in load order.
	Files []string
}

// Fields returns the configurable field names in display order.
func Fields() []string {
	return []string{
		"webhook_url",
		"request_timeout",
		"listen_addr",
		"log_dir",
		"log_level",
		"log_format",
		"log_timestamps",
		"log_caller",
	}
}

// Value returns the display value of a field, or "" for unknown names.
func (c *Config) Value(field string) string {
	switch field {
	case "webhook_url":
		return c.WebhookURL
	case "request_timeout":
		if c.RequestTimeout == 0 {
			return "0 (none)"
		}
		return c.RequestTimeout.String()
	case "listen_addr":
		return c.ListenAddr
	case "log_dir":
		return c.LogDir
	case "log_level":
		return c.LogLevel
	case "log_format":
		return c.LogFormat
	case "log_timestamps":
		return fmt.Sprintf("%t", c.LogTimestamps)
	case "log_caller":
		return fmt.Sprintf("%t", c.LogCaller)
	}
	return ""
}

// setDefaults applies default values to the config.
func setDefaults(cfg *Config) {
	cfg.WebhookURL = breakdown.DefaultURL
	cfg.RequestTimeout = 0
	cfg.ListenAddr = DefaultListenAddr
	cfg.LogDir = DefaultLogDir
	cfg.LogLevel = DefaultLogLevel
	cfg.LogFormat = DefaultLogFormat
	cfg.LogTimestamps = false
	cfg.LogCaller = false
}
