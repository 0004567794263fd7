package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment variable names.
const (
	EnvWebhookURL     = "SMARTTODO_WEBHOOK_URL"
	EnvRequestTimeout = "SMARTTODO_REQUEST_TIMEOUT"
	EnvListenAddr     = "SMARTTODO_LISTEN_ADDR"
	EnvLogDir         = "SMARTTODO_LOG_DIR"
	EnvLogLevel       = "SMARTTODO_LOG_LEVEL"
	EnvLogFormat      = "SMARTTODO_LOG_FORMAT"
	EnvLogTimestamps  = "SMARTTODO_LOG_TIMESTAMPS"
	EnvLogCaller      = "SMARTTODO_LOG_CALLER"
)

// loadFromEnv overrides config from environment variables. Keys present in
// dotenv with the same value are attributed to the .env file.
func loadFromEnv(cfg *Config, sources map[string]ConfigSource, dotenv map[string]string) error {
	set := func(field, key, value string) {
		if sources == nil {
			return
		}
		if v, ok := dotenv[key]; ok && v == value {
			sources[field] = SourceDotEnv
			return
		}
		sources[field] = SourceEnv
	}

	if v := os.Getenv(EnvWebhookURL); v != "" {
		cfg.WebhookURL = v
		set("webhook_url", EnvWebhookURL, v)
	}
	if v := os.Getenv(EnvRequestTimeout); v != "" {
		d, ok := durationFromString(v)
		if !ok {
			return fmt.Errorf("%s: invalid duration %q", EnvRequestTimeout, v)
		}
		cfg.RequestTimeout = d
		set("request_timeout", EnvRequestTimeout, v)
	}
	if v := os.Getenv(EnvListenAddr); v != "" {
		cfg.ListenAddr = v
		set("listen_addr", EnvListenAddr, v)
	}
	if v := os.Getenv(EnvLogDir); v != "" {
		cfg.LogDir = v
		set("log_dir", EnvLogDir, v)
	}

	// Logging configuration
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
		set("log_level", EnvLogLevel, v)
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		cfg.LogFormat = v
		set("log_format", EnvLogFormat, v)
	}
	if v := os.Getenv(EnvLogTimestamps); v != "" {
		cfg.LogTimestamps = boolFromString(v)
		set("log_timestamps", EnvLogTimestamps, v)
	}
	if v := os.Getenv(EnvLogCaller); v != "" {
		cfg.LogCaller = boolFromString(v)
		set("log_caller", EnvLogCaller, v)
	}
	return nil
}

func boolFromString(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// durationFromString accepts Go durations ("30s") and bare seconds ("30").
func durationFromString(s string) (time.Duration, bool) {
	s = strings.TrimSpace(s)
	if d, err := time.ParseDuration(s); err == nil {
		return d, true
	}
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, true
	}
	return 0, false
}
