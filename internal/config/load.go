package config

import (
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// DotEnvFile is the name of the optional env file read from the working directory.
const DotEnvFile = ".env"

// Load loads configuration from multiple sources in priority order:
// 1. Defaults
// 2. User config file (~/.smarttodo/smarttodo.toml or OS-specific config dir)
// 3. Project config file (smarttodo.toml or .smarttodo.toml in current directory)
// 4. .env file in the current directory
// 5. Environment variables
// 6. CLI flags
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	cws, err := LoadWithSources(fs, args)
	if err != nil {
		return nil, err
	}
	return cws.Config, nil
}

// LoadWithSources loads configuration and tracks the source of each value.
// Returns ConfigWithSources containing the config and a map of field names to their sources.
func LoadWithSources(fs *flag.FlagSet, args []string) (*ConfigWithSources, error) {
	cws := &ConfigWithSources{
		Config:  &Config{},
		Sources: make(map[string]ConfigSource),
	}
	cfg := cws.Config

	// 1. Set defaults (all fields start with default source)
	setDefaults(cfg)
	for _, field := range Fields() {
		cws.Sources[field] = SourceDefault
	}

	// 2. Try to load from user config file
	if path := findUserConfigFile(); path != "" {
		if err := loadConfigFile(cfg, path, cws.Sources, SourceUserFile); err != nil {
			return nil, fmt.Errorf("loading user config file %s: %w", path, err)
		}
		cws.Files = append(cws.Files, path)
	}

	// 3. Try to load from project config file (overrides user config)
	if path := findProjectConfigFile(); path != "" {
		if err := loadConfigFile(cfg, path, cws.Sources, SourceProjFile); err != nil {
			return nil, fmt.Errorf("loading project config file %s: %w", path, err)
		}
		cws.Files = append(cws.Files, path)
	}

	// 4. Fill the environment from .env without overriding it
	dotenv, err := loadDotEnv(DotEnvFile)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", DotEnvFile, err)
	}
	if len(dotenv) > 0 {
		cws.Files = append(cws.Files, DotEnvFile)
	}

	// 5. Override from environment
	if err := loadFromEnv(cfg, cws.Sources, dotenv); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	// 6. Parse CLI flags (they override everything)
	if err := parseFlags(cfg, fs, args, cws.Sources); err != nil {
		return nil, fmt.Errorf("parsing flags: %w", err)
	}

	// 7. Compute derived values
	if err := finalizeConfig(cfg); err != nil {
		return nil, fmt.Errorf("finalizing config: %w", err)
	}

	return cws, nil
}

// loadConfigFile decodes a TOML file over cfg and records every key it set.
func loadConfigFile(cfg *Config, path string, sources map[string]ConfigSource, source ConfigSource) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	// A bare integer timeout means seconds, as it does in the environment.
	if md.Type("request_timeout") == "Integer" {
		cfg.RequestTimeout = time.Duration(int64(cfg.RequestTimeout)) * time.Second
	}
	for _, key := range md.Keys() {
		if sources != nil {
			sources[key.String()] = source
		}
	}
	return nil
}

// loadDotEnv reads path into the process environment. Variables that are
// already set win. It returns the keys the file defined, or nil when the
// file does not exist.
func loadDotEnv(path string) (map[string]string, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	if err := godotenv.Load(path); err != nil {
		return nil, err
	}
	return values, nil
}

// finalizeConfig computes derived values and validates the result.
func finalizeConfig(cfg *Config) error {
	// Expand ~ in paths
	cfg.LogDir = expandPath(cfg.LogDir)
	cfg.WebhookURL = strings.TrimSpace(cfg.WebhookURL)
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))

	// Determine project root
	if cfg.ProjectRoot == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting working directory: %w", err)
		}
		cfg.ProjectRoot = wd
	}

	// Make paths absolute if they're relative
	if !filepath.IsAbs(cfg.LogDir) {
		cfg.LogDir = filepath.Join(cfg.ProjectRoot, cfg.LogDir)
	}

	return cfg.Validate()
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	u, err := url.Parse(c.WebhookURL)
	if err != nil {
		return fmt.Errorf("webhook_url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("webhook_url: %q must be an absolute http(s) url", c.WebhookURL)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("request_timeout: must not be negative, got %s", c.RequestTimeout)
	}
	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr: must not be empty")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "warning", "error", "fatal":
	default:
		return fmt.Errorf("log_level: invalid value %q, must be one of: debug, info, warn, error, fatal", c.LogLevel)
	}
	switch c.LogFormat {
	case "text", "json", "logfmt":
	default:
		return fmt.Errorf("log_format: invalid value %q, must be one of: text, json, logfmt", c.LogFormat)
	}
	return nil
}
