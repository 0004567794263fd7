// Package config handles configuration loading and defaults.
//
// Configuration is loaded from multiple sources in priority order:
// 1. Built-in defaults
// 2. User config file (~/.smarttodo/smarttodo.toml or OS-specific config directory)
// 3. Project config file (smarttodo.toml or .smarttodo.toml in the working directory)
// 4. A .env file in the working directory (never overrides variables already set)
// 5. Environment variables (SMARTTODO_*)
// 6. CLI flags
//
// Each level overrides the previous one, so CLI flags take precedence.
//
// User-level config locations:
// - ~/.smarttodo/smarttodo.toml (preferred)
// - Windows: %APPDATA%\smarttodo\smarttodo.toml
// - macOS: ~/Library/Application Support/smarttodo/smarttodo.toml
// - Linux/BSD: $XDG_CONFIG_HOME/smarttodo/smarttodo.toml or ~/.config/smarttodo/smarttodo.toml
package config
