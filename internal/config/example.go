package config

// ExampleConfig returns an example configuration showing all available options.
func ExampleConfig() string {
	return `# smarttodo configuration file
# Values can be overridden by a .env file, SMARTTODO_* environment variables,
# or CLI flags.

# Webhook that splits a task into subtasks
webhook_url = "https://cloud.activepieces.com/api/v1/webhooks/trXZei9puOxBNxrk0YFka/sync"

# Transport timeout for one breakdown request: a duration ("30s") or bare
# seconds (30). "0s" means none.
request_timeout = "0s"

# Address for "smarttodo serve"
listen_addr = "127.0.0.1:8080"

# Session logs (supports ~ and $VAR expansion)
log_dir = "~/.smarttodo/logs"

# Logging: debug, info, warn, error
log_level = "info"
# text, json, or logfmt
log_format = "text"
log_timestamps = false
log_caller = false
`
}
