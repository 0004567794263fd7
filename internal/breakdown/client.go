// Package breakdown talks to the webhook that splits a task description into
// subtasks.
//
// The service receives POST {"message": "<task text>"} and answers with
// {"message": "<line>\n<line>\n..."}. Each non-blank line becomes one
// subtask label. The client sends exactly one request per call and never
// retries.
package breakdown

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/nibzard/smarttodo/internal/utils"
)

// DefaultURL is the webhook the app was built against.
const DefaultURL = "https://cloud.activepieces.com/api/v1/webhooks/trXZei9puOxBNxrk0YFka/sync"

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 1 << 20

var (
	// ErrInvalidResponse means the body was not JSON or had no string message.
	ErrInvalidResponse = errors.New("invalid breakdown response")
	// ErrEmptyBreakdown means the message held no non-blank lines.
	ErrEmptyBreakdown = errors.New("breakdown returned no subtasks")
)

//go:embed response.schema.json
var responseSchema []byte

const responseSchemaURL = "response.schema.json"

// StatusError is returned when the service answers with a non-2xx status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	text := http.StatusText(e.Code)
	if text == "" {
		text = "unknown status"
	}
	if e.Body == "" {
		return fmt.Sprintf("breakdown service returned %d %s", e.Code, text)
	}
	return fmt.Sprintf("breakdown service returned %d %s: %s", e.Code, text, e.Body)
}

// Service splits a task description into subtask labels.
type Service interface {
	Breakdown(ctx context.Context, text string) ([]string, error)
}

// ServiceFunc adapts a plain function to Service.
type ServiceFunc func(ctx context.Context, text string) ([]string, error)

// Breakdown calls f.
func (f ServiceFunc) Breakdown(ctx context.Context, text string) ([]string, error) {
	return f(ctx, text)
}

type request struct {
	Message string `json:"message"`
}

type response struct {
	Message string `json:"message"`
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets a transport timeout. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithLogger sets the logger for request diagnostics.
func WithLogger(logger *log.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Client is the HTTP implementation of Service.
type Client struct {
	endpoint string
	http     *http.Client
	timeout  time.Duration
	logger   *log.Logger
	schema   *jsonschema.Schema
}

// New returns a client for the given webhook URL.
func New(endpoint string, opts ...Option) (*Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse webhook url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("webhook url %q must be an absolute http(s) url", endpoint)
	}

	schema, err := compileSchema()
	if err != nil {
		return nil, err
	}

	c := &Client{
		endpoint: endpoint,
		http:     &http.Client{},
		logger:   log.New(io.Discard),
		schema:   schema,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.http
		hc.Timeout = c.timeout
		c.http = &hc
	}
	return c, nil
}

// Endpoint returns the webhook URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Breakdown sends text to the service and returns the trimmed, non-blank
// lines of its reply.
func (c *Client) Breakdown(ctx context.Context, text string) ([]string, error) {
	body, err := json.Marshal(request{Message: text})
	if err != nil {
		return nil, fmt.Errorf("marshal breakdown request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create breakdown request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("breakdown request failed", "err", err, "elapsed", time.Since(start))
		return nil, fmt.Errorf("send breakdown request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read breakdown response: %w", err)
	}
	c.logger.Debug("breakdown response", "status", resp.StatusCode, "bytes", len(data), "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := &StatusError{Code: resp.StatusCode, Body: utils.Truncate(string(bytes.TrimSpace(data)), 200)}
		c.logger.Warn("breakdown service rejected request", "status", resp.StatusCode)
		return nil, err
	}

	lines, err := c.parse(data)
	if err != nil {
		c.logger.Warn("unusable breakdown response", "err", err)
		return nil, err
	}
	c.logger.Info("task broken down", "subtasks", len(lines))
	return lines, nil
}

// parse validates a response body and splits its message into lines.
func (c *Client) parse(data []byte) ([]string, error) {
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if err := c.schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidResponse, describeSchemaError(err))
	}

	var resp response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	lines := utils.SplitLines(resp.Message)
	if len(lines) == 0 {
		return nil, ErrEmptyBreakdown
	}
	return lines, nil
}

func compileSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(responseSchemaURL, bytes.NewReader(responseSchema)); err != nil {
		return nil, fmt.Errorf("load response schema: %w", err)
	}
	schema, err := compiler.Compile(responseSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile response schema: %w", err)
	}
	return schema, nil
}

// describeSchemaError reports the first leaf cause of a validation error.
func describeSchemaError(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	if path := utils.JSONPointerToPath(ve.InstanceLocation); path != "" {
		return fmt.Sprintf("%s: %s", path, ve.Message)
	}
	return ve.Message
}
