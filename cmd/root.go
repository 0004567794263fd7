// Package cmd implements the CLI command structure for smarttodo.
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/nibzard/smarttodo/internal/breakdown"
	"github.com/nibzard/smarttodo/internal/config"
	"github.com/nibzard/smarttodo/internal/logging"
	"github.com/nibzard/smarttodo/internal/todo"
	"github.com/nibzard/smarttodo/internal/ui"
	"github.com/nibzard/smarttodo/internal/web"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Output streams, replaced in tests.
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

const shutdownTimeout = 5 * time.Second

// Run executes the smarttodo CLI.
func Run(ctx context.Context, args []string) error {
	// Create a flag set for global options
	fs := flag.NewFlagSet("smarttodo", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		printUsage(fs, stderr)
	}
	help := fs.Bool("help", false, "Show help")
	fs.BoolVar(help, "h", false, "Show help")
	showVersion := fs.Bool("version", false, "Show version")
	fs.BoolVar(showVersion, "v", false, "Show version")

	// Global flags
	cws, err := config.LoadWithSources(fs, args)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg := cws.Config
	if *help {
		printUsage(fs, stdout)
		return nil
	}
	if *showVersion {
		return versionCommand()
	}

	// Determine the subcommand
	subcommand := "tui"
	remainingArgs := fs.Args()
	if len(remainingArgs) > 0 {
		subcommand = remainingArgs[0]
		remainingArgs = remainingArgs[1:]
	}

	// Execute the subcommand
	switch subcommand {
	case "tui":
		return tuiCommand(ctx, cfg, remainingArgs)
	case "serve":
		return serveCommand(ctx, cfg, remainingArgs)
	case "breakdown":
		return breakdownCommand(ctx, cfg, remainingArgs)
	case "logs":
		return logsCommand(ctx, cfg, remainingArgs)
	case "config":
		return configCommand(cws, remainingArgs)
	case "version":
		return versionCommand()
	case "help":
		printUsage(fs, stdout)
		return nil
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", subcommand)
		printUsage(fs, stderr)
		return fmt.Errorf("unknown command: %s", subcommand)
	}
}

// newLogger builds a logger for w from the logging configuration.
func newLogger(cfg *config.Config, w io.Writer) *log.Logger {
	return logging.NewFromConfig(w, cfg.LogLevel, cfg.LogFormat, cfg.LogTimestamps, cfg.LogCaller)
}

// newClient builds the breakdown client for the configured webhook.
func newClient(cfg *config.Config, logger *log.Logger) (*breakdown.Client, error) {
	client, err := breakdown.New(cfg.WebhookURL,
		breakdown.WithTimeout(cfg.RequestTimeout),
		breakdown.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("creating breakdown client: %w", err)
	}
	return client, nil
}

// tuiCommand launches the terminal UI.
func tuiCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("smarttodo tui", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if len(fs.Args()) > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if !ui.IsTTY(os.Stdout) {
		return fmt.Errorf("tui requires a TTY (try \"smarttodo serve\")")
	}

	// The TUI owns the terminal, so logs go to a session file.
	session, err := logging.NewSessionLog(cfg.LogDir, cfg.ProjectRoot)
	if err != nil {
		return fmt.Errorf("creating session log: %w", err)
	}
	defer session.Close()

	logger := newLogger(cfg, session.Writer())
	logger.Info("session started", "version", Version, "webhook", cfg.WebhookURL)

	client, err := newClient(cfg, logger)
	if err != nil {
		return err
	}
	return ui.RunTUI(ctx, client, ui.WithLogger(logger))
}

// serveCommand runs the browser UI until ctx is canceled.
func serveCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("smarttodo serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	addr := fs.String("addr", cfg.ListenAddr, "Listen address")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if len(fs.Args()) > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	logger := newLogger(cfg, stderr)
	client, err := newClient(cfg, logger)
	if err != nil {
		return err
	}
	handler, err := web.NewHandler(todo.NewStore(nil), client, logger)
	if err != nil {
		return fmt.Errorf("creating web handler: %w", err)
	}

	ln, err := net.Listen("tcp", *addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", *addr, err)
	}
	server := &http.Server{
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	fmt.Fprintf(stdout, "Serving %s on http://%s\n", todo.Title, ln.Addr())
	logger.Info("server started", "addr", ln.Addr().String())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("shutting down")
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := handler.Drain(shutdownCtx); err != nil {
			logger.Warn("abandoning in-flight breakdown", "err", err)
		}
		return nil
	})
	return g.Wait()
}

// breakdownCommand sends one task to the breakdown service and prints the
// resulting task tree.
func breakdownCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("smarttodo breakdown", flag.ContinueOnError)
	fs.SetOutput(stderr)
	asJSON := fs.Bool("json", false, "Print the task as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	st := todo.SetInput(todo.State{}, strings.Join(fs.Args(), " "))
	st, payload, ok := todo.StartBreakdown(st)
	if !ok {
		return fmt.Errorf("breakdown requires task text")
	}

	logger := newLogger(cfg, stderr)
	client, err := newClient(cfg, logger)
	if err != nil {
		return err
	}
	lines, err := client.Breakdown(ctx, payload)
	if err != nil {
		return fmt.Errorf("breaking down task: %w", err)
	}
	st = todo.FinishBreakdown(st, todo.UUIDs{}, payload, lines)
	task := st.Tasks[len(st.Tasks)-1]

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(task)
	}
	printTaskTree(stdout, task)
	return nil
}

// printTaskTree prints a task and its children as a tree.
func printTaskTree(w io.Writer, task todo.Task) {
	fmt.Fprintln(w, task.Label)
	for i, child := range task.Children {
		branch := "├── "
		if i == len(task.Children)-1 {
			branch = "└── "
		}
		fmt.Fprintln(w, branch+child.Label)
	}
}

// logsCommand prints the latest session log.
func logsCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("smarttodo logs", flag.ContinueOnError)
	fs.SetOutput(stderr)
	follow := fs.Bool("f", false, "Follow the log (like tail -f)")
	fs.BoolVar(follow, "follow", false, "Follow the log (like tail -f)")
	n := fs.Int("n", 0, "Number of lines to show (0 = all)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	// Find the log directory
	workDir := cfg.ProjectRoot
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting working directory: %w", err)
		}
		workDir = wd
	}

	logDir, err := logging.FindLogDir(cfg.LogDir, workDir)
	if err != nil {
		return fmt.Errorf("finding log directory: %w", err)
	}
	logPath, err := logging.FindLatestLog(logDir)
	if err != nil {
		return fmt.Errorf("finding latest log: %w", err)
	}
	if logPath == "" {
		fmt.Fprintln(stdout, "No log files found.")
		return nil
	}

	fmt.Fprintf(stdout, "Log: %s\n", logPath)
	if *follow {
		fmt.Fprintln(stdout, "(Ctrl+C to stop)")
	}
	fmt.Fprintln(stdout)

	return logging.TailLog(ctx, stdout, logPath, *n, *follow)
}

// configCommand prints the effective configuration and where each value
// came from.
func configCommand(cws *config.ConfigWithSources, args []string) error {
	fs := flag.NewFlagSet("smarttodo config", flag.ContinueOnError)
	fs.SetOutput(stderr)
	example := fs.Bool("example", false, "Print an example config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *example {
		fmt.Fprint(stdout, config.ExampleConfig())
		return nil
	}

	if len(cws.Files) == 0 {
		fmt.Fprintln(stdout, "Config files: (none)")
	} else {
		fmt.Fprintln(stdout, "Config files:")
		for _, path := range cws.Files {
			fmt.Fprintf(stdout, "  %s\n", path)
		}
	}
	fmt.Fprintln(stdout)

	for _, field := range config.Fields() {
		fmt.Fprintf(stdout, "%-16s %s  (%s)\n", field, cws.Config.Value(field), cws.Sources[field])
	}
	return nil
}

// versionCommand prints version information.
func versionCommand() error {
	fmt.Fprintf(stdout, "smarttodo version %s\n", Version)
	return nil
}

// printUsage prints the usage message.
func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "smarttodo - A todo list that breaks tasks down into subtasks")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  smarttodo [options] [command]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  tui               Launch terminal UI (default command)")
	fmt.Fprintln(w, "  serve             Serve the browser UI")
	fmt.Fprintln(w, "  breakdown <text>  Break one task down and print the result")
	fmt.Fprintln(w, "  logs              Print the latest session log")
	fmt.Fprintln(w, "  config            Show the effective configuration")
	fmt.Fprintln(w, "  version           Show version information")
	fmt.Fprintln(w, "  help              Show this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Global Options:")
	fs.SetOutput(w)
	fs.PrintDefaults()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Serve Options:")
	fmt.Fprintln(w, "  -addr string")
	fmt.Fprintln(w, "        Listen address (default from listen_addr)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Breakdown Options:")
	fmt.Fprintln(w, "  -json")
	fmt.Fprintln(w, "        Print the task as JSON")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Logs Options:")
	fmt.Fprintln(w, "  -f, --follow")
	fmt.Fprintln(w, "        Follow the log (like tail -f)")
	fmt.Fprintln(w, "  -n int")
	fmt.Fprintln(w, "        Number of lines to show (0 = all)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Config Options:")
	fmt.Fprintln(w, "  -example")
	fmt.Fprintln(w, "        Print an example config file")
}
