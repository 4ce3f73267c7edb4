package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/youngsinc/youngs-mcp/internal/adapter/inbound/http"
	"github.com/youngsinc/youngs-mcp/internal/adapter/inbound/stdio"
	"github.com/youngsinc/youngs-mcp/internal/adapter/outbound/customerapi"
	"github.com/youngsinc/youngs-mcp/internal/config"
	"github.com/youngsinc/youngs-mcp/internal/domain/session"
	"github.com/youngsinc/youngs-mcp/internal/service"
	"github.com/youngsinc/youngs-mcp/internal/telemetry"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the MCP server",
	Long: `Start the youngs-mcp server.

The server listens on server.port (default 3001, or $PORT) and serves:
  GET  /                 liveness text
  GET  /sse              SSE session stream
  POST /messages         protocol messages for an SSE session
  /mcp                   streamable HTTP binding
  GET  /health, /metrics operational endpoints

Examples:
  # Start with config file settings
  youngs-mcp start

  # Listen on another port with debug logging
  youngs-mcp start --port 8080 --dev

  # Serve one client over stdin/stdout instead of HTTP
  youngs-mcp start --stdio`,
	RunE: runStart,
}

var (
	devMode   bool
	startPort int
	stdioMode bool
)

// telemetryFlushTimeout bounds the final span and metric export on exit.
const telemetryFlushTimeout = 5 * time.Second

func init() {
	startCmd.Flags().BoolVar(&devMode, "dev", false, "Enable development mode (debug logging, http callback URLs)")
	startCmd.Flags().IntVar(&startPort, "port", 0, "Listen port (overrides server.port and $PORT)")
	startCmd.Flags().BoolVar(&stdioMode, "stdio", false, "Serve a single client over stdin/stdout instead of HTTP")
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	// Load without validation so CLI flags can override first.
	cfg, err := config.LoadConfigRaw()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if devMode {
		cfg.DevMode = true
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = startPort
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	// stop() restores default signal handling so a second Ctrl+C does a hard kill.
	ctx, stop := signal.NotifyContext(context.Background(), gracefulSignals()...)
	go func() {
		<-ctx.Done()
		stop()
	}()

	logger := newLogger(os.Stderr, cfg)
	if configFile := config.ConfigFileUsed(); configFile != "" {
		logger.Info("loaded config", "file", configFile)
	}

	pidPath := pidFilePath()
	if err := writePIDFile(pidPath); err != nil {
		logger.Warn("failed to write PID file", "path", pidPath, "error", err)
	} else {
		defer os.Remove(pidPath)
	}

	if err := run(ctx, cfg, stdioMode, logger); err != nil {
		return err
	}

	logger.Info("youngs-mcp stopped")
	return nil
}

// run wires the server together and blocks until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config, stdioTransport bool, logger *slog.Logger) error {
	shutdownTelemetry, err := telemetry.Setup(ctx, telemetry.Options{
		ServiceName:    service.ServerName,
		ServiceVersion: Version,
		Exporter:       cfg.Telemetry.Exporter,
		MetricInterval: cfg.Telemetry.Interval(),
	})
	if err != nil {
		return fmt.Errorf("failed to set up telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), telemetryFlushTimeout)
		defer cancel()
		if err := shutdownTelemetry(flushCtx); err != nil {
			logger.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	client := customerapi.NewHTTPClient(cfg.Upstream.BaseURL,
		customerapi.WithTimeout(cfg.Upstream.TimeoutDuration()),
	)
	defer client.Close()

	svc := service.NewCustomerService(client, cfg.Upstream.CustomerID, logger)
	server := service.NewMCPServer(svc, logger)

	// stdout carries the protocol stream in stdio mode, so no banner.
	if stdioTransport {
		return stdio.NewStdioTransport(server, stdio.WithLogger(logger)).Start(ctx)
	}

	transport, err := newTransport(cfg, server, logger)
	if err != nil {
		return err
	}

	printBanner(os.Stderr, Version, cfg)
	return transport.Start(ctx)
}

// newTransport builds the HTTP front door from configuration.
func newTransport(cfg *config.Config, server *mcp.Server, logger *slog.Logger) (*http.HTTPTransport, error) {
	policy, err := session.ParseCollisionPolicy(cfg.Server.SessionCollision)
	if err != nil {
		return nil, err
	}

	scheme := cfg.Server.CallbackScheme
	if cfg.DevMode {
		scheme = "http"
	}

	return http.NewHTTPTransport(server,
		http.WithAddr(cfg.Server.Addr()),
		http.WithCallbackScheme(scheme),
		http.WithMessagesPath(cfg.Server.MessagesPath),
		http.WithCollisionPolicy(policy),
		http.WithIdleTimeout(cfg.Server.IdleTimeout()),
		http.WithShutdownTimeout(cfg.Server.ShutdownBudget()),
		http.WithUpstream(cfg.Upstream.BaseURL),
		http.WithVersion(Version),
		http.WithLogger(logger),
	), nil
}

// newLogger builds the process logger. Logs go to w (stderr) so stdout
// stays free for command output. DevMode forces debug.
func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	level := parseLogLevel(cfg.Server.LogLevel)
	if cfg.DevMode {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
	logger.Debug("log level configured", "level", cfg.Server.LogLevel, "effective", level.String())
	return logger
}

// parseLogLevel converts a string log level to slog.Level.
// Returns slog.LevelInfo for unrecognized values.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// localURL returns a browsable URL for addr, substituting localhost for an
// empty host.
func localURL(addr, path string) string {
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr + path
	}
	return "http://" + addr + path
}

// printBanner writes a short startup summary.
func printBanner(w io.Writer, version string, cfg *config.Config) {
	const (
		reset  = "\033[0m"
		bold   = "\033[1m"
		cyan   = "\033[36m"
		green  = "\033[32m"
		yellow = "\033[33m"
		dim    = "\033[2m"
	)

	addr := cfg.Server.Addr()
	modeStr := green + "production" + reset
	if cfg.DevMode {
		modeStr = yellow + "development" + reset
	}

	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "  %s%s Youngs MCP %s%s\n", bold, cyan, version, reset)
	fmt.Fprintf(w, "  %s─────────────────────────────────────%s\n", dim, reset)
	fmt.Fprintf(w, "  %-14s %s\n", "SSE:", localURL(addr, "/sse"))
	fmt.Fprintf(w, "  %-14s %s\n", "Streamable:", localURL(addr, "/mcp"))
	fmt.Fprintf(w, "  %-14s %s\n", "Mode:", modeStr)
	fmt.Fprintf(w, "  %-14s %s (customer %s)\n", "Upstream:", cfg.Upstream.BaseURL, cfg.Upstream.CustomerID)
	fmt.Fprintf(w, "  %s─────────────────────────────────────%s\n", dim, reset)
	fmt.Fprintf(w, "\n")
}
