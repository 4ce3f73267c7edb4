// Package config provides configuration types for the youngs-mcp server.
//
// Configuration is file-based (youngs-mcp.yaml) with environment overrides.
// The listening port additionally honours the conventional PORT variable so
// the server runs unchanged on platforms that inject it.
package config

import (
	"net"
	"strconv"
	"time"

	"github.com/youngsinc/youngs-mcp/internal/domain/customer"
)

// Default values applied by SetDefaults.
const (
	DefaultPort             = 3001
	DefaultCallbackScheme   = "https"
	DefaultMessagesPath     = "/messages"
	DefaultLogLevel         = "info"
	DefaultSessionCollision = "reject"
	DefaultShutdownTimeout  = "10s"
	DefaultUpstreamBaseURL  = "https://www.youngsinc.com/yis7beta_service/api/config/getCustomerDetails"
	DefaultUpstreamTimeout  = "30s"
	DefaultTelemetry        = "none"
	DefaultMetricInterval   = "60s"
)

// Config is the top-level configuration for youngs-mcp.
type Config struct {
	// Server configures the HTTP front door.
	Server ServerConfig `yaml:"server" mapstructure:"server"`

	// Upstream configures the customer-details service.
	Upstream UpstreamConfig `yaml:"upstream" mapstructure:"upstream"`

	// Telemetry configures OpenTelemetry export.
	Telemetry TelemetryConfig `yaml:"telemetry" mapstructure:"telemetry"`

	// DevMode enables development features (debug logging).
	DevMode bool `yaml:"dev_mode" mapstructure:"dev_mode"`
}

// ServerConfig configures the HTTP listener and SSE session handling.
type ServerConfig struct {
	// Host is the interface to bind. Empty binds all interfaces.
	Host string `yaml:"host" mapstructure:"host" validate:"omitempty,ip|hostname"`

	// Port is the TCP port to listen on. Defaults to 3001.
	Port int `yaml:"port" mapstructure:"port" validate:"min=1,max=65535"`

	// CallbackScheme is the scheme used when advertising the messages URL to
	// SSE clients. The host always comes from the request's Host header.
	// Defaults to "https"; set "http" when not behind a TLS terminator.
	CallbackScheme string `yaml:"callback_scheme" mapstructure:"callback_scheme" validate:"oneof=http https"`

	// MessagesPath is the route clients POST protocol messages to.
	MessagesPath string `yaml:"messages_path" mapstructure:"messages_path" validate:"startswith=/"`

	// LogLevel sets the minimum log level.
	// Valid values: "debug", "info", "warn", "error".
	// DevMode=true overrides to "debug".
	LogLevel string `yaml:"log_level" mapstructure:"log_level" validate:"omitempty,oneof=debug info warn warning error"`

	// SessionCollision selects what happens when a generated session ID is
	// already live: "reject" refuses the new connection, "replace" closes
	// the old one.
	SessionCollision string `yaml:"session_collision" mapstructure:"session_collision" validate:"oneof=reject replace"`

	// SessionIdleTimeout closes SSE sessions that receive no messages for
	// this long (e.g., "30m"). Empty or "0" disables idle expiry.
	SessionIdleTimeout string `yaml:"session_idle_timeout" mapstructure:"session_idle_timeout" validate:"omitempty,duration"`

	// ShutdownTimeout bounds graceful shutdown. Defaults to "10s".
	ShutdownTimeout string `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout" validate:"duration"`
}

// UpstreamConfig configures the customer-details service.
type UpstreamConfig struct {
	// BaseURL is the lookup endpoint; the customer ID is appended as a path segment.
	BaseURL string `yaml:"base_url" mapstructure:"base_url" validate:"required,url"`

	// CustomerID is the customer the tool looks up. Defaults to "A024874".
	CustomerID string `yaml:"customer_id" mapstructure:"customer_id" validate:"required"`

	// Timeout bounds one lookup (e.g., "30s"). "0" disables the timeout.
	Timeout string `yaml:"timeout" mapstructure:"timeout" validate:"duration"`
}

// TelemetryConfig configures OpenTelemetry tracing and metrics export.
type TelemetryConfig struct {
	// Exporter is "none" (default) or "stdout".
	Exporter string `yaml:"exporter" mapstructure:"exporter" validate:"oneof=none stdout"`

	// MetricInterval is how often metrics are exported (e.g., "60s").
	MetricInterval string `yaml:"metric_interval" mapstructure:"metric_interval" validate:"duration"`
}

// SetDefaults applies default values for unset fields.
func (c *Config) SetDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.CallbackScheme == "" {
		c.Server.CallbackScheme = DefaultCallbackScheme
	}
	if c.Server.MessagesPath == "" {
		c.Server.MessagesPath = DefaultMessagesPath
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = DefaultLogLevel
	}
	if c.Server.SessionCollision == "" {
		c.Server.SessionCollision = DefaultSessionCollision
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	if c.Upstream.BaseURL == "" {
		c.Upstream.BaseURL = DefaultUpstreamBaseURL
	}
	if c.Upstream.CustomerID == "" {
		c.Upstream.CustomerID = customer.DefaultCustomerID
	}
	if c.Upstream.Timeout == "" {
		c.Upstream.Timeout = DefaultUpstreamTimeout
	}

	if c.Telemetry.Exporter == "" {
		c.Telemetry.Exporter = DefaultTelemetry
	}
	if c.Telemetry.MetricInterval == "" {
		c.Telemetry.MetricInterval = DefaultMetricInterval
	}
}

// Addr returns the listen address in host:port form.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// IdleTimeout returns the parsed session idle timeout, or 0 when disabled.
func (s ServerConfig) IdleTimeout() time.Duration {
	return parseDuration(s.SessionIdleTimeout)
}

// ShutdownBudget returns the parsed graceful shutdown timeout.
func (s ServerConfig) ShutdownBudget() time.Duration {
	return parseDuration(s.ShutdownTimeout)
}

// TimeoutDuration returns the parsed upstream timeout, or 0 when disabled.
func (u UpstreamConfig) TimeoutDuration() time.Duration {
	return parseDuration(u.Timeout)
}

// Interval returns the parsed metric export interval.
func (t TelemetryConfig) Interval() time.Duration {
	return parseDuration(t.MetricInterval)
}

// parseDuration parses a validated duration string; invalid or empty values yield 0.
func parseDuration(s string) time.Duration {
	if s == "" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}
