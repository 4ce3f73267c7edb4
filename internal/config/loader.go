package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides, e.g. YOUNGS_MCP_UPSTREAM_CUSTOMER_ID.
const EnvPrefix = "YOUNGS_MCP"

// configBaseName is the file name searched for, without extension.
const configBaseName = "youngs-mcp"

// InitViper initializes Viper with the configuration file and environment variables.
// If configFile is empty, it searches for youngs-mcp.yaml/.yml in standard locations.
// The search requires an explicit YAML extension so the binary itself is never matched.
func InitViper(configFile string) {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else if found := findConfigFile(); found != "" {
		viper.SetConfigFile(found)
	} else {
		// ReadInConfig will return ConfigFileNotFoundError, handled by callers.
		viper.SetConfigName(configBaseName)
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	bindNestedEnvKeys()
}

// findConfigFile searches ., ~/.youngs-mcp and /etc/youngs-mcp.
func findConfigFile() string {
	home, _ := os.UserHomeDir()
	paths := []string{
		".",
		filepath.Join(home, "."+configBaseName),
		filepath.Join("/etc", configBaseName),
	}
	return findConfigFileInPaths(paths)
}

// findConfigFileInPaths searches the given directories for youngs-mcp.yaml or .yml.
// Returns the full path of the first match, or empty string if none found.
func findConfigFileInPaths(paths []string) string {
	for _, dir := range paths {
		for _, ext := range []string{".yaml", ".yml"} {
			path := filepath.Join(dir, configBaseName+ext)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// bindNestedEnvKeys binds every config key for environment variable support.
// Example: YOUNGS_MCP_SERVER_CALLBACK_SCHEME overrides server.callback_scheme.
func bindNestedEnvKeys() {
	// PORT is honoured after the prefixed variable.
	_ = viper.BindEnv("server.port", EnvPrefix+"_SERVER_PORT", "PORT")
	_ = viper.BindEnv("server.host")
	_ = viper.BindEnv("server.callback_scheme")
	_ = viper.BindEnv("server.messages_path")
	_ = viper.BindEnv("server.log_level")
	_ = viper.BindEnv("server.session_collision")
	_ = viper.BindEnv("server.session_idle_timeout")
	_ = viper.BindEnv("server.shutdown_timeout")

	_ = viper.BindEnv("upstream.base_url")
	_ = viper.BindEnv("upstream.customer_id")
	_ = viper.BindEnv("upstream.timeout")

	_ = viper.BindEnv("telemetry.exporter")
	_ = viper.BindEnv("telemetry.metric_interval")

	_ = viper.BindEnv("dev_mode")
}

// LoadConfig reads the configuration file, applies environment overrides,
// sets defaults, validates, and returns the Config.
func LoadConfig() (*Config, error) {
	cfg, err := LoadConfigRaw()
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConfigRaw reads the configuration file and applies defaults,
// but does NOT validate. Use this when CLI flags may override fields first.
func LoadConfigRaw() (*Config, error) {
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No file: continue with env vars only.
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.SetDefaults()
	return &cfg, nil
}

// ConfigFileUsed returns the path to the configuration file that was loaded.
// Returns an empty string if no config file was found (env vars only mode).
func ConfigFileUsed() string {
	return viper.ConfigFileUsed()
}
