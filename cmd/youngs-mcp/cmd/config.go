package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/youngsinc/youngs-mcp/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Print the configuration the server would run with, after the config
file, environment overrides, and defaults are applied. The output is YAML
and can be used as a starting youngs-mcp.yaml.`,
	RunE: runConfig,
}

var configValidate bool

func init() {
	configCmd.Flags().BoolVar(&configValidate, "validate", false, "Validate the configuration and fail on errors")
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigRaw()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if configValidate {
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("config validation failed: %w", err)
		}
	}
	if file := config.ConfigFileUsed(); file != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "# loaded from %s\n", file)
	}
	return writeConfig(cmd.OutOrStdout(), cfg)
}

func writeConfig(w io.Writer, cfg *config.Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return enc.Close()
}
