// Package cmd provides the CLI commands for the Youngs MCP server.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/youngsinc/youngs-mcp/internal/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "youngs-mcp",
	Short: "Youngs MCP - customer details over the Model Context Protocol",
	Long: `youngs-mcp is an MCP server that exposes a single tool,
get-customer-details, which fetches a customer record from the
Young's Inc. customer-details API.

Clients connect over SSE (GET /sse, then POST /messages?sessionId=...)
or streamable HTTP (/mcp).

Quick start:
  youngs-mcp start

Configuration:
  Config is loaded from youngs-mcp.yaml in the current directory,
  $HOME/.youngs-mcp/, or /etc/youngs-mcp/.

  Environment variables override config values with the YOUNGS_MCP_ prefix.
  Example: YOUNGS_MCP_UPSTREAM_CUSTOMER_ID=A024874
  PORT is honoured as a fallback for server.port.

Commands:
  start       Start the MCP server
  stop        Stop the running server
  lookup      Fetch the configured customer once and print it
  config      Print the effective configuration
  version     Print version information`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./youngs-mcp.yaml)")
}

func initConfig() {
	config.InitViper(cfgFile)
}
