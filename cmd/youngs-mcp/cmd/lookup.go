package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/youngsinc/youngs-mcp/internal/adapter/outbound/customerapi"
	"github.com/youngsinc/youngs-mcp/internal/config"
	"github.com/youngsinc/youngs-mcp/internal/service"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup",
	Short: "Fetch the configured customer once and print it",
	Long: `Call get-customer-details through an in-process MCP session and print
the pretty-printed customer record to stdout.

Useful for checking upstream connectivity without starting the server.`,
	RunE: runLookup,
}

var lookupCustomerID string

func init() {
	lookupCmd.Flags().StringVar(&lookupCustomerID, "customer-id", "", "Customer ID to fetch (overrides upstream.customer_id)")
	rootCmd.AddCommand(lookupCmd)
}

func runLookup(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigRaw()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if lookupCustomerID != "" {
		cfg.Upstream.CustomerID = lookupCustomerID
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	logger := newLogger(cmd.ErrOrStderr(), cfg)

	client := customerapi.NewHTTPClient(cfg.Upstream.BaseURL,
		customerapi.WithTimeout(cfg.Upstream.TimeoutDuration()),
	)
	defer client.Close()

	svc := service.NewCustomerService(client, cfg.Upstream.CustomerID, logger)
	return lookupOnce(cmd.Context(), service.NewMCPServer(svc, logger), cmd.OutOrStdout(), logger)
}

// lookupOnce connects an in-memory client to server, calls the customer
// tool, and writes its text content to w.
func lookupOnce(ctx context.Context, server *mcp.Server, w io.Writer, logger *slog.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	ss, err := server.Connect(ctx, serverTransport, nil)
	if err != nil {
		return fmt.Errorf("failed to start in-process session: %w", err)
	}
	defer ss.Close()

	client := mcp.NewClient(&mcp.Implementation{Name: "youngs-mcp-lookup", Version: Version}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		return fmt.Errorf("failed to connect in-process client: %w", err)
	}
	defer cs.Close()

	res, err := cs.CallTool(ctx, &mcp.CallToolParams{Name: service.ToolName})
	if err != nil {
		return err
	}
	if res.IsError {
		return fmt.Errorf("%s failed: %s", service.ToolName, contentText(res.Content))
	}

	logger.Debug("lookup complete", "items", len(res.Content))
	_, err = fmt.Fprintln(w, contentText(res.Content))
	return err
}

func contentText(items []mcp.Content) string {
	var out string
	for _, c := range items {
		if tc, ok := c.(*mcp.TextContent); ok {
			out += tc.Text
		}
	}
	return out
}
