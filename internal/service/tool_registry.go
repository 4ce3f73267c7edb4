package service

import (
	"context"
	"log/slog"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Protocol-visible identity of the server and its single tool.
const (
	ServerName         = "youngsMCP"
	ServerVersion      = "1.0.0"
	ServerInstructions = "A server that provides customer details from Young's Inc."

	ToolName        = "get-customer-details"
	ToolDescription = "Get customer details"
)

// CustomerDetailsTool returns the declaration of the get-customer-details tool.
// It takes no arguments.
func CustomerDetailsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        ToolName,
		Description: ToolDescription,
		InputSchema: &jsonschema.Schema{Type: "object"},
	}
}

// CustomerDetailsHandler adapts the service to an MCP tool handler.
// On success the result carries exactly one text item; on failure the
// handler returns the *customer.UpstreamError and no result, which the
// protocol layer reports as an error on the tools/call response.
func CustomerDetailsHandler(svc *CustomerService) mcp.ToolHandler {
	return func(ctx context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := svc.Lookup(ctx)
		if err != nil {
			return nil, err
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: text}},
		}, nil
	}
}

// NewMCPServer builds the protocol server with its tool set bound.
// The tool set is fixed once this returns.
func NewMCPServer(svc *CustomerService, logger *slog.Logger) *mcp.Server {
	if logger == nil {
		logger = slog.Default()
	}
	server := mcp.NewServer(&mcp.Implementation{
		Name:    ServerName,
		Version: ServerVersion,
	}, &mcp.ServerOptions{
		Instructions: ServerInstructions,
	})

	server.AddTool(CustomerDetailsTool(), CustomerDetailsHandler(svc))
	logger.Debug("registered tool", "tool", ToolName, "customer_id", svc.CustomerID())

	return server
}
