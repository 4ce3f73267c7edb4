package main

import "github.com/youngsinc/youngs-mcp/cmd/youngs-mcp/cmd"

func main() {
	cmd.Execute()
}
