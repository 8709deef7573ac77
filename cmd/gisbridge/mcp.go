package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/mapgrid/gisbridge/pkg/tools"
)

const mcpInstructions = `Remote control for a GIS bridge host. Tools map to
bridge commands: inspect the project, add and manage layers, zoom the
canvas, run processing algorithms, and execute code in the host's
interpreter. The bridge host must be running and reachable.`

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the bridge commands as MCP tools over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			bt := tools.NewBridgeTools(bridgeAddr())
			defer bt.Close()

			server := mcp.NewServer(&mcp.Implementation{
				Name:    "gisbridge",
				Version: "1.0.0",
			}, &mcp.ServerOptions{
				HasTools:     true,
				Instructions: mcpInstructions,
			})
			tools.Register(server, bt)

			return server.Run(ctx, &mcp.StdioTransport{})
		},
	}
}
