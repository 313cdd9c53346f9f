package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/propertytek/rentbot"
	"github.com/propertytek/rentbot/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts the assistant as an MCP Server, exposing the chat and
search_properties tools and the rentbot://markets resource to AI agents.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		app, err := openApp(ctx, cmd, map[string]string{
			"mcp.transport": "transport",
			"mcp.addr":      "addr",
			"mcp.base_url":  "base-url",
		})
		if err != nil {
			return err
		}
		defer app.Close()
		go app.Run(ctx)

		srv := mcp.NewServer(app, app.Catalog, rentbot.Version,
			mcp.WithGate(app.Gate),
			mcp.WithLogger(app.Logger.With("component", "mcp")),
		)

		cfg := app.Config.MCP
		switch cfg.Transport {
		case "stdio":
			// Logs go to Stderr so they never corrupt JSON-RPC on Stdout.
			app.Logger.Info("Starting Rentbot MCP Server (Stdio)")
			if err := srv.ServeStdio(); err != nil {
				return fmt.Errorf("MCP server execution failed: %w", err)
			}
		case "sse":
			app.Logger.Info("Starting Rentbot MCP Server (SSE)", "address", cfg.Addr)
			if err := srv.ServeSSE(ctx, cfg.Addr, cfg.BaseURL); err != nil {
				return fmt.Errorf("MCP server execution failed: %w", err)
			}
			app.Logger.Info("MCP Server stopped gracefully")
		default:
			return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", cfg.Transport)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().String("addr", "", "Address to listen on (only for SSE)")
	mcpCmd.Flags().String("base-url", "", "Public base URL announced to SSE clients")
}
