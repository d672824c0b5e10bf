package main

import (
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/aretw0/psys"
	"github.com/aretw0/psys/internal/cli"
	"github.com/aretw0/psys/internal/logging"
	"github.com/aretw0/psys/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes the simulator as an MCP Server with the tools simulate and
validate_rules, and recorded runs as psy://runs resources when a store is
configured.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		// Logs must never reach Stdout: it carries JSON-RPC in stdio mode.
		level, err := logging.ParseLevel(cfg.LogLevel)
		if err != nil {
			log.Fatalf("Invalid log level: %v", err)
		}
		logger := logging.New(level)
		slog.SetDefault(logger)
		log.SetOutput(os.Stderr)

		store, closeStore, err := cli.OpenStore(cmd.Context(), cfg)
		if err != nil {
			log.Fatalf("Error opening run store: %v", err)
		}
		defer closeStore()

		stepLimit := cfg.StepLimit
		if stepLimit == 0 {
			stepLimit = defaultServeStepLimit
		}
		simOpts := []psys.Option{psys.WithLogger(logger), psys.WithStepLimit(stepLimit)}
		if store != nil {
			simOpts = append(simOpts, psys.WithStore(store))
		}
		srv := mcp.NewServer(psys.NewFactory(simOpts...), store, psys.Version)

		switch transport {
		case "stdio":
			slog.Info("Starting psy MCP Server (Stdio)...")
			if err := srv.ServeStdio(); err != nil {
				slog.Error("MCP Server execution failed", "error", err)
				os.Exit(1)
			}
		case "sse":
			slog.Info("Starting psy MCP Server (SSE)", "port", port)

			ctx := cli.NewSignalContext(cmd.Context())
			defer ctx.Cancel()

			if err := srv.ServeSSE(ctx, port); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("MCP Server execution failed", "error", err)
				os.Exit(1)
			}
			slog.Info("MCP Server stopped gracefully")
		default:
			fmt.Printf("Unknown transport: %s. Supported: stdio, sse\n", transport)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE)")
}
