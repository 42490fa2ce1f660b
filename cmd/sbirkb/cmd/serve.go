package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/backtrue/sbirkb/internal/config"
	"github.com/backtrue/sbirkb/internal/kb"
	"github.com/backtrue/sbirkb/internal/logging"
	"github.com/backtrue/sbirkb/internal/mcp"
)

func newServeCmd() *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server on stdio",
		Long: `Start the MCP server on stdio without touching the index.

Stdout carries JSON-RPC exclusively; all logs go to the log file.
Use 'sbirkb index' first, or run the bare 'sbirkb' command which
indexes automatically.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Flag("kb").Value.String())
			if err != nil {
				return err
			}
			if offline {
				cfg.Embeddings.Provider = "static"
			}

			cleanup, err := logging.SetupServeMode(cfg.Server.LogLevel)
			if err != nil {
				return fmt.Errorf("failed to setup logging: %w", err)
			}
			defer cleanup()

			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Use static embeddings (skip Ollama)")

	return cmd
}

// runServe wires the engine, coordinator, and MCP server, then blocks
// on stdio until the client disconnects. Logging must already be in
// serve mode when this is called.
func runServe(ctx context.Context, cfg *config.Config) error {
	logger := slog.Default()

	engine, err := buildEngine(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open index: %w", err)
	}
	defer func() { _ = engine.Close() }()

	embedder := buildEmbedder(cfg)
	server, err := mcp.NewServer(
		engine,
		kb.NewLoader(cfg.KB.Root, logger),
		buildCoordinator(cfg, logger),
		embedder,
		cfg,
		cfg.KB.DataDir,
		logger,
	)
	if err != nil {
		return err
	}

	return server.Serve(ctx)
}
