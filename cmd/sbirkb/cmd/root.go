// Package cmd provides the CLI commands for sbirkb.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/backtrue/sbirkb/internal/chunk"
	"github.com/backtrue/sbirkb/internal/config"
	"github.com/backtrue/sbirkb/internal/embed"
	"github.com/backtrue/sbirkb/internal/index"
	"github.com/backtrue/sbirkb/internal/kb"
	"github.com/backtrue/sbirkb/internal/logging"
	"github.com/backtrue/sbirkb/internal/search"
	"github.com/backtrue/sbirkb/pkg/version"
)

// Debug logging flag shared across commands.
var (
	debugMode      bool
	loggingCleanup func()
)

// NewRootCmd creates the root command for the sbirkb CLI.
func NewRootCmd() *cobra.Command {
	var kbRoot string
	var offline bool
	var reindex bool

	cmd := &cobra.Command{
		Use:   "sbirkb",
		Short: "SBIR 知識庫 MCP 伺服器",
		Long: `sbirkb serves a Taiwan SBIR grant-writing knowledge base to AI
assistants over the Model Context Protocol.

It combines synonym-expanded keyword matching with semantic similarity
over an HNSW vector index, and runs entirely locally.

Run 'sbirkb' in your knowledge-base directory to index and serve it.`,
		Version: version.Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return cmd.Help()
			}
			return runSmartDefault(cmd.Context(), kbRoot, offline, reindex)
		},
	}

	cmd.SetVersionTemplate("sbirkb version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&kbRoot, "kb", ".", "Knowledge-base root directory")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	cmd.Flags().BoolVar(&offline, "offline", false, "Use static embeddings (skip Ollama)")
	cmd.Flags().BoolVar(&reindex, "reindex", false, "Force reindex even if index exists")

	cmd.PersistentPreRunE = startDebugLogging
	cmd.PersistentPostRunE = stopDebugLogging

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newReadCmd())
	cmd.AddCommand(newExpandCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// startDebugLogging routes slog to the log file when --debug is set.
func startDebugLogging(_ *cobra.Command, _ []string) error {
	if !debugMode {
		return nil
	}

	cfg := logging.DefaultConfig()
	cfg.Level = "debug"
	logger, cleanup, err := logging.Setup(cfg)
	if err != nil {
		return fmt.Errorf("failed to setup debug logging: %w", err)
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)
	slog.Info("debug logging enabled", slog.String("log_file", logging.DefaultLogPath()))
	return nil
}

func stopDebugLogging(_ *cobra.Command, _ []string) error {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// runSmartDefault indexes the knowledge base if needed and starts the
// MCP server. Stdout must stay clean for JSON-RPC, so all status output
// goes to the log file.
func runSmartDefault(ctx context.Context, kbRoot string, offline, reindex bool) error {
	cfg, err := config.Load(kbRoot)
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

	metadataPath := index.MetadataPath(index.LiveDir(cfg.KB.DataDir))
	if reindex || !fileExists(metadataPath) {
		slog.Info("index not found, building", slog.String("kb", cfg.KB.Root))
		if _, err := buildCoordinator(cfg, slog.Default()).Rebuild(ctx); err != nil {
			slog.Error("indexing failed", slog.String("error", err.Error()))
			return fmt.Errorf("indexing failed: %w", err)
		}
	}

	return runServe(ctx, cfg)
}

// fileExists checks if a file exists.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// buildEmbedder constructs the configured embedding provider. Ollama is
// wrapped lazily so construction failures surface on first use instead
// of blocking startup.
func buildEmbedder(cfg *config.Config) embed.Embedder {
	factory := embed.FactoryConfig{
		Provider:  cfg.Embeddings.Provider,
		Model:     cfg.Embeddings.Model,
		Host:      cfg.Embeddings.OllamaHost,
		Timeout:   cfg.Embeddings.Timeout,
		BatchSize: cfg.Embeddings.BatchSize,
		CacheSize: cfg.Embeddings.CacheSize,
	}
	return embed.NewLazyEmbedder(func(context.Context) (embed.Embedder, error) {
		return embed.NewEmbedder(factory)
	})
}

// buildCoordinator wires an index coordinator from configuration.
func buildCoordinator(cfg *config.Config, logger *slog.Logger) *index.Coordinator {
	embedder := buildEmbedder(cfg)
	return index.NewCoordinator(index.Config{
		DataDir: cfg.KB.DataDir,
		Loader:  kb.NewLoader(cfg.KB.Root, logger),
		Chunker: chunk.NewSemanticChunker(embedder, chunk.Options{
			MinChunkSize:        cfg.Chunking.MinChunkSize,
			MaxChunkSize:        cfg.Chunking.MaxChunkSize,
			ThresholdPercentile: cfg.Chunking.ThresholdPercentile,
		}, logger),
		Embedder: embedder,
		Logger:   logger,
	})
}

// buildEngine wires a search engine from configuration and loads the
// live index when one exists.
func buildEngine(cfg *config.Config, logger *slog.Logger) (*search.Engine, error) {
	loader := kb.NewLoader(cfg.KB.Root, logger)
	engine := search.NewEngine(loader, buildEmbedder(cfg), search.Config{
		LexicalWeight:  cfg.Search.LexicalWeight,
		SemanticWeight: cfg.Search.SemanticWeight,
		TopK:           cfg.Search.TopK,
		DisplayLimit:   cfg.Search.DisplayLimit,
		CacheSize:      cfg.Search.CacheSize,
		EmbedTimeout:   cfg.Embeddings.Timeout,
	}, logger)

	vectors, metadata, err := index.Open(cfg.KB.DataDir)
	if err == nil {
		engine.SetIndex(vectors, metadata)
	} else if !errors.Is(err, index.ErrNoIndex) {
		_ = engine.Close()
		return nil, err
	}
	return engine, nil
}
