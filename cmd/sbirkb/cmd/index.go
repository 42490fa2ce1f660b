package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/backtrue/sbirkb/internal/config"
	"github.com/backtrue/sbirkb/internal/index"
	"github.com/backtrue/sbirkb/internal/ui"
)

func newIndexCmd() *cobra.Command {
	var offline bool
	var noColor bool

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build the search index",
		Long: `Chunk every knowledge-base document, embed the chunks, and write
a fresh index. The old index keeps serving until the new one swaps in.

Examples:
  sbirkb index
  sbirkb index --kb ./knowledge-base
  sbirkb index --offline`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runIndex(cmd.Context(), cmd, offline, noColor)
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Use static embeddings (skip Ollama)")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	return cmd
}

func runIndex(ctx context.Context, cmd *cobra.Command, offline, noColor bool) error {
	cfg, err := config.Load(cmd.Flag("kb").Value.String())
	if err != nil {
		return err
	}
	if offline {
		cfg.Embeddings.Provider = "static"
	}

	out := ui.New(cmd.OutOrStdout(), noColor)
	out.Header("建立索引")
	out.KeyValue("知識庫", cfg.KB.Root)
	out.KeyValue("嵌入模型", fmt.Sprintf("%s (%s)", cfg.Embeddings.Provider, cfg.Embeddings.Model))
	out.Newline()

	result, err := buildCoordinator(cfg, slog.Default()).Rebuild(ctx)
	if err != nil {
		if errors.Is(err, index.ErrRebuildInProgress) {
			out.Error("另一個索引重建正在進行中")
			return err
		}
		out.Errorf("索引建立失敗: %v", err)
		return err
	}

	out.Successf("索引完成：%d 份文件、%d 個分塊（%.1f 秒）",
		result.Documents, result.Chunks, result.Duration.Seconds())
	if !result.SemanticEnabled {
		out.Warning("語意索引未建立，僅提供關鍵字搜尋")
	}

	return nil
}
