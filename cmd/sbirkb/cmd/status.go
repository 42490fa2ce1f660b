package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/backtrue/sbirkb/internal/config"
	"github.com/backtrue/sbirkb/internal/index"
	"github.com/backtrue/sbirkb/internal/store"
	"github.com/backtrue/sbirkb/internal/ui"
)

// statusInfo is what the status command reports.
type statusInfo struct {
	KBRoot          string `json:"kb_root"`
	Built           bool   `json:"built"`
	Documents       int    `json:"documents"`
	Chunks          int    `json:"chunks"`
	BuiltAt         string `json:"built_at,omitempty"`
	Model           string `json:"model,omitempty"`
	Dimensions      int    `json:"dimensions,omitempty"`
	SemanticEnabled bool   `json:"semantic_enabled"`
	Stale           bool   `json:"stale"`
	MetadataBytes   int64  `json:"metadata_bytes"`
	VectorBytes     int64  `json:"vector_bytes"`
}

func newStatusCmd() *cobra.Command {
	var jsonOutput bool
	var noColor bool

	cmd := &cobra.Command{
		Use:     "status",
		Aliases: []string{"stats"},
		Short:   "Show index health and status",
		Long: `Display information about the current index:
  - Number of indexed documents and chunks
  - Build time and embedding model
  - Whether documents changed since the build
  - Storage sizes`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd.Context(), cmd, jsonOutput, noColor)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	return cmd
}

func runStatus(ctx context.Context, cmd *cobra.Command, jsonOutput, noColor bool) error {
	cfg, err := config.Load(cmd.Flag("kb").Value.String())
	if err != nil {
		return err
	}

	info, err := collectStatus(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to collect status: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}

	out := ui.New(cmd.OutOrStdout(), noColor)
	out.Header("索引狀態")
	out.KeyValue("知識庫", info.KBRoot)
	if !info.Built {
		out.Newline()
		out.Warning("尚未建立索引，請執行 'sbirkb index'")
		return nil
	}

	out.KeyValue("文件數", fmt.Sprintf("%d", info.Documents))
	out.KeyValue("分塊數", fmt.Sprintf("%d", info.Chunks))
	out.KeyValue("建立時間", info.BuiltAt)
	if info.SemanticEnabled {
		out.KeyValue("嵌入模型", fmt.Sprintf("%s (%d 維)", info.Model, info.Dimensions))
	} else {
		out.KeyValue("語意搜尋", "未啟用")
	}
	out.KeyValue("儲存空間", formatBytes(info.MetadataBytes+info.VectorBytes))

	out.Newline()
	if info.Stale {
		out.Warning("文件已變更，建議重新執行 'sbirkb index'")
	} else {
		out.Success("索引是最新的")
	}

	return nil
}

func collectStatus(ctx context.Context, cfg *config.Config) (*statusInfo, error) {
	info := &statusInfo{KBRoot: cfg.KB.Root}

	liveDir := index.LiveDir(cfg.KB.DataDir)
	metadataPath := index.MetadataPath(liveDir)
	if !fileExists(metadataPath) {
		return info, nil
	}

	meta, err := store.NewSQLiteStore(metadataPath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = meta.Close() }()

	state, err := meta.GetBuildState(ctx)
	if err != nil {
		return info, nil
	}

	info.Built = true
	info.BuiltAt = state.BuiltAt.Format(time.RFC3339)
	info.Model = state.Model
	info.Dimensions = state.Dimensions
	info.SemanticEnabled = state.SemanticEnabled

	if n, err := meta.CountChunks(ctx); err == nil {
		info.Chunks = n
	}
	if docs, err := meta.GetDocuments(ctx); err == nil {
		info.Documents = len(docs)
	}

	info.MetadataBytes = fileSize(metadataPath)
	info.VectorBytes = fileSize(index.VectorPath(liveDir))

	stale, err := buildCoordinator(cfg, nil).NeedsReindex(ctx)
	if err == nil {
		info.Stale = stale
	}

	return info, nil
}

// fileSize returns the size of a file in bytes, zero if missing.
func fileSize(path string) int64 {
	st, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return st.Size()
}

// formatBytes renders a byte count with a binary unit.
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
