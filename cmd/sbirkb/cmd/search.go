package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/backtrue/sbirkb/internal/config"
	"github.com/backtrue/sbirkb/internal/ui"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	category string
	format   string
	noColor  bool
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the knowledge base",
		Long: `Search the knowledge base with synonym-expanded keyword matching
fused with semantic similarity.

Examples:
  sbirkb search "補助金額上限"
  sbirkb search "第一階段" --category checklist
  sbirkb search "預算編列" --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return runSearch(cmd.Context(), cmd, query, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.category, "category", "c", "all",
		"Filter by category: methodology, faq, checklist, case_study, template, all")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, query string, opts searchOptions) error {
	cfg, err := config.Load(cmd.Flag("kb").Value.String())
	if err != nil {
		return err
	}

	engine, err := buildEngine(cfg, nil)
	if err != nil {
		return err
	}
	defer func() { _ = engine.Close() }()

	resp, err := engine.Search(ctx, query, opts.category)
	if err != nil {
		return err
	}

	if opts.format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	out := ui.New(cmd.OutOrStdout(), opts.noColor)
	if len(resp.Results) == 0 {
		out.Warningf("找不到與「%s」相關的文件", query)
		return nil
	}

	out.Header(fmt.Sprintf("找到 %d 個相關文件", resp.TotalFound))
	out.Newline()
	for i, r := range resp.Results {
		out.Item(i+1, r.Name, r.Score)
		out.Detail("類別", r.Category)
		out.Detail("路徑", r.ID)
		if r.Preview != "" {
			out.Detail("摘要", r.Preview)
		}
	}
	if resp.Omitted > 0 {
		out.Newline()
		out.Warningf("還有 %d 個相關文件未顯示", resp.Omitted)
	}
	if !resp.SemanticUsed {
		out.Newline()
		out.Warning("語意搜尋暫時無法使用，結果僅以關鍵字比對排序")
	}

	return nil
}
