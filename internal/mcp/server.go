package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/backtrue/sbirkb/internal/config"
	"github.com/backtrue/sbirkb/internal/embed"
	"github.com/backtrue/sbirkb/internal/index"
	"github.com/backtrue/sbirkb/internal/kb"
	"github.com/backtrue/sbirkb/internal/search"
	"github.com/backtrue/sbirkb/internal/store"
	"github.com/backtrue/sbirkb/internal/watcher"
	"github.com/backtrue/sbirkb/pkg/version"
)

// Server bridges AI clients with the knowledge-base search engine.
type Server struct {
	mcp         *mcp.Server
	engine      *search.Engine
	loader      *kb.Loader
	coordinator *index.Coordinator
	embedder    embed.Embedder
	config      *config.Config
	dataDir     string
	logger      *slog.Logger
}

// NewServer creates an MCP server around an engine and coordinator.
func NewServer(engine *search.Engine, loader *kb.Loader, coordinator *index.Coordinator, embedder embed.Embedder, cfg *config.Config, dataDir string, logger *slog.Logger) (*Server, error) {
	if engine == nil {
		return nil, errors.New("search engine is required")
	}
	if loader == nil {
		return nil, errors.New("document loader is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		engine:      engine,
		loader:      loader,
		coordinator: coordinator,
		embedder:    embedder,
		config:      cfg,
		dataDir:     dataDir,
		logger:      logger,
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    "sbirkb",
			Version: version.Version,
		},
		nil,
	)
	s.registerTools()

	return s, nil
}

// ReloadIndex opens the live index and swaps it into the engine.
// A missing index leaves the engine in lexical-only mode.
func (s *Server) ReloadIndex() error {
	vectors, metadata, err := index.Open(s.dataDir)
	if errors.Is(err, index.ErrNoIndex) {
		s.logger.Warn("no index found, serving lexical-only")
		return nil
	}
	if err != nil {
		return err
	}
	s.engine.SetIndex(vectors, metadata)
	return nil
}

// SearchInput is the search_knowledge_base input schema.
type SearchInput struct {
	Query    string `json:"query" jsonschema:"the search query, Chinese or English keywords"`
	Category string `json:"category,omitempty" jsonschema:"限定搜尋類別: methodology, faq, checklist, case_study, template, all"`
}

// SearchOutput is the search_knowledge_base output schema.
type SearchOutput struct {
	Markdown     string          `json:"markdown" jsonschema:"human-readable result listing"`
	Results      []search.Result `json:"results" jsonschema:"ranked documents"`
	TotalFound   int             `json:"total_found" jsonschema:"matches before truncation"`
	SemanticUsed bool            `json:"semantic_used" jsonschema:"false when ranking fell back to keywords only"`
	CacheHit     bool            `json:"cache_hit" jsonschema:"true when served from the query cache"`
}

// ReadInput is the read_document input schema.
type ReadInput struct {
	FilePath string `json:"file_path" jsonschema:"document path relative to the knowledge-base root"`
}

// ReadOutput is the read_document output schema.
type ReadOutput struct {
	Markdown string `json:"markdown" jsonschema:"document rendered with its path header"`
	Path     string `json:"path,omitempty" jsonschema:"resolved document path"`
}

// RebuildInput is the rebuild_index input schema.
type RebuildInput struct{}

// RebuildOutput is the rebuild_index output schema.
type RebuildOutput struct {
	Documents       int    `json:"documents" jsonschema:"documents indexed"`
	Chunks          int    `json:"chunks" jsonschema:"chunks indexed"`
	DurationSeconds float64 `json:"duration_seconds" jsonschema:"rebuild wall time"`
	SemanticEnabled bool   `json:"semantic_enabled" jsonschema:"whether chunk vectors were built"`
	Markdown        string `json:"markdown" jsonschema:"human-readable summary"`
}

// StatusInput is the index_status input schema.
type StatusInput struct{}

// StatusOutput is the index_status output schema.
type StatusOutput struct {
	Built           bool              `json:"built" jsonschema:"whether an index exists"`
	Documents       int               `json:"documents" jsonschema:"indexed document count"`
	Chunks          int               `json:"chunks" jsonschema:"indexed chunk count"`
	BuiltAt         string            `json:"built_at,omitempty" jsonschema:"RFC3339 build time"`
	Model           string            `json:"model,omitempty" jsonschema:"embedding model of the build"`
	Dimensions      int               `json:"dimensions,omitempty" jsonschema:"embedding dimensions"`
	SemanticEnabled bool              `json:"semantic_enabled" jsonschema:"whether the build has chunk vectors"`
	Stale           bool              `json:"stale" jsonschema:"true when documents changed since the build"`
	EmbedderReady   bool              `json:"embedder_ready" jsonschema:"whether the embedding backend answers"`
	Cache           search.CacheStats `json:"cache" jsonschema:"query cache counters"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "search_knowledge_base",
		Description: "搜尋 SBIR 知識庫。結合同義詞關鍵字比對與語意相似度排序，回傳最相關的文件清單。",
	}, s.handleSearch)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "read_document",
		Description: "讀取知識庫中指定路徑的完整文件內容。",
	}, s.handleRead)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "rebuild_index",
		Description: "重新建立搜尋索引。文件有新增或修改後執行，完成前搜尋仍使用舊索引。",
	}, s.handleRebuild)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "index_status",
		Description: "查詢索引狀態：文件數、分塊數、建立時間、語意搜尋是否可用。",
	}, s.handleStatus)

	s.logger.Info("MCP tools registered", slog.Int("count", 4))
}

func (s *Server) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
	start := time.Now()

	resp, err := s.engine.Search(ctx, input.Query, input.Category)
	if err != nil {
		return nil, SearchOutput{}, MapError(err)
	}

	s.logger.Info("search completed",
		slog.String("query", input.Query),
		slog.String("category", resp.Category),
		slog.Int("total", resp.TotalFound),
		slog.Bool("semantic", resp.SemanticUsed),
		slog.Bool("cache_hit", resp.CacheHit),
		slog.Duration("duration", time.Since(start)))

	return nil, SearchOutput{
		Markdown:     FormatSearchResults(resp),
		Results:      resp.Results,
		TotalFound:   resp.TotalFound,
		SemanticUsed: resp.SemanticUsed,
		CacheHit:     resp.CacheHit,
	}, nil
}

func (s *Server) handleRead(_ context.Context, _ *mcp.CallToolRequest, input ReadInput) (*mcp.CallToolResult, ReadOutput, error) {
	if input.FilePath == "" {
		return nil, ReadOutput{}, NewInvalidParamsError("file_path is required")
	}

	doc, err := s.loader.Read(input.FilePath)
	switch {
	case errors.Is(err, kb.ErrPathOutsideRoot):
		return nil, ReadOutput{Markdown: FormatPathOutsideRoot()}, nil
	case errors.Is(err, os.ErrNotExist):
		return nil, ReadOutput{Markdown: FormatFileNotFound(input.FilePath)}, nil
	case err != nil:
		s.logger.Warn("read_document failed",
			slog.String("path", input.FilePath),
			slog.String("error", err.Error()))
		return nil, ReadOutput{Markdown: FormatFileNotFound(input.FilePath)}, nil
	}

	return nil, ReadOutput{
		Markdown: FormatDocument(doc.Name, doc.Path, doc.Body),
		Path:     doc.Path,
	}, nil
}

func (s *Server) handleRebuild(ctx context.Context, _ *mcp.CallToolRequest, _ RebuildInput) (*mcp.CallToolResult, RebuildOutput, error) {
	if s.coordinator == nil {
		return nil, RebuildOutput{}, NewInvalidParamsError("index rebuilding is not enabled on this server")
	}

	result, err := s.coordinator.Rebuild(ctx)
	if err != nil {
		s.logger.Error("rebuild failed", slog.String("error", err.Error()))
		return nil, RebuildOutput{}, MapError(err)
	}

	if err := s.ReloadIndex(); err != nil {
		s.logger.Error("failed to reload rebuilt index", slog.String("error", err.Error()))
		return nil, RebuildOutput{}, MapError(err)
	}

	md := fmt.Sprintf("✅ 索引重建完成：%d 份文件、%d 個分塊（%.1f 秒）",
		result.Documents, result.Chunks, result.Duration.Seconds())
	if !result.SemanticEnabled {
		md += "\n⚠️ 語意索引未建立，僅提供關鍵字搜尋。"
	}

	return nil, RebuildOutput{
		Documents:       result.Documents,
		Chunks:          result.Chunks,
		DurationSeconds: result.Duration.Seconds(),
		SemanticEnabled: result.SemanticEnabled,
		Markdown:        md,
	}, nil
}

func (s *Server) handleStatus(ctx context.Context, _ *mcp.CallToolRequest, _ StatusInput) (*mcp.CallToolResult, StatusOutput, error) {
	out := StatusOutput{
		Stale: s.engine.Stale(),
		Cache: s.engine.CacheStats(),
	}
	if s.embedder != nil {
		out.EmbedderReady = s.embedder.Available(ctx)
	}

	metaPath := index.MetadataPath(index.LiveDir(s.dataDir))
	if _, err := os.Stat(metaPath); err != nil {
		// No index yet is a normal state, not an error.
		return nil, out, nil
	}

	meta, err := store.NewSQLiteStore(metaPath)
	if err != nil {
		return nil, out, nil
	}
	defer func() { _ = meta.Close() }()

	state, err := meta.GetBuildState(ctx)
	if err != nil {
		return nil, out, nil
	}

	out.Built = true
	out.BuiltAt = state.BuiltAt.Format(time.RFC3339)
	out.Model = state.Model
	out.Dimensions = state.Dimensions
	out.SemanticEnabled = state.SemanticEnabled

	if n, err := meta.CountChunks(ctx); err == nil {
		out.Chunks = n
	}
	if docs, err := meta.GetDocuments(ctx); err == nil {
		out.Documents = len(docs)
	}

	if s.coordinator != nil && !out.Stale {
		if stale, err := s.coordinator.NeedsReindex(ctx); err == nil {
			out.Stale = stale
		}
	}

	return nil, out, nil
}

// Serve runs the server on stdio until the context is cancelled. When
// watch is enabled, knowledge-base edits flag the index stale so
// queries fall back to lexical-only until a rebuild.
func (s *Server) Serve(ctx context.Context) error {
	if s.config != nil && s.config.Server.WatchDebounce > 0 {
		w, err := watcher.New(s.loader.Root(), s.config.Server.WatchDebounce, s.logger)
		if err != nil {
			s.logger.Warn("file watching disabled", slog.String("error", err.Error()))
		} else {
			go func() { _ = w.Start(ctx) }()
			go func() {
				for batch := range w.Changes() {
					s.logger.Info("knowledge base changed, marking index stale",
						slog.Int("files", len(batch)))
					s.engine.MarkStale()
				}
			}()
			defer func() { _ = w.Stop() }()
		}
	}

	s.logger.Info("MCP server starting", slog.String("transport", "stdio"))
	err := s.mcp.Run(ctx, &mcp.StdioTransport{})
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("MCP server stopped with error", slog.String("error", err.Error()))
		return err
	}
	s.logger.Info("MCP server stopped")
	return nil
}
