package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/backtrue/sbirkb/internal/chunk"
	"github.com/backtrue/sbirkb/internal/embed"
	"github.com/backtrue/sbirkb/internal/kb"
	"github.com/backtrue/sbirkb/internal/store"
)

// ErrRebuildInProgress is returned when another process holds the
// rebuild lock.
var ErrRebuildInProgress = errors.New("another rebuild is in progress")

// Chunker splits one document into retrieval passages.
type Chunker interface {
	Chunk(ctx context.Context, doc *kb.Document) ([]*chunk.Chunk, error)
}

// Config contains coordinator dependencies.
type Config struct {
	// DataDir is the directory holding index files and the rebuild lock.
	DataDir string

	// Loader reads documents from the knowledge base.
	Loader *kb.Loader

	// Chunker splits documents into passages.
	Chunker Chunker

	// Embedder produces chunk vectors. Nil disables semantic indexing.
	Embedder embed.Embedder

	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

// Result summarizes a completed rebuild.
type Result struct {
	Documents       int
	Chunks          int
	Duration        time.Duration
	SemanticEnabled bool
	Model           string
	Dimensions      int
}

// Coordinator rebuilds the index from the knowledge base.
type Coordinator struct {
	config Config
	logger *slog.Logger
	mu     sync.Mutex
}

// NewCoordinator creates an index coordinator.
func NewCoordinator(config Config) *Coordinator {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{config: config, logger: logger}
}

// Rebuild chunks every document, embeds the chunks when an embedder is
// available, and swaps the new index into place. The old index keeps
// serving reads until the swap.
func (c *Coordinator) Rebuild(ctx context.Context) (*Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	lock := NewFileLock(c.config.DataDir)
	acquired, err := lock.TryLock()
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, ErrRebuildInProgress
	}
	defer func() { _ = lock.Unlock() }()

	start := time.Now()

	docs, err := c.config.Loader.Load(kb.CategoryAll)
	if err != nil {
		return nil, fmt.Errorf("failed to load documents: %w", err)
	}

	var (
		records   []*store.ChunkRecord
		ids       []string
		contents  []string
		docStates []*store.DocumentState
	)
	for _, doc := range docs {
		chunks, err := c.config.Chunker.Chunk(ctx, doc)
		if err != nil {
			return nil, fmt.Errorf("failed to chunk %s: %w", doc.Path, err)
		}
		for _, ch := range chunks {
			records = append(records, &store.ChunkRecord{
				ID:          ch.ID,
				FilePath:    ch.FilePath,
				FileName:    ch.File,
				ChunkIndex:  ch.Index,
				TotalChunks: ch.Total,
				Preview:     ch.Preview,
				Content:     ch.Content,
				SourceURL:   ch.SourceURL,
				SourceTitle: ch.SourceTitle,
				SourceDate:  ch.SourceDate,
			})
			ids = append(ids, ch.ID)
			contents = append(contents, ch.Content)
		}
		docStates = append(docStates, &store.DocumentState{
			Path:        doc.Path,
			ContentHash: doc.ContentHash,
			ModTime:     doc.ModTime,
		})
	}

	vectors, dims := c.embedChunks(ctx, contents)
	semantic := vectors != nil

	result := &Result{
		Documents:       len(docs),
		Chunks:          len(records),
		SemanticEnabled: semantic,
		Dimensions:      dims,
	}
	if c.config.Embedder != nil {
		result.Model = c.config.Embedder.ModelName()
	}

	if err := c.writeAndSwap(ctx, records, ids, vectors, dims, docStates, result); err != nil {
		return nil, err
	}

	result.Duration = time.Since(start)
	c.logger.Info("index rebuilt",
		slog.Int("documents", result.Documents),
		slog.Int("chunks", result.Chunks),
		slog.Bool("semantic", result.SemanticEnabled),
		slog.Duration("duration", result.Duration))

	return result, nil
}

// embedChunks returns chunk vectors, or nil when semantic indexing is
// unavailable. Embedding failures degrade to a lexical-only index.
func (c *Coordinator) embedChunks(ctx context.Context, contents []string) ([][]float32, int) {
	if c.config.Embedder == nil || len(contents) == 0 {
		return nil, 0
	}
	if !c.config.Embedder.Available(ctx) {
		c.logger.Warn("embedder unavailable, building lexical-only index")
		return nil, 0
	}

	vectors, err := c.config.Embedder.EmbedBatch(ctx, contents)
	if err != nil {
		c.logger.Warn("embedding failed, building lexical-only index",
			slog.String("error", err.Error()))
		return nil, 0
	}
	if len(vectors) != len(contents) || len(vectors) == 0 {
		c.logger.Warn("embedding returned wrong count, building lexical-only index",
			slog.Int("want", len(contents)),
			slog.Int("got", len(vectors)))
		return nil, 0
	}

	return vectors, len(vectors[0])
}

// writeAndSwap builds the staging index directory and renames it into
// place.
func (c *Coordinator) writeAndSwap(ctx context.Context, records []*store.ChunkRecord, ids []string, vectors [][]float32, dims int, docStates []*store.DocumentState, result *Result) error {
	stagingDir := filepath.Join(c.config.DataDir, stagingDirName)
	if err := os.RemoveAll(stagingDir); err != nil {
		return fmt.Errorf("failed to clear staging directory: %w", err)
	}
	if err := os.MkdirAll(stagingDir, 0o755); err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}

	meta, err := store.NewSQLiteStore(MetadataPath(stagingDir))
	if err != nil {
		return err
	}
	if err := c.writeMetadata(ctx, meta, records, docStates, result); err != nil {
		_ = meta.Close()
		_ = os.RemoveAll(stagingDir)
		return err
	}
	if err := meta.Close(); err != nil {
		_ = os.RemoveAll(stagingDir)
		return fmt.Errorf("failed to close staging metadata: %w", err)
	}

	if vectors != nil {
		if err := c.writeVectors(ctx, stagingDir, ids, vectors, dims); err != nil {
			_ = os.RemoveAll(stagingDir)
			return err
		}
	}

	return c.swap(stagingDir)
}

func (c *Coordinator) writeMetadata(ctx context.Context, meta *store.SQLiteStore, records []*store.ChunkRecord, docStates []*store.DocumentState, result *Result) error {
	if err := meta.SaveChunks(ctx, records); err != nil {
		return fmt.Errorf("failed to save chunks: %w", err)
	}
	if err := meta.SaveDocuments(ctx, docStates); err != nil {
		return fmt.Errorf("failed to save document states: %w", err)
	}
	state := &store.BuildState{
		Model:           result.Model,
		Dimensions:      result.Dimensions,
		BuiltAt:         time.Now(),
		SemanticEnabled: result.SemanticEnabled,
	}
	if err := meta.SaveBuildState(ctx, state); err != nil {
		return fmt.Errorf("failed to save build state: %w", err)
	}
	return nil
}

func (c *Coordinator) writeVectors(ctx context.Context, stagingDir string, ids []string, vectors [][]float32, dims int) error {
	vs, err := store.NewHNSWStore(store.HNSWConfig{Dimensions: dims})
	if err != nil {
		return err
	}
	defer func() { _ = vs.Close() }()

	if err := vs.Add(ctx, ids, vectors); err != nil {
		return fmt.Errorf("failed to index vectors: %w", err)
	}
	if err := vs.Save(VectorPath(stagingDir)); err != nil {
		return fmt.Errorf("failed to save vector index: %w", err)
	}
	return nil
}

// swap replaces the live index directory with the staging one. The old
// index is moved aside first so a failed swap can be rolled back.
func (c *Coordinator) swap(stagingDir string) error {
	liveDir := LiveDir(c.config.DataDir)
	backupDir := filepath.Join(c.config.DataDir, backupDirName)

	if err := os.RemoveAll(backupDir); err != nil {
		return fmt.Errorf("failed to clear backup directory: %w", err)
	}

	hadLive := false
	if _, err := os.Stat(liveDir); err == nil {
		hadLive = true
		if err := os.Rename(liveDir, backupDir); err != nil {
			return fmt.Errorf("failed to move old index aside: %w", err)
		}
	}

	if err := os.Rename(stagingDir, liveDir); err != nil {
		if hadLive {
			_ = os.Rename(backupDir, liveDir)
		}
		return fmt.Errorf("failed to activate new index: %w", err)
	}

	if hadLive {
		_ = os.RemoveAll(backupDir)
	}
	return nil
}

// NeedsReindex reports whether the knowledge base has changed since the
// last build. A missing index always needs a build.
func (c *Coordinator) NeedsReindex(ctx context.Context) (bool, error) {
	metaPath := MetadataPath(LiveDir(c.config.DataDir))
	if _, err := os.Stat(metaPath); err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, fmt.Errorf("failed to stat index: %w", err)
	}

	meta, err := store.NewSQLiteStore(metaPath)
	if err != nil {
		return false, err
	}
	defer func() { _ = meta.Close() }()

	stored, err := meta.GetDocuments(ctx)
	if err != nil {
		return false, err
	}
	storedByPath := make(map[string]*store.DocumentState, len(stored))
	for _, d := range stored {
		storedByPath[d.Path] = d
	}

	paths, err := c.config.Loader.List(kb.CategoryAll)
	if err != nil {
		return false, err
	}
	if len(paths) != len(stored) {
		return true, nil
	}

	for _, rel := range paths {
		prev, ok := storedByPath[rel]
		if !ok {
			return true, nil
		}
		doc, err := c.config.Loader.Read(rel)
		if err != nil {
			return true, nil
		}
		if doc.ContentHash != prev.ContentHash {
			return true, nil
		}
	}

	return false, nil
}
