package search

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/backtrue/sbirkb/internal/embed"
	"github.com/backtrue/sbirkb/internal/kb"
	"github.com/backtrue/sbirkb/internal/store"
)

// Config tunes the engine.
type Config struct {
	// LexicalWeight and SemanticWeight are the fusion weights.
	LexicalWeight  float64
	SemanticWeight float64
	// TopK is how many nearest chunks the vector index returns.
	TopK int
	// DisplayLimit caps results per response.
	DisplayLimit int
	// CacheSize is the query cache capacity.
	CacheSize int
	// EmbedTimeout bounds query embedding; a slow embedder degrades the
	// request to lexical-only instead of hanging it.
	EmbedTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.LexicalWeight == 0 && c.SemanticWeight == 0 {
		c.LexicalWeight = DefaultLexicalWeight
		c.SemanticWeight = DefaultSemanticWeight
	}
	if c.TopK == 0 {
		c.TopK = 10
	}
	if c.DisplayLimit == 0 {
		c.DisplayLimit = DefaultDisplayLimit
	}
	if c.EmbedTimeout == 0 {
		c.EmbedTimeout = 30 * time.Second
	}
	return c
}

// Engine answers search queries by fusing lexical and semantic scores.
// The vector and metadata stores are swappable so a rebuild can replace
// the index under live traffic.
type Engine struct {
	loader   *kb.Loader
	embedder embed.Embedder
	cache    *SearchCache
	logger   *slog.Logger
	config   Config

	mu       sync.RWMutex
	vectors  store.VectorStore
	metadata store.MetadataStore
	stale    bool
}

// NewEngine creates a search engine. The embedder may be nil for
// lexical-only operation.
func NewEngine(loader *kb.Loader, embedder embed.Embedder, config Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	config = config.withDefaults()
	return &Engine{
		loader:   loader,
		embedder: embedder,
		cache:    NewSearchCache(config.CacheSize),
		logger:   logger,
		config:   config,
	}
}

// SetIndex swaps in a freshly built index and clears the query cache.
// The previous stores are closed.
func (e *Engine) SetIndex(vectors store.VectorStore, metadata store.MetadataStore) {
	e.mu.Lock()
	oldVectors, oldMetadata := e.vectors, e.metadata
	e.vectors = vectors
	e.metadata = metadata
	e.stale = false
	e.mu.Unlock()

	e.cache.Clear()

	if oldVectors != nil {
		_ = oldVectors.Close()
	}
	if oldMetadata != nil {
		_ = oldMetadata.Close()
	}
}

// MarkStale flags the semantic index as out of date. Queries fall back
// to lexical-only scoring until SetIndex installs a rebuilt index.
func (e *Engine) MarkStale() {
	e.mu.Lock()
	e.stale = true
	e.mu.Unlock()
	e.cache.Clear()
}

// Stale reports whether the semantic index is flagged out of date.
func (e *Engine) Stale() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.stale
}

// CacheStats exposes query cache counters.
func (e *Engine) CacheStats() CacheStats {
	return e.cache.Stats()
}

// Search runs a hybrid query. Semantic failures degrade to
// lexical-only scoring and are flagged in the response, never fatal.
func (e *Engine) Search(ctx context.Context, query, category string) (*Response, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	cat, err := kb.ParseCategory(category)
	if err != nil {
		return nil, err
	}

	key := CacheKey(query, cat.String())
	if cached, ok := e.cache.Get(key); ok {
		hit := *cached
		hit.CacheHit = true
		return &hit, nil
	}

	keywords := ExpandKeywords(query)

	var (
		docs        []*kb.Document
		lexScores   map[string]int
		semScores   map[string]float64
		semPreviews map[string]string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		docs, err = e.loader.Load(cat)
		if err != nil {
			return err
		}
		lexScores = ScoreDocuments(docs, keywords)
		return nil
	})
	g.Go(func() error {
		semScores, semPreviews = e.semanticScores(gctx, query, cat)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	fused := Fuse(lexScores, semScores, e.config.LexicalWeight, e.config.SemanticWeight)

	docByPath := make(map[string]*kb.Document, len(docs))
	for _, doc := range docs {
		docByPath[doc.Path] = doc
	}

	results := make([]Result, 0, min(len(fused), e.config.DisplayLimit))
	for _, entry := range fused {
		if len(results) == e.config.DisplayLimit {
			break
		}

		r := Result{
			ID:       entry.ID,
			Score:    entry.Score,
			Category: kb.DisplayFromPath(entry.ID),
		}
		if doc, ok := docByPath[entry.ID]; ok {
			r.Name = doc.Name
			r.Preview = firstLine(doc.Body)
			r.SourceURL = doc.Meta.SourceURL
			r.SourceTitle = doc.Meta.SourceTitle
		} else {
			r.Name = entry.ID[strings.LastIndex(entry.ID, "/")+1:]
		}
		if p, ok := semPreviews[entry.ID]; ok && p != "" {
			r.Preview = p
		}
		results = append(results, r)
	}

	resp := &Response{
		Query:        query,
		Category:     cat.String(),
		Results:      results,
		TotalFound:   len(fused),
		Omitted:      len(fused) - len(results),
		SemanticUsed: semScores != nil,
	}
	e.cache.Set(key, resp)

	e.logger.Debug("search complete",
		slog.String("query", query),
		slog.String("category", cat.String()),
		slog.Int("total", resp.TotalFound),
		slog.Bool("semantic", resp.SemanticUsed))

	return resp, nil
}

// semanticScores returns per-document similarity from the vector
// index, or nil when semantic search is unavailable. A document's
// score is its best chunk's similarity.
func (e *Engine) semanticScores(ctx context.Context, query string, cat kb.Category) (map[string]float64, map[string]string) {
	e.mu.RLock()
	vectors, metadata, stale := e.vectors, e.metadata, e.stale
	e.mu.RUnlock()

	if vectors == nil || metadata == nil || stale || e.embedder == nil {
		return nil, nil
	}

	embedCtx, cancel := context.WithTimeout(ctx, e.config.EmbedTimeout)
	defer cancel()

	queryVec, err := e.embedder.Embed(embedCtx, query)
	if err != nil {
		e.logger.Warn("query embedding failed, lexical-only",
			slog.String("error", err.Error()))
		return nil, nil
	}

	hits, err := vectors.Search(ctx, queryVec, e.config.TopK)
	if err != nil {
		e.logger.Warn("vector search failed, lexical-only",
			slog.String("error", err.Error()))
		return nil, nil
	}

	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
	}
	records, err := metadata.GetChunks(ctx, ids)
	if err != nil {
		e.logger.Warn("chunk lookup failed, lexical-only",
			slog.String("error", err.Error()))
		return nil, nil
	}
	recordByID := make(map[string]*store.ChunkRecord, len(records))
	for _, rec := range records {
		recordByID[rec.ID] = rec
	}

	scores := make(map[string]float64)
	previews := make(map[string]string)
	for _, h := range hits {
		rec, ok := recordByID[h.ID]
		if !ok {
			continue
		}
		if !cat.Matches(rec.FilePath) {
			continue
		}
		if s := float64(h.Score); s > scores[rec.FilePath] {
			scores[rec.FilePath] = s
			previews[rec.FilePath] = rec.Preview
		}
	}

	return scores, previews
}

// Close releases the index stores.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.vectors != nil {
		_ = e.vectors.Close()
		e.vectors = nil
	}
	if e.metadata != nil {
		err := e.metadata.Close()
		e.metadata = nil
		return err
	}
	return nil
}

// firstLine returns the first line of text, truncated to 50 runes.
func firstLine(text string) string {
	line := strings.TrimSpace(text)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	if utf8.RuneCountInString(line) <= 50 {
		return line
	}
	return string([]rune(line)[:50])
}
