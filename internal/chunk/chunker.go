package chunk

import (
	"context"
	"log/slog"
	"strings"

	"github.com/backtrue/sbirkb/internal/embed"
	"github.com/backtrue/sbirkb/internal/kb"
)

// SemanticChunker splits documents at embedding-detected topic
// boundaries. When the embedder is unavailable the chunker degrades to a
// size-only pass, so indexing never fails on a missing model.
type SemanticChunker struct {
	opts     Options
	embedder embed.Embedder
	logger   *slog.Logger
}

// NewSemanticChunker creates a chunker. embedder may be nil, which
// forces the size-only path.
func NewSemanticChunker(embedder embed.Embedder, opts Options, logger *slog.Logger) *SemanticChunker {
	if logger == nil {
		logger = slog.Default()
	}
	return &SemanticChunker{
		opts:     opts.withDefaults(),
		embedder: embedder,
		logger:   logger,
	}
}

// Chunk splits one document into passages.
func (c *SemanticChunker) Chunk(ctx context.Context, doc *kb.Document) ([]*Chunk, error) {
	body := strings.TrimSpace(doc.Body)
	if body == "" {
		return nil, nil
	}

	sentences := SplitSentences(body)
	if len(sentences) <= 1 {
		// Too short to segment, the document is one chunk.
		return []*Chunk{newChunk(doc, body, 0, 1)}, nil
	}

	boundaries := c.findBoundaries(ctx, doc.Path, sentences)
	segments := CutSegments(sentences, boundaries)
	texts := Assemble(segments, c.opts.MinChunkSize, c.opts.MaxChunkSize)

	chunks := make([]*Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = newChunk(doc, text, i, len(texts))
	}
	return chunks, nil
}

// findBoundaries embeds the sentences and locates topic breaks.
// Any embedding failure degrades to no boundaries: the assembler then
// works from document order and the size window alone.
func (c *SemanticChunker) findBoundaries(ctx context.Context, path string, sentences []string) []int {
	if c.embedder == nil || !c.embedder.Available(ctx) {
		return nil
	}

	embeddings, err := c.embedder.EmbedBatch(ctx, sentences)
	if err != nil {
		c.logger.Warn("sentence embedding failed, falling back to size-only chunking",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return nil
	}
	if len(embeddings) != len(sentences) {
		c.logger.Warn("embedding count mismatch, falling back to size-only chunking",
			slog.String("path", path),
			slog.Int("sentences", len(sentences)),
			slog.Int("embeddings", len(embeddings)))
		return nil
	}

	return FindBoundaries(embeddings, c.opts.ThresholdPercentile)
}
