// Package embed generates vector embeddings for knowledge-base text.
//
// The Ollama backend is the default provider. The static hash backend
// needs no model or network and serves as the deterministic fallback,
// and every provider can be wrapped with LRU caching and lazy
// single-flight initialization.
package embed

import (
	"context"
	"errors"
	"math"
	"time"
)

// Common embedding constants.
const (
	// DefaultBatchSize is the default number of texts per request.
	DefaultBatchSize = 32

	// MaxBatchSize caps a single request to prevent memory exhaustion.
	MaxBatchSize = 256

	// DefaultTimeout bounds a single embedding request against a warm model.
	DefaultTimeout = 30 * time.Second

	// DefaultColdTimeout bounds the first request, which may pull the
	// model into memory.
	DefaultColdTimeout = 120 * time.Second

	// ModelUnloadThreshold is the idle duration after which Ollama is
	// assumed to have unloaded the model.
	ModelUnloadThreshold = 5 * time.Minute

	// DefaultDimensions is the dimension reported before the provider has
	// served its first embedding (bge-m3).
	DefaultDimensions = 1024

	// StaticDimensions is the embedding dimension for the static embedder.
	StaticDimensions = 256
)

// ErrEmbedderClosed is returned by operations on a closed embedder.
var ErrEmbedderClosed = errors.New("embedder is closed")

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed generates an embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding dimension.
	Dimensions() int

	// ModelName returns the model identifier.
	ModelName() string

	// Available checks if the embedder is ready.
	Available(ctx context.Context) bool

	// Close releases resources.
	Close() error
}

// normalizeVector normalizes a vector to unit length.
func normalizeVector(v []float32) []float32 {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}

	magnitude := math.Sqrt(sumSquares)
	if magnitude == 0 {
		return v
	}

	normalized := make([]float32, len(v))
	for i, val := range v {
		normalized[i] = float32(float64(val) / magnitude)
	}
	return normalized
}
