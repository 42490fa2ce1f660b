// Package store persists the search index: chunk vectors in an HNSW
// graph and chunk/document metadata in SQLite.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrStoreClosed is returned by operations on a closed store.
var ErrStoreClosed = errors.New("store is closed")

// ErrDimensionMismatch indicates a vector with the wrong dimension.
type ErrDimensionMismatch struct {
	Expected int
	Got      int
}

func (e ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("vector dimension mismatch: expected %d, got %d", e.Expected, e.Got)
}

// VectorResult is one nearest-neighbor hit.
type VectorResult struct {
	// ID is the chunk identifier.
	ID string
	// Distance is the raw metric distance (cosine: 0 identical, 2 opposite).
	Distance float32
	// Score is the similarity in [0, 1].
	Score float32
}

// VectorStore indexes chunk embeddings for nearest-neighbor search.
type VectorStore interface {
	Add(ctx context.Context, ids []string, vectors [][]float32) error
	Search(ctx context.Context, query []float32, k int) ([]*VectorResult, error)
	Contains(id string) bool
	Count() int
	Dimensions() int
	Save(path string) error
	Load(path string) error
	Close() error
}

// ChunkRecord is a persisted chunk with its provenance, enough to
// render a search result without re-reading the source file.
type ChunkRecord struct {
	ID          string
	FilePath    string
	FileName    string
	ChunkIndex  int
	TotalChunks int
	Preview     string
	Content     string
	SourceURL   string
	SourceTitle string
	SourceDate  string
}

// DocumentState records the indexed version of a source document, used
// for staleness detection.
type DocumentState struct {
	Path        string
	ContentHash string
	ModTime     time.Time
}

// BuildState describes the index build: which model produced the
// vectors and when.
type BuildState struct {
	Model      string
	Dimensions int
	BuiltAt    time.Time
	// SemanticEnabled records whether vectors were built; a lexical-only
	// build still serves keyword search.
	SemanticEnabled bool
}

// MetadataStore persists chunk records, document states, and the build
// state.
type MetadataStore interface {
	SaveChunks(ctx context.Context, chunks []*ChunkRecord) error
	GetChunk(ctx context.Context, id string) (*ChunkRecord, error)
	GetChunks(ctx context.Context, ids []string) ([]*ChunkRecord, error)
	CountChunks(ctx context.Context) (int, error)

	SaveDocuments(ctx context.Context, docs []*DocumentState) error
	GetDocuments(ctx context.Context) ([]*DocumentState, error)

	SaveBuildState(ctx context.Context, state *BuildState) error
	GetBuildState(ctx context.Context) (*BuildState, error)

	Close() error
}

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")
