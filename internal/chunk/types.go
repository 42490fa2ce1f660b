// Package chunk splits knowledge-base articles into retrieval passages.
//
// Chunking is semantic: a document is segmented into sentences, adjacent
// sentences are compared by embedding similarity, and topic boundaries
// are placed where similarity drops below the 25th percentile. The
// resulting segments are then merged and split to fit the configured
// size window without ever cutting inside a sentence.
package chunk

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/backtrue/sbirkb/internal/kb"
)

const (
	// DefaultMinChunkSize is the minimum chunk length in characters.
	DefaultMinChunkSize = 50
	// DefaultMaxChunkSize is the maximum chunk length in characters.
	DefaultMaxChunkSize = 800
	// DefaultThresholdPercentile is the similarity percentile below which
	// a topic boundary is placed.
	DefaultThresholdPercentile = 25.0
	// previewRunes caps the chunk preview length.
	previewRunes = 50
)

// Chunk is one retrieval passage with its provenance.
type Chunk struct {
	// ID is "<document path>::chunk_<index>".
	ID string `json:"id"`
	// Content is the passage text.
	Content string `json:"content"`
	// File is the source file name.
	File string `json:"file"`
	// FilePath is the source path relative to the KB root.
	FilePath string `json:"file_path"`
	// Index is the zero-based position within the document.
	Index int `json:"chunk_index"`
	// Total is the number of chunks the document produced.
	Total int `json:"total_chunks"`
	// Preview is the first line of the passage, truncated.
	Preview string `json:"preview"`

	SourceURL   string `json:"source_url,omitempty"`
	SourceTitle string `json:"source_title,omitempty"`
	SourceDate  string `json:"source_date,omitempty"`
}

// ChunkID builds the canonical chunk identifier.
func ChunkID(path string, index int) string {
	return fmt.Sprintf("%s::chunk_%d", path, index)
}

// Options configures the chunker size window and boundary sensitivity.
type Options struct {
	MinChunkSize        int
	MaxChunkSize        int
	ThresholdPercentile float64
}

// withDefaults fills unset options.
func (o Options) withDefaults() Options {
	if o.MinChunkSize == 0 {
		o.MinChunkSize = DefaultMinChunkSize
	}
	if o.MaxChunkSize == 0 {
		o.MaxChunkSize = DefaultMaxChunkSize
	}
	if o.ThresholdPercentile == 0 {
		o.ThresholdPercentile = DefaultThresholdPercentile
	}
	return o
}

// preview returns the first line of text truncated to previewRunes.
func preview(text string) string {
	line := text
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		line = text[:i]
	}
	if utf8.RuneCountInString(line) <= previewRunes {
		return line
	}
	runes := []rune(line)
	return string(runes[:previewRunes])
}

// newChunk assembles a Chunk with document metadata attached.
func newChunk(doc *kb.Document, content string, index, total int) *Chunk {
	return &Chunk{
		ID:          ChunkID(doc.Path, index),
		Content:     content,
		File:        doc.Name,
		FilePath:    doc.Path,
		Index:       index,
		Total:       total,
		Preview:     preview(content),
		SourceURL:   doc.Meta.SourceURL,
		SourceTitle: doc.Meta.SourceTitle,
		SourceDate:  doc.Meta.SourceDate,
	}
}
