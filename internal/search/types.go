// Package search implements hybrid retrieval over the knowledge base:
// synonym-expanded keyword scoring fused with embedding similarity,
// fronted by an LRU query cache.
package search

import "errors"

// ErrEmptyQuery is returned for blank search input.
var ErrEmptyQuery = errors.New("query must not be empty")

// DefaultDisplayLimit caps how many results a response lists.
const DefaultDisplayLimit = 10

// Result is one ranked document.
type Result struct {
	// ID is the document path relative to the KB root.
	ID string `json:"id"`
	// Name is the file name.
	Name string `json:"name"`
	// Category is the human-readable category label.
	Category string `json:"category"`
	// Score is the fused relevance score.
	Score float64 `json:"score"`
	// Preview is a short excerpt, from the best-matching chunk when
	// semantic search contributed.
	Preview string `json:"preview,omitempty"`

	SourceURL   string `json:"source_url,omitempty"`
	SourceTitle string `json:"source_title,omitempty"`
}

// Response is a complete search answer.
type Response struct {
	Query    string   `json:"query"`
	Category string   `json:"category"`
	Results  []Result `json:"results"`
	// TotalFound counts every matching document before truncation.
	TotalFound int `json:"total_found"`
	// Omitted counts results cut by the display limit.
	Omitted int `json:"omitted"`
	// SemanticUsed is false when the engine fell back to lexical-only
	// scoring.
	SemanticUsed bool `json:"semantic_used"`
	// CacheHit marks answers served from the query cache.
	CacheHit bool `json:"cache_hit"`
}
