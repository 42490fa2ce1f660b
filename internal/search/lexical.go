package search

import (
	"strings"

	"github.com/backtrue/sbirkb/internal/kb"
)

const (
	// filenameScore is awarded when a keyword appears in the file name.
	filenameScore = 3
	// bodyOccurrenceCap limits how much repeated body matches can add.
	bodyOccurrenceCap = 5
)

// ScoreDocument accumulates the lexical score of one document across
// all keywords: a filename hit scores 3, otherwise body occurrences
// score up to the cap. Matching is case-insensitive with no stemming,
// deliberately cheap.
func ScoreDocument(doc *kb.Document, keywords []string) int {
	nameLower := strings.ToLower(doc.Name)
	bodyLower := strings.ToLower(doc.Body)

	score := 0
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(nameLower, kw) {
			score += filenameScore
			continue
		}
		if n := strings.Count(bodyLower, kw); n > 0 {
			score += min(n, bodyOccurrenceCap)
		}
	}
	return score
}

// ScoreDocuments scores a document set and drops zero scorers.
func ScoreDocuments(docs []*kb.Document, keywords []string) map[string]int {
	scores := make(map[string]int)
	for _, doc := range docs {
		if s := ScoreDocument(doc, keywords); s > 0 {
			scores[doc.Path] = s
		}
	}
	return scores
}
