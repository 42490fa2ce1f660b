package search

import "sort"

// Default fusion weights. Semantic similarity dominates because it is
// already calibrated to [0, 1] while lexical counts are crude.
const (
	DefaultLexicalWeight  = 0.4
	DefaultSemanticWeight = 0.6
)

// ScoredID is one fused ranking entry.
type ScoredID struct {
	ID    string
	Score float64
}

// Fuse merges lexical and semantic score maps into one ranked list.
// Lexical scores are normalized by the maximum observed; semantic
// similarities are used as-is. A nil semantic map means semantic search
// was unavailable and lexical scores rank alone. Ties break on ID so
// the ordering is deterministic.
func Fuse(lexical map[string]int, semantic map[string]float64, lexicalWeight, semanticWeight float64) []ScoredID {
	maxLex := 0
	for _, s := range lexical {
		if s > maxLex {
			maxLex = s
		}
	}

	normLex := func(id string) float64 {
		if maxLex == 0 {
			return 0
		}
		return float64(lexical[id]) / float64(maxLex)
	}

	ids := make(map[string]bool, len(lexical)+len(semantic))
	for id := range lexical {
		ids[id] = true
	}
	for id := range semantic {
		ids[id] = true
	}

	fused := make([]ScoredID, 0, len(ids))
	for id := range ids {
		var score float64
		if semantic == nil {
			score = normLex(id)
		} else {
			score = lexicalWeight*normLex(id) + semanticWeight*semantic[id]
		}
		fused = append(fused, ScoredID{ID: id, Score: score})
	}

	sort.Slice(fused, func(i, j int) bool {
		if fused[i].Score != fused[j].Score {
			return fused[i].Score > fused[j].Score
		}
		return fused[i].ID < fused[j].ID
	})

	return fused
}
