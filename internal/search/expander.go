package search

import "strings"

// ExpandQuery rewrites the query once per matching synonym: for every
// table term occurring in the query (case-insensitive substring), each
// sibling produces a variant with that one occurrence substituted. The
// original query always comes first and duplicates are dropped in
// insertion order.
func ExpandQuery(query string) []string {
	expanded := []string{query}
	seen := map[string]bool{query: true}
	queryLower := strings.ToLower(query)

	for _, entry := range synonymTable {
		if !strings.Contains(queryLower, entry.lower) {
			continue
		}

		for _, syn := range entry.siblings {
			var variant string
			if strings.Contains(query, entry.term) {
				// Original casing present, substitute in place.
				variant = strings.Replace(query, entry.term, syn, 1)
			} else {
				variant = strings.Replace(queryLower, entry.lower, syn, 1)
			}

			if !seen[variant] {
				seen[variant] = true
				expanded = append(expanded, variant)
			}
		}
	}

	return expanded
}

// ExpandKeywords splits every expanded query on whitespace and returns
// the lowercased keywords, deduplicated in first-seen order.
func ExpandKeywords(query string) []string {
	var keywords []string
	seen := make(map[string]bool)

	for _, q := range ExpandQuery(query) {
		for _, field := range strings.Fields(q) {
			kw := strings.ToLower(field)
			if !seen[kw] {
				seen[kw] = true
				keywords = append(keywords, kw)
			}
		}
	}

	return keywords
}
