package chunk

import (
	"strings"
	"unicode/utf8"
)

// CutSegments groups sentences into text segments at the given boundary
// indices. Sentences within a segment are joined with newlines.
func CutSegments(sentences []string, boundaries []int) []string {
	if len(sentences) == 0 {
		return nil
	}

	var segments []string
	prev := 0
	for _, b := range boundaries {
		if b <= prev || b >= len(sentences) {
			continue
		}
		segments = append(segments, strings.Join(sentences[prev:b], "\n"))
		prev = b
	}
	segments = append(segments, strings.Join(sentences[prev:], "\n"))
	return segments
}

// Assemble merges segments into chunks within the [minSize, maxSize]
// character window. Undersized segments accumulate in a buffer until the
// buffer plus the next segment reaches minSize, then flush as one chunk.
// Oversized chunks split greedily at sentence boundaries. A trailing
// undersized buffer folds into the previous chunk so no fragment is lost.
func Assemble(segments []string, minSize, maxSize int) []string {
	var chunks []string
	buffer := ""

	for _, seg := range segments {
		combined := seg
		if buffer != "" {
			combined = buffer + "\n" + seg
		}

		if utf8.RuneCountInString(combined) < minSize {
			buffer = combined
			continue
		}

		chunks = append(chunks, splitOversized(combined, minSize, maxSize)...)
		buffer = ""
	}

	if buffer != "" {
		if len(chunks) > 0 && utf8.RuneCountInString(buffer) < minSize {
			chunks[len(chunks)-1] += "\n" + buffer
		} else {
			chunks = append(chunks, buffer)
		}
	}

	return chunks
}

// splitOversized splits text exceeding maxSize at sentence boundaries,
// packing sentences greedily. A single sentence longer than maxSize
// stays whole; sentences are never cut.
func splitOversized(text string, minSize, maxSize int) []string {
	if utf8.RuneCountInString(text) <= maxSize {
		return []string{text}
	}

	sentences := strings.Split(text, "\n")
	var pieces []string
	current := ""

	for _, s := range sentences {
		candidate := s
		if current != "" {
			candidate = current + "\n" + s
		}
		if current != "" && utf8.RuneCountInString(candidate) > maxSize {
			pieces = append(pieces, current)
			current = s
			continue
		}
		current = candidate
	}

	if current != "" {
		// A short final piece folds back when it fits.
		if len(pieces) > 0 && utf8.RuneCountInString(current) < minSize {
			merged := pieces[len(pieces)-1] + "\n" + current
			if utf8.RuneCountInString(merged) <= maxSize {
				pieces[len(pieces)-1] = merged
				return pieces
			}
		}
		pieces = append(pieces, current)
	}

	return pieces
}
