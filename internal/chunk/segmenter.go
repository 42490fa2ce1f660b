package chunk

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// minSentenceRunes drops fragments too short to carry a topic.
const minSentenceRunes = 10

var (
	// headingPattern matches markdown headings so they can be terminated
	// like sentences and survive the split as their own units.
	headingPattern = regexp.MustCompile(`(?m)^(#{1,6}\s+.+)$`)

	// sentenceDelimiters splits on CJK and ASCII sentence enders plus
	// newlines. Runs of delimiters count as one break.
	sentenceDelimiters = regexp.MustCompile(`[。！？!?\n]+`)
)

// SplitSentences splits markdown text into sentence units.
// Headings become their own sentences. Fragments shorter than
// minSentenceRunes are dropped.
func SplitSentences(text string) []string {
	terminated := headingPattern.ReplaceAllString(text, "${1}。")

	parts := sentenceDelimiters.Split(terminated, -1)
	sentences := make([]string, 0, len(parts))
	for _, p := range parts {
		s := strings.TrimSpace(p)
		if utf8.RuneCountInString(s) >= minSentenceRunes {
			sentences = append(sentences, s)
		}
	}
	return sentences
}
