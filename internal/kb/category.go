// Package kb models the markdown knowledge base: document categories,
// frontmatter metadata, and the loader that reads articles from disk.
package kb

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// ErrUnknownCategory is returned when a query names a category outside
// the known set.
var ErrUnknownCategory = errors.New("unknown category")

// Category narrows a search to one section of the knowledge base.
type Category string

const (
	CategoryMethodology Category = "methodology"
	CategoryFAQ         Category = "faq"
	CategoryChecklist   Category = "checklist"
	CategoryCaseStudy   Category = "case_study"
	CategoryTemplate    Category = "template"
	CategoryAll         Category = "all"
)

// categoryGlobs maps each category to its glob pattern relative to the
// knowledge-base root.
var categoryGlobs = map[Category]string{
	CategoryMethodology: "references/methodology_*.md",
	CategoryFAQ:         "faq/*.md",
	CategoryChecklist:   "checklists/*.md",
	CategoryCaseStudy:   "examples/case_studies/*.md",
	CategoryTemplate:    "templates/*.md",
	CategoryAll:         "**/*.md",
}

// ParseCategory validates a category string. Empty means all.
func ParseCategory(s string) (Category, error) {
	if s == "" {
		return CategoryAll, nil
	}
	c := Category(strings.ToLower(s))
	if _, ok := categoryGlobs[c]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
	}
	return c, nil
}

// Glob returns the category's file pattern relative to the KB root.
func (c Category) Glob() string {
	if g, ok := categoryGlobs[c]; ok {
		return g
	}
	return categoryGlobs[CategoryAll]
}

// Matches reports whether a slash-separated relative path belongs to
// the category.
func (c Category) Matches(rel string) bool {
	if c == CategoryAll {
		return strings.HasSuffix(rel, ".md")
	}
	ok, err := path.Match(c.Glob(), rel)
	return err == nil && ok
}

// String implements fmt.Stringer.
func (c Category) String() string {
	return string(c)
}

// DisplayFromPath derives a human-readable category label from a
// document path.
func DisplayFromPath(path string) string {
	switch {
	case strings.Contains(path, "methodology"):
		return "方法論"
	case strings.Contains(path, "faq"):
		return "常見問題"
	case strings.Contains(path, "checklist"):
		return "檢核清單"
	case strings.Contains(path, "case_studies"):
		return "案例研究"
	case strings.Contains(path, "template"):
		return "範本"
	case strings.Contains(path, "quick_start"):
		return "快速啟動"
	default:
		return "其他"
	}
}
