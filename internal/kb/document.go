package kb

import (
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Metadata carries source attribution from YAML frontmatter.
type Metadata struct {
	SourceURL   string `yaml:"source_url" json:"source_url,omitempty"`
	SourceTitle string `yaml:"source_title" json:"source_title,omitempty"`
	SourceDate  string `yaml:"source_date" json:"source_date,omitempty"`
}

// Document is one markdown article from the knowledge base.
type Document struct {
	// Path is the slash-separated path relative to the KB root.
	Path string
	// Name is the base file name.
	Name string
	// Body is the article content with frontmatter stripped.
	Body string
	// Meta is the parsed frontmatter, zero when absent or malformed.
	Meta Metadata
	// ContentHash is the SHA-256 of the raw file bytes, hex encoded.
	ContentHash string
	// ModTime is the file modification time.
	ModTime time.Time
}

// ExtractFrontmatter splits YAML frontmatter from markdown content.
// Frontmatter is delimited by a leading "---" fence and a closing one.
// Malformed YAML leaves the content untouched with zero metadata.
func ExtractFrontmatter(content string) (Metadata, string) {
	var meta Metadata

	if !strings.HasPrefix(content, "---") {
		return meta, content
	}

	parts := strings.SplitN(content, "---", 3)
	if len(parts) < 3 {
		return meta, content
	}

	if err := yaml.Unmarshal([]byte(parts[1]), &meta); err != nil {
		return Metadata{}, content
	}

	return meta, strings.TrimSpace(parts[2])
}
