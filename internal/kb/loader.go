package kb

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrPathOutsideRoot is returned when a read request escapes the KB root.
var ErrPathOutsideRoot = errors.New("path outside knowledge base root")

// Loader reads markdown documents from the knowledge-base root.
type Loader struct {
	root   string
	logger *slog.Logger
}

// NewLoader creates a Loader for the given root directory.
func NewLoader(root string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{root: root, logger: logger}
}

// Root returns the knowledge-base root directory.
func (l *Loader) Root() string {
	return l.root
}

// List returns the relative paths of all documents in a category,
// sorted for deterministic iteration.
func (l *Loader) List(category Category) ([]string, error) {
	var paths []string

	if category == CategoryAll {
		err := filepath.WalkDir(l.root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				// Unreadable subtrees are skipped, not fatal.
				l.logger.Warn("skipping unreadable path",
					slog.String("path", path),
					slog.String("error", err.Error()))
				return nil
			}
			if d.IsDir() {
				// Hidden directories hold index data and VCS state.
				if d.Name() != "." && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if strings.HasSuffix(d.Name(), ".md") {
				rel, err := filepath.Rel(l.root, path)
				if err != nil {
					return nil
				}
				paths = append(paths, filepath.ToSlash(rel))
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", l.root, err)
		}
	} else {
		matches, err := filepath.Glob(filepath.Join(l.root, filepath.FromSlash(category.Glob())))
		if err != nil {
			return nil, fmt.Errorf("bad glob for category %s: %w", category, err)
		}
		for _, m := range matches {
			rel, err := filepath.Rel(l.root, m)
			if err != nil {
				continue
			}
			paths = append(paths, filepath.ToSlash(rel))
		}
	}

	sort.Strings(paths)
	return paths, nil
}

// Load reads all documents in a category. Unreadable files are logged
// and skipped so one bad file never fails a search or rebuild.
func (l *Loader) Load(category Category) ([]*Document, error) {
	paths, err := l.List(category)
	if err != nil {
		return nil, err
	}

	docs := make([]*Document, 0, len(paths))
	for _, rel := range paths {
		doc, err := l.Read(rel)
		if err != nil {
			l.logger.Warn("skipping unreadable document",
				slog.String("path", rel),
				slog.String("error", err.Error()))
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Read loads a single document by relative path. Paths escaping the KB
// root are rejected.
func (l *Loader) Read(rel string) (*Document, error) {
	full, err := l.resolve(rel)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", rel, err)
	}
	info, err := os.Stat(full)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", rel, err)
	}

	sum := sha256.Sum256(data)
	meta, body := ExtractFrontmatter(string(data))

	return &Document{
		Path:        filepath.ToSlash(rel),
		Name:        filepath.Base(rel),
		Body:        body,
		Meta:        meta,
		ContentHash: hex.EncodeToString(sum[:]),
		ModTime:     info.ModTime(),
	}, nil
}

// resolve joins rel onto the root and verifies it stays inside.
func (l *Loader) resolve(rel string) (string, error) {
	absRoot, err := filepath.Abs(l.root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve root: %w", err)
	}

	full := filepath.Join(absRoot, filepath.FromSlash(rel))
	inside, err := filepath.Rel(absRoot, full)
	if err != nil || inside == ".." || strings.HasPrefix(inside, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrPathOutsideRoot, rel)
	}
	return full, nil
}
