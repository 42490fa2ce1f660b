package index

import (
	"fmt"
	"os"

	"github.com/backtrue/sbirkb/internal/store"
)

// ErrNoIndex is returned when the index has never been built.
var ErrNoIndex = fmt.Errorf("index has not been built")

// Open loads the live index stores. The vector store is nil when no
// semantic index was built, which callers treat as lexical-only mode.
func Open(dataDir string) (store.VectorStore, store.MetadataStore, error) {
	liveDir := LiveDir(dataDir)
	metaPath := MetadataPath(liveDir)
	if _, err := os.Stat(metaPath); err != nil {
		if os.IsNotExist(err) {
			return nil, nil, ErrNoIndex
		}
		return nil, nil, fmt.Errorf("failed to stat index: %w", err)
	}

	meta, err := store.NewSQLiteStore(metaPath)
	if err != nil {
		return nil, nil, err
	}

	vectorPath := VectorPath(liveDir)
	dims, err := store.ReadHNSWDimensions(vectorPath)
	if err != nil || dims == 0 {
		// Lexical-only build.
		return nil, meta, nil
	}

	vs, err := store.NewHNSWStore(store.HNSWConfig{Dimensions: dims})
	if err != nil {
		_ = meta.Close()
		return nil, nil, err
	}
	if err := vs.Load(vectorPath); err != nil {
		_ = vs.Close()
		_ = meta.Close()
		return nil, nil, fmt.Errorf("failed to load vector index: %w", err)
	}

	return vs, meta, nil
}
