// Package index builds the search index: it chunks every document in
// the knowledge base, embeds the chunks, and writes the vector graph
// and metadata database. Builds go to a staging directory and swap in
// with a rename so readers never see a partial index.
package index

import "path/filepath"

const (
	liveDirName    = "index"
	stagingDirName = "index.tmp"
	backupDirName  = "index.old"

	vectorFileName   = "vectors.hnsw"
	metadataFileName = "metadata.db"
	lockFileName     = ".rebuild.lock"
)

// LiveDir returns the directory holding the active index.
func LiveDir(dataDir string) string {
	return filepath.Join(dataDir, liveDirName)
}

// VectorPath returns the HNSW graph path inside an index directory.
func VectorPath(indexDir string) string {
	return filepath.Join(indexDir, vectorFileName)
}

// MetadataPath returns the metadata database path inside an index
// directory.
func MetadataPath(indexDir string) string {
	return filepath.Join(indexDir, metadataFileName)
}
