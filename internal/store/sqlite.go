package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const schemaVersion = 1

// SQLiteStore implements MetadataStore on a SQLite database.
// WAL mode allows the MCP server to read while a rebuild writes the
// staging copy.
type SQLiteStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	closed bool
}

var _ MetadataStore = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) the metadata database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) init() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		if _, err := s.db.Exec(p); err != nil {
			return fmt.Errorf("failed to apply %s: %w", p, err)
		}
	}

	schema := `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS chunks (
	id           TEXT PRIMARY KEY,
	file_path    TEXT NOT NULL,
	file_name    TEXT NOT NULL,
	chunk_index  INTEGER NOT NULL,
	total_chunks INTEGER NOT NULL,
	preview      TEXT NOT NULL,
	content      TEXT NOT NULL,
	source_url   TEXT NOT NULL DEFAULT '',
	source_title TEXT NOT NULL DEFAULT '',
	source_date  TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_chunks_file_path ON chunks(file_path);

CREATE TABLE IF NOT EXISTS documents (
	path         TEXT PRIMARY KEY,
	content_hash TEXT NOT NULL,
	mod_time_ns  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS build_state (
	id               INTEGER PRIMARY KEY CHECK (id = 1),
	model            TEXT NOT NULL,
	dimensions       INTEGER NOT NULL,
	built_at_ns      INTEGER NOT NULL,
	semantic_enabled INTEGER NOT NULL
);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&count); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if count == 0 {
		if _, err := s.db.Exec("INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
			return fmt.Errorf("failed to write schema version: %w", err)
		}
	}

	return nil
}

func (s *SQLiteStore) guard() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	return nil
}

// SaveChunks upserts chunk records in one transaction.
func (s *SQLiteStore) SaveChunks(ctx context.Context, chunks []*ChunkRecord) error {
	if err := s.guard(); err != nil {
		return err
	}
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
INSERT OR REPLACE INTO chunks
	(id, file_path, file_name, chunk_index, total_chunks, preview, content, source_url, source_title, source_date)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare chunk insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, c := range chunks {
		if _, err := stmt.ExecContext(ctx,
			c.ID, c.FilePath, c.FileName, c.ChunkIndex, c.TotalChunks,
			c.Preview, c.Content, c.SourceURL, c.SourceTitle, c.SourceDate); err != nil {
			return fmt.Errorf("failed to insert chunk %s: %w", c.ID, err)
		}
	}

	return tx.Commit()
}

const chunkColumns = `id, file_path, file_name, chunk_index, total_chunks, preview, content, source_url, source_title, source_date`

func scanChunk(row interface{ Scan(...any) error }) (*ChunkRecord, error) {
	var c ChunkRecord
	err := row.Scan(&c.ID, &c.FilePath, &c.FileName, &c.ChunkIndex, &c.TotalChunks,
		&c.Preview, &c.Content, &c.SourceURL, &c.SourceTitle, &c.SourceDate)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetChunk loads one chunk record by ID.
func (s *SQLiteStore) GetChunk(ctx context.Context, id string) (*ChunkRecord, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, "SELECT "+chunkColumns+" FROM chunks WHERE id = ?", id)
	c, err := scanChunk(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("chunk %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load chunk %s: %w", id, err)
	}
	return c, nil
}

// GetChunks loads chunk records by ID, preserving the requested order.
// Missing IDs are skipped.
func (s *SQLiteStore) GetChunks(ctx context.Context, ids []string) ([]*ChunkRecord, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+chunkColumns+" FROM chunks WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load chunks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	byID := make(map[string]*ChunkRecord, len(ids))
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		byID[c.ID] = c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chunks: %w", err)
	}

	out := make([]*ChunkRecord, 0, len(ids))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// CountChunks returns the number of stored chunk records.
func (s *SQLiteStore) CountChunks(ctx context.Context) (int, error) {
	if err := s.guard(); err != nil {
		return 0, err
	}

	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return n, nil
}

// SaveDocuments replaces the stored document states.
func (s *SQLiteStore) SaveDocuments(ctx context.Context, docs []*DocumentState) error {
	if err := s.guard(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM documents"); err != nil {
		return fmt.Errorf("failed to clear documents: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO documents (path, content_hash, mod_time_ns) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare document insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, d := range docs {
		if _, err := stmt.ExecContext(ctx, d.Path, d.ContentHash, d.ModTime.UnixNano()); err != nil {
			return fmt.Errorf("failed to insert document %s: %w", d.Path, err)
		}
	}

	return tx.Commit()
}

// GetDocuments returns all stored document states.
func (s *SQLiteStore) GetDocuments(ctx context.Context) ([]*DocumentState, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT path, content_hash, mod_time_ns FROM documents ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("failed to load documents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var docs []*DocumentState
	for rows.Next() {
		var d DocumentState
		var modNs int64
		if err := rows.Scan(&d.Path, &d.ContentHash, &modNs); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		d.ModTime = time.Unix(0, modNs)
		docs = append(docs, &d)
	}
	return docs, rows.Err()
}

// SaveBuildState records the index build parameters.
func (s *SQLiteStore) SaveBuildState(ctx context.Context, state *BuildState) error {
	if err := s.guard(); err != nil {
		return err
	}

	semantic := 0
	if state.SemanticEnabled {
		semantic = 1
	}
	_, err := s.db.ExecContext(ctx, `
INSERT OR REPLACE INTO build_state (id, model, dimensions, built_at_ns, semantic_enabled)
VALUES (1, ?, ?, ?, ?)`,
		state.Model, state.Dimensions, state.BuiltAt.UnixNano(), semantic)
	if err != nil {
		return fmt.Errorf("failed to save build state: %w", err)
	}
	return nil
}

// GetBuildState returns the build state, or ErrNotFound when the index
// has never been built.
func (s *SQLiteStore) GetBuildState(ctx context.Context) (*BuildState, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}

	var state BuildState
	var builtNs int64
	var semantic int
	err := s.db.QueryRowContext(ctx,
		"SELECT model, dimensions, built_at_ns, semantic_enabled FROM build_state WHERE id = 1").
		Scan(&state.Model, &state.Dimensions, &builtNs, &semantic)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("build state: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load build state: %w", err)
	}

	state.BuiltAt = time.Unix(0, builtNs)
	state.SemanticEnabled = semantic != 0
	return &state, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
