package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "metadata.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleChunks() []*ChunkRecord {
	return []*ChunkRecord{
		{
			ID:          "faq/budget.md::chunk_0",
			FilePath:    "faq/budget.md",
			FileName:    "budget.md",
			ChunkIndex:  0,
			TotalChunks: 2,
			Preview:     "補助金額上限說明",
			Content:     "補助金額上限為新台幣一百萬元。",
			SourceURL:   "https://example.com/faq",
			SourceTitle: "補助常見問題",
			SourceDate:  "2024-03-01",
		},
		{
			ID:          "faq/budget.md::chunk_1",
			FilePath:    "faq/budget.md",
			FileName:    "budget.md",
			ChunkIndex:  1,
			TotalChunks: 2,
			Preview:     "配合款規定",
			Content:     "申請企業必須提出相對配合款。",
		},
	}
}

func TestSQLiteChunkRoundtrip(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.SaveChunks(ctx, sampleChunks()))

	got, err := s.GetChunk(ctx, "faq/budget.md::chunk_0")
	require.NoError(t, err)
	assert.Equal(t, sampleChunks()[0], got)

	n, err := s.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSQLiteGetChunkNotFound(t *testing.T) {
	s := newTestSQLite(t)

	_, err := s.GetChunk(context.Background(), "faq/missing.md::chunk_0")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteGetChunksPreservesOrder(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()
	require.NoError(t, s.SaveChunks(ctx, sampleChunks()))

	got, err := s.GetChunks(ctx, []string{
		"faq/budget.md::chunk_1",
		"faq/missing.md::chunk_9",
		"faq/budget.md::chunk_0",
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "faq/budget.md::chunk_1", got[0].ID)
	assert.Equal(t, "faq/budget.md::chunk_0", got[1].ID)
}

func TestSQLiteSaveChunksReplaces(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	chunks := sampleChunks()
	require.NoError(t, s.SaveChunks(ctx, chunks))

	chunks[0].Content = "更新後的內容。"
	require.NoError(t, s.SaveChunks(ctx, chunks[:1]))

	got, err := s.GetChunk(ctx, chunks[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "更新後的內容。", got.Content)

	n, err := s.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSQLiteDocumentStates(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	mod := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	docs := []*DocumentState{
		{Path: "faq/budget.md", ContentHash: "abc123", ModTime: mod},
		{Path: "checklists/phase1.md", ContentHash: "def456", ModTime: mod.Add(time.Hour)},
	}
	require.NoError(t, s.SaveDocuments(ctx, docs))

	got, err := s.GetDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Sorted by path.
	assert.Equal(t, "checklists/phase1.md", got[0].Path)
	assert.Equal(t, "faq/budget.md", got[1].Path)
	assert.Equal(t, "abc123", got[1].ContentHash)
	assert.True(t, got[1].ModTime.Equal(mod))

	// A second save replaces, not appends.
	require.NoError(t, s.SaveDocuments(ctx, docs[:1]))
	got, err = s.GetDocuments(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestSQLiteBuildState(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	_, err := s.GetBuildState(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	built := time.Date(2025, 7, 15, 8, 30, 0, 0, time.UTC)
	state := &BuildState{
		Model:           "bge-m3",
		Dimensions:      1024,
		BuiltAt:         built,
		SemanticEnabled: true,
	}
	require.NoError(t, s.SaveBuildState(ctx, state))

	got, err := s.GetBuildState(ctx)
	require.NoError(t, err)
	assert.Equal(t, "bge-m3", got.Model)
	assert.Equal(t, 1024, got.Dimensions)
	assert.True(t, got.BuiltAt.Equal(built))
	assert.True(t, got.SemanticEnabled)

	// Single row upsert.
	state.SemanticEnabled = false
	require.NoError(t, s.SaveBuildState(ctx, state))
	got, err = s.GetBuildState(ctx)
	require.NoError(t, err)
	assert.False(t, got.SemanticEnabled)
}

func TestSQLiteClosed(t *testing.T) {
	s := newTestSQLite(t)
	require.NoError(t, s.Close())

	ctx := context.Background()
	assert.ErrorIs(t, s.SaveChunks(ctx, sampleChunks()), ErrStoreClosed)
	_, err := s.GetChunk(ctx, "x")
	assert.ErrorIs(t, err, ErrStoreClosed)
	_, err = s.GetBuildState(ctx)
	assert.ErrorIs(t, err, ErrStoreClosed)
	assert.NoError(t, s.Close())
}
