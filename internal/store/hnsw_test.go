package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHNSWStoreAddAndSearch(t *testing.T) {
	s, err := NewHNSWStore(HNSWConfig{Dimensions: 3})
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	ctx := context.Background()
	err = s.Add(ctx,
		[]string{"faq/a.md::chunk_0", "faq/b.md::chunk_0", "faq/c.md::chunk_0"},
		[][]float32{
			{1, 0, 0},
			{0, 1, 0},
			{0.9, 0.1, 0},
		})
	require.NoError(t, err)
	assert.Equal(t, 3, s.Count())

	results, err := s.Search(ctx, []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "faq/a.md::chunk_0", results[0].ID)
	assert.Equal(t, "faq/c.md::chunk_0", results[1].ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-5)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestHNSWStoreScoreRange(t *testing.T) {
	s, err := NewHNSWStore(HNSWConfig{Dimensions: 2})
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	ctx := context.Background()
	require.NoError(t, s.Add(ctx,
		[]string{"same", "orthogonal", "opposite"},
		[][]float32{{1, 0}, {0, 1}, {-1, 0}}))

	results, err := s.Search(ctx, []float32{1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)

	for _, r := range results {
		assert.GreaterOrEqual(t, r.Score, float32(0))
		assert.LessOrEqual(t, r.Score, float32(1))
	}
}

func TestHNSWStoreReAddReplaces(t *testing.T) {
	s, err := NewHNSWStore(HNSWConfig{Dimensions: 2})
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	ctx := context.Background()
	id := "faq/a.md::chunk_0"
	require.NoError(t, s.Add(ctx, []string{id}, [][]float32{{1, 0}}))
	require.NoError(t, s.Add(ctx, []string{id}, [][]float32{{0, 1}}))

	assert.Equal(t, 1, s.Count())

	results, err := s.Search(ctx, []float32{0, 1}, 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, id, results[0].ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-5)
}

func TestHNSWStoreDimensionMismatch(t *testing.T) {
	s, err := NewHNSWStore(HNSWConfig{Dimensions: 3})
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	ctx := context.Background()
	err = s.Add(ctx, []string{"x"}, [][]float32{{1, 0}})
	var dimErr ErrDimensionMismatch
	require.ErrorAs(t, err, &dimErr)
	assert.Equal(t, 3, dimErr.Expected)
	assert.Equal(t, 2, dimErr.Got)

	_, err = s.Search(ctx, []float32{1, 0}, 1)
	require.ErrorAs(t, err, &dimErr)
}

func TestHNSWStoreEmptySearch(t *testing.T) {
	s, err := NewHNSWStore(HNSWConfig{Dimensions: 2})
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	results, err := s.Search(context.Background(), []float32{1, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestHNSWStoreSaveLoadRoundtrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vectors.hnsw")

	s, err := NewHNSWStore(HNSWConfig{Dimensions: 2})
	require.NoError(t, err)

	ctx := context.Background()
	ids := make([]string, 10)
	vecs := make([][]float32, 10)
	for i := range ids {
		ids[i] = fmt.Sprintf("faq/doc.md::chunk_%d", i)
		vecs[i] = []float32{float32(i + 1), float32(10 - i)}
	}
	require.NoError(t, s.Add(ctx, ids, vecs))
	require.NoError(t, s.Save(path))
	require.NoError(t, s.Close())

	loaded, err := NewHNSWStore(HNSWConfig{Dimensions: 2})
	require.NoError(t, err)
	defer func() { _ = loaded.Close() }()
	require.NoError(t, loaded.Load(path))

	assert.Equal(t, 10, loaded.Count())
	assert.Equal(t, 2, loaded.Dimensions())
	assert.True(t, loaded.Contains("faq/doc.md::chunk_0"))

	results, err := loaded.Search(ctx, vecs[3], 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, ids[3], results[0].ID)
}

func TestReadHNSWDimensions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vectors.hnsw")

	dims, err := ReadHNSWDimensions(path)
	require.NoError(t, err)
	assert.Equal(t, 0, dims)

	s, err := NewHNSWStore(HNSWConfig{Dimensions: 4})
	require.NoError(t, err)
	require.NoError(t, s.Add(context.Background(), []string{"a"}, [][]float32{{1, 0, 0, 0}}))
	require.NoError(t, s.Save(path))
	require.NoError(t, s.Close())

	dims, err = ReadHNSWDimensions(path)
	require.NoError(t, err)
	assert.Equal(t, 4, dims)
}

func TestHNSWStoreClosed(t *testing.T) {
	s, err := NewHNSWStore(HNSWConfig{Dimensions: 2})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	ctx := context.Background()
	assert.ErrorIs(t, s.Add(ctx, []string{"a"}, [][]float32{{1, 0}}), ErrStoreClosed)
	_, err = s.Search(ctx, []float32{1, 0}, 1)
	assert.ErrorIs(t, err, ErrStoreClosed)
	assert.Equal(t, 0, s.Count())
	assert.False(t, s.Contains("a"))
}
