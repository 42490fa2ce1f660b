package embed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOllama serves /api/embed and /api/tags like a local Ollama.
func fakeOllama(t *testing.T, dims int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"models":[{"name":"bge-m3"}]}`))
		case "/api/embed":
			var req embedRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			embeddings := make([][]float32, len(req.Input))
			for i := range req.Input {
				vec := make([]float32, dims)
				vec[i%dims] = 1
				embeddings[i] = vec
			}
			w.Header().Set("Content-Type", "application/json")
			require.NoError(t, json.NewEncoder(w).Encode(embedResponse{Embeddings: embeddings}))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestOllamaEmbedderRequiresModel(t *testing.T) {
	_, err := NewOllamaEmbedder(OllamaConfig{})
	require.Error(t, err)
}

func TestOllamaEmbedderEmbed(t *testing.T) {
	srv := fakeOllama(t, 8)
	defer srv.Close()

	e, err := NewOllamaEmbedder(OllamaConfig{Host: srv.URL, Model: "bge-m3"})
	require.NoError(t, err)
	defer func() { _ = e.Close() }()

	vec, err := e.Embed(context.Background(), "補助上限")
	require.NoError(t, err)
	assert.Len(t, vec, 8)

	// Dimensions are learned from the first response.
	assert.Equal(t, 8, e.Dimensions())
}

func TestOllamaEmbedderBatchSplitting(t *testing.T) {
	srv := fakeOllama(t, 4)
	defer srv.Close()

	e, err := NewOllamaEmbedder(OllamaConfig{Host: srv.URL, Model: "bge-m3", BatchSize: 2})
	require.NoError(t, err)
	defer func() { _ = e.Close() }()

	texts := []string{"一", "二", "三", "四", "五"}
	vecs, err := e.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)
	assert.Len(t, vecs, 5)
}

func TestOllamaEmbedderAvailable(t *testing.T) {
	srv := fakeOllama(t, 4)
	e, err := NewOllamaEmbedder(OllamaConfig{Host: srv.URL, Model: "bge-m3"})
	require.NoError(t, err)

	assert.True(t, e.Available(context.Background()))

	srv.Close()
	assert.False(t, e.Available(context.Background()))
}

func TestOllamaEmbedderServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	e, err := NewOllamaEmbedder(OllamaConfig{Host: srv.URL, Model: "missing"})
	require.NoError(t, err)

	_, err = e.Embed(context.Background(), "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestOllamaEmbedderDefaultDimensionsBeforeFirstCall(t *testing.T) {
	e, err := NewOllamaEmbedder(OllamaConfig{Model: "bge-m3"})
	require.NoError(t, err)
	assert.Equal(t, DefaultDimensions, e.Dimensions())
}
