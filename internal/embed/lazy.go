package embed

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Factory constructs an embedder on first use.
type Factory func(ctx context.Context) (Embedder, error)

// LazyEmbedder defers provider construction until the first call that
// needs it. Concurrent first calls share one construction through
// singleflight, so a slow model load happens exactly once no matter how
// many searches race into it. A failed load is not cached: the next
// call retries, which lets a later-started Ollama recover the semantic
// path without a restart.
type LazyEmbedder struct {
	factory Factory
	group   singleflight.Group

	mu     sync.RWMutex
	inner  Embedder
	closed bool
}

var _ Embedder = (*LazyEmbedder)(nil)

// NewLazyEmbedder wraps a factory in lazy single-flight initialization.
func NewLazyEmbedder(factory Factory) *LazyEmbedder {
	return &LazyEmbedder{factory: factory}
}

// ensure returns the inner embedder, constructing it on first use.
func (l *LazyEmbedder) ensure(ctx context.Context) (Embedder, error) {
	l.mu.RLock()
	if l.closed {
		l.mu.RUnlock()
		return nil, ErrEmbedderClosed
	}
	if l.inner != nil {
		inner := l.inner
		l.mu.RUnlock()
		return inner, nil
	}
	l.mu.RUnlock()

	v, err, _ := l.group.Do("init", func() (any, error) {
		l.mu.RLock()
		if l.inner != nil {
			inner := l.inner
			l.mu.RUnlock()
			return inner, nil
		}
		l.mu.RUnlock()

		inner, err := l.factory(ctx)
		if err != nil {
			return nil, err
		}

		l.mu.Lock()
		if l.closed {
			l.mu.Unlock()
			_ = inner.Close()
			return nil, ErrEmbedderClosed
		}
		l.inner = inner
		l.mu.Unlock()
		return inner, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Embedder), nil
}

// Embed initializes the provider if needed, then embeds.
func (l *LazyEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	inner, err := l.ensure(ctx)
	if err != nil {
		return nil, err
	}
	return inner.Embed(ctx, text)
}

// EmbedBatch initializes the provider if needed, then embeds.
func (l *LazyEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	inner, err := l.ensure(ctx)
	if err != nil {
		return nil, err
	}
	return inner.EmbedBatch(ctx, texts)
}

// Dimensions reports the inner dimension, initializing if needed.
// Returns 0 when the provider cannot be constructed.
func (l *LazyEmbedder) Dimensions() int {
	inner, err := l.ensure(context.Background())
	if err != nil {
		return 0
	}
	return inner.Dimensions()
}

// ModelName returns the inner model name, or "lazy" before first use.
func (l *LazyEmbedder) ModelName() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.inner != nil {
		return l.inner.ModelName()
	}
	return "lazy"
}

// Available reports whether the provider can serve. Construction
// failures surface as unavailable rather than as errors.
func (l *LazyEmbedder) Available(ctx context.Context) bool {
	inner, err := l.ensure(ctx)
	if err != nil {
		return false
	}
	return inner.Available(ctx)
}

// Close closes the inner embedder if it was ever constructed.
func (l *LazyEmbedder) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	if l.inner != nil {
		return l.inner.Close()
	}
	return nil
}
