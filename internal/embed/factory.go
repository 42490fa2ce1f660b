package embed

import (
	"fmt"
	"strings"
	"time"
)

// Provider identifies an embedding backend.
type Provider string

const (
	ProviderOllama Provider = "ollama"
	ProviderStatic Provider = "static"
)

// ParseProvider validates a provider string.
func ParseProvider(s string) (Provider, error) {
	switch Provider(strings.ToLower(s)) {
	case ProviderOllama:
		return ProviderOllama, nil
	case ProviderStatic:
		return ProviderStatic, nil
	default:
		return "", fmt.Errorf("unknown embedding provider %q (want ollama or static)", s)
	}
}

// FactoryConfig configures NewEmbedder.
type FactoryConfig struct {
	Provider  string
	Model     string
	Host      string
	Timeout   time.Duration
	BatchSize int
	// CacheSize is the embedding LRU capacity. Zero uses the default,
	// negative disables caching.
	CacheSize int
}

// NewEmbedder constructs the configured provider wrapped in an LRU
// cache. The returned embedder makes no network calls yet; pair it with
// NewLazyEmbedder when even construction should wait for first use.
func NewEmbedder(cfg FactoryConfig) (Embedder, error) {
	provider, err := ParseProvider(cfg.Provider)
	if err != nil {
		return nil, err
	}

	var inner Embedder
	switch provider {
	case ProviderStatic:
		inner = NewStaticEmbedder()
	case ProviderOllama:
		inner, err = NewOllamaEmbedder(OllamaConfig{
			Host:      cfg.Host,
			Model:     cfg.Model,
			Timeout:   cfg.Timeout,
			BatchSize: cfg.BatchSize,
		})
		if err != nil {
			return nil, err
		}
	}

	if cfg.CacheSize < 0 {
		return inner, nil
	}
	return NewCachedEmbedder(inner, cfg.CacheSize), nil
}
