package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"

	"rag-pipeline/models"
)

// Embedder maps text to fixed-dimension vectors. Batch embedding preserves
// input order; every vector produced by one embedder has the same
// dimensionality.
type Embedder interface {
	EmbedChunks(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	// Dimension reports the model's output dimension, probing the model on
	// first call. It is asserted against the collection at startup.
	Dimension(ctx context.Context) (int, error)
}

// OllamaEmbedder adapts a langchaingo Ollama embedder to the pipeline.
type OllamaEmbedder struct {
	embedder *embeddings.EmbedderImpl

	mu        sync.Mutex
	dimension int
}

// NewOllamaEmbedder connects to the Ollama server at serverURL using the
// given embedding model.
func NewOllamaEmbedder(serverURL, model string) (*OllamaEmbedder, error) {
	llm, err := ollama.New(
		ollama.WithServerURL(serverURL),
		ollama.WithModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("initializing ollama client: %w", err)
	}
	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}
	return &OllamaEmbedder{embedder: embedder}, nil
}

// EmbedChunks embeds a batch of chunk texts, one vector per input in the
// same order. Any engine error abandons the whole batch.
func (e *OllamaEmbedder) EmbedChunks(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrEmbeddingFailed, err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: got %d vectors for %d texts", models.ErrEmbeddingFailed, len(vectors), len(texts))
	}
	return vectors, nil
}

// EmbedQuery embeds a single query string.
func (e *OllamaEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vector, err := e.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrEmbeddingFailed, err)
	}
	return vector, nil
}

// Dimension embeds a short probe string on first use and caches the length.
func (e *OllamaEmbedder) Dimension(ctx context.Context) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.dimension > 0 {
		return e.dimension, nil
	}
	vector, err := e.EmbedQuery(ctx, "dimension probe")
	if err != nil {
		return 0, err
	}
	if len(vector) == 0 {
		return 0, fmt.Errorf("%w: model returned an empty vector", models.ErrEmbeddingFailed)
	}
	e.dimension = len(vector)
	return e.dimension, nil
}
