package services

import (
	"context"

	"github.com/rs/zerolog/log"

	"rag-pipeline/models"
)

// Retriever produces the ranked context set for a question: embed, search,
// drop everything scoring strictly below the threshold.
type Retriever struct {
	embedder Embedder
	store    VectorStore
}

// NewRetriever wires a retriever from the shared embedder and store.
func NewRetriever(embedder Embedder, store VectorStore) *Retriever {
	return &Retriever{embedder: embedder, store: store}
}

// Retrieve returns up to topK chunks in descending score order. An empty
// result is a valid outcome, not an error.
func (r *Retriever) Retrieve(ctx context.Context, question string, topK int, scoreThreshold float64) ([]models.RetrievedChunk, error) {
	vector, err := r.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, err
	}

	results, err := r.store.Search(ctx, vector, topK)
	if err != nil {
		return nil, err
	}

	relevant := make([]models.RetrievedChunk, 0, len(results))
	for _, chunk := range results {
		if chunk.Score >= scoreThreshold {
			relevant = append(relevant, chunk)
		}
	}

	log.Info().Int("searched", len(results)).Int("relevant", len(relevant)).
		Float64("threshold", scoreThreshold).Msg("Retrieved context chunks")
	return relevant, nil
}
