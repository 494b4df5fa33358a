package services

import (
	"context"

	"github.com/rs/zerolog/log"

	"rag-pipeline/models"
)

// RAGPipeline is the facade the controller talks to: file ingestion on one
// side, question answering on the other.
type RAGPipeline interface {
	// IngestDocument runs extract -> chunk -> embed -> store for one file
	// and returns the number of chunks persisted.
	IngestDocument(ctx context.Context, doc models.SourceDocument) (int, error)
	// Query runs retrieve -> synthesize for one question.
	Query(ctx context.Context, question string, topK int, scoreThreshold float64) (*models.QueryResult, error)
}

// pipelineImpl sequences the ingestion and query stages. It owns the chunk
// id sequence and the shared collection handle; stages within one request
// run sequentially and a failing stage aborts the rest of its request.
type pipelineImpl struct {
	extractor   Extractor
	chunker     *Chunker
	embedder    Embedder
	store       VectorStore
	retriever   *Retriever
	synthesizer *AnswerSynthesizer
}

// NewPipeline wires the orchestrator. The chunker must have been built with
// the id sequence the pipeline is meant to own, so both are created here.
func NewPipeline(extractor Extractor, embedder Embedder, store VectorStore, generator Generator, chunkSize, chunkOverlap int) RAGPipeline {
	return &pipelineImpl{
		extractor:   extractor,
		chunker:     NewChunker(chunkSize, chunkOverlap, NewChunkIDSequence()),
		embedder:    embedder,
		store:       store,
		retriever:   NewRetriever(embedder, store),
		synthesizer: NewAnswerSynthesizer(generator),
	}
}

// EnsureReady asserts the collection exists with the embedder's dimension.
// Called once at startup, before the server accepts requests.
func EnsureReady(ctx context.Context, embedder Embedder, store VectorStore) error {
	dimension, err := embedder.Dimension(ctx)
	if err != nil {
		return err
	}
	return store.EnsureCollection(ctx, dimension)
}

// IngestDocument implements RAGPipeline.
func (p *pipelineImpl) IngestDocument(ctx context.Context, doc models.SourceDocument) (int, error) {
	segments, err := p.extractor.Extract(ctx, doc)
	if err != nil {
		return 0, err
	}

	chunks, err := p.chunker.ChunkSegments(segments, doc.Filename)
	if err != nil {
		return 0, err
	}
	if len(chunks) == 0 {
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}
	vectors, err := p.embedder.EmbedChunks(ctx, texts)
	if err != nil {
		return 0, err
	}

	points := make([]models.StoredPoint, len(chunks))
	for i, chunk := range chunks {
		points[i] = models.StoredPoint{
			ID:     chunk.ID,
			Vector: vectors[i],
			Text:   chunk.Text,
			Source: chunk.Source,
			Index:  chunk.Index,
		}
	}
	if err := p.store.Upsert(ctx, points); err != nil {
		return 0, err
	}

	log.Info().Str("file", doc.Filename).Int("chunks", len(chunks)).Msg("Ingestion complete")
	return len(chunks), nil
}

// Query implements RAGPipeline.
func (p *pipelineImpl) Query(ctx context.Context, question string, topK int, scoreThreshold float64) (*models.QueryResult, error) {
	chunks, err := p.retriever.Retrieve(ctx, question, topK, scoreThreshold)
	if err != nil {
		return nil, err
	}

	answer, err := p.synthesizer.Synthesize(ctx, question, chunks)
	if err != nil {
		return nil, err
	}

	if chunks == nil {
		chunks = []models.RetrievedChunk{}
	}
	return &models.QueryResult{Question: question, Answer: answer, Chunks: chunks}, nil
}
