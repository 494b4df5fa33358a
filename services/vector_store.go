package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings"
	"github.com/rs/zerolog/log"

	"rag-pipeline/models"
)

// scoredPoint pairs a retrieval result with the point id used to break
// score ties deterministically.
type scoredPoint struct {
	id    int64
	chunk models.RetrievedChunk
}

// VectorStore persists (vector, text, source) points and answers
// nearest-neighbor similarity queries under cosine similarity.
type VectorStore interface {
	// EnsureCollection creates the collection if absent and asserts its
	// configured dimension matches, failing with models.ErrDimensionMismatch
	// otherwise. Called once at startup, not per request.
	EnsureCollection(ctx context.Context, dimension int) error
	// Upsert persists a batch of points. Identifier uniqueness is the
	// caller's responsibility (guaranteed by the chunk id sequence).
	Upsert(ctx context.Context, points []models.StoredPoint) error
	// Search returns up to topK points ranked by descending cosine
	// similarity, ties broken by ascending identifier.
	Search(ctx context.Context, vector []float32, topK int) ([]models.RetrievedChunk, error)
}

// ChromaStore implements VectorStore over a Chroma collection configured for
// cosine space.
type ChromaStore struct {
	client         chromago.Client
	collectionName string
	collection     chromago.Collection
}

// NewChromaStore connects to the Chroma server at baseURL. The collection is
// not touched until EnsureCollection runs.
func NewChromaStore(baseURL, collectionName string) (*ChromaStore, error) {
	client, err := chromago.NewHTTPClient(chromago.WithBaseURL(baseURL))
	if err != nil {
		return nil, fmt.Errorf("creating chroma client: %w", err)
	}
	return &ChromaStore{client: client, collectionName: collectionName}, nil
}

// Close releases the underlying client resources.
func (s *ChromaStore) Close() error {
	return s.client.Close()
}

// EnsureCollection gets or creates the collection with cosine space and the
// embedder's dimension recorded in its metadata. An existing collection
// whose recorded dimension differs fails with models.ErrDimensionMismatch.
func (s *ChromaStore) EnsureCollection(ctx context.Context, dimension int) error {
	collection, err := s.client.GetOrCreateCollection(
		ctx,
		s.collectionName,
		chromago.WithCollectionMetadataCreate(
			chromago.NewMetadata(
				chromago.NewStringAttribute("hnsw:space", "cosine"),
				chromago.NewIntAttribute("vector_dim", int64(dimension)),
			),
		),
	)
	if err != nil {
		return fmt.Errorf("%w: get or create collection %s: %v", models.ErrStoreUnavailable, s.collectionName, err)
	}

	if stored, ok := collectionDimension(collection); ok && stored != dimension {
		return fmt.Errorf("%w: collection %s holds %d-dimensional vectors, embedder produces %d",
			models.ErrDimensionMismatch, s.collectionName, stored, dimension)
	}

	s.collection = collection
	log.Info().Str("collection", s.collectionName).Int("dimension", dimension).Msg("Vector collection ready")
	return nil
}

// collectionDimension reads the recorded vector dimension from collection
// metadata. Chroma metadata types are opaque, so the value is recovered
// through a JSON round trip, the same way document metadata is read back.
func collectionDimension(collection chromago.Collection) (int, bool) {
	meta := collection.Metadata()
	if meta == nil {
		return 0, false
	}
	jsonBytes, err := json.Marshal(meta)
	if err != nil {
		return 0, false
	}
	var metaMap map[string]interface{}
	if err := json.Unmarshal(jsonBytes, &metaMap); err != nil {
		return 0, false
	}
	if v, ok := metaMap["vector_dim"].(float64); ok {
		return int(v), true
	}
	return 0, false
}

// Upsert persists the batch in one call; this is the atomicity boundary for
// ingestion.
func (s *ChromaStore) Upsert(ctx context.Context, points []models.StoredPoint) error {
	if len(points) == 0 {
		return nil
	}

	ids := make([]chromago.DocumentID, len(points))
	texts := make([]string, len(points))
	vectors := make([]embeddings.Embedding, len(points))
	metadatas := make([]chromago.DocumentMetadata, len(points))
	for i, p := range points {
		ids[i] = chromago.DocumentID(strconv.FormatInt(p.ID, 10))
		texts[i] = p.Text
		vectors[i] = embeddings.NewEmbeddingFromFloat32(p.Vector)
		metadatas[i] = chromago.NewDocumentMetadata(
			chromago.NewStringAttribute("source", p.Source),
			chromago.NewIntAttribute("chunk_index", int64(p.Index)),
		)
	}

	err := s.collection.Add(ctx,
		chromago.WithIDs(ids...),
		chromago.WithTexts(texts...),
		chromago.WithEmbeddings(vectors...),
		chromago.WithMetadatas(metadatas...),
	)
	if err != nil {
		return fmt.Errorf("%w: adding %d points: %v", models.ErrStoreUnavailable, len(points), err)
	}

	log.Info().Int("points", len(points)).Str("collection", s.collectionName).Msg("Stored points")
	return nil
}

// Search queries the collection and converts cosine distances to similarity
// scores (score = 1 - distance).
func (s *ChromaStore) Search(ctx context.Context, vector []float32, topK int) ([]models.RetrievedChunk, error) {
	results, err := s.collection.Query(ctx,
		chromago.WithQueryEmbeddings(embeddings.NewEmbeddingFromFloat32(vector)),
		chromago.WithNResults(topK),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: querying collection: %v", models.ErrStoreUnavailable, err)
	}

	idGroups := results.GetIDGroups()
	documentGroups := results.GetDocumentsGroups()
	metadataGroups := results.GetMetadatasGroups()
	distanceGroups := results.GetDistancesGroups()
	if len(documentGroups) == 0 {
		return nil, nil
	}

	scored := make([]scoredPoint, 0, len(documentGroups[0]))
	for i, doc := range documentGroups[0] {
		text := doc.ContentString()
		if text == "" {
			continue
		}
		var id int64
		if len(idGroups) > 0 && i < len(idGroups[0]) {
			id, _ = strconv.ParseInt(string(idGroups[0][i]), 10, 64)
		}
		score := 0.0
		if len(distanceGroups) > 0 && i < len(distanceGroups[0]) {
			score = 1 - float64(distanceGroups[0][i])
		}
		source := ""
		if len(metadataGroups) > 0 && i < len(metadataGroups[0]) {
			source = metadataSource(metadataGroups[0][i])
		}
		scored = append(scored, scoredPoint{
			id:    id,
			chunk: models.RetrievedChunk{Text: text, Source: source, Score: score},
		})
	}

	sortScoredPoints(scored)
	chunks := make([]models.RetrievedChunk, len(scored))
	for i, sp := range scored {
		chunks[i] = sp.chunk
	}
	return chunks, nil
}

// metadataSource extracts the source filename from document metadata via a
// JSON round trip, the way the metadata type is meant to be read back.
func metadataSource(meta chromago.DocumentMetadata) string {
	if meta == nil {
		return ""
	}
	jsonBytes, err := json.Marshal(meta)
	if err != nil {
		return ""
	}
	var metaMap map[string]interface{}
	if err := json.Unmarshal(jsonBytes, &metaMap); err != nil {
		return ""
	}
	if v, ok := metaMap["source"].(string); ok {
		return v
	}
	return ""
}

// sortScoredPoints orders by descending score, ascending id on ties.
func sortScoredPoints(scored []scoredPoint) {
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].chunk.Score != scored[j].chunk.Score {
			return scored[i].chunk.Score > scored[j].chunk.Score
		}
		return scored[i].id < scored[j].id
	})
}
