package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"rag-pipeline/models"
)

func newTestPipeline(t *testing.T, extractor Extractor, generator Generator) (RAGPipeline, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	embedder := &fakeEmbedder{}
	if err := EnsureReady(context.Background(), embedder, store); err != nil {
		t.Fatalf("EnsureReady: %v", err)
	}
	return NewPipeline(extractor, embedder, store, generator, 1000, 100), store
}

func TestPipeline_IngestReportsChunkCount(t *testing.T) {
	extractor := &fakeExtractor{segments: map[string][]models.TextSegment{
		"notes.pdf": {{Text: "a short page of text"}},
	}}
	pipeline, store := newTestPipeline(t, extractor, &fakeGenerator{})

	n, err := pipeline.IngestDocument(context.Background(), models.SourceDocument{
		Filename: "notes.pdf", Path: "/tmp/notes.pdf", Kind: models.KindDocument,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 chunk ingested, got %d", n)
	}
	if store.Count() != n {
		t.Errorf("store holds %d points, reported %d", store.Count(), n)
	}
}

func TestPipeline_IngestThenQueryRoundTrip(t *testing.T) {
	const text = "the warehouse inventory system uses rotating shelf labels"
	extractor := &fakeExtractor{segments: map[string][]models.TextSegment{
		"inventory.pdf": {{Text: text}},
	}}
	generator := &fakeGenerator{answer: "rotating shelf labels"}
	pipeline, _ := newTestPipeline(t, extractor, generator)

	if _, err := pipeline.IngestDocument(context.Background(), models.SourceDocument{
		Filename: "inventory.pdf", Path: "/tmp/inventory.pdf", Kind: models.KindDocument,
	}); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	// The query text matches an ingested chunk exactly, so the deterministic
	// embedder must put it first with similarity ~1.
	result, err := pipeline.Query(context.Background(), text, 5, 0.3)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(result.Chunks) == 0 {
		t.Fatal("expected at least one retrieved chunk")
	}
	if result.Chunks[0].Text != text {
		t.Errorf("top chunk %q, expected the ingested text", result.Chunks[0].Text)
	}
	if result.Chunks[0].Score < 0.95 {
		t.Errorf("exact match scored %f, expected near 1", result.Chunks[0].Score)
	}
	if result.Answer != "rotating shelf labels" {
		t.Errorf("unexpected answer %q", result.Answer)
	}
}

func TestPipeline_EmptyStoreFallsBackWithoutGenerator(t *testing.T) {
	generator := &fakeGenerator{answer: "should not appear"}
	pipeline, _ := newTestPipeline(t, &fakeExtractor{}, generator)

	result, err := pipeline.Query(context.Background(), "anything?", 5, 0.3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Answer != FallbackAnswer {
		t.Errorf("expected fallback answer, got %q", result.Answer)
	}
	if result.Chunks == nil || len(result.Chunks) != 0 {
		t.Errorf("expected empty non-nil chunk list, got %#v", result.Chunks)
	}
	if generator.callCount() != 0 {
		t.Errorf("generator was called %d times with no context", generator.callCount())
	}
}

func TestPipeline_ExtractionFailureStoresNothing(t *testing.T) {
	extractor := &fakeExtractor{err: fmt.Errorf("%w: corrupt file", models.ErrExtractionFailed)}
	pipeline, store := newTestPipeline(t, extractor, &fakeGenerator{})

	_, err := pipeline.IngestDocument(context.Background(), models.SourceDocument{
		Filename: "bad.pdf", Path: "/tmp/bad.pdf", Kind: models.KindDocument,
	})
	if !errors.Is(err, models.ErrExtractionFailed) {
		t.Fatalf("expected ErrExtractionFailed, got %v", err)
	}
	if store.Count() != 0 {
		t.Errorf("store holds %d points after a failed ingest", store.Count())
	}
}

func TestPipeline_EmptyExtractionIngestsZeroChunks(t *testing.T) {
	extractor := &fakeExtractor{segments: map[string][]models.TextSegment{
		"blank.pdf": {{Text: "   \n\t  "}},
	}}
	pipeline, store := newTestPipeline(t, extractor, &fakeGenerator{})

	n, err := pipeline.IngestDocument(context.Background(), models.SourceDocument{
		Filename: "blank.pdf", Path: "/tmp/blank.pdf", Kind: models.KindDocument,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 0 {
		t.Errorf("expected 0 chunks, got %d", n)
	}
	if store.Count() != 0 {
		t.Errorf("store holds %d points for an empty document", store.Count())
	}
}

func TestPipeline_ConcurrentIngestionAssignsUniqueIDs(t *testing.T) {
	const workers = 8
	segments := make(map[string][]models.TextSegment, workers)
	for i := 0; i < workers; i++ {
		name := fmt.Sprintf("doc-%d.pdf", i)
		segments[name] = []models.TextSegment{{Text: fmt.Sprintf("document %d body text", i)}}
	}
	pipeline, store := newTestPipeline(t, &fakeExtractor{segments: segments}, &fakeGenerator{})

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("doc-%d.pdf", i)
			_, err := pipeline.IngestDocument(context.Background(), models.SourceDocument{
				Filename: name, Path: "/tmp/" + name, Kind: models.KindDocument,
			})
			if err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent ingest: %v", err)
	}

	if store.Count() != workers {
		t.Fatalf("expected %d points, got %d", workers, store.Count())
	}
	seen := make(map[int64]bool, workers)
	for _, point := range store.Points() {
		if seen[point.ID] {
			t.Fatalf("duplicate chunk id %d", point.ID)
		}
		seen[point.ID] = true
	}
}
