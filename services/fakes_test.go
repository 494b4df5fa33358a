package services

import (
	"context"
	"sync"

	"rag-pipeline/models"
)

// fakeEmbedder maps text deterministically to a small vector: identical
// texts get identical vectors (cosine similarity 1), different texts almost
// always diverge. Good enough to exercise ranking and round trips without a
// model.
type fakeEmbedder struct {
	mu    sync.Mutex
	err   error
	calls []string
}

const fakeDimension = 8

func (f *fakeEmbedder) vectorFor(text string) []float32 {
	v := make([]float32, fakeDimension)
	for i := 0; i < len(text); i++ {
		v[int(text[i])%fakeDimension]++
	}
	return v
}

func (f *fakeEmbedder) EmbedChunks(ctx context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		f.calls = append(f.calls, text)
		out[i] = f.vectorFor(text)
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.calls = append(f.calls, text)
	return f.vectorFor(text), nil
}

func (f *fakeEmbedder) Dimension(ctx context.Context) (int, error) {
	return fakeDimension, nil
}

// fakeGenerator records invocations and returns a canned answer.
type fakeGenerator struct {
	mu      sync.Mutex
	answer  string
	err     error
	calls   int
	prompts []string
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func (f *fakeGenerator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeExtractor returns fixed segments keyed by filename.
type fakeExtractor struct {
	segments map[string][]models.TextSegment
	err      error
}

func (f *fakeExtractor) Extract(ctx context.Context, doc models.SourceDocument) ([]models.TextSegment, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.segments[doc.Filename], nil
}

// fakeTranscriber records whether it was invoked.
type fakeTranscriber struct {
	transcript string
	err        error
	calls      int
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, path string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.transcript, nil
}

// fixedStore returns preset search results regardless of the query vector.
type fixedStore struct {
	results []models.RetrievedChunk
	err     error
}

func (f *fixedStore) EnsureCollection(ctx context.Context, dimension int) error { return nil }

func (f *fixedStore) Upsert(ctx context.Context, points []models.StoredPoint) error { return nil }

func (f *fixedStore) Search(ctx context.Context, vector []float32, topK int) ([]models.RetrievedChunk, error) {
	if f.err != nil {
		return nil, f.err
	}
	if topK > len(f.results) {
		topK = len(f.results)
	}
	return f.results[:topK], nil
}
