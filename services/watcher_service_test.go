package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"rag-pipeline/models"
)

// recordingPipeline counts ingestion calls for watcher tests.
type recordingPipeline struct {
	mu    sync.Mutex
	err   error
	calls []models.SourceDocument
}

func (r *recordingPipeline) IngestDocument(ctx context.Context, doc models.SourceDocument) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, doc)
	if r.err != nil {
		return 0, r.err
	}
	return 1, nil
}

func (r *recordingPipeline) Query(ctx context.Context, question string, topK int, scoreThreshold float64) (*models.QueryResult, error) {
	return nil, errors.New("not used")
}

func (r *recordingPipeline) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestKindForPath(t *testing.T) {
	tests := []struct {
		path     string
		wantKind models.MediaKind
		wantOK   bool
	}{
		{"/watch/report.pdf", models.KindDocument, true},
		{"/watch/REPORT.PDF", models.KindDocument, true},
		{"/watch/call.mp3", models.KindMedia, true},
		{"/watch/talk.flac", models.KindMedia, true},
		{"/watch/notes.txt", 0, false},
		{"/watch/.hidden", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			kind, ok := kindForPath(tt.path)
			if ok != tt.wantOK || (ok && kind != tt.wantKind) {
				t.Errorf("kindForPath(%q) = (%v, %v), want (%v, %v)", tt.path, kind, ok, tt.wantKind, tt.wantOK)
			}
		})
	}
}

func TestWatcher_IngestsOncePerContent(t *testing.T) {
	dir := t.TempDir()
	path := writeTempFile(t, dir, "doc.pdf", "fake pdf bytes")

	pipeline := &recordingPipeline{}
	watcher := NewIngestWatcher(pipeline)

	// Duplicate events for unchanged content collapse into one ingestion.
	watcher.maybeIngest(context.Background(), path)
	watcher.maybeIngest(context.Background(), path)
	if pipeline.callCount() != 1 {
		t.Fatalf("expected 1 ingestion, got %d", pipeline.callCount())
	}

	// Changed content is ingested again.
	writeTempFile(t, dir, "doc.pdf", "fake pdf bytes, revised")
	watcher.maybeIngest(context.Background(), path)
	if pipeline.callCount() != 2 {
		t.Errorf("expected 2 ingestions after content change, got %d", pipeline.callCount())
	}
}

func TestWatcher_SkipsUnsupportedFiles(t *testing.T) {
	dir := t.TempDir()
	path := writeTempFile(t, dir, "notes.txt", "plain text")

	pipeline := &recordingPipeline{}
	watcher := NewIngestWatcher(pipeline)

	watcher.maybeIngest(context.Background(), path)
	if pipeline.callCount() != 0 {
		t.Errorf("expected no ingestion for an unsupported file, got %d", pipeline.callCount())
	}
}

func TestWatcher_RetriesAfterFailure(t *testing.T) {
	dir := t.TempDir()
	path := writeTempFile(t, dir, "doc.pdf", "fake pdf bytes")

	pipeline := &recordingPipeline{err: models.ErrStoreUnavailable}
	watcher := NewIngestWatcher(pipeline)

	watcher.maybeIngest(context.Background(), path)
	if pipeline.callCount() != 1 {
		t.Fatalf("expected 1 attempt, got %d", pipeline.callCount())
	}

	// The failed path is forgotten, so the same content may be retried.
	pipeline.mu.Lock()
	pipeline.err = nil
	pipeline.mu.Unlock()
	watcher.maybeIngest(context.Background(), path)
	if pipeline.callCount() != 2 {
		t.Errorf("expected a retry after failure, got %d calls", pipeline.callCount())
	}
}
