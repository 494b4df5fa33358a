package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"

	"rag-pipeline/models"
)

// IngestWatcher watches a directory and feeds new files into the pipeline.
// Deletion and re-indexing of already stored chunks is out of scope, so a
// file is ingested at most once per content hash; editors that write via a
// temp file and rename fire multiple events for one save, and the hash map
// collapses those too.
type IngestWatcher struct {
	pipeline RAGPipeline

	mu       sync.Mutex
	ingested map[string]string // path -> content hash
}

// NewIngestWatcher creates a watcher bound to the pipeline.
func NewIngestWatcher(pipeline RAGPipeline) *IngestWatcher {
	return &IngestWatcher{
		pipeline: pipeline,
		ingested: make(map[string]string),
	}
}

// Watch blocks until ctx is cancelled, ingesting files created or written
// under dirPath.
func (w *IngestWatcher) Watch(ctx context.Context, dirPath string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(dirPath); err != nil {
		return err
	}
	log.Info().Str("dir", dirPath).Msg("Watching directory for new files")

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			w.maybeIngest(ctx, event.Name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error().Err(err).Msg("Watcher error")
		case <-ctx.Done():
			log.Info().Msg("Watcher shutting down")
			return ctx.Err()
		}
	}
}

func (w *IngestWatcher) maybeIngest(ctx context.Context, path string) {
	kind, ok := kindForPath(path)
	if !ok {
		return
	}

	hash, err := fileHash(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Could not hash file, skipping")
		return
	}

	w.mu.Lock()
	if w.ingested[path] == hash {
		w.mu.Unlock()
		return
	}
	w.ingested[path] = hash
	w.mu.Unlock()

	doc := models.SourceDocument{
		Filename: filepath.Base(path),
		Path:     path,
		Kind:     kind,
	}
	chunks, err := w.pipeline.IngestDocument(ctx, doc)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("Watcher ingestion failed")
		// Allow a retry if the file changes again.
		w.mu.Lock()
		delete(w.ingested, path)
		w.mu.Unlock()
		return
	}
	log.Info().Str("path", path).Int("chunks", chunks).Msg("Watcher ingested file")
}

func kindForPath(path string) (models.MediaKind, bool) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return models.KindDocument, true
	}
	if MediaExtensionAllowed(path) {
		return models.KindMedia, true
	}
	return 0, false
}

func fileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
