package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/unidoc/unipdf/v3/common/license"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"

	"rag-pipeline/models"
)

func init() {
	if key := os.Getenv("UNIDOC_LICENSE_KEY"); key != "" {
		if err := license.SetMeteredKey(key); err != nil {
			log.Error().Err(err).Msg("Failed to set Unidoc license key, PDF processing will fail")
		}
	}
}

// allowedMediaExtensions is the fixed allow-list for /upload/media. Anything
// else is rejected before the file is touched.
var allowedMediaExtensions = []string{".wav", ".mp3", ".mp4", ".m4a", ".flac", ".ogg"}

// MediaExtensionAllowed reports whether the filename carries an accepted
// audio/video extension.
func MediaExtensionAllowed(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range allowedMediaExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// AllowedMediaExtensions returns the accepted extensions without their dots,
// for user-facing error messages.
func AllowedMediaExtensions() []string {
	out := make([]string, 0, len(allowedMediaExtensions))
	for _, ext := range allowedMediaExtensions {
		out = append(out, strings.TrimPrefix(ext, "."))
	}
	return out
}

// Transcriber converts an audio or video file into text.
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (string, error)
}

// Extractor turns a source document into an ordered sequence of text
// segments.
type Extractor interface {
	Extract(ctx context.Context, doc models.SourceDocument) ([]models.TextSegment, error)
}

// FileExtractor is the production Extractor. It dispatches on the document's
// media kind: PDFs go through unipdf, media goes through the transcriber.
type FileExtractor struct {
	transcriber Transcriber
}

// NewFileExtractor creates an extractor backed by the given transcriber.
func NewFileExtractor(transcriber Transcriber) *FileExtractor {
	return &FileExtractor{transcriber: transcriber}
}

// Extract produces the segments for one document. A PDF yields one segment
// with its pages concatenated (whitespace-only pages dropped); a media file
// yields one segment holding the full transcript. A document with no usable
// text fails with models.ErrExtractionFailed.
func (e *FileExtractor) Extract(ctx context.Context, doc models.SourceDocument) ([]models.TextSegment, error) {
	switch doc.Kind {
	case models.KindDocument:
		return e.extractPDF(doc)
	case models.KindMedia:
		return e.extractMedia(ctx, doc)
	default:
		return nil, fmt.Errorf("%w: unknown media kind", models.ErrUnsupportedFormat)
	}
}

func (e *FileExtractor) extractPDF(doc models.SourceDocument) ([]models.TextSegment, error) {
	f, err := os.Open(doc.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", models.ErrExtractionFailed, doc.Filename, err)
	}
	defer f.Close()

	pdfReader, err := model.NewPdfReader(f)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", models.ErrExtractionFailed, doc.Filename, err)
	}

	numPages, err := pdfReader.GetNumPages()
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", models.ErrExtractionFailed, doc.Filename, err)
	}

	var sb strings.Builder
	for i := 1; i <= numPages; i++ {
		page, err := pdfReader.GetPage(i)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d of %s: %v", models.ErrExtractionFailed, i, doc.Filename, err)
		}
		ex, err := extractor.New(page)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d of %s: %v", models.ErrExtractionFailed, i, doc.Filename, err)
		}
		text, err := ex.ExtractText()
		if err != nil {
			return nil, fmt.Errorf("%w: page %d of %s: %v", models.ErrExtractionFailed, i, doc.Filename, err)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n\n")
	}

	if strings.TrimSpace(sb.String()) == "" {
		return nil, fmt.Errorf("%w: %s contains no extractable text", models.ErrExtractionFailed, doc.Filename)
	}

	log.Info().Str("file", doc.Filename).Int("pages", numPages).Msg("Extracted PDF text")
	return []models.TextSegment{{Text: sb.String(), Source: doc.Filename}}, nil
}

func (e *FileExtractor) extractMedia(ctx context.Context, doc models.SourceDocument) ([]models.TextSegment, error) {
	if !MediaExtensionAllowed(doc.Filename) {
		return nil, fmt.Errorf("%w: %s", models.ErrUnsupportedFormat, filepath.Ext(doc.Filename))
	}

	transcript, err := e.transcriber.Transcribe(ctx, doc.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: transcribing %s: %v", models.ErrExtractionFailed, doc.Filename, err)
	}
	if strings.TrimSpace(transcript) == "" {
		return nil, fmt.Errorf("%w: %s produced an empty transcript", models.ErrExtractionFailed, doc.Filename)
	}

	log.Info().Str("file", doc.Filename).Int("chars", len(transcript)).Msg("Transcription complete")
	return []models.TextSegment{{Text: transcript, Source: doc.Filename}}, nil
}
