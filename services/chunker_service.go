package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"

	"rag-pipeline/models"
)

// leadingPageNumber matches page numbers that PDF extraction leaves at the
// start of a chunk.
var leadingPageNumber = regexp.MustCompile(`^\d+\s*`)

// Chunker splits text segments into bounded chunks suitable for embedding.
// Splitting prefers paragraph and sentence boundaries over mid-word cuts and
// is deterministic for a given input and configuration.
type Chunker struct {
	splitter textsplitter.RecursiveCharacter
	ids      *ChunkIDSequence
}

// NewChunker creates a chunker with the configured maximum chunk size and
// overlap (both in characters). The id sequence is injected by the pipeline,
// which owns it.
func NewChunker(chunkSize, chunkOverlap int, ids *ChunkIDSequence) *Chunker {
	return &Chunker{
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(chunkOverlap),
		),
		ids: ids,
	}
}

// ChunkSegments splits each segment in order and returns the resulting
// chunks with ids allocated in issuance order. An empty or whitespace-only
// segment yields no chunks and consumes no ids; a segment shorter than the
// chunk size yields exactly one chunk. Chunk indices count from 0 within
// one call, in source order.
func (c *Chunker) ChunkSegments(segments []models.TextSegment, source string) ([]models.Chunk, error) {
	var chunks []models.Chunk
	index := 0
	for _, seg := range segments {
		if strings.TrimSpace(seg.Text) == "" {
			continue
		}
		parts, err := c.splitter.SplitText(seg.Text)
		if err != nil {
			return nil, fmt.Errorf("splitting segment from %s: %w", source, err)
		}
		for _, part := range parts {
			text := strings.TrimSpace(leadingPageNumber.ReplaceAllString(part, ""))
			if text == "" {
				continue
			}
			chunks = append(chunks, models.Chunk{
				ID:     c.ids.Next(),
				Text:   text,
				Source: source,
				Index:  index,
			})
			index++
		}
	}
	return chunks, nil
}
