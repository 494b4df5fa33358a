package models

import "errors"

// Pipeline error taxonomy. Each stage wraps one of these sentinels so the
// controller can map a failure to an HTTP status without inspecting the
// downstream engine's message.
var (
	// ErrUnsupportedFormat is returned before any processing when a file's
	// extension is not on the accepted list for its upload endpoint.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrExtractionFailed covers engine errors during PDF text extraction or
	// transcription, and documents that yield no usable text.
	ErrExtractionFailed = errors.New("extraction failed")

	// ErrEmbeddingFailed covers embedding model errors for chunks or queries.
	ErrEmbeddingFailed = errors.New("embedding failed")

	// ErrDimensionMismatch is returned when the collection's configured
	// vector dimension does not match the embedding model's output.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrStoreUnavailable covers connectivity loss to the vector database.
	ErrStoreUnavailable = errors.New("vector store unavailable")

	// ErrGenerationFailed covers language model errors during answer synthesis.
	ErrGenerationFailed = errors.New("answer generation failed")

	// ErrInvalidRequest covers malformed API input: missing question, missing
	// file, out-of-range retrieval parameters.
	ErrInvalidRequest = errors.New("invalid request")
)
