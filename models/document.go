package models

// MediaKind distinguishes the two kinds of source material the pipeline
// accepts. Dispatch happens on this field, not on runtime attribute probing.
type MediaKind int

const (
	// KindDocument is a text-bearing file (PDF).
	KindDocument MediaKind = iota
	// KindMedia is an audio or video recording to be transcribed.
	KindMedia
)

// SourceDocument is an uploaded file staged on disk. It exists only for the
// duration of one ingestion call; the caller owns the temp file and removes
// it on every exit path.
type SourceDocument struct {
	Filename string // original upload name, used as chunk source label
	Path     string // temp file location on disk
	Kind     MediaKind
}

// TextSegment is raw extracted text plus the filename it came from. A PDF
// yields one segment (pages concatenated); an audio file yields one segment
// holding the full transcript.
type TextSegment struct {
	Text   string
	Source string
}

// Chunk is a bounded span of text derived from a segment. IDs are allocated
// from a process-lifetime counter and are strictly increasing, never reused,
// so vector store point identifiers cannot collide across files.
type Chunk struct {
	ID     int64
	Text   string
	Source string
	Index  int // position within the source, 0-based
}

// StoredPoint is the persisted unit in the vector store: the chunk's id,
// its embedding, and the payload needed to reconstruct a retrieval result.
type StoredPoint struct {
	ID     int64
	Vector []float32
	Text   string
	Source string
	Index  int
}

// RetrievedChunk is a stored point's payload annotated with the similarity
// score for one specific query.
type RetrievedChunk struct {
	Text   string  `json:"text"`
	Source string  `json:"source"`
	Score  float64 `json:"score"`
}

// QueryResult is the synthesized answer together with the context that
// grounded it. Chunks is empty when nothing met the score threshold.
type QueryResult struct {
	Question string
	Answer   string
	Chunks   []RetrievedChunk
}
