package services

import "sync/atomic"

// ChunkIDSequence allocates globally unique, strictly increasing chunk
// identifiers. One instance is owned by the pipeline and injected into the
// chunker; ids are process-lifetime state and reset only on restart.
// Allocation is atomic so concurrent ingestion requests never receive
// duplicate ids, which would silently overwrite points in the store.
type ChunkIDSequence struct {
	next atomic.Int64
}

// NewChunkIDSequence returns a sequence whose first allocated id is 0.
func NewChunkIDSequence() *ChunkIDSequence {
	return &ChunkIDSequence{}
}

// Next returns the next id and advances the sequence.
func (s *ChunkIDSequence) Next() int64 {
	return s.next.Add(1) - 1
}
