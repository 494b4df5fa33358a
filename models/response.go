package models

// UploadResponse is returned by both upload endpoints on success.
type UploadResponse struct {
	Success         bool   `json:"success"`
	Message         string `json:"message"`
	Filename        string `json:"filename"`
	ChunksProcessed int    `json:"chunks_processed"`
}

// QueryResponse is returned by POST /query and GET /answer on success.
type QueryResponse struct {
	Success            bool             `json:"success"`
	Question           string           `json:"question"`
	Answer             string           `json:"answer"`
	NumChunksRetrieved int              `json:"num_chunks_retrieved"`
	Chunks             []RetrievedChunk `json:"chunks"`
}

// ErrorResponse is the shape of every non-2xx body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
