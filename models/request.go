package models

// QueryRequest is the body of POST /query. TopK and ScoreThreshold are
// pointers so that "absent" (use the default) can be told apart from an
// explicit zero, which is rejected as out of range.
type QueryRequest struct {
	Question       string   `json:"question"`
	TopK           *int     `json:"top_k,omitempty"`
	ScoreThreshold *float64 `json:"score_threshold,omitempty"`
}

// Retrieval defaults, matching the documented API contract.
const (
	DefaultTopK           = 5
	DefaultScoreThreshold = 0.3
)
