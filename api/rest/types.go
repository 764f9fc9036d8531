package rest

import (
	"yqhp/agent-batch/internal/contextualizer"
	"yqhp/agent-batch/pkg/types"
)

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HealthResponse is the response body for health checks.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// ContextualizeRequest is the request body for POST /api/v1/contextualize.
// Optional fields override the server configuration for this request only.
type ContextualizeRequest struct {
	Document string `json:"document"`

	MaxChunkChars int    `json:"max_chunk_chars,omitempty"`
	OverlapChars  int    `json:"overlap_chars,omitempty"`
	MaxConcurrent int    `json:"max_concurrent,omitempty"`
	OnError       string `json:"on_error,omitempty"`
}

// ContextualizeResponse is the response body for POST /api/v1/contextualize.
type ContextualizeResponse struct {
	Chunks []types.ContextualizedChunk `json:"chunks"`
	Report *contextualizer.Report      `json:"report"`
}

// ReviewRequest is the request body for POST /api/v1/review.
// Exactly one of Diff or DiffURL must be provided; Diff wins when both are set.
type ReviewRequest struct {
	Diff    string `json:"diff,omitempty"`
	DiffURL string `json:"diff_url,omitempty"`

	MaxConcurrent int `json:"max_concurrent,omitempty"`
}

// ReviewResponse is the response body for POST /api/v1/review.
type ReviewResponse struct {
	Report  *types.ReviewReport `json:"report"`
	BatchID string              `json:"batch_id"`
}

// SuccessResponse is a generic success response body.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
