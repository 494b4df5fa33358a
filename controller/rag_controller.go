package controller

import (
	"errors"
	"fmt"
	"math"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"rag-pipeline/models"
	"rag-pipeline/services"
)

// maxChunkTextLen bounds chunk text echoed in query responses.
const maxChunkTextLen = 200

// RAGController handles the HTTP surface of the pipeline. It parses and
// validates requests, delegates to the pipeline, and shapes responses; all
// processing lives in the services layer.
type RAGController struct {
	pipeline services.RAGPipeline
}

// NewRAGController creates the controller with its pipeline dependency.
func NewRAGController(pipeline services.RAGPipeline) *RAGController {
	return &RAGController{pipeline: pipeline}
}

// Health is the GET /health handler.
func (c *RAGController) Health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "RAG Pipeline API",
	})
}

// UploadPDF is the POST /upload/pdf handler.
func (c *RAGController) UploadPDF(ctx *gin.Context) {
	file, filename, ok := c.requireFile(ctx)
	if !ok {
		return
	}
	if !strings.EqualFold(filepath.Ext(filename), ".pdf") {
		writeErrorStatus(ctx, http.StatusBadRequest, "Invalid file type", "Only PDF files are allowed")
		return
	}
	c.ingestUpload(ctx, file, filename, models.KindDocument)
}

// UploadMedia is the POST /upload/media handler.
func (c *RAGController) UploadMedia(ctx *gin.Context) {
	file, filename, ok := c.requireFile(ctx)
	if !ok {
		return
	}
	if !services.MediaExtensionAllowed(filename) {
		writeErrorStatus(ctx, http.StatusBadRequest, "Invalid file type",
			"Allowed formats: "+strings.Join(services.AllowedMediaExtensions(), ", "))
		return
	}
	c.ingestUpload(ctx, file, filename, models.KindMedia)
}

// Query is the POST /query handler.
func (c *RAGController) Query(ctx *gin.Context) {
	var req models.QueryRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		writeErrorStatus(ctx, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	c.answer(ctx, req)
}

// Answer is the GET /answer handler; same contract as Query via query
// parameters.
func (c *RAGController) Answer(ctx *gin.Context) {
	req := models.QueryRequest{Question: ctx.Query("question")}

	if raw := ctx.Query("top_k"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			writeErrorStatus(ctx, http.StatusBadRequest, "Invalid parameter", "top_k must be an integer")
			return
		}
		req.TopK = &v
	}
	if raw := ctx.Query("score_threshold"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeErrorStatus(ctx, http.StatusBadRequest, "Invalid parameter", "score_threshold must be a number")
			return
		}
		req.ScoreThreshold = &v
	}
	c.answer(ctx, req)
}

// NotFound is the fallback handler for unknown routes.
func (c *RAGController) NotFound(ctx *gin.Context) {
	writeErrorStatus(ctx, http.StatusNotFound, "Not found", "The requested endpoint does not exist")
}

func (c *RAGController) answer(ctx *gin.Context, req models.QueryRequest) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		writeErrorStatus(ctx, http.StatusBadRequest, "Missing question", "Please provide a non-empty \"question\"")
		return
	}

	topK := models.DefaultTopK
	if req.TopK != nil {
		topK = *req.TopK
	}
	if topK <= 0 {
		writeErrorStatus(ctx, http.StatusBadRequest, "Invalid parameter", "top_k must be a positive integer")
		return
	}

	threshold := models.DefaultScoreThreshold
	if req.ScoreThreshold != nil {
		threshold = *req.ScoreThreshold
	}
	if threshold < 0 || threshold > 1 {
		writeErrorStatus(ctx, http.StatusBadRequest, "Invalid parameter", "score_threshold must be in [0, 1]")
		return
	}

	result, err := c.pipeline.Query(ctx.Request.Context(), question, topK, threshold)
	if err != nil {
		writeError(ctx, err)
		return
	}

	chunks := make([]models.RetrievedChunk, len(result.Chunks))
	for i, chunk := range result.Chunks {
		text := chunk.Text
		if len(text) > maxChunkTextLen {
			text = text[:maxChunkTextLen] + "..."
		}
		chunks[i] = models.RetrievedChunk{
			Text:   text,
			Source: chunk.Source,
			Score:  math.Round(chunk.Score*10000) / 10000,
		}
	}

	ctx.JSON(http.StatusOK, models.QueryResponse{
		Success:            true,
		Question:           result.Question,
		Answer:             result.Answer,
		NumChunksRetrieved: len(result.Chunks),
		Chunks:             chunks,
	})
}

// requireFile pulls the multipart "file" field, rejecting requests without
// one.
func (c *RAGController) requireFile(ctx *gin.Context) (*multipart.FileHeader, string, bool) {
	file, err := ctx.FormFile("file")
	if err != nil {
		writeErrorStatus(ctx, http.StatusBadRequest, "No file part in the request",
			"Please provide a file in the \"file\" field")
		return nil, "", false
	}
	filename := filepath.Base(file.Filename)
	if filename == "" || filename == "." {
		writeErrorStatus(ctx, http.StatusBadRequest, "No file selected", "Please select a file to upload")
		return nil, "", false
	}
	return file, filename, true
}

// ingestUpload stages the upload in a temp file, runs ingestion, and removes
// the temp file on every exit path.
func (c *RAGController) ingestUpload(ctx *gin.Context, file *multipart.FileHeader, filename string, kind models.MediaKind) {
	tempPath := filepath.Join(os.TempDir(), uuid.New().String()+filepath.Ext(filename))
	if err := ctx.SaveUploadedFile(file, tempPath); err != nil {
		log.Error().Err(err).Str("file", filename).Msg("Failed to stage upload")
		writeErrorStatus(ctx, http.StatusInternalServerError, "Processing failed", "Could not save the uploaded file")
		return
	}
	defer func() {
		if err := os.Remove(tempPath); err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", tempPath).Msg("Failed to remove temp file")
		}
	}()

	doc := models.SourceDocument{Filename: filename, Path: tempPath, Kind: kind}
	chunks, err := c.pipeline.IngestDocument(ctx.Request.Context(), doc)
	if err != nil {
		log.Error().Err(err).Str("file", filename).Msg("Ingestion failed")
		writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, models.UploadResponse{
		Success:         true,
		Message:         fmt.Sprintf("%s processed successfully", filename),
		Filename:        filename,
		ChunksProcessed: chunks,
	})
}

// writeError maps a pipeline error onto the API error taxonomy. The short
// sentinel text names the failing stage; engine internals stay in the logs.
func writeError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidRequest):
		writeErrorStatus(ctx, http.StatusBadRequest, "Invalid request", shortReason(err))
	case errors.Is(err, models.ErrUnsupportedFormat):
		writeErrorStatus(ctx, http.StatusBadRequest, "Invalid file type", shortReason(err))
	case errors.Is(err, models.ErrExtractionFailed):
		writeErrorStatus(ctx, http.StatusInternalServerError, "Extraction failed", shortReason(err))
	case errors.Is(err, models.ErrEmbeddingFailed):
		writeErrorStatus(ctx, http.StatusInternalServerError, "Embedding failed", shortReason(err))
	case errors.Is(err, models.ErrDimensionMismatch):
		writeErrorStatus(ctx, http.StatusInternalServerError, "Dimension mismatch", shortReason(err))
	case errors.Is(err, models.ErrStoreUnavailable):
		writeErrorStatus(ctx, http.StatusInternalServerError, "Vector store unavailable", shortReason(err))
	case errors.Is(err, models.ErrGenerationFailed):
		writeErrorStatus(ctx, http.StatusInternalServerError, "Generation failed", shortReason(err))
	default:
		writeErrorStatus(ctx, http.StatusInternalServerError, "Processing failed", "An unexpected error occurred")
	}
}

// shortReason keeps error messages diagnosable without leaking full engine
// output.
func shortReason(err error) string {
	msg := err.Error()
	if len(msg) > 200 {
		msg = msg[:200] + "..."
	}
	return msg
}

func writeErrorStatus(ctx *gin.Context, status int, errName, message string) {
	ctx.JSON(status, models.ErrorResponse{Error: errName, Message: message})
}
