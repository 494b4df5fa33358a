package services

import (
	"context"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"
)

// WhisperTranscriber transcribes media files through an OpenAI-compatible
// /audio/transcriptions endpoint. Pointing BaseURL at a local Whisper server
// keeps the deployment self-contained; the hosted API works unchanged.
type WhisperTranscriber struct {
	client *openai.Client
	model  string
}

// NewWhisperTranscriber creates a transcriber for the given endpoint and
// model. apiKey may be empty for local servers that do not authenticate.
func NewWhisperTranscriber(baseURL, apiKey, model string) *WhisperTranscriber {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	return &WhisperTranscriber{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Transcribe returns the full transcript of the file at path.
func (t *WhisperTranscriber) Transcribe(ctx context.Context, path string) (string, error) {
	log.Info().Str("path", path).Str("model", t.model).Msg("Transcribing media file")

	resp, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.model,
		FilePath: path,
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}
