package services

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

// OllamaGenerator produces answers with a local Ollama model.
type OllamaGenerator struct {
	llm   *ollama.LLM
	model string
}

// NewOllamaGenerator connects to the Ollama server at serverURL using the
// given generation model.
func NewOllamaGenerator(serverURL, model string) (*OllamaGenerator, error) {
	llm, err := ollama.New(
		ollama.WithServerURL(serverURL),
		ollama.WithModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("initializing ollama client: %w", err)
	}
	return &OllamaGenerator{llm: llm, model: model}, nil
}

// Generate runs one completion for the prompt.
func (g *OllamaGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextContent{Text: prompt}},
		},
	}
	resp, err := g.llm.GenerateContent(ctx, messages)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("model %s returned no choices", g.model)
	}
	return resp.Choices[0].Content, nil
}
