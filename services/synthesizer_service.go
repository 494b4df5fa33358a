package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"rag-pipeline/models"
)

// FallbackAnswer is returned when no retrieved chunk qualifies as context.
// The language model is not invoked in that case.
const FallbackAnswer = "I couldn't find any relevant information in the knowledge base to answer this question."

const answerPromptTemplate = `Answer the question using the provided context. If the context does not contain relevant information, say you don't know.

Context:
%s

Question: %s

Answer:`

// Generator is the external language model behind answer synthesis.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// AnswerSynthesizer assembles a grounding prompt from retrieved context and
// asks the generator for an answer.
type AnswerSynthesizer struct {
	generator Generator
}

// NewAnswerSynthesizer wires a synthesizer over the configured generator.
func NewAnswerSynthesizer(generator Generator) *AnswerSynthesizer {
	return &AnswerSynthesizer{generator: generator}
}

// Synthesize produces the answer text for the question given its context
// chunks. With no chunks it returns the fixed fallback without calling the
// model; a model error is surfaced as models.ErrGenerationFailed, never
// silently degraded to the fallback.
func (s *AnswerSynthesizer) Synthesize(ctx context.Context, question string, chunks []models.RetrievedChunk) (string, error) {
	if len(chunks) == 0 {
		log.Info().Str("question", question).Msg("No qualifying context, returning fallback answer")
		return FallbackAnswer, nil
	}

	var contextText strings.Builder
	for i, chunk := range chunks {
		if i > 0 {
			contextText.WriteString("\n\n")
		}
		fmt.Fprintf(&contextText, "[Source: %s]\n%s", chunk.Source, chunk.Text)
	}

	prompt := fmt.Sprintf(answerPromptTemplate, contextText.String(), question)
	answer, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrGenerationFailed, err)
	}
	return answer, nil
}
