package main

import (
	"context"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"rag-pipeline/config"
	"rag-pipeline/controller"
	"rag-pipeline/services"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	if err := godotenv.Load(); err != nil {
		log.Info().Msg("No .env file found, relying on environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx := context.Background()

	embedder, err := services.NewOllamaEmbedder(cfg.OllamaURL, cfg.EmbeddingModel)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create embedder")
	}

	store, closeStore, err := buildStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create vector store")
	}
	defer closeStore()

	if err := services.EnsureReady(ctx, embedder, store); err != nil {
		log.Fatal().Err(err).Msg("Vector collection is not usable")
	}

	generator, err := buildGenerator(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create generator")
	}

	transcriber := services.NewWhisperTranscriber(cfg.WhisperURL, cfg.WhisperAPIKey, cfg.WhisperModel)
	extractor := services.NewFileExtractor(transcriber)
	pipeline := services.NewPipeline(extractor, embedder, store, generator, cfg.ChunkSize, cfg.ChunkOverlap)
	ragController := controller.NewRAGController(pipeline)

	if cfg.WatchDir != "" {
		watcher := services.NewIngestWatcher(pipeline)
		go func() {
			if err := watcher.Watch(ctx, cfg.WatchDir); err != nil && err != context.Canceled {
				log.Error().Err(err).Msg("Watcher stopped")
			}
		}()
	}

	router := gin.Default()
	router.GET("/health", ragController.Health)
	router.POST("/upload/pdf", ragController.UploadPDF)
	router.POST("/upload/media", ragController.UploadMedia)
	router.POST("/query", ragController.Query)
	router.GET("/answer", ragController.Answer)
	router.NoRoute(ragController.NotFound)

	log.Info().
		Str("addr", cfg.Addr()).
		Str("collection", cfg.CollectionName).
		Str("vector_store", cfg.VectorStore).
		Str("llm_provider", cfg.LLMProvider).
		Msg("Starting RAG pipeline server")

	if err := router.Run(cfg.Addr()); err != nil {
		log.Fatal().Err(err).Msg("Server exited")
	}
}

// buildStore selects the vector store backend from configuration.
func buildStore(cfg *config.Config) (services.VectorStore, func(), error) {
	switch cfg.VectorStore {
	case "memory":
		return services.NewMemoryStore(), func() {}, nil
	default:
		store, err := services.NewChromaStore(cfg.ChromaURL, cfg.CollectionName)
		if err != nil {
			return nil, nil, err
		}
		closeStore := func() {
			if err := store.Close(); err != nil {
				log.Warn().Err(err).Msg("Failed to close chroma client")
			}
		}
		return store, closeStore, nil
	}
}

// buildGenerator selects the language model backend from configuration.
func buildGenerator(ctx context.Context, cfg *config.Config) (services.Generator, error) {
	if cfg.LLMProvider == "gemini" {
		return services.NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.LLMModel)
	}
	return services.NewOllamaGenerator(cfg.OllamaURL, cfg.LLMModel)
}
