package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds every recognized configuration option. All values come from
// environment variables (a .env file is honored by main before Load runs).
type Config struct {
	// Vector store
	ChromaURL      string
	CollectionName string
	VectorStore    string // "chroma" or "memory"

	// Chunking
	ChunkSize    int // max characters per chunk
	ChunkOverlap int // characters shared between consecutive chunks

	// Embedding
	OllamaURL      string
	EmbeddingModel string

	// Generation
	LLMProvider  string // "ollama" or "gemini"
	LLMModel     string
	GeminiAPIKey string

	// Transcription
	WhisperURL    string
	WhisperAPIKey string
	WhisperModel  string

	// Optional directory watched for auto-ingestion
	WatchDir string

	// Network
	Host string
	Port int
}

// Load reads configuration from environment variables, applies defaults and
// validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		ChromaURL:      getEnv("CHROMA_URL", "http://localhost:8000"),
		CollectionName: getEnv("COLLECTION_NAME", "rag_api_collection"),
		VectorStore:    getEnv("VECTOR_STORE", "chroma"),
		ChunkSize:      getEnvInt("CHUNK_SIZE", 1000),
		ChunkOverlap:   getEnvInt("CHUNK_OVERLAP", 100),
		OllamaURL:      getEnv("OLLAMA_URL", "http://localhost:11434"),
		EmbeddingModel: getEnv("EMBEDDING_MODEL", "nomic-embed-text"),
		LLMProvider:    getEnv("LLM_PROVIDER", "ollama"),
		LLMModel:       getEnv("LLM_MODEL", "llama3.1:8b"),
		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		WhisperURL:     getEnv("WHISPER_URL", "http://localhost:9000/v1"),
		WhisperAPIKey:  os.Getenv("WHISPER_API_KEY"),
		WhisperModel:   getEnv("WHISPER_MODEL", "whisper-1"),
		WatchDir:       os.Getenv("WATCH_DIR"),
		Host:           getEnv("HOST", "0.0.0.0"),
		Port:           getEnvInt("PORT", 5002),
	}
	return cfg, cfg.Validate()
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("CHUNK_SIZE must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 {
		return fmt.Errorf("CHUNK_OVERLAP must be non-negative, got %d", c.ChunkOverlap)
	}
	if c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("CHUNK_OVERLAP (%d) must be smaller than CHUNK_SIZE (%d)", c.ChunkOverlap, c.ChunkSize)
	}
	switch c.VectorStore {
	case "chroma", "memory":
	default:
		return fmt.Errorf("VECTOR_STORE must be chroma or memory, got %q", c.VectorStore)
	}
	switch c.LLMProvider {
	case "ollama", "gemini":
	default:
		return fmt.Errorf("LLM_PROVIDER must be ollama or gemini, got %q", c.LLMProvider)
	}
	if c.LLMProvider == "gemini" && c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required when LLM_PROVIDER is gemini")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT must be in 1-65535, got %d", c.Port)
	}
	return nil
}

// Addr returns the host:port the server binds to.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}
