package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App  AppConfig
	Data DataConfig
	Ai   AIConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	SnapshotTopic      string
}

type DataConfig struct {
	CatalogPath        string
	EmbeddingCachePath string
	SessionDir         string
	SessionTTL         time.Duration
}

type AIConfig struct {
	OpenAIAPIKey      string
	LLMProvider       string // "openai" or "ollama"
	LLMModel          string
	EmbeddingProvider string // "openai" or "ollama"
	EmbeddingModel    string
	OllamaBaseURL     string
	ProviderTimeout   time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "8000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/conversation.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			SnapshotTopic:      getEnv("SESSION_SNAPSHOT_TOPIC", "SESSION_SNAPSHOT"),
		},
		Data: DataConfig{
			CatalogPath:        getEnv("CATALOG_PATH", "data/products.json"),
			EmbeddingCachePath: getEnv("EMBEDDING_CACHE_PATH", "data/product_embeddings.json"),
			SessionDir:         getEnv("SESSION_DIR", "data/sessions"),
			SessionTTL:         getEnvAsDuration("SESSION_TTL", time.Hour),
		},
		Ai: AIConfig{
			OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
			LLMProvider:       getEnv("LLM_PROVIDER", "openai"),
			LLMModel:          getEnv("LLM_MODEL", "gpt-3.5-turbo"),
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "openai"),
			EmbeddingModel:    getEnv("EMBEDDING_MODEL", "text-embedding-ada-002"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			ProviderTimeout:   getEnvAsDuration("PROVIDER_TIMEOUT", 30*time.Second),
		},
	}
}

// RequiresOpenAIKey reports whether the loaded provider selection cannot
// start without an OpenAI credential.
func (c *Config) RequiresOpenAIKey() bool {
	return c.Ai.LLMProvider == "openai" || c.Ai.EmbeddingProvider == "openai"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	if seconds, err := strconv.Atoi(strValue); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return fallback
}
