package bootstrap

import (
	"context"
	"log"

	"ai-salesbot-be/internal/config"
	"ai-salesbot-be/internal/controller"
	"ai-salesbot-be/internal/pkg/logger"
	"ai-salesbot-be/internal/repository/file"
	"ai-salesbot-be/internal/repository/memory"
	"ai-salesbot-be/internal/service"
	"ai-salesbot-be/pkg/catalog"
	"ai-salesbot-be/pkg/embedding"
	"ai-salesbot-be/pkg/llm/factory"
	"ai-salesbot-be/pkg/search"
	"ai-salesbot-be/pkg/store"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type Container struct {
	// Controllers
	ChatController controller.IChatController

	// Background Services (Exposed for main.go to run)
	SnapshotConsumer *service.SnapshotConsumer

	Logger logger.ILogger
}

func NewContainer(cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Providers
	var embeddingProvider embedding.Provider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.EmbeddingModel)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.EmbeddingModel)
	} else {
		embeddingProvider = embedding.NewOpenAIProvider(cfg.Ai.OpenAIAPIKey, cfg.Ai.EmbeddingModel)
		log.Printf("[INFO] Using Embedding Provider: OPENAI (%s)", cfg.Ai.EmbeddingModel)
	}

	llmProvider, err := factory.NewProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OpenAIAPIKey,
		cfg.Ai.OllamaBaseURL,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 4. Search Engine
	loader := catalog.NewLoader(cfg.Data.CatalogPath, sysLogger.Zap())
	vectorCache := embedding.NewCache(cfg.Data.EmbeddingCachePath)
	engine := search.NewEngine(loader, embeddingProvider, vectorCache, cfg.Ai.ProviderTimeout, sysLogger.Zap())
	engine.Refresh(context.Background())

	// 5. Session Storage
	snapshotRepo := file.NewSnapshotRepository(cfg.Data.SessionDir)
	sessionRepo := memory.NewSessionRepository(cfg.Data.SessionTTL, func(sess *store.Session) {
		// Evicted sessions flush straight to disk so a returning customer
		// picks up where they left off.
		if err := snapshotRepo.Save(sess); err != nil {
			sysLogger.Error("bootstrap", "eviction flush failed", map[string]interface{}{
				"session_id": sess.ID,
				"error":      err.Error(),
			})
		}
	})

	// 6. Services
	conversationService := service.NewConversationService(
		engine,
		llmProvider,
		sessionRepo,
		snapshotRepo,
		pubSub,
		cfg.App.SnapshotTopic,
		cfg.Ai.ProviderTimeout,
		sysLogger,
	)
	snapshotConsumer := service.NewSnapshotConsumer(pubSub, snapshotRepo, cfg.App.SnapshotTopic, sysLogger)

	// 7. Controllers
	return &Container{
		ChatController:   controller.NewChatController(conversationService, engine),
		SnapshotConsumer: snapshotConsumer,
		Logger:           sysLogger,
	}
}
