package main

import (
	"context"
	"log"

	"ai-salesbot-be/internal/bootstrap"
	"ai-salesbot-be/internal/config"
	"ai-salesbot-be/internal/server"
	"ai-salesbot-be/internal/tracer"

	"github.com/fatih/color"
)

func main() {
	// 0. Initialize Tracer
	shutdownTracer := tracer.Init()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()
	if cfg.RequiresOpenAIKey() && cfg.Ai.OpenAIAPIKey == "" {
		log.Fatal("OPENAI_API_KEY is required when the openai provider is selected")
	}

	color.Cyan("TOBI Sales Assistant")
	color.White("  provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)
	color.White("  catalog:  %s", cfg.Data.CatalogPath)

	// 2. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(cfg)
	defer container.Logger.Sync()

	// 3. Start Background Services
	go func() {
		log.Println("Background: Starting Snapshot Consumer...")
		if err := container.SnapshotConsumer.Consume(context.Background()); err != nil {
			log.Printf("Background Consumer Error: %v", err)
		}
	}()

	// 4. Run Server
	srv := server.New(cfg, container)
	log.Fatal(srv.Run())
}
