package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	httpadapter "github.com/krishimitra/krishi-agent/internal/adapters/http"
	"github.com/krishimitra/krishi-agent/internal/adapters/llm"
	firestorestore "github.com/krishimitra/krishi-agent/internal/adapters/storage/firestore"
	memstore "github.com/krishimitra/krishi-agent/internal/adapters/storage/memory"
	"github.com/krishimitra/krishi-agent/internal/adapters/weather"
	"github.com/krishimitra/krishi-agent/internal/app/chat"
	"github.com/krishimitra/krishi-agent/internal/app/crop"
	"github.com/krishimitra/krishi-agent/internal/app/plant"
	"github.com/krishimitra/krishi-agent/internal/config"
	"github.com/krishimitra/krishi-agent/internal/domain"
	"github.com/krishimitra/krishi-agent/internal/observability"
	"github.com/krishimitra/krishi-agent/internal/retry"
)

func main() {
	// .env is optional; real deployments set env vars directly.
	_ = godotenv.Load()

	log := observability.Logger()
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("configuration error", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	var model domain.ModelClient
	if cfg.UseMockModel {
		log.Info("using mock model client")
		model = llm.NewMockModel()
	} else {
		log.Info("using gemini model client", "model", cfg.ModelName)
		model, err = llm.NewGeminiClient(ctx, llm.GeminiConfig{
			APIKey:   cfg.GeminiAPIKey,
			Project:  cfg.GCPProject,
			Location: cfg.GCPLocation,
			Model:    cfg.ModelName,
		})
		if err != nil {
			log.Error("initializing gemini client", "error", err)
			os.Exit(1)
		}
	}

	var store domain.ChatStore
	switch cfg.StorageBackend {
	case "firestore":
		log.Info("using firestore storage", "project", cfg.GCPProject)
		store, err = firestorestore.NewStore(ctx, cfg.GCPProject)
		if err != nil {
			log.Error("initializing firestore store", "error", err)
			os.Exit(1)
		}
	default:
		log.Info("using in-memory storage")
		store = memstore.NewChatStore()
	}

	retryOpts := []retry.Option{
		retry.WithClassifier(domain.Retryable),
		retry.WithMaxAttempts(cfg.ModelMaxAttempts),
	}

	chats := chat.NewService(store, model, llm.PersonaTurn(llm.ChatPersona),
		chat.WithRetryOptions(retryOpts...))
	plants := plant.NewService(model, plant.WithRetryOptions(retryOpts...))
	crops := crop.NewService(model, weather.NewStaticProvider(),
		crop.WithRetryOptions(retryOpts...))

	handler := httpadapter.NewServer(chats, plants, crops, []byte(cfg.JWTSecret))

	addr := ":" + cfg.Port
	log.Info("krishi api listening", "addr", addr, "storage", cfg.StorageBackend)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
