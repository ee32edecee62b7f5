package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/silsgah/Ghana-Legal-AI/internal/config"
	"github.com/silsgah/Ghana-Legal-AI/internal/llm"
	"github.com/silsgah/Ghana-Legal-AI/internal/memory"
	"github.com/silsgah/Ghana-Legal-AI/internal/server"
)

var configPath = flag.String("config", "", "Path to config file")

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	if dir := filepath.Dir(cfg.Server.DBPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Fatal("Failed to create data directory", zap.Error(err))
		}
	}

	store, err := memory.NewStore(cfg.Server.DBPath)
	if err != nil {
		logger.Fatal("Failed to open conversation memory", zap.Error(err))
	}
	defer store.Close()

	var responder server.Responder
	if cfg.LLM.BaseURL != "" {
		responder = server.NewLLMResponder(
			llm.NewClient(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Timeout),
			cfg.LLM.Model,
		)
		logger.Info("Using LLM responder",
			zap.String("base_url", cfg.LLM.BaseURL), zap.String("model", cfg.LLM.Model))
	} else {
		responder = server.ScriptedResponder{}
		logger.Info("No LLM configured, using scripted responder")
	}

	srv := server.New(cfg, store, responder, logger)

	go func() {
		logger.Info("Starting legalchat server", zap.String("address", cfg.Address()))
		if err := srv.Start(cfg.Address()); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shutdown gracefully", zap.Error(err))
	}

	logger.Info("Server stopped")
}
