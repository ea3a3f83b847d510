package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DTSP-AI/numen-ai-sub001/internal/api"
	"github.com/DTSP-AI/numen-ai-sub001/internal/config"
	"github.com/DTSP-AI/numen-ai-sub001/internal/domain"
	"github.com/DTSP-AI/numen-ai-sub001/internal/embedding"
	"github.com/DTSP-AI/numen-ai-sub001/internal/store/backend"
	"go.uber.org/zap"
)

func main() {
	if err := config.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := config.NewLogger(config.LogLevel())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	stores, err := backend.Open(ctx, backend.Options{}, logger)
	if err != nil {
		logger.Fatal("failed to open storage", zap.Error(err))
	}
	defer stores.Close()

	// A missing embedding provider degrades summaries to text only.
	var embedder domain.EmbeddingClient
	provider := config.EmbeddingProvider()
	embedder, err = embedding.NewClient(provider, config.EmbeddingAPIKey())
	if err != nil {
		logger.Warn("embedding client initialization failed, summaries will be stored without embeddings",
			zap.String("provider", provider), zap.Error(err))
		embedder = nil
	} else {
		logger.Info("embedding client initialized", zap.String("provider", provider))
	}

	app := api.NewApp(stores, embedder, api.OptionsFromConfig(), logger)

	kernels, err := config.LoadKernelDir(config.KernelConfigDir())
	if err != nil {
		logger.Fatal("failed to load kernel configs", zap.Error(err))
	}
	if err := app.Kernels.Seed(ctx, kernels...); err != nil {
		logger.Fatal("failed to seed kernel configs", zap.Error(err))
	}

	app.Summaries.Start()

	addr := config.ServerAddr()
	srv := &http.Server{
		Addr:              addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	// Flush queued summaries once no handler can enqueue more.
	app.Summaries.Stop()

	logger.Info("server stopped")
}
