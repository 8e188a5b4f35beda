// Package main boots the Custom Chats service and wires application dependencies.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/easeaico/custom-chats/internal/chat"
	"github.com/easeaico/custom-chats/internal/config"
	"github.com/easeaico/custom-chats/internal/emotion"
	"github.com/easeaico/custom-chats/internal/handler"
	"github.com/easeaico/custom-chats/internal/models"
	"github.com/easeaico/custom-chats/internal/retry"
	"github.com/easeaico/custom-chats/internal/storage"
	"github.com/easeaico/custom-chats/internal/types"
)

func main() {
	cfg := config.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)
	slog.Info("configuration loaded", "addr", cfg.HTTPAddr, "profile_id", cfg.ProfileID, "default_provider", cfg.DefaultProvider, "default_model", cfg.DefaultModel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	providerOpts := models.Options{
		GeminiBaseURL:     cfg.GeminiBaseURL,
		OpenRouterBaseURL: cfg.OpenRouterBaseURL,
		HTTPClient:        &http.Client{Timeout: cfg.RequestTimeout},
	}
	providers := func(ctx context.Context, settings types.APISettings) (models.Provider, error) {
		return models.NewProvider(ctx, settings, providerOpts)
	}

	chatStore := chat.NewStore(store.States, providers, emotion.NewService(), chat.Options{
		ProfileID:    cfg.ProfileID,
		HistoryLimit: cfg.HistoryLimit,
		Retry: retry.Policy{
			MaxAttempts: cfg.MaxAttempts,
			BaseDelay:   time.Second,
			MaxDelay:    5 * time.Second,
		},
		RegenerateTimeout:     cfg.RegenerateTimeout,
		MinRegenerateDuration: cfg.MinRegenerateDuration,
		DefaultSettings:       cfg.APISettings(),
	})
	if err := chatStore.Init(ctx); err != nil {
		log.Fatalf("failed to load chat state: %v", err)
	}

	if cfg.SlogLevel() > slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler.NewRouter(chatStore),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server starting", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server failed: %v", err)
		}
	case <-ctx.Done():
		fmt.Println("\n正在关闭...")
	}

	// 给进行中的生成留出时间写回状态
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.RegenerateTimeout+5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown failed", "error", err.Error())
	}

	fmt.Println("Server shutdown complete")
}
