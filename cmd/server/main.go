package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gwi.com/journal-companion/internal/api"
	"gwi.com/journal-companion/internal/config"
	"gwi.com/journal-companion/internal/core"
	"gwi.com/journal-companion/internal/logging"
	"gwi.com/journal-companion/internal/store"
)

func main() {
	// Load configuration
	config.LoadConfig()
	cfg := &config.AppConfig

	// Setup logging
	logging.Setup(cfg.LogLevel)
	slog.Debug("service starting in DEBUG mode")

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	loc, err := cfg.Location()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Initialize database store
	dbStore, err := store.Open(ctx, cfg.StoreBackend, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to initialize database", "backend", cfg.StoreBackend, "error", err)
		os.Exit(1)
	}
	defer dbStore.Close()

	if pg, ok := dbStore.(*store.PostgresStore); ok {
		go func() {
			if err := pg.Listen(ctx); err != nil {
				slog.Error("entry change listener stopped", "error", err)
			}
		}()
	}

	// Initialize completion client
	completer, closeCompleter, err := newCompleter(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialize completion client", "provider", cfg.CompletionProvider, "error", err)
		os.Exit(1)
	}
	defer closeCompleter()

	// Initialize services
	entryService := core.NewEntryService(dbStore, dbStore.Changes(), loc)
	chatService := core.NewChatService(dbStore, dbStore, completer, core.ChatOptions{
		PersistDebounce:   cfg.PersistDebounce,
		CompletionTimeout: cfg.CompletionTimeout,
		ContextEntries:    cfg.ContextEntries,
		Location:          loc,
	})

	if cfg.ChatIdleTimeout > 0 {
		go evictIdleConversations(ctx, chatService, cfg.ChatIdleTimeout)
	}

	// Initialize API Handler and Router
	apiHandler := api.NewAPIHandler(dbStore, entryService, chatService)
	router := api.NewRouter(apiHandler)

	// Start HTTP server
	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)

	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.CompletionTimeout + 15*time.Second,
		IdleTimeout:  120 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	// Graceful shutdown handling
	go func() {
		slog.Info("starting server", "addr", serverAddr, "backend", cfg.StoreBackend, "provider", cfg.CompletionProvider)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("could not listen", "addr", serverAddr, "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Event streams only end when their request context does.
	srv.RegisterOnShutdown(stop)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	// Pending chat writes go out before the store is closed.
	chatService.Close()
	slog.Info("server exiting gracefully")
}

func newCompleter(ctx context.Context, cfg *config.Config) (core.CompletionClient, func(), error) {
	switch cfg.CompletionProvider {
	case config.ProviderGemini:
		client, err := core.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, nil, err
		}
		return client, client.Close, nil
	default:
		client := core.NewDeepSeekClient(cfg.DeepSeekAPIKey, cfg.DeepSeekBaseURL, cfg.DeepSeekModel, cfg.CompletionTimeout)
		return client, func() {}, nil
	}
}

func evictIdleConversations(ctx context.Context, chat *core.ChatService, maxIdle time.Duration) {
	ticker := time.NewTicker(maxIdle / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			chat.EvictIdle(maxIdle)
		}
	}
}
