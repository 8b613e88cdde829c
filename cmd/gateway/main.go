package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/tjfontaine/advisor-gateway/internal/api/deepseek"
	"github.com/tjfontaine/advisor-gateway/internal/api/gemini"
	"github.com/tjfontaine/advisor-gateway/internal/api/sarvam"
	"github.com/tjfontaine/advisor-gateway/internal/auth"
	"github.com/tjfontaine/advisor-gateway/internal/catalog"
	"github.com/tjfontaine/advisor-gateway/internal/composer"
	"github.com/tjfontaine/advisor-gateway/internal/config"
	"github.com/tjfontaine/advisor-gateway/internal/frontdoor/chat"
	"github.com/tjfontaine/advisor-gateway/internal/gateway"
	"github.com/tjfontaine/advisor-gateway/internal/localize"
	"github.com/tjfontaine/advisor-gateway/internal/prober"
	"github.com/tjfontaine/advisor-gateway/internal/server"
	"github.com/tjfontaine/advisor-gateway/internal/storage"
	"github.com/tjfontaine/advisor-gateway/internal/storage/memory"
	"github.com/tjfontaine/advisor-gateway/internal/storage/sqlite"
	"github.com/tjfontaine/advisor-gateway/internal/telemetry"
	"github.com/tjfontaine/advisor-gateway/internal/tokens"
)

var version = "dev"

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to config.yaml (optional)")
	flag.Parse()

	// Load .env file if it exists
	_ = godotenv.Load()

	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	shutdownTracer, err := telemetry.InitTracer("advisor-gateway", version, logger)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
		}
	}()

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	store, err := openStore(cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer store.Close()

	sarvamClient := sarvam.NewClient(cfg.Sarvam.APIKey, sarvamOptions(cfg.Sarvam)...)
	localizer, err := newLocalizer(cfg, sarvamClient, logger)
	if err != nil {
		log.Fatalf("Failed to create localizer: %v", err)
	}

	pipeline, err := newPipeline(cfg, store, localizer, logger)
	if err != nil {
		log.Fatalf("Failed to build pipeline: %v", err)
	}

	var verifier *auth.Verifier
	if cfg.Auth.JWTSecret != "" {
		verifier = auth.NewVerifier(cfg.Auth.JWTSecret)
	} else {
		logger.Warn("auth.jwt_secret not set; every caller is anonymous")
	}

	mode, _ := gateway.ParseResponseMode(cfg.Gateway.ResponseMode)
	handler := chat.NewHandler(pipeline, localizer, sarvamClient,
		chat.WithLogger(logger),
		chat.WithResponseMode(mode),
		chat.WithStreamDelay(cfg.Gateway.StreamDelay),
	)

	srv := server.New(server.Config{
		Port:               cfg.Server.Port,
		CORSOrigins:        cfg.Server.CORSOrigins,
		RateLimitPerMinute: cfg.Server.RateLimitPerMinute,
		RequestTimeout:     cfg.Server.RequestTimeout,
	}, logger, verifier)
	srv.Mount(func(r chi.Router) {
		handler.Routes(r)
	})

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	logger.Info("advisor gateway started",
		slog.String("version", version),
		slog.String("strategy", cfg.Gateway.Strategy),
		slog.String("response_mode", cfg.Gateway.ResponseMode),
		slog.String("storage", cfg.Storage.Type),
	)

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sigChan:
		logger.Info("Shutdown signal received, stopping gateway...")
	case err := <-errCh:
		logger.Error("server failed", slog.String("error", err.Error()))
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
	}
	logger.Info("Gateway shutdown complete")
}

func newLocalizer(cfg *config.Config, translator localize.Translator, logger *slog.Logger) (*localize.Localizer, error) {
	return localize.New(translator,
		localize.WithLogger(logger),
		localize.WithCacheSize(cfg.Localization.CacheSize),
		localize.WithChunkSize(cfg.Localization.ChunkSize),
	)
}

func newPipeline(cfg *config.Config, store storage.Store, localizer gateway.Localizer, logger *slog.Logger) (*gateway.Pipeline, error) {
	strategy, err := gateway.ParseStrategy(cfg.Gateway.Strategy)
	if err != nil {
		return nil, err
	}

	geminiClient := gemini.NewClient(cfg.Gemini.APIKey, geminiOptions(cfg.Gemini)...)

	counter, err := tokens.NewCounter()
	if err != nil {
		return nil, fmt.Errorf("failed to create token counter: %w", err)
	}

	opts := []gateway.Option{
		gateway.WithLogger(logger),
		gateway.WithStore(store, store),
		gateway.WithTokenBudget(counter, cfg.Gateway.MaxHistoryTokens),
		gateway.WithDefaultLanguage(cfg.Gateway.DefaultLanguage),
		gateway.WithLocalizer(localizer),
	}

	switch strategy {
	case gateway.StrategyDiscoveryFallback:
		discoverer := catalog.NewDiscoverer(geminiClient, catalog.WithLogger(logger))
		opts = append(opts, gateway.WithDiscoveryFallback(discoverer, prober.New(geminiClient, prober.WithLogger(logger))))
	case gateway.StrategyDualCompose:
		deepseekClient := deepseek.NewClient(cfg.DeepSeek.APIKey, deepseekOptions(cfg.DeepSeek)...)
		opts = append(opts, gateway.WithComposer(composer.New(
			composer.NewGeminiGenerator(geminiClient, cfg.Gemini.FixedVersion, cfg.Gemini.FixedModel),
			composer.NewDeepSeekGenerator(deepseekClient, cfg.DeepSeek.Model),
			composer.WithLogger(logger),
		)))
	}

	return gateway.New(strategy, opts...)
}

func openStore(cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Type {
	case "sqlite":
		return sqlite.New(cfg.SQLite.Path)
	case "memory":
		return memory.New(), nil
	case "none":
		return storage.Nop{}, nil
	}
	return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
}

func geminiOptions(cfg config.GeminiConfig) []gemini.ClientOption {
	if cfg.BaseURL == "" {
		return nil
	}
	return []gemini.ClientOption{gemini.WithBaseURL(cfg.BaseURL)}
}

func deepseekOptions(cfg config.DeepSeekConfig) []deepseek.ClientOption {
	if cfg.BaseURL == "" {
		return nil
	}
	return []deepseek.ClientOption{deepseek.WithBaseURL(cfg.BaseURL)}
}

func sarvamOptions(cfg config.SarvamConfig) []sarvam.ClientOption {
	if cfg.BaseURL == "" {
		return nil
	}
	return []sarvam.ClientOption{sarvam.WithBaseURL(cfg.BaseURL)}
}
