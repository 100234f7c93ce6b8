package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"petai/internal/http/handlers"
	httpapi "petai/internal/http/httpapi"
	"petai/internal/infra"
	"petai/internal/providers/gemini"
	"petai/internal/providers/openrouter"
)

func main() {
	// Muat .env (opsional)
	_ = godotenv.Load()

	// Konfigurasi & logger
	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLoggerTo(os.Stdout, cfg.AppEnv, cfg.LogJSON)

	// Provider clients. Key kosong baru gagal saat request.
	styleClient, err := openrouter.NewClient(openrouter.Options{
		APIKey:  cfg.OpenRouterAPIKey,
		Model:   cfg.OpenRouterModel,
		BaseURL: cfg.OpenRouterBaseURL,
		Title:   cfg.OpenRouterTitle,
		Referer: cfg.Referer(),
		Logger:  &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure openrouter client")
	}
	imageClient, err := gemini.NewClient(gemini.Options{
		APIKey:      cfg.GeminiAPIKey,
		BaseURL:     cfg.GeminiBaseURL,
		Model:       cfg.GeminiModel,
		Referer:     cfg.Referer(),
		Logger:      &logger,
		MaxAttempts: cfg.ImageMaxAttempts,
		BaseDelay:   cfg.ImageRetryBase,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure gemini client")
	}
	if cfg.GeminiAPIKey == "" {
		logger.Warn().Str("model", imageClient.Model()).Msg("GEMINI_API_KEY missing, image generation will fail")
	}
	if cfg.OpenRouterAPIKey == "" {
		logger.Warn().Str("model", styleClient.Model()).Msg("OPENROUTER_API_KEY missing, random style uses fallback")
	}

	// App container
	app := handlers.NewApp(styleClient, imageClient, logger)

	// Bangun router via package httpapi
	router := httpapi.NewRouter(app, cfg, logger)

	// HTTP server wrapper dari infra
	server := infra.NewHTTPServer(cfg, router, logger)

	// Start async
	go func() {
		logger.Info().Msgf("API listening on %s", server.Addr())
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
