package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Rrens/stackbot/internal/api"
	"github.com/Rrens/stackbot/internal/api/middleware"
	"github.com/Rrens/stackbot/internal/config"
	"github.com/Rrens/stackbot/internal/llm"
	"github.com/Rrens/stackbot/internal/llm/gemini"
	"github.com/Rrens/stackbot/internal/llm/ollama"
	"github.com/Rrens/stackbot/internal/repository/redis"
	"github.com/Rrens/stackbot/internal/service"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load .env file - try multiple locations
	for _, p := range []string{".env", "../.env", "../../.env"} {
		if err := godotenv.Load(p); err == nil {
			fmt.Printf("Loaded .env from: %s\n", p)
			break
		}
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	setupLogger(cfg.Logging)

	log.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("store", cfg.Store.Driver).
		Msg("Starting StackBot API server")

	ctx := context.Background()

	// Initialize store
	st, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("Failed to open store")
	}
	defer st.close()

	// Initialize LLM Router with providers
	llmRouter := newLLMRouter(cfg.LLM)

	deps := api.Deps{
		Conversations: service.NewConversationService(st.conversations, llmRouter),
		Chat:          service.NewChatService(st.messages, llmRouter),
		Providers:     llmRouter,
		Ready:         st.pingers,
	}

	// Rate limiting for the generation endpoints
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer redisClient.Close()

		deps.Limiter = redis.NewRateLimiter(redisClient, cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)
		deps.Ready = append(deps.Ready, redisClient)
	} else if cfg.RateLimit.RequestsPerMinute > 0 {
		deps.Limiter = middleware.NewLocalLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      api.NewRouter(cfg, deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Msgf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

func setupLogger(cfg config.LoggingConfig) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" || os.Getenv("ENV") == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

func newLLMRouter(cfg config.LLMConfig) *llm.Router {
	router := llm.NewRouter(cfg.DefaultProvider, cfg.Timeout)

	log.Info().Msgf("Initializing LLM providers. Default: %s", cfg.DefaultProvider)

	if cfg.Gemini.APIKey != "" {
		log.Info().Str("model", cfg.Gemini.Model).Msg("Registering Gemini provider")
		router.RegisterProvider(gemini.NewProvider(cfg.Gemini))
	} else {
		log.Warn().Msg("Gemini API Key is empty, skipping registration")
	}

	if cfg.Ollama.Host != "" {
		log.Info().Str("host", cfg.Ollama.Host).Msg("Registering Ollama provider")
		router.RegisterProvider(ollama.NewProvider(cfg.Ollama.Host, cfg.Ollama.DefaultModel))
	}

	if _, err := router.GetProvider(cfg.DefaultProvider); err != nil {
		log.Warn().Err(err).Msg("Default LLM provider unavailable, generation requests will fail")
	}

	return router
}
