package api

import (
	"net/http"

	"github.com/Rrens/stackbot/internal/api/handler"
	customMiddleware "github.com/Rrens/stackbot/internal/api/middleware"
	"github.com/Rrens/stackbot/internal/config"
	"github.com/Rrens/stackbot/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Deps are the components the HTTP layer is built on
type Deps struct {
	Conversations *service.ConversationService
	Chat          *service.ChatService
	Providers     handler.ProviderLister
	// Limiter guards the generation endpoints; nil disables rate limiting
	Limiter customMiddleware.Limiter
	// Ready is pinged by the readiness probe
	Ready []handler.Pinger
}

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, deps Deps) http.Handler {
	r := chi.NewRouter()

	// validated by config.Load
	trustedProxies, _ := cfg.Server.TrustedProxyPrefixes()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(customMiddleware.TrustedRealIP(trustedProxies))
	r.Use(customMiddleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.Server.MiddlewareTimeout))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"X-Request-ID", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		MaxAge:         300,
	}))

	conversationHandler := handler.NewConversationHandler(deps.Conversations)
	chatHandler := handler.NewChatHandler(deps.Chat)

	limit := func(next http.Handler) http.Handler { return next }
	if deps.Limiter != nil {
		limit = customMiddleware.NewRateLimitMiddleware(deps.Limiter).Limit
	}

	r.Route("/api", func(r chi.Router) {
		// Health check
		r.Get("/health", handler.HealthCheck)
		r.Get("/ready", handler.ReadyCheck(deps.Ready...))

		if deps.Providers != nil {
			r.Get("/providers", handler.ListProviders(deps.Providers))
		}

		// Standalone chat log
		r.With(limit).Post("/chat", chatHandler.Send)
		r.Route("/history", func(r chi.Router) {
			r.Get("/", chatHandler.History)
			r.Delete("/", chatHandler.Clear)
			r.Delete("/{messageID}", chatHandler.Delete)
		})

		// Conversations
		r.Route("/conversations", func(r chi.Router) {
			r.Get("/", conversationHandler.List)
			r.Post("/", conversationHandler.Create)

			r.Route("/{conversationID}", func(r chi.Router) {
				r.Delete("/", conversationHandler.Delete)

				r.Route("/messages", func(r chi.Router) {
					r.Get("/", conversationHandler.ListMessages)
					r.With(limit).Post("/", conversationHandler.AppendMessage)
					r.Delete("/{messageID}", conversationHandler.DeleteMessage)
				})
			})
		})
	})

	return r
}
