package handler

import (
	"context"
	"net/http"

	"github.com/Rrens/stackbot/internal/api/response"
	"golang.org/x/sync/errgroup"
)

// Pinger reports whether a backing service is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// ProviderLister exposes the registered generation providers
type ProviderLister interface {
	ListProviders() []string
	DefaultProvider() string
}

// HealthCheck returns a simple health check response
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]string{
		"status": "ok",
	})
}

// ReadyCheck returns readiness status including store connectivity
func ReadyCheck(pingers ...Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g, ctx := errgroup.WithContext(r.Context())
		for _, p := range pingers {
			g.Go(func() error { return p.Ping(ctx) })
		}
		if err := g.Wait(); err != nil {
			response.Error(w, http.StatusServiceUnavailable, "not ready", err.Error())
			return
		}

		response.OK(w, map[string]string{
			"status": "ready",
		})
	}
}

// ListProviders returns the generation providers that are registered
func ListProviders(providers ProviderLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.OK(w, map[string]any{
			"providers":        providers.ListProviders(),
			"default_provider": providers.DefaultProvider(),
		})
	}
}
