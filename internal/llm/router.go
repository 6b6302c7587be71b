package llm

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Rrens/stackbot/internal/domain"
)

// Router manages LLM providers and routes generation to the default one
type Router struct {
	providers       map[string]Provider
	defaultProvider string
	timeout         time.Duration
	mu              sync.RWMutex
}

// NewRouter creates a new LLM router. A zero timeout leaves calls unbounded.
func NewRouter(defaultProvider string, timeout time.Duration) *Router {
	return &Router{
		providers:       make(map[string]Provider),
		defaultProvider: defaultProvider,
		timeout:         timeout,
	}
}

// RegisterProvider registers an LLM provider
func (r *Router) RegisterProvider(provider Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[provider.Name()] = provider
}

// GetProvider returns a provider by name
func (r *Router) GetProvider(name string) (Provider, error) {
	if name == "" {
		name = r.defaultProvider
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("provider not found: %s", name)
	}

	if !p.IsConfigured() {
		return nil, fmt.Errorf("provider not configured: %s", name)
	}

	return p, nil
}

// ListProviders returns the sorted names of configured providers
func (r *Router) ListProviders() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	providers := make([]string, 0, len(r.providers))
	for name, p := range r.providers {
		if p.IsConfigured() {
			providers = append(providers, name)
		}
	}
	sort.Strings(providers)
	return providers
}

// DefaultProvider returns the default provider name
func (r *Router) DefaultProvider() string {
	return r.defaultProvider
}

// Generate sends req to the default provider. Every failure is returned as
// a *domain.GatewayError.
func (r *Router) Generate(ctx context.Context, req Request) (*Response, error) {
	provider, err := r.GetProvider("")
	if err != nil {
		return nil, &domain.GatewayError{Provider: r.defaultProvider, Err: err}
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	resp, err := provider.Generate(ctx, req)
	if err != nil {
		return nil, &domain.GatewayError{Provider: provider.Name(), Err: err}
	}

	return resp, nil
}
