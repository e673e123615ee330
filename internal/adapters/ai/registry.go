package ai

import (
	"context"
	"sort"
	"sync"

	"plutus/pkg/errors"
)

// ProviderRegistry holds the configured chat providers.
type ProviderRegistry struct {
	mu        sync.RWMutex
	providers map[string]ChatProvider
}

// NewProviderRegistry creates an empty registry.
func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{
		providers: make(map[string]ChatProvider),
	}
}

// Register adds a provider to the registry.
func (r *ProviderRegistry) Register(p ChatProvider) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := p.Name()
	if _, exists := r.providers[name]; exists {
		return errors.Wrapf(errors.ErrAlreadyExists, "provider %s already registered", name)
	}
	r.providers[name] = p
	return nil
}

// Get returns a provider by name.
func (r *ProviderRegistry) Get(name string) (ChatProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[name]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "provider %s not registered", name)
	}
	return p, nil
}

// MustGet returns a provider by name, panicking if it is missing.
// Intended for startup wiring only.
func (r *ProviderRegistry) MustGet(name string) ChatProvider {
	p, err := r.Get(name)
	if err != nil {
		panic(err)
	}
	return p
}

// List returns registered provider names in sorted order.
func (r *ProviderRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListModels returns all models across registered providers.
func (r *ProviderRegistry) ListModels(ctx context.Context) (map[string][]ModelInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string][]ModelInfo, len(r.providers))
	for name, p := range r.providers {
		models, err := p.ListModels(ctx)
		if err != nil {
			return nil, errors.Wrapf(err, "list models for provider %s", name)
		}
		out[name] = models
	}
	return out, nil
}

// ResolveModel finds the provider that serves the given model name.
func (r *ProviderRegistry) ResolveModel(ctx context.Context, model string) (ChatProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.providers {
		if _, err := p.GetModel(ctx, model); err == nil {
			return p, nil
		}
	}
	return nil, errors.Wrapf(errors.ErrNotFound, "no provider serves model %s", model)
}
