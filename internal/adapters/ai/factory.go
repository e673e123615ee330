package ai

import (
	"plutus/internal/adapters/config"
	"plutus/pkg/errors"
	"plutus/pkg/logger"
)

// BuildRegistry constructs a provider registry from configuration.
// Providers without a configured API key are skipped.
func BuildRegistry(cfg config.AIConfig) (*ProviderRegistry, error) {
	log := logger.Get().With("component", "ai_factory")
	registry := NewProviderRegistry()

	if cfg.ClaudeKey != "" {
		limiter := NewTokenBucketLimiter(ProviderNameAnthropic, cfg.ReqPerMinute, cfg.Burst)
		provider := NewClaudeProvider(cfg.ClaudeKey, cfg.RequestTimeout, limiter)
		if err := registry.Register(provider); err != nil {
			return nil, errors.Wrap(err, "register claude provider")
		}
		log.Infow("registered AI provider", "provider", provider.Name(), "rate_limit", limiter.Limit())
	}

	if cfg.OpenAIKey != "" {
		limiter := NewTokenBucketLimiter(ProviderNameOpenAI, cfg.ReqPerMinute, cfg.Burst)
		provider := NewOpenAIProvider(cfg.OpenAIKey, cfg.RequestTimeout, limiter)
		if err := registry.Register(provider); err != nil {
			return nil, errors.Wrap(err, "register openai provider")
		}
		log.Infow("registered AI provider", "provider", provider.Name(), "rate_limit", limiter.Limit())
	}

	if len(registry.List()) == 0 {
		return nil, errors.Wrap(errors.ErrInvalidInput, "no AI providers configured")
	}

	return registry, nil
}

// DefaultProvider resolves the configured default provider from the registry.
func DefaultProvider(registry *ProviderRegistry, cfg config.AIConfig) (ChatProvider, error) {
	name := cfg.DefaultProvider
	switch name {
	case "claude", "anthropic", "":
		name = ProviderNameAnthropic.String()
	case "openai", "gpt":
		name = ProviderNameOpenAI.String()
	}

	p, err := registry.Get(name)
	if err == nil {
		return p, nil
	}

	// Fall back to any registered provider
	for _, n := range registry.List() {
		return registry.MustGet(n), nil
	}
	return nil, errors.Wrapf(errors.ErrNotFound, "default provider %s not available", name)
}
