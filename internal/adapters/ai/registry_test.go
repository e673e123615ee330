package ai

import (
	"context"
	"testing"
	"time"

	"plutus/pkg/errors"
)

func twoProviderRegistry(t *testing.T) *ProviderRegistry {
	t.Helper()
	registry := NewProviderRegistry()
	if err := registry.Register(NewClaudeProvider("test-key", 10*time.Second, nil)); err != nil {
		t.Fatalf("register claude: %v", err)
	}
	if err := registry.Register(NewOpenAIProvider("test-key", 10*time.Second, nil)); err != nil {
		t.Fatalf("register openai: %v", err)
	}
	return registry
}

func TestRegistryListModels(t *testing.T) {
	registry := twoProviderRegistry(t)

	byProvider, err := registry.ListModels(context.Background())
	if err != nil {
		t.Fatalf("list models: %v", err)
	}
	if len(byProvider) != 2 {
		t.Fatalf("providers listed = %d, want 2", len(byProvider))
	}

	claude := byProvider[ProviderNameAnthropic.String()]
	if len(claude) == 0 {
		t.Fatal("anthropic catalog is empty")
	}
	found := false
	for _, m := range claude {
		if m.Name == string(ModelClaude45Sonnet) {
			found = true
			if !m.SupportsTools {
				t.Errorf("%s should support tools", m.Name)
			}
		}
	}
	if !found {
		t.Errorf("anthropic catalog missing %s", ModelClaude45Sonnet)
	}

	if len(byProvider[ProviderNameOpenAI.String()]) == 0 {
		t.Error("openai catalog is empty")
	}
}

func TestRegistryResolveModel(t *testing.T) {
	registry := twoProviderRegistry(t)
	ctx := context.Background()

	p, err := registry.ResolveModel(ctx, string(ModelClaude45Sonnet))
	if err != nil {
		t.Fatalf("resolve claude model: %v", err)
	}
	if p.Name() != ProviderNameAnthropic.String() {
		t.Errorf("resolved provider = %s, want anthropic", p.Name())
	}

	p, err = registry.ResolveModel(ctx, string(ModelGPT4o))
	if err != nil {
		t.Fatalf("resolve openai model: %v", err)
	}
	if p.Name() != ProviderNameOpenAI.String() {
		t.Errorf("resolved provider = %s, want openai", p.Name())
	}

	_, err = registry.ResolveModel(ctx, "imaginary-model-9000")
	if err == nil {
		t.Fatal("unknown model should not resolve")
	}
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("unknown model error = %v, want ErrNotFound", err)
	}
}
