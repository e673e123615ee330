package ai

import (
	"context"
	"testing"
	"time"
)

func TestTokenBucketLimiter_Allow(t *testing.T) {
	limiter := NewTokenBucketLimiter(ProviderNameAnthropic, 60, 2)

	if !limiter.Allow() {
		t.Error("first request should be allowed")
	}
	if !limiter.Allow() {
		t.Error("second request within burst should be allowed")
	}
	if limiter.Allow() {
		t.Error("third request should be denied, burst exhausted")
	}
}

func TestTokenBucketLimiter_Refill(t *testing.T) {
	// 600 req/min = 10 req/sec, so one token refills in ~100ms
	limiter := NewTokenBucketLimiter(ProviderNameAnthropic, 600, 1)

	if !limiter.Allow() {
		t.Fatal("first request should be allowed")
	}
	if limiter.Allow() {
		t.Fatal("bucket should be empty")
	}

	time.Sleep(150 * time.Millisecond)

	if !limiter.Allow() {
		t.Error("token should have refilled after wait")
	}
}

func TestTokenBucketLimiter_WaitCancelled(t *testing.T) {
	limiter := NewTokenBucketLimiter(ProviderNameAnthropic, 1, 1)
	limiter.Allow() // drain

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := limiter.Wait(ctx)
	if err == nil {
		t.Error("Wait should fail when context expires before a token is available")
	}
}

func TestTokenBucketLimiter_Limit(t *testing.T) {
	limiter := NewTokenBucketLimiter(ProviderNameOpenAI, 90, 5)
	if got := limiter.Limit(); got != 90 {
		t.Errorf("Limit() = %v, want 90", got)
	}
}

func TestNoOpLimiter(t *testing.T) {
	limiter := NewNoOpLimiter()

	if !limiter.Allow() {
		t.Error("NoOpLimiter should always allow")
	}
	if err := limiter.Wait(context.Background()); err != nil {
		t.Errorf("NoOpLimiter.Wait returned error: %v", err)
	}
	if limiter.Limit() != -1 {
		t.Error("NoOpLimiter.Limit should report unlimited")
	}
}

func TestDefaultRegistry(t *testing.T) {
	registry := NewProviderRegistry()

	claude := NewClaudeProvider("test-key", 10*time.Second, nil)
	if err := registry.Register(claude); err != nil {
		t.Fatalf("register claude: %v", err)
	}

	if err := registry.Register(claude); err == nil {
		t.Error("duplicate registration should fail")
	}

	got, err := registry.Get("anthropic")
	if err != nil {
		t.Fatalf("get anthropic: %v", err)
	}
	if got.Name() != "anthropic" {
		t.Errorf("provider name = %s, want anthropic", got.Name())
	}

	if _, err := registry.Get("missing"); err == nil {
		t.Error("get of unknown provider should fail")
	}
}
