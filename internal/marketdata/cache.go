package marketdata

import (
	"context"
	"strconv"
	"time"

	"plutus/internal/adapters/redis"
	"plutus/pkg/logger"
)

// CachedProvider wraps a Provider with a Redis read-through cache. Quotes
// expire quickly, fundamentals are stable enough for a longer TTL, history
// shares the fundamentals TTL.
type CachedProvider struct {
	inner           Provider
	cache           *redis.Client
	quoteTTL        time.Duration
	fundamentalsTTL time.Duration
	log             *logger.Logger
}

var _ Provider = (*CachedProvider)(nil)

// NewCachedProvider wraps a provider with Redis caching.
func NewCachedProvider(inner Provider, cache *redis.Client, quoteTTL, fundamentalsTTL time.Duration) *CachedProvider {
	return &CachedProvider{
		inner:           inner,
		cache:           cache,
		quoteTTL:        quoteTTL,
		fundamentalsTTL: fundamentalsTTL,
		log:             logger.Get().With("component", "marketdata_cache"),
	}
}

// GetQuote returns a cached quote when fresh, otherwise fetches and caches.
func (p *CachedProvider) GetQuote(ctx context.Context, ticker string) (*Quote, error) {
	key := "quote:" + normalizeTicker(ticker)

	var cached Quote
	if err := p.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	q, err := p.inner.GetQuote(ctx, ticker)
	if err != nil {
		return nil, err
	}
	if err := p.cache.Set(ctx, key, q, p.quoteTTL); err != nil {
		p.log.Warnw("quote cache write failed", "ticker", ticker, "error", err)
	}
	return q, nil
}

// GetFundamentals returns cached fundamentals when fresh.
func (p *CachedProvider) GetFundamentals(ctx context.Context, ticker string) (*Fundamentals, error) {
	key := "fundamentals:" + normalizeTicker(ticker)

	var cached Fundamentals
	if err := p.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	f, err := p.inner.GetFundamentals(ctx, ticker)
	if err != nil {
		return nil, err
	}
	if err := p.cache.Set(ctx, key, f, p.fundamentalsTTL); err != nil {
		p.log.Warnw("fundamentals cache write failed", "ticker", ticker, "error", err)
	}
	return f, nil
}

// GetNews returns cached headlines when fresh. Headlines churn like quotes,
// so they share the quote TTL.
func (p *CachedProvider) GetNews(ctx context.Context, ticker string, maxItems int) ([]NewsItem, error) {
	key := "news:" + normalizeTicker(ticker) + ":" + strconv.Itoa(maxItems)

	var cached []NewsItem
	if err := p.cache.Get(ctx, key, &cached); err == nil && len(cached) > 0 {
		return cached, nil
	}

	items, err := p.inner.GetNews(ctx, ticker, maxItems)
	if err != nil {
		return nil, err
	}
	if err := p.cache.Set(ctx, key, items, p.quoteTTL); err != nil {
		p.log.Warnw("news cache write failed", "ticker", ticker, "error", err)
	}
	return items, nil
}

// GetHistory returns cached history when fresh.
func (p *CachedProvider) GetHistory(ctx context.Context, ticker string, rng Range) ([]Bar, error) {
	key := "history:" + normalizeTicker(ticker) + ":" + string(rng)

	var cached []Bar
	if err := p.cache.Get(ctx, key, &cached); err == nil && len(cached) > 0 {
		return cached, nil
	}

	bars, err := p.inner.GetHistory(ctx, ticker, rng)
	if err != nil {
		return nil, err
	}
	if err := p.cache.Set(ctx, key, bars, p.fundamentalsTTL); err != nil {
		p.log.Warnw("history cache write failed", "ticker", ticker, "error", err)
	}
	return bars, nil
}
