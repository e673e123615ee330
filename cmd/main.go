package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"

	"plutus/internal/adapters/ai"
	"plutus/internal/adapters/config"
	"plutus/internal/adapters/embeddings"
	"plutus/internal/adapters/errors/noop"
	"plutus/internal/adapters/errors/sentry"
	"plutus/internal/adapters/postgres"
	"plutus/internal/adapters/redis"
	"plutus/internal/agent"
	"plutus/internal/analysis"
	"plutus/internal/domain/portfolio"
	"plutus/internal/marketdata"
	"plutus/internal/metrics"
	"plutus/internal/semindex"
	"plutus/internal/tools"
	"plutus/pkg/errors"
	"plutus/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer logger.Sync()

	log := logger.Get()
	log.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Env)

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	errorTracker := initErrorTracker(cfg, log)
	logger.SetErrorTracker(errorTracker)

	metrics.Init()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.App.MetricsAddr != "" {
		go serveMetrics(cfg.App.MetricsAddr, log)
	}

	providers, err := ai.BuildRegistry(cfg.AI)
	if err != nil {
		log.Fatalf("Failed to set up AI providers: %v", err)
	}
	provider := selectProvider(ctx, providers, cfg, log)
	log.Infow("AI provider ready", "provider", provider.Name(), "model", cfg.Agent.Model)

	market := initMarketData(cfg, log)
	store := portfolio.NewFileStore(cfg.Portfolio.FilePath)
	index := initSemanticIndex(ctx, cfg, log)

	registry, err := tools.NewCatalog(tools.Deps{
		Market:    market,
		Store:     store,
		Index:     index,
		Analyzer:  analysis.NewStockAnalyzer(market, store),
		Analytics: analysis.NewAnalytics(market, store),
	})
	if err != nil {
		log.Fatalf("Failed to build tool catalog: %v", err)
	}
	log.Infow("Tool catalog ready", "tools", len(registry.Specs()))

	dispatcher := tools.NewDispatcher(registry, cfg.Agent.ToolTimeout)
	loop := agent.NewLoop(provider, registry, dispatcher, cfg.Agent)

	repl := newREPL(loop, dispatcher, providers, log)
	repl.run(ctx)

	if err := errorTracker.Flush(context.Background()); err != nil {
		log.Warnf("Failed to flush error tracker: %v", err)
	}
	log.Info("Shutdown complete")
}

// selectProvider picks the provider that serves the configured model. When
// no registered provider knows the model, the default provider is used and
// the model name is passed through as-is.
func selectProvider(ctx context.Context, providers *ai.ProviderRegistry, cfg *config.Config, log *logger.Logger) ai.ChatProvider {
	provider, err := providers.ResolveModel(ctx, cfg.Agent.Model)
	if err == nil {
		return provider
	}
	log.Warnw("configured model not in any provider catalog, using default provider",
		"model", cfg.Agent.Model, "error", err)

	provider, err = ai.DefaultProvider(providers, cfg.AI)
	if err != nil {
		log.Fatalf("Failed to select AI provider: %v", err)
	}
	return provider
}

// serveMetrics exposes the Prometheus endpoint on its own listener.
func serveMetrics(addr string, log *logger.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	log.Infow("Metrics endpoint listening", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Warnf("Metrics endpoint stopped: %v", err)
	}
}

// initErrorTracker initializes error tracking (Sentry or no-op)
func initErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return noop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.App.Env)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return noop.New()
	}

	log.Info("Error tracking initialized (Sentry)")
	return tracker
}

// initMarketData builds the Yahoo provider, wrapped in the Redis cache when
// Redis is reachable. A missing cache degrades to direct fetches.
func initMarketData(cfg *config.Config, log *logger.Logger) marketdata.Provider {
	yahoo := marketdata.NewYahooProvider(cfg.MarketData.ReqPerMinute)

	cache, err := redis.NewClient(cfg.Redis)
	if err != nil {
		log.Warnf("Redis unavailable, market data will not be cached: %v", err)
		return yahoo
	}

	log.Info("Market data cache ready (Redis)")
	return marketdata.NewCachedProvider(yahoo, cache, cfg.MarketData.QuoteTTL, cfg.MarketData.FundamentalsTTL)
}

// initSemanticIndex builds the pgvector index when Postgres and an OpenAI
// key are both available. Without it the semantic search tools report a
// collaborator failure instead of crashing the session.
func initSemanticIndex(ctx context.Context, cfg *config.Config, log *logger.Logger) semindex.Index {
	if cfg.AI.OpenAIKey == "" {
		log.Warn("No OpenAI key, semantic search disabled")
		return nil
	}

	pg, err := postgres.NewClient(cfg.Postgres)
	if err != nil {
		log.Warnf("Postgres unavailable, semantic search disabled: %v", err)
		return nil
	}

	embedder, err := embeddings.NewOpenAIProvider(cfg.AI.OpenAIKey, cfg.AI.EmbeddingModel, cfg.AI.RequestTimeout)
	if err != nil {
		log.Warnf("Embedding provider unavailable, semantic search disabled: %v", err)
		return nil
	}

	index := semindex.NewPostgresIndex(pg.DB(), embedder)
	if err := index.EnsureSchema(ctx); err != nil {
		log.Warnf("Failed to prepare embedding schema, semantic search disabled: %v", err)
		return nil
	}

	log.Info("Semantic index ready (pgvector)")
	return index
}
