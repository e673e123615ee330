package analysis

import (
	"context"
	"sort"

	"plutus/internal/domain/advice"
	"plutus/internal/domain/portfolio"
	"plutus/internal/domain/signal"
	"plutus/internal/marketdata"
	"plutus/internal/metrics"
	"plutus/pkg/errors"
	"plutus/pkg/logger"
)

// StockAnalysis is the full signal picture for one ticker.
type StockAnalysis struct {
	Ticker       string                   `json:"ticker"`
	Quote        *marketdata.Quote        `json:"quote"`
	Fundamentals *marketdata.Fundamentals `json:"fundamentals"`
	Signals      []signal.Signal          `json:"signals"`
	Held         bool                     `json:"held"`
}

// Comparison ranks one ticker within a compare_stocks call.
type Comparison struct {
	Ticker string        `json:"ticker"`
	Action advice.Action `json:"action"`
	Score  int           `json:"score"` // positive minus negative signal count
}

// StockAnalyzer gathers market data and portfolio context, runs the signal
// providers, and feeds the recommendation engine.
type StockAnalyzer struct {
	market    marketdata.Provider
	store     portfolio.Store
	analytics *Analytics
	providers []SignalProvider
	log       *logger.Logger
}

// NewStockAnalyzer creates an analyzer with the default provider set.
func NewStockAnalyzer(market marketdata.Provider, store portfolio.Store) *StockAnalyzer {
	return &StockAnalyzer{
		market:    market,
		store:     store,
		analytics: NewAnalytics(market, store),
		providers: DefaultProviders(),
		log:       logger.Get().With("component", "stock_analyzer"),
	}
}

// Analyze computes the full signal set for a ticker.
func (a *StockAnalyzer) Analyze(ctx context.Context, ticker string) (*StockAnalysis, error) {
	quote, err := a.market.GetQuote(ctx, ticker)
	if err != nil {
		return nil, err
	}

	fundamentals, err := a.market.GetFundamentals(ctx, ticker)
	if err != nil {
		return nil, err
	}

	// History powers only the momentum signal; its absence degrades the
	// analysis instead of failing it.
	history, err := a.market.GetHistory(ctx, ticker, marketdata.Range1Y)
	if err != nil {
		a.log.Warnw("history unavailable, momentum signal skipped", "ticker", ticker, "error", err)
		history = nil
	}

	var held *portfolio.Position
	pos, err := a.store.Get(ctx, ticker)
	switch {
	case err == nil:
		held = pos
	case errors.Is(err, errors.ErrNotFound):
		// not held
	default:
		return nil, err
	}

	allocation, err := a.analytics.AllocationPct(ctx)
	if err != nil {
		a.log.Warnw("sector allocation unavailable", "error", err)
		allocation = nil
	}

	in := Inputs{
		Ticker:           quote.Ticker,
		Quote:            quote,
		Fundamentals:     fundamentals,
		History:          history,
		SectorAllocation: allocation,
		Held:             held,
	}

	signals := make([]signal.Signal, 0, len(a.providers))
	for _, provider := range a.providers {
		s, err := provider.Compute(in)
		if err != nil {
			return nil, errors.Wrapf(err, "provider %s", provider.Name())
		}
		if s != nil {
			signals = append(signals, *s)
		}
	}

	return &StockAnalysis{
		Ticker:       quote.Ticker,
		Quote:        quote,
		Fundamentals: fundamentals,
		Signals:      signals,
		Held:         held != nil,
	}, nil
}

// Recommend analyzes a ticker and scores it through the decision table.
func (a *StockAnalyzer) Recommend(ctx context.Context, ticker string) (*advice.Recommendation, error) {
	analysis, err := a.Analyze(ctx, ticker)
	if err != nil {
		return nil, err
	}

	rec, err := Recommend(analysis.Ticker, analysis.Signals, analysis.Held)
	if err != nil {
		return nil, err
	}

	metrics.RecommendationsTotal.WithLabelValues(string(rec.Action)).Inc()
	a.log.Infow("recommendation issued",
		"ticker", rec.Ticker,
		"action", rec.Action,
		"signal_ratio", rec.SignalRatio,
		"negative_signals", rec.NegativeSignalCount)
	return rec, nil
}

// Compare recommends every ticker and ranks them by positive minus negative
// signal count, ties broken by ticker for determinism.
func (a *StockAnalyzer) Compare(ctx context.Context, tickers []string) ([]Comparison, error) {
	if len(tickers) < 2 {
		return nil, errors.Wrap(errors.ErrInvalidInput, "compare requires at least two tickers")
	}

	comparisons := make([]Comparison, 0, len(tickers))
	for _, ticker := range tickers {
		analysis, err := a.Analyze(ctx, ticker)
		if err != nil {
			return nil, errors.Wrapf(err, "analyze %s", ticker)
		}

		rec, err := Recommend(analysis.Ticker, analysis.Signals, analysis.Held)
		if err != nil {
			return nil, err
		}

		positives := 0
		for _, s := range analysis.Signals {
			if s.Direction == signal.DirectionPositive {
				positives++
			}
		}

		comparisons = append(comparisons, Comparison{
			Ticker: analysis.Ticker,
			Action: rec.Action,
			Score:  positives - rec.NegativeSignalCount,
		})
	}

	sort.Slice(comparisons, func(i, j int) bool {
		if comparisons[i].Score != comparisons[j].Score {
			return comparisons[i].Score > comparisons[j].Score
		}
		return comparisons[i].Ticker < comparisons[j].Ticker
	})
	return comparisons, nil
}
