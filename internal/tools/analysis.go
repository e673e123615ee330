package tools

import (
	"context"
)

func registerAnalysisTools(r *Registry, deps Deps) error {
	specs := []struct {
		spec    Spec
		handler Handler
	}{
		{
			spec: Spec{
				Name:        "analyze_stock",
				Description: "Compute the full signal set (valuation, growth, momentum, risk, portfolio fit) for a stock",
				Category:    CategoryAnalysis,
				Params: map[string]ParamSpec{
					"ticker": {Type: TypeString, Description: "Stock ticker symbol", Required: true},
				},
			},
			handler: func(ctx context.Context, args Args) (interface{}, error) {
				return deps.Analyzer.Analyze(ctx, args.String("ticker"))
			},
		},
		{
			spec: Spec{
				Name:        "recommend_action",
				Description: "Produce a strong_buy/buy/hold/sell/pass recommendation for a stock with reasoning",
				Category:    CategoryAnalysis,
				Params: map[string]ParamSpec{
					"ticker": {Type: TypeString, Description: "Stock ticker symbol", Required: true},
				},
			},
			handler: func(ctx context.Context, args Args) (interface{}, error) {
				return deps.Analyzer.Recommend(ctx, args.String("ticker"))
			},
		},
		{
			spec: Spec{
				Name:        "calculate_portfolio_metrics",
				Description: "Compute diversification score, sector allocation and concentration risks",
				Category:    CategoryAnalysis,
				Params:      map[string]ParamSpec{},
			},
			handler: func(ctx context.Context, args Args) (interface{}, error) {
				return deps.Analytics.Metrics(ctx)
			},
		},
		{
			spec: Spec{
				Name:        "compare_stocks",
				Description: "Analyze several stocks and rank them best to worst",
				Category:    CategoryAnalysis,
				Params: map[string]ParamSpec{
					"tickers": {Type: TypeArray, Description: "Ticker symbols to compare", Required: true, MinItems: 2},
				},
			},
			handler: func(ctx context.Context, args Args) (interface{}, error) {
				return deps.Analyzer.Compare(ctx, args.StringSlice("tickers"))
			},
		},
	}

	for _, s := range specs {
		if err := r.Register(s.spec, s.handler); err != nil {
			return err
		}
	}
	return nil
}
