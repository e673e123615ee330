package tools

import (
	"context"

	"plutus/internal/marketdata"
)

func registerMarketTools(r *Registry, deps Deps) error {
	rangeEnum := make([]string, 0, 5)
	for _, rng := range marketdata.Ranges() {
		rangeEnum = append(rangeEnum, string(rng))
	}

	zero := 0.0

	specs := []struct {
		spec    Spec
		handler Handler
	}{
		{
			spec: Spec{
				Name:        "get_quote",
				Description: "Get the current price, volume and market cap for a stock ticker",
				Category:    CategoryMarketData,
				Params: map[string]ParamSpec{
					"ticker": {Type: TypeString, Description: "Stock ticker symbol, e.g. AAPL", Required: true},
				},
			},
			handler: func(ctx context.Context, args Args) (interface{}, error) {
				return deps.Market.GetQuote(ctx, args.String("ticker"))
			},
		},
		{
			spec: Spec{
				Name:        "get_fundamentals",
				Description: "Get valuation metrics, sector and growth data for a stock ticker",
				Category:    CategoryMarketData,
				Params: map[string]ParamSpec{
					"ticker": {Type: TypeString, Description: "Stock ticker symbol", Required: true},
				},
			},
			handler: func(ctx context.Context, args Args) (interface{}, error) {
				return deps.Market.GetFundamentals(ctx, args.String("ticker"))
			},
		},
		{
			spec: Spec{
				Name:        "get_history",
				Description: "Get daily closing prices for a stock over a time range",
				Category:    CategoryMarketData,
				Params: map[string]ParamSpec{
					"ticker": {Type: TypeString, Description: "Stock ticker symbol", Required: true},
					"range":  {Type: TypeString, Description: "History window", Enum: rangeEnum},
				},
			},
			handler: func(ctx context.Context, args Args) (interface{}, error) {
				rng := marketdata.Range1Y
				if args.Has("range") {
					parsed, err := marketdata.ParseRange(args.String("range"))
					if err != nil {
						return nil, err
					}
					rng = parsed
				}
				return deps.Market.GetHistory(ctx, args.String("ticker"), rng)
			},
		},
		{
			spec: Spec{
				Name:        "get_stock_news",
				Description: "Get recent news headlines for a stock ticker",
				Category:    CategoryMarketData,
				Params: map[string]ParamSpec{
					"ticker":    {Type: TypeString, Description: "Stock ticker symbol", Required: true},
					"max_items": {Type: TypeInteger, Description: "Maximum headlines to return, defaults to 5", GreaterThan: &zero},
				},
			},
			handler: func(ctx context.Context, args Args) (interface{}, error) {
				items, err := deps.Market.GetNews(ctx, args.String("ticker"), args.Int("max_items"))
				if err != nil {
					return nil, err
				}
				result := map[string]interface{}{
					"ticker":     args.String("ticker"),
					"news_count": len(items),
					"news_items": items,
				}
				if len(items) == 0 {
					result["message"] = "No recent news available"
				}
				return result, nil
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
