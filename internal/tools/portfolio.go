package tools

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"plutus/internal/domain/portfolio"
	"plutus/pkg/errors"
	"plutus/pkg/logger"
)

func registerPortfolioTools(r *Registry, deps Deps) error {
	log := logger.Get().With("component", "portfolio_tools")

	refreshIndex := func(ctx context.Context) {
		if deps.Index == nil {
			return
		}
		positions, err := deps.Store.List(ctx)
		if err != nil {
			log.Warnw("index refresh skipped, cannot list positions", "error", err)
			return
		}
		if err := deps.Index.Reindex(ctx, positions); err != nil {
			log.Warnw("index refresh failed", "error", err)
		}
	}

	zero := 0.0

	specs := []struct {
		spec    Spec
		handler Handler
	}{
		{
			spec: Spec{
				Name:        "get_portfolio_summary",
				Description: "Get all positions valued at live prices, with total value and unrealized gains",
				Category:    CategoryPortfolio,
				Params:      map[string]ParamSpec{},
			},
			handler: func(ctx context.Context, args Args) (interface{}, error) {
				return deps.Analytics.Summary(ctx)
			},
		},
		{
			spec: Spec{
				Name:        "get_position_details",
				Description: "Get one held position with its current value and gain",
				Category:    CategoryPortfolio,
				Params: map[string]ParamSpec{
					"ticker": {Type: TypeString, Description: "Stock ticker symbol", Required: true},
				},
			},
			handler: func(ctx context.Context, args Args) (interface{}, error) {
				pos, err := deps.Store.Get(ctx, args.String("ticker"))
				if err != nil {
					return nil, err
				}
				quote, err := deps.Market.GetQuote(ctx, pos.Ticker)
				if err != nil {
					return nil, err
				}
				return map[string]interface{}{
					"position":        pos,
					"current_price":   quote.Price,
					"market_value":    pos.MarketValue(quote.Price),
					"unrealized_gain": pos.UnrealizedGain(quote.Price),
					"gain_pct":        pos.GainPct(quote.Price),
				}, nil
			},
		},
		{
			spec: Spec{
				Name:        "add_position",
				Description: "Buy shares: add a new position or merge into an existing one, averaging cost basis",
				Category:    CategoryPortfolio,
				Mutating:    true,
				Params: map[string]ParamSpec{
					"ticker": {Type: TypeString, Description: "Stock ticker symbol", Required: true},
					"shares": {Type: TypeNumber, Description: "Number of shares to add", Required: true, GreaterThan: &zero},
					"price":  {Type: TypeNumber, Description: "Purchase price per share", Required: true, GreaterThan: &zero},
					"date":   {Type: TypeString, Description: "Purchase date, YYYY-MM-DD, defaults to today"},
				},
			},
			handler: func(ctx context.Context, args Args) (interface{}, error) {
				purchaseDate := time.Now().UTC()
				if args.Has("date") {
					parsed, err := time.Parse("2006-01-02", args.String("date"))
					if err != nil {
						return nil, errors.Wrapf(errors.ErrInvalidInput, "invalid date %q, expected YYYY-MM-DD", args.String("date"))
					}
					purchaseDate = parsed
				}

				// Sector is looked up once at purchase time and stored
				// with the position.
				sector := ""
				if f, err := deps.Market.GetFundamentals(ctx, args.String("ticker")); err == nil {
					sector = f.Sector
				}

				pos, err := deps.Store.Add(ctx, portfolio.Position{
					Ticker:       args.String("ticker"),
					Shares:       decimal.NewFromFloat(args.Number("shares")),
					CostBasis:    decimal.NewFromFloat(args.Number("price")),
					PurchaseDate: purchaseDate,
					Sector:       sector,
				})
				if err != nil {
					return nil, err
				}

				refreshIndex(ctx)
				return pos, nil
			},
		},
		{
			spec: Spec{
				Name:        "remove_position",
				Description: "Sell shares: trim a position, or remove it entirely when shares is omitted",
				Category:    CategoryPortfolio,
				Mutating:    true,
				Params: map[string]ParamSpec{
					"ticker": {Type: TypeString, Description: "Stock ticker symbol", Required: true},
					"shares": {Type: TypeNumber, Description: "Shares to sell; omit to close the position", GreaterThan: &zero},
				},
			},
			handler: func(ctx context.Context, args Args) (interface{}, error) {
				shares := decimal.Zero
				if args.Has("shares") {
					shares = decimal.NewFromFloat(args.Number("shares"))
				}

				remaining, err := deps.Store.Remove(ctx, args.String("ticker"), shares)
				if err != nil {
					return nil, err
				}

				refreshIndex(ctx)
				if remaining == nil {
					return map[string]interface{}{"ticker": args.String("ticker"), "closed": true}, nil
				}
				return remaining, nil
			},
		},
		{
			spec: Spec{
				Name:        "get_sector_exposure",
				Description: "Get the portfolio's allocation to one sector",
				Category:    CategoryPortfolio,
				Params: map[string]ParamSpec{
					"sector": {Type: TypeString, Description: "Sector name, e.g. Technology", Required: true},
				},
			},
			handler: func(ctx context.Context, args Args) (interface{}, error) {
				return deps.Analytics.SectorExposure(ctx, args.String("sector"))
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
