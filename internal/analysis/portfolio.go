package analysis

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"plutus/internal/domain/portfolio"
	"plutus/internal/marketdata"
	"plutus/pkg/errors"
	"plutus/pkg/logger"
)

// Diversification scoring weights: position count up to 40 points, sector
// spread up to 30, concentration up to 30.
const (
	diversificationStocks = 10
	majorSectors          = 8
	positionOverweightPct = 25.0
)

// PositionDetail is one holding valued at the live quote.
type PositionDetail struct {
	Ticker         string          `json:"ticker"`
	Shares         decimal.Decimal `json:"shares"`
	CostBasis      decimal.Decimal `json:"cost_basis"`
	CurrentPrice   decimal.Decimal `json:"current_price"`
	MarketValue    decimal.Decimal `json:"market_value"`
	UnrealizedGain decimal.Decimal `json:"unrealized_gain"`
	GainPct        decimal.Decimal `json:"gain_pct"`
	Sector         string          `json:"sector"`
	HoldingDays    int             `json:"holding_days"`
}

// Summary is the whole portfolio valued at live quotes.
type Summary struct {
	TotalValue   decimal.Decimal  `json:"total_value"`
	TotalCost    decimal.Decimal  `json:"total_cost"`
	TotalGain    decimal.Decimal  `json:"total_gain"`
	TotalGainPct decimal.Decimal  `json:"total_gain_pct"`
	Positions    []PositionDetail `json:"positions"`
}

// SectorStat aggregates one sector's share of the portfolio.
type SectorStat struct {
	Value      decimal.Decimal `json:"value"`
	Percentage float64         `json:"percentage"`
	Tickers    []string        `json:"tickers"`
}

// Metrics is the portfolio health report.
type Metrics struct {
	TotalValue           decimal.Decimal       `json:"total_value"`
	TotalPositions       int                   `json:"total_positions"`
	TotalSectors         int                   `json:"total_sectors"`
	DiversificationScore float64               `json:"diversification_score"`
	SectorAllocation     map[string]SectorStat `json:"sector_allocation"`
	ConcentrationRisks   []string              `json:"concentration_risks"`
	WellDiversified      bool                  `json:"well_diversified"`
}

// SectorExposure reports the portfolio's weight in one sector.
type SectorExposure struct {
	Sector       string          `json:"sector"`
	Value        decimal.Decimal `json:"value"`
	Percentage   float64         `json:"percentage"`
	Tickers      []string        `json:"tickers"`
	IsOverweight bool            `json:"is_overweight"`
}

// Analytics values the portfolio and computes diversification metrics.
type Analytics struct {
	market marketdata.Provider
	store  portfolio.Store
	log    *logger.Logger
}

// NewAnalytics creates a portfolio analytics service.
func NewAnalytics(market marketdata.Provider, store portfolio.Store) *Analytics {
	return &Analytics{
		market: market,
		store:  store,
		log:    logger.Get().With("component", "portfolio_analytics"),
	}
}

// Summary values every position at its live quote. Positions whose quote
// cannot be fetched are skipped with a warning rather than failing the
// whole summary.
func (a *Analytics) Summary(ctx context.Context) (*Summary, error) {
	positions, err := a.store.List(ctx)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		TotalValue: decimal.Zero,
		TotalCost:  decimal.Zero,
		Positions:  make([]PositionDetail, 0, len(positions)),
	}

	for _, p := range positions {
		q, err := a.market.GetQuote(ctx, p.Ticker)
		if err != nil {
			a.log.Warnw("skipping position without quote", "ticker", p.Ticker, "error", err)
			continue
		}

		detail := PositionDetail{
			Ticker:         p.Ticker,
			Shares:         p.Shares,
			CostBasis:      p.CostBasis,
			CurrentPrice:   q.Price,
			MarketValue:    p.MarketValue(q.Price),
			UnrealizedGain: p.UnrealizedGain(q.Price),
			GainPct:        p.GainPct(q.Price),
			Sector:         sectorOf(p),
			HoldingDays:    int(time.Since(p.PurchaseDate).Hours() / 24),
		}

		summary.TotalValue = summary.TotalValue.Add(detail.MarketValue)
		summary.TotalCost = summary.TotalCost.Add(p.CostValue())
		summary.Positions = append(summary.Positions, detail)
	}

	summary.TotalGain = summary.TotalValue.Sub(summary.TotalCost)
	if summary.TotalCost.IsPositive() {
		summary.TotalGainPct = summary.TotalGain.Div(summary.TotalCost).Mul(decimal.NewFromInt(100))
	}
	return summary, nil
}

// Metrics computes sector allocation, diversification score and
// concentration risks.
func (a *Analytics) Metrics(ctx context.Context) (*Metrics, error) {
	summary, err := a.Summary(ctx)
	if err != nil {
		return nil, err
	}
	if len(summary.Positions) == 0 {
		return nil, errors.Wrap(errors.ErrNotFound, "portfolio is empty")
	}

	sectorValues := make(map[string]decimal.Decimal)
	sectorTickers := make(map[string][]string)
	maxPositionPct := 0.0

	for _, d := range summary.Positions {
		sectorValues[d.Sector] = sectorValues[d.Sector].Add(d.MarketValue)
		sectorTickers[d.Sector] = append(sectorTickers[d.Sector], d.Ticker)

		if summary.TotalValue.IsPositive() {
			pct, _ := d.MarketValue.Div(summary.TotalValue).Mul(decimal.NewFromInt(100)).Float64()
			if pct > maxPositionPct {
				maxPositionPct = pct
			}
		}
	}

	allocation := make(map[string]SectorStat, len(sectorValues))
	for sector, value := range sectorValues {
		pct := 0.0
		if summary.TotalValue.IsPositive() {
			pct, _ = value.Div(summary.TotalValue).Mul(decimal.NewFromInt(100)).Float64()
		}
		tickers := sectorTickers[sector]
		sort.Strings(tickers)
		allocation[sector] = SectorStat{Value: value, Percentage: pct, Tickers: tickers}
	}

	score := DiversificationScore(len(summary.Positions), len(sectorValues), maxPositionPct)
	risks := concentrationRisks(summary, allocation)

	return &Metrics{
		TotalValue:           summary.TotalValue,
		TotalPositions:       len(summary.Positions),
		TotalSectors:         len(sectorValues),
		DiversificationScore: score,
		SectorAllocation:     allocation,
		ConcentrationRisks:   risks,
		WellDiversified:      score >= 60 && len(risks) == 0,
	}, nil
}

// SectorExposure reports the portfolio's weight in the given sector.
func (a *Analytics) SectorExposure(ctx context.Context, sector string) (*SectorExposure, error) {
	m, err := a.Metrics(ctx)
	if err != nil {
		return nil, err
	}

	stat, ok := m.SectorAllocation[sector]
	if !ok {
		return &SectorExposure{Sector: sector, Value: decimal.Zero}, nil
	}

	return &SectorExposure{
		Sector:       sector,
		Value:        stat.Value,
		Percentage:   stat.Percentage,
		Tickers:      stat.Tickers,
		IsOverweight: stat.Percentage > sectorOverweightPct,
	}, nil
}

// AllocationPct returns sector -> percentage of portfolio value. An empty
// portfolio yields an empty map, not an error.
func (a *Analytics) AllocationPct(ctx context.Context) (map[string]float64, error) {
	summary, err := a.Summary(ctx)
	if err != nil {
		return nil, err
	}

	sectorValues := make(map[string]decimal.Decimal)
	for _, d := range summary.Positions {
		sectorValues[d.Sector] = sectorValues[d.Sector].Add(d.MarketValue)
	}
	return allocationFromValues(sectorValues, summary.TotalValue), nil
}

// DiversificationScore maps portfolio shape to [0,100].
func DiversificationScore(numPositions, numSectors int, maxPositionPct float64) float64 {
	positionScore := float64(numPositions) / diversificationStocks * 40
	if positionScore > 40 {
		positionScore = 40
	}

	sectorScore := float64(numSectors) / majorSectors * 30
	if sectorScore > 30 {
		sectorScore = 30
	}

	// Penalize any single position above 10% of value
	concentrationScore := 30 - (maxPositionPct-10)*2
	if concentrationScore > 30 {
		concentrationScore = 30
	}
	if concentrationScore < 0 {
		concentrationScore = 0
	}

	return positionScore + sectorScore + concentrationScore
}

func concentrationRisks(summary *Summary, allocation map[string]SectorStat) []string {
	var risks []string

	if len(summary.Positions) < 5 {
		risks = append(risks, "Too few positions (< 5)")
	}

	sectors := make([]string, 0, len(allocation))
	for sector := range allocation {
		sectors = append(sectors, sector)
	}
	sort.Strings(sectors)
	for _, sector := range sectors {
		if allocation[sector].Percentage > sectorOverweightPct {
			risks = append(risks, fmt.Sprintf("%s sector overweight (%.1f%%)", sector, allocation[sector].Percentage))
		}
	}

	if summary.TotalValue.IsPositive() {
		for _, d := range summary.Positions {
			pct, _ := d.MarketValue.Div(summary.TotalValue).Mul(decimal.NewFromInt(100)).Float64()
			if pct > positionOverweightPct {
				risks = append(risks, fmt.Sprintf("%s position overweight (%.1f%%)", d.Ticker, pct))
			}
		}
	}

	return risks
}
