package analysis

import (
	"fmt"

	"github.com/markcheno/go-talib"
	"github.com/shopspring/decimal"

	"plutus/internal/domain/portfolio"
	"plutus/internal/domain/signal"
	"plutus/internal/marketdata"
)

// Valuation and risk thresholds, matched to the advisor's product rules.
const (
	valuePE              = 15.0
	overvaluedPE         = 30.0
	highGrowthPct        = 20.0
	moderateGrowthPct    = 10.0
	strongMomentumPct    = 30.0
	positiveMomentumPct  = 10.0
	negativeMomentumPct  = -10.0
	highBeta             = 1.5
	highDebtToEquity     = 2.0
	sectorOverweightPct  = 40.0
	sectorUnderweightPct = 20.0
	strongGainPct        = 50.0
	significantLossPct   = -20.0
)

// Inputs carries everything a signal provider may consult. Providers read
// only from it and never mutate it.
type Inputs struct {
	Ticker           string
	Quote            *marketdata.Quote
	Fundamentals     *marketdata.Fundamentals
	History          []marketdata.Bar
	SectorAllocation map[string]float64 // sector -> pct of portfolio value
	Held             *portfolio.Position
}

// SignalProvider computes one named signal from upstream data. Stateless
// and side-effect-free. A nil signal with nil error means the provider has
// nothing to say for this input (e.g. missing metric).
type SignalProvider interface {
	Name() string
	Compute(in Inputs) (*signal.Signal, error)
}

// DefaultProviders returns the full provider set in evaluation order.
func DefaultProviders() []SignalProvider {
	return []SignalProvider{
		ValuationProvider{},
		GrowthProvider{},
		MomentumProvider{},
		RiskProvider{},
		SectorExposureProvider{},
		PositionContextProvider{},
	}
}

// ValuationProvider scores the trailing P/E ratio.
type ValuationProvider struct{}

func (ValuationProvider) Name() string { return "valuation_signal" }

func (ValuationProvider) Compute(in Inputs) (*signal.Signal, error) {
	if in.Fundamentals == nil || in.Fundamentals.PERatio == nil {
		return nil, nil
	}
	pe := *in.Fundamentals.PERatio

	switch {
	case pe < valuePE:
		s, err := signal.New("valuation_signal", signal.DirectionPositive, 0.8,
			fmt.Sprintf("Value pricing with P/E of %.2f", pe))
		return ptrOrErr(s, err)
	case pe > overvaluedPE:
		s, err := signal.New("valuation_signal", signal.DirectionNegative, 0.7,
			fmt.Sprintf("Premium valuation with P/E of %.2f", pe))
		return ptrOrErr(s, err)
	default:
		s, err := signal.New("valuation_signal", signal.DirectionPositive, 0.4,
			fmt.Sprintf("Fair valuation with P/E of %.2f", pe))
		return ptrOrErr(s, err)
	}
}

// GrowthProvider scores trailing revenue growth.
type GrowthProvider struct{}

func (GrowthProvider) Name() string { return "growth_signal" }

func (GrowthProvider) Compute(in Inputs) (*signal.Signal, error) {
	if in.Fundamentals == nil || in.Fundamentals.RevenueGrowth == nil {
		return nil, nil
	}
	growthPct := *in.Fundamentals.RevenueGrowth * 100

	switch {
	case growthPct > highGrowthPct:
		s, err := signal.New("growth_signal", signal.DirectionPositive, 0.8,
			fmt.Sprintf("High growth: %.1f%% revenue growth", growthPct))
		return ptrOrErr(s, err)
	case growthPct > moderateGrowthPct:
		s, err := signal.New("growth_signal", signal.DirectionPositive, 0.6,
			fmt.Sprintf("Moderate growth: %.1f%% revenue growth", growthPct))
		return ptrOrErr(s, err)
	case growthPct > 0:
		s, err := signal.New("growth_signal", signal.DirectionNeutral, 0.3,
			fmt.Sprintf("Low growth: %.1f%% revenue growth", growthPct))
		return ptrOrErr(s, err)
	default:
		s, err := signal.New("growth_signal", signal.DirectionNegative, 0.7,
			fmt.Sprintf("Declining revenues: %.1f%%", growthPct))
		return ptrOrErr(s, err)
	}
}

// MomentumProvider scores the trailing price return computed with talib's
// rate-of-change over the full history window.
type MomentumProvider struct{}

func (MomentumProvider) Name() string { return "momentum_signal" }

func (MomentumProvider) Compute(in Inputs) (*signal.Signal, error) {
	if len(in.History) < 2 {
		return nil, nil
	}

	closes := make([]float64, len(in.History))
	for i, bar := range in.History {
		closes[i], _ = bar.Close.Float64()
	}

	roc := talib.Roc(closes, len(closes)-1)
	returnPct := roc[len(roc)-1]

	switch {
	case returnPct > strongMomentumPct:
		s, err := signal.New("momentum_signal", signal.DirectionPositive, 0.9,
			fmt.Sprintf("Strong positive momentum (+%.1f%% over period)", returnPct))
		return ptrOrErr(s, err)
	case returnPct > positiveMomentumPct:
		s, err := signal.New("momentum_signal", signal.DirectionPositive, 0.6,
			fmt.Sprintf("Positive momentum (+%.1f%% over period)", returnPct))
		return ptrOrErr(s, err)
	case returnPct > negativeMomentumPct:
		s, err := signal.New("momentum_signal", signal.DirectionNeutral, 0.2,
			fmt.Sprintf("Flat momentum (%.1f%% over period)", returnPct))
		return ptrOrErr(s, err)
	default:
		s, err := signal.New("momentum_signal", signal.DirectionNegative, 0.7,
			fmt.Sprintf("Negative momentum (%.1f%% over period)", returnPct))
		return ptrOrErr(s, err)
	}
}

// RiskProvider scores volatility (beta) and leverage (debt/equity).
type RiskProvider struct{}

func (RiskProvider) Name() string { return "risk_signal" }

func (RiskProvider) Compute(in Inputs) (*signal.Signal, error) {
	if in.Fundamentals == nil {
		return nil, nil
	}

	var factors []string
	metrics := 0

	if in.Fundamentals.Beta != nil {
		metrics++
		if *in.Fundamentals.Beta > highBeta {
			factors = append(factors, fmt.Sprintf("high volatility (beta %.2f)", *in.Fundamentals.Beta))
		}
	}
	if in.Fundamentals.DebtToEquity != nil {
		metrics++
		de := *in.Fundamentals.DebtToEquity
		// Yahoo reports debt/equity as a percentage
		if de > 10 {
			de = de / 100
		}
		if de > highDebtToEquity {
			factors = append(factors, fmt.Sprintf("high financial leverage (D/E %.2f)", de))
		}
	}

	if metrics == 0 {
		return nil, nil
	}

	switch {
	case len(factors) >= 2:
		s, err := signal.New("risk_signal", signal.DirectionNegative, 0.8,
			"High risk: "+factors[0]+", "+factors[1])
		return ptrOrErr(s, err)
	case len(factors) == 1:
		s, err := signal.New("risk_signal", signal.DirectionNeutral, 0.4,
			"Moderate risk: "+factors[0])
		return ptrOrErr(s, err)
	default:
		s, err := signal.New("risk_signal", signal.DirectionPositive, 0.5,
			"Low risk profile")
		return ptrOrErr(s, err)
	}
}

// SectorExposureProvider scores the candidate against current portfolio
// sector weights.
type SectorExposureProvider struct{}

func (SectorExposureProvider) Name() string { return "sector_exposure_signal" }

func (SectorExposureProvider) Compute(in Inputs) (*signal.Signal, error) {
	if in.Fundamentals == nil || in.Fundamentals.Sector == "" || len(in.SectorAllocation) == 0 {
		return nil, nil
	}

	pct, ok := in.SectorAllocation[in.Fundamentals.Sector]
	if !ok {
		return nil, nil
	}

	switch {
	case pct > sectorOverweightPct:
		s, err := signal.New("sector_exposure_signal", signal.DirectionNegative, 0.6,
			fmt.Sprintf("%s sector overweight in portfolio (%.1f%%)", in.Fundamentals.Sector, pct))
		return ptrOrErr(s, err)
	case pct < sectorUnderweightPct:
		s, err := signal.New("sector_exposure_signal", signal.DirectionPositive, 0.5,
			fmt.Sprintf("%s sector underweight in portfolio (%.1f%%)", in.Fundamentals.Sector, pct))
		return ptrOrErr(s, err)
	default:
		s, err := signal.New("sector_exposure_signal", signal.DirectionNeutral, 0.3,
			fmt.Sprintf("%s sector exposure balanced (%.1f%%)", in.Fundamentals.Sector, pct))
		return ptrOrErr(s, err)
	}
}

// PositionContextProvider adds evidence about an existing position. Always
// neutral: it informs reasoning without moving the buy-side ratio.
type PositionContextProvider struct{}

func (PositionContextProvider) Name() string { return "position_context_signal" }

func (PositionContextProvider) Compute(in Inputs) (*signal.Signal, error) {
	if in.Held == nil || in.Quote == nil {
		return nil, nil
	}

	gainPct, _ := in.Held.GainPct(in.Quote.Price).Float64()

	switch {
	case gainPct > strongGainPct:
		s, err := signal.New("position_context_signal", signal.DirectionNeutral, 0.5,
			fmt.Sprintf("Strong gain on existing position (+%.1f%%), consider taking profits", gainPct))
		return ptrOrErr(s, err)
	case gainPct < significantLossPct:
		s, err := signal.New("position_context_signal", signal.DirectionNeutral, 0.5,
			fmt.Sprintf("Significant loss on existing position (%.1f%%), review holding", gainPct))
		return ptrOrErr(s, err)
	default:
		shares, _ := in.Held.Shares.Float64()
		s, err := signal.New("position_context_signal", signal.DirectionNeutral, 0.2,
			fmt.Sprintf("Existing position of %.2f shares at %.1f%% unrealized", shares, gainPct))
		return ptrOrErr(s, err)
	}
}

func ptrOrErr(s signal.Signal, err error) (*signal.Signal, error) {
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// sectorOf returns a position's stored sector, defaulting to Unknown.
func sectorOf(p portfolio.Position) string {
	if p.Sector == "" {
		return "Unknown"
	}
	return p.Sector
}

// allocationFromValues converts per-sector values into percentages.
func allocationFromValues(values map[string]decimal.Decimal, total decimal.Decimal) map[string]float64 {
	out := make(map[string]float64, len(values))
	if total.IsZero() {
		return out
	}
	for sector, v := range values {
		pct, _ := v.Div(total).Mul(decimal.NewFromInt(100)).Float64()
		out[sector] = pct
	}
	return out
}
