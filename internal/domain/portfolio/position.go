package portfolio

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position is one held quantity of a ticker with cost basis and purchase
// metadata.
type Position struct {
	Ticker       string          `json:"ticker"`
	Shares       decimal.Decimal `json:"shares"`
	CostBasis    decimal.Decimal `json:"cost_basis"` // per-share purchase price
	PurchaseDate time.Time       `json:"purchase_date"`
	Sector       string          `json:"sector,omitempty"`
}

// MarketValue returns shares x current price.
func (p Position) MarketValue(current decimal.Decimal) decimal.Decimal {
	return p.Shares.Mul(current)
}

// CostValue returns shares x cost basis.
func (p Position) CostValue() decimal.Decimal {
	return p.Shares.Mul(p.CostBasis)
}

// UnrealizedGain returns (current - cost_basis) x shares.
func (p Position) UnrealizedGain(current decimal.Decimal) decimal.Decimal {
	return current.Sub(p.CostBasis).Mul(p.Shares)
}

// GainPct returns the unrealized gain as a percentage of cost.
// Zero cost basis yields zero rather than dividing.
func (p Position) GainPct(current decimal.Decimal) decimal.Decimal {
	if p.CostBasis.IsZero() {
		return decimal.Zero
	}
	return current.Sub(p.CostBasis).Div(p.CostBasis).Mul(decimal.NewFromInt(100))
}
