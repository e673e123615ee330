package marketdata

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"plutus/pkg/errors"
)

// Quote is a point-in-time market snapshot for one ticker.
type Quote struct {
	Ticker      string          `json:"ticker"`
	Price       decimal.Decimal `json:"price"`
	Change      decimal.Decimal `json:"change"`
	ChangePct   decimal.Decimal `json:"change_pct"`
	DayHigh     decimal.Decimal `json:"day_high"`
	DayLow      decimal.Decimal `json:"day_low"`
	Volume      int64           `json:"volume"`
	MarketCap   int64           `json:"market_cap"`
	Currency    string          `json:"currency"`
	ShortName   string          `json:"short_name"`
	RetrievedAt time.Time       `json:"retrieved_at"`
}

// Fundamentals holds valuation and profile data for one ticker. Metric
// pointers are nil when Yahoo does not report the value.
type Fundamentals struct {
	Ticker        string   `json:"ticker"`
	Sector        string   `json:"sector"`
	Industry      string   `json:"industry"`
	PERatio       *float64 `json:"pe_ratio"`
	EPS           *float64 `json:"eps"`
	Beta          *float64 `json:"beta"`
	RevenueGrowth *float64 `json:"revenue_growth"` // fraction, 0.15 = 15%
	DebtToEquity  *float64 `json:"debt_to_equity"` // percentage as Yahoo reports it
	ProfitMargin  *float64 `json:"profit_margin"`
	MarketCap     int64    `json:"market_cap"`
}

// NewsItem is one published headline about a ticker.
type NewsItem struct {
	Title       string    `json:"title"`
	Publisher   string    `json:"publisher"`
	Link        string    `json:"link"`
	PublishedAt time.Time `json:"published_at"`
}

// Bar is one daily close in a price history.
type Bar struct {
	Date  time.Time       `json:"date"`
	Close decimal.Decimal `json:"close"`
}

// Range is a supported history window.
type Range string

const (
	Range1Mo Range = "1mo"
	Range3Mo Range = "3mo"
	Range6Mo Range = "6mo"
	Range1Y  Range = "1y"
	Range2Y  Range = "2y"
)

// Ranges lists the supported history windows in ascending order.
func Ranges() []Range {
	return []Range{Range1Mo, Range3Mo, Range6Mo, Range1Y, Range2Y}
}

// ParseRange validates a history range string.
func ParseRange(s string) (Range, error) {
	for _, r := range Ranges() {
		if string(r) == s {
			return r, nil
		}
	}
	return "", errors.Wrapf(errors.ErrInvalidInput, "unsupported history range %q", s)
}

// Duration returns the calendar span covered by the range.
func (r Range) Duration() time.Duration {
	switch r {
	case Range1Mo:
		return 30 * 24 * time.Hour
	case Range3Mo:
		return 91 * 24 * time.Hour
	case Range6Mo:
		return 182 * 24 * time.Hour
	case Range1Y:
		return 365 * 24 * time.Hour
	case Range2Y:
		return 2 * 365 * 24 * time.Hour
	default:
		return 365 * 24 * time.Hour
	}
}

// Provider fetches market data for stock tickers. Unknown tickers map to
// ErrNotFound.
type Provider interface {
	GetQuote(ctx context.Context, ticker string) (*Quote, error)
	GetFundamentals(ctx context.Context, ticker string) (*Fundamentals, error)
	GetHistory(ctx context.Context, ticker string, rng Range) ([]Bar, error)
	GetNews(ctx context.Context, ticker string, maxItems int) ([]NewsItem, error)
}
