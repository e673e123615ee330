package marketdata

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/piquette/finance-go/equity"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"plutus/pkg/errors"
	"plutus/pkg/logger"
)

const (
	quoteSummaryURL = "https://query1.finance.yahoo.com/v10/finance/quoteSummary/"
	newsSearchURL   = "https://query1.finance.yahoo.com/v1/finance/search"

	defaultNewsItems = 5
)

// YahooProvider fetches market data from Yahoo Finance. Quote, equity and
// chart endpoints go through piquette/finance-go; the profile and financial
// ratios come from the quoteSummary endpoint directly.
type YahooProvider struct {
	limiter *rate.Limiter
	client  *http.Client
	log     *logger.Logger
}

var _ Provider = (*YahooProvider)(nil)

// NewYahooProvider creates a rate-limited Yahoo Finance provider.
func NewYahooProvider(reqPerMinute float64) *YahooProvider {
	if reqPerMinute <= 0 {
		reqPerMinute = 120
	}
	return &YahooProvider{
		limiter: rate.NewLimiter(rate.Limit(reqPerMinute/60.0), 5),
		client:  &http.Client{Timeout: 15 * time.Second},
		log:     logger.Get().With("component", "yahoo_marketdata"),
	}
}

// GetQuote fetches the current market snapshot for a ticker. The equity
// endpoint is used rather than the plain quote endpoint because only the
// equity payload carries the market cap.
func (p *YahooProvider) GetQuote(ctx context.Context, ticker string) (*Quote, error) {
	ticker = normalizeTicker(ticker)
	if ticker == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "ticker cannot be empty")
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "market data rate limit wait")
	}

	eq, err := equity.Get(ticker)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrQuoteUnavailable, "fetch quote for %s: %v", ticker, err)
	}
	if eq == nil || eq.RegularMarketPrice == 0 {
		return nil, errors.Wrapf(errors.ErrNotFound, "no quote data for %s", ticker)
	}

	return quoteFromEquity(ticker, eq), nil
}

// quoteFromEquity maps a Yahoo equity snapshot onto a Quote.
func quoteFromEquity(ticker string, eq *finance.Equity) *Quote {
	return &Quote{
		Ticker:      ticker,
		Price:       decimal.NewFromFloat(eq.RegularMarketPrice),
		Change:      decimal.NewFromFloat(eq.RegularMarketChange),
		ChangePct:   decimal.NewFromFloat(eq.RegularMarketChangePercent),
		DayHigh:     decimal.NewFromFloat(eq.RegularMarketDayHigh),
		DayLow:      decimal.NewFromFloat(eq.RegularMarketDayLow),
		Volume:      int64(eq.RegularMarketVolume),
		MarketCap:   eq.MarketCap,
		Currency:    eq.CurrencyID,
		ShortName:   eq.ShortName,
		RetrievedAt: time.Now().UTC(),
	}
}

// GetFundamentals fetches valuation metrics and the company profile.
func (p *YahooProvider) GetFundamentals(ctx context.Context, ticker string) (*Fundamentals, error) {
	ticker = normalizeTicker(ticker)
	if ticker == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "ticker cannot be empty")
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "market data rate limit wait")
	}

	eq, err := equity.Get(ticker)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "fetch fundamentals for %s: %v", ticker, err)
	}

	f := &Fundamentals{
		Ticker:    ticker,
		MarketCap: eq.MarketCap,
	}
	if eq.TrailingPE != 0 {
		f.PERatio = floatPtr(eq.TrailingPE)
	}
	if eq.EpsTrailingTwelveMonths != 0 {
		f.EPS = floatPtr(eq.EpsTrailingTwelveMonths)
	}

	// Sector, beta and growth ratios are not part of the equity quote;
	// pull them from the quoteSummary profile endpoint.
	if err := p.fillProfile(ctx, ticker, f); err != nil {
		p.log.Warnw("profile fetch failed, returning partial fundamentals",
			"ticker", ticker, "error", err)
	}

	return f, nil
}

// GetHistory fetches daily closes over the given range.
func (p *YahooProvider) GetHistory(ctx context.Context, ticker string, rng Range) ([]Bar, error) {
	ticker = normalizeTicker(ticker)
	if ticker == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "ticker cannot be empty")
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "market data rate limit wait")
	}

	end := time.Now()
	start := end.Add(-rng.Duration())

	params := &chart.Params{
		Symbol:   ticker,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: datetime.OneDay,
	}

	iter := chart.Get(params)
	bars := make([]Bar, 0, 260)
	for iter.Next() {
		b := iter.Bar()
		bars = append(bars, Bar{
			Date:  time.Unix(int64(b.Timestamp), 0).UTC(),
			Close: b.Close,
		})
	}
	if err := iter.Err(); err != nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "fetch history for %s: %v", ticker, err)
	}
	if len(bars) == 0 {
		return nil, errors.Wrapf(errors.ErrNotFound, "no history data for %s", ticker)
	}

	return bars, nil
}

// news search response shape. Publish times are unix seconds.
type ynResponse struct {
	News []ynArticle `json:"news"`
}

type ynArticle struct {
	Title               string `json:"title"`
	Publisher           string `json:"publisher"`
	Link                string `json:"link"`
	ProviderPublishTime int64  `json:"providerPublishTime"`
}

// GetNews fetches recent headlines for a ticker. No headlines is not an
// error; the result is simply empty.
func (p *YahooProvider) GetNews(ctx context.Context, ticker string, maxItems int) ([]NewsItem, error) {
	ticker = normalizeTicker(ticker)
	if ticker == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "ticker cannot be empty")
	}
	if maxItems <= 0 {
		maxItems = defaultNewsItems
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "market data rate limit wait")
	}

	u := newsSearchURL + "?q=" + url.QueryEscape(ticker) +
		"&quotesCount=0&newsCount=" + strconv.Itoa(maxItems)

	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create news request")
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "send news request")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read news response")
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, errors.Wrapf(errors.ErrNotFound, "no news feed for %s", ticker)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Wrapf(errors.ErrExternal, "news search error (%d)", resp.StatusCode)
	}

	var yn ynResponse
	if err := json.Unmarshal(body, &yn); err != nil {
		return nil, errors.Wrap(err, "parse news response")
	}

	return newsItems(yn.News, maxItems), nil
}

// newsItems maps search articles onto NewsItem, capped at maxItems.
func newsItems(articles []ynArticle, maxItems int) []NewsItem {
	items := make([]NewsItem, 0, len(articles))
	for _, a := range articles {
		if len(items) == maxItems {
			break
		}
		title := a.Title
		if title == "" {
			title = "No title"
		}
		publisher := a.Publisher
		if publisher == "" {
			publisher = "Unknown"
		}
		items = append(items, NewsItem{
			Title:       title,
			Publisher:   publisher,
			Link:        a.Link,
			PublishedAt: time.Unix(a.ProviderPublishTime, 0).UTC(),
		})
	}
	return items
}

// quoteSummary response shapes. Yahoo wraps every numeric in {raw, fmt}.
type ysNumber struct {
	Raw *float64 `json:"raw"`
}

type ysResponse struct {
	QuoteSummary struct {
		Result []struct {
			AssetProfile *struct {
				Sector   string `json:"sector"`
				Industry string `json:"industry"`
			} `json:"assetProfile"`
			FinancialData *struct {
				RevenueGrowth ysNumber `json:"revenueGrowth"`
				DebtToEquity  ysNumber `json:"debtToEquity"`
				ProfitMargins ysNumber `json:"profitMargins"`
			} `json:"financialData"`
			DefaultKeyStatistics *struct {
				Beta ysNumber `json:"beta"`
			} `json:"defaultKeyStatistics"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteSummary"`
}

func (p *YahooProvider) fillProfile(ctx context.Context, ticker string, f *Fundamentals) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return errors.Wrap(err, "market data rate limit wait")
	}

	u := quoteSummaryURL + url.PathEscape(ticker) +
		"?modules=assetProfile%2CfinancialData%2CdefaultKeyStatistics"

	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return errors.Wrap(err, "create quoteSummary request")
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := p.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "send quoteSummary request")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "read quoteSummary response")
	}
	if resp.StatusCode == http.StatusNotFound {
		return errors.Wrapf(errors.ErrNotFound, "no profile for %s", ticker)
	}
	if resp.StatusCode != http.StatusOK {
		return errors.Wrapf(errors.ErrExternal, "quoteSummary error (%d)", resp.StatusCode)
	}

	var ys ysResponse
	if err := json.Unmarshal(body, &ys); err != nil {
		return errors.Wrap(err, "parse quoteSummary response")
	}
	if ys.QuoteSummary.Error != nil {
		return errors.Wrapf(errors.ErrExternal, "quoteSummary: %s", ys.QuoteSummary.Error.Description)
	}
	if len(ys.QuoteSummary.Result) == 0 {
		return errors.Wrapf(errors.ErrNotFound, "empty quoteSummary for %s", ticker)
	}

	r := ys.QuoteSummary.Result[0]
	if r.AssetProfile != nil {
		f.Sector = r.AssetProfile.Sector
		f.Industry = r.AssetProfile.Industry
	}
	if r.FinancialData != nil {
		f.RevenueGrowth = r.FinancialData.RevenueGrowth.Raw
		f.DebtToEquity = r.FinancialData.DebtToEquity.Raw
		f.ProfitMargin = r.FinancialData.ProfitMargins.Raw
	}
	if r.DefaultKeyStatistics != nil {
		f.Beta = r.DefaultKeyStatistics.Beta.Raw
	}
	return nil
}

func normalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

func floatPtr(v float64) *float64 { return &v }
