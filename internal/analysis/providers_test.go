package analysis

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plutus/internal/domain/portfolio"
	"plutus/internal/domain/signal"
	"plutus/internal/marketdata"
)

func f(v float64) *float64 { return &v }

func TestValuationProvider(t *testing.T) {
	p := ValuationProvider{}

	t.Run("value pricing positive", func(t *testing.T) {
		s, err := p.Compute(Inputs{Fundamentals: &marketdata.Fundamentals{PERatio: f(12.5)}})
		require.NoError(t, err)
		require.NotNil(t, s)
		assert.Equal(t, signal.DirectionPositive, s.Direction)
		assert.Equal(t, 0.8, s.Strength)
	})

	t.Run("premium valuation negative", func(t *testing.T) {
		s, err := p.Compute(Inputs{Fundamentals: &marketdata.Fundamentals{PERatio: f(45)}})
		require.NoError(t, err)
		require.NotNil(t, s)
		assert.Equal(t, signal.DirectionNegative, s.Direction)
	})

	t.Run("fair valuation mild positive", func(t *testing.T) {
		s, err := p.Compute(Inputs{Fundamentals: &marketdata.Fundamentals{PERatio: f(22)}})
		require.NoError(t, err)
		require.NotNil(t, s)
		assert.Equal(t, signal.DirectionPositive, s.Direction)
		assert.Equal(t, 0.4, s.Strength)
	})

	t.Run("missing PE skipped", func(t *testing.T) {
		s, err := p.Compute(Inputs{Fundamentals: &marketdata.Fundamentals{}})
		require.NoError(t, err)
		assert.Nil(t, s)
	})
}

func TestGrowthProvider(t *testing.T) {
	p := GrowthProvider{}

	cases := []struct {
		growth    float64
		direction signal.Direction
	}{
		{0.25, signal.DirectionPositive},
		{0.15, signal.DirectionPositive},
		{0.05, signal.DirectionNeutral},
		{-0.08, signal.DirectionNegative},
	}
	for _, tc := range cases {
		s, err := p.Compute(Inputs{Fundamentals: &marketdata.Fundamentals{RevenueGrowth: f(tc.growth)}})
		require.NoError(t, err)
		require.NotNil(t, s)
		assert.Equal(t, tc.direction, s.Direction, "growth %v", tc.growth)
	}
}

func bars(t *testing.T, closes ...float64) []marketdata.Bar {
	t.Helper()
	out := make([]marketdata.Bar, len(closes))
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		out[i] = marketdata.Bar{Date: base.AddDate(0, 0, i), Close: decimal.NewFromFloat(c)}
	}
	return out
}

func TestMomentumProvider(t *testing.T) {
	p := MomentumProvider{}

	t.Run("rising series positive", func(t *testing.T) {
		s, err := p.Compute(Inputs{History: bars(t, 100, 105, 112, 120, 135, 150)})
		require.NoError(t, err)
		require.NotNil(t, s)
		assert.Equal(t, signal.DirectionPositive, s.Direction)
		assert.Equal(t, 0.9, s.Strength) // +50% is strong momentum
	})

	t.Run("falling series negative", func(t *testing.T) {
		s, err := p.Compute(Inputs{History: bars(t, 100, 95, 90, 85, 80)})
		require.NoError(t, err)
		require.NotNil(t, s)
		assert.Equal(t, signal.DirectionNegative, s.Direction)
	})

	t.Run("flat series neutral", func(t *testing.T) {
		s, err := p.Compute(Inputs{History: bars(t, 100, 101, 99, 100, 102)})
		require.NoError(t, err)
		require.NotNil(t, s)
		assert.Equal(t, signal.DirectionNeutral, s.Direction)
	})

	t.Run("insufficient history skipped", func(t *testing.T) {
		s, err := p.Compute(Inputs{History: bars(t, 100)})
		require.NoError(t, err)
		assert.Nil(t, s)
	})
}

func TestRiskProvider(t *testing.T) {
	p := RiskProvider{}

	t.Run("both factors high negative", func(t *testing.T) {
		s, err := p.Compute(Inputs{Fundamentals: &marketdata.Fundamentals{
			Beta:         f(1.8),
			DebtToEquity: f(250), // Yahoo percent form, 2.5x
		}})
		require.NoError(t, err)
		require.NotNil(t, s)
		assert.Equal(t, signal.DirectionNegative, s.Direction)
	})

	t.Run("one factor neutral", func(t *testing.T) {
		s, err := p.Compute(Inputs{Fundamentals: &marketdata.Fundamentals{
			Beta:         f(1.8),
			DebtToEquity: f(50),
		}})
		require.NoError(t, err)
		require.NotNil(t, s)
		assert.Equal(t, signal.DirectionNeutral, s.Direction)
	})

	t.Run("low risk positive", func(t *testing.T) {
		s, err := p.Compute(Inputs{Fundamentals: &marketdata.Fundamentals{
			Beta:         f(0.9),
			DebtToEquity: f(40),
		}})
		require.NoError(t, err)
		require.NotNil(t, s)
		assert.Equal(t, signal.DirectionPositive, s.Direction)
	})

	t.Run("no metrics skipped", func(t *testing.T) {
		s, err := p.Compute(Inputs{Fundamentals: &marketdata.Fundamentals{}})
		require.NoError(t, err)
		assert.Nil(t, s)
	})
}

func TestSectorExposureProvider(t *testing.T) {
	p := SectorExposureProvider{}
	fund := &marketdata.Fundamentals{Sector: "Technology"}

	t.Run("overweight negative", func(t *testing.T) {
		s, err := p.Compute(Inputs{
			Fundamentals:     fund,
			SectorAllocation: map[string]float64{"Technology": 55.0},
		})
		require.NoError(t, err)
		require.NotNil(t, s)
		assert.Equal(t, signal.DirectionNegative, s.Direction)
	})

	t.Run("underweight positive", func(t *testing.T) {
		s, err := p.Compute(Inputs{
			Fundamentals:     fund,
			SectorAllocation: map[string]float64{"Technology": 10.0},
		})
		require.NoError(t, err)
		require.NotNil(t, s)
		assert.Equal(t, signal.DirectionPositive, s.Direction)
	})

	t.Run("balanced neutral", func(t *testing.T) {
		s, err := p.Compute(Inputs{
			Fundamentals:     fund,
			SectorAllocation: map[string]float64{"Technology": 30.0},
		})
		require.NoError(t, err)
		require.NotNil(t, s)
		assert.Equal(t, signal.DirectionNeutral, s.Direction)
	})

	t.Run("sector absent from portfolio skipped", func(t *testing.T) {
		s, err := p.Compute(Inputs{
			Fundamentals:     fund,
			SectorAllocation: map[string]float64{"Healthcare": 30.0},
		})
		require.NoError(t, err)
		assert.Nil(t, s)
	})

	t.Run("empty portfolio skipped", func(t *testing.T) {
		s, err := p.Compute(Inputs{Fundamentals: fund})
		require.NoError(t, err)
		assert.Nil(t, s)
	})
}

func TestPositionContextProvider(t *testing.T) {
	p := PositionContextProvider{}
	held := &portfolio.Position{
		Ticker:    "AAPL",
		Shares:    decimal.NewFromInt(10),
		CostBasis: decimal.NewFromInt(100),
	}

	t.Run("not held skipped", func(t *testing.T) {
		s, err := p.Compute(Inputs{Quote: &marketdata.Quote{Price: decimal.NewFromInt(100)}})
		require.NoError(t, err)
		assert.Nil(t, s)
	})

	t.Run("strong gain is neutral with profit note", func(t *testing.T) {
		s, err := p.Compute(Inputs{
			Held:  held,
			Quote: &marketdata.Quote{Price: decimal.NewFromInt(180)},
		})
		require.NoError(t, err)
		require.NotNil(t, s)
		assert.Equal(t, signal.DirectionNeutral, s.Direction)
		assert.Contains(t, s.Evidence, "taking profits")
	})

	t.Run("significant loss is neutral with review note", func(t *testing.T) {
		s, err := p.Compute(Inputs{
			Held:  held,
			Quote: &marketdata.Quote{Price: decimal.NewFromInt(70)},
		})
		require.NoError(t, err)
		require.NotNil(t, s)
		assert.Equal(t, signal.DirectionNeutral, s.Direction)
		assert.Contains(t, s.Evidence, "review holding")
	})
}
