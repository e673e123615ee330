package portfolio

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plutus/pkg/errors"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(filepath.Join(t.TempDir(), "portfolio.json"))
}

func TestFileStore_AddAndGet(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.Add(ctx, Position{
		Ticker:    "aapl",
		Shares:    decimal.NewFromInt(10),
		CostBasis: decimal.NewFromFloat(150.50),
		Sector:    "Technology",
	})
	require.NoError(t, err)

	// Lookup is case-insensitive on ticker
	got, err := store.Get(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", got.Ticker)
	assert.True(t, got.Shares.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, "Technology", got.Sector)
	assert.False(t, got.PurchaseDate.IsZero())
}

func TestFileStore_AddAveragesCostBasis(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	firstDate := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	_, err := store.Add(ctx, Position{
		Ticker:       "MSFT",
		Shares:       decimal.NewFromInt(10),
		CostBasis:    decimal.NewFromInt(100),
		PurchaseDate: firstDate,
	})
	require.NoError(t, err)

	merged, err := store.Add(ctx, Position{
		Ticker:    "MSFT",
		Shares:    decimal.NewFromInt(10),
		CostBasis: decimal.NewFromInt(200),
	})
	require.NoError(t, err)

	// (10*100 + 10*200) / 20 = 150
	assert.True(t, merged.Shares.Equal(decimal.NewFromInt(20)), "shares = %s", merged.Shares)
	assert.True(t, merged.CostBasis.Equal(decimal.NewFromInt(150)), "cost basis = %s", merged.CostBasis)
	assert.Equal(t, firstDate, merged.PurchaseDate, "original purchase date kept")
}

func TestFileStore_RemoveTrimsShares(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.Add(ctx, Position{
		Ticker:    "NVDA",
		Shares:    decimal.NewFromInt(10),
		CostBasis: decimal.NewFromInt(500),
	})
	require.NoError(t, err)

	remaining, err := store.Remove(ctx, "NVDA", decimal.NewFromInt(4))
	require.NoError(t, err)
	require.NotNil(t, remaining)
	assert.True(t, remaining.Shares.Equal(decimal.NewFromInt(6)))

	// Removing >= held deletes the position
	remaining, err = store.Remove(ctx, "NVDA", decimal.NewFromInt(100))
	require.NoError(t, err)
	assert.Nil(t, remaining)

	_, err = store.Get(ctx, "NVDA")
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestFileStore_RemoveAllWhenSharesZero(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.Add(ctx, Position{
		Ticker:    "TSLA",
		Shares:    decimal.NewFromInt(5),
		CostBasis: decimal.NewFromInt(250),
	})
	require.NoError(t, err)

	remaining, err := store.Remove(ctx, "TSLA", decimal.Zero)
	require.NoError(t, err)
	assert.Nil(t, remaining)
}

func TestFileStore_RemoveMissing(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Remove(context.Background(), "GHOST", decimal.NewFromInt(1))
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestFileStore_ListSorted(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	for _, ticker := range []string{"MSFT", "AAPL", "NVDA"} {
		_, err := store.Add(ctx, Position{
			Ticker:    ticker,
			Shares:    decimal.NewFromInt(1),
			CostBasis: decimal.NewFromInt(100),
		})
		require.NoError(t, err)
	}

	positions, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, positions, 3)
	assert.Equal(t, "AAPL", positions[0].Ticker)
	assert.Equal(t, "MSFT", positions[1].Ticker)
	assert.Equal(t, "NVDA", positions[2].Ticker)
}

func TestFileStore_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "portfolio.json")

	store1 := NewFileStore(path)
	_, err := store1.Add(ctx, Position{
		Ticker:    "AMZN",
		Shares:    decimal.NewFromInt(3),
		CostBasis: decimal.NewFromInt(180),
	})
	require.NoError(t, err)

	store2 := NewFileStore(path)
	got, err := store2.Get(ctx, "AMZN")
	require.NoError(t, err)
	assert.True(t, got.Shares.Equal(decimal.NewFromInt(3)))
}

func TestFileStore_ValidatesInput(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.Add(ctx, Position{Ticker: "", Shares: decimal.NewFromInt(1), CostBasis: decimal.NewFromInt(1)})
	assert.Error(t, err)

	_, err = store.Add(ctx, Position{Ticker: "AAPL", Shares: decimal.Zero, CostBasis: decimal.NewFromInt(1)})
	assert.Error(t, err)

	_, err = store.Add(ctx, Position{Ticker: "AAPL", Shares: decimal.NewFromInt(1), CostBasis: decimal.NewFromInt(-5)})
	assert.Error(t, err)
}

func TestPosition_Math(t *testing.T) {
	p := Position{
		Ticker:    "AAPL",
		Shares:    decimal.NewFromInt(10),
		CostBasis: decimal.NewFromInt(150),
	}
	current := decimal.NewFromInt(180)

	assert.True(t, p.MarketValue(current).Equal(decimal.NewFromInt(1800)))
	assert.True(t, p.UnrealizedGain(current).Equal(decimal.NewFromInt(300)))
	assert.True(t, p.GainPct(current).Equal(decimal.NewFromInt(20)))
}
