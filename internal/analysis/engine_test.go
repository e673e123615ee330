package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plutus/internal/domain/advice"
	"plutus/internal/domain/signal"
	"plutus/pkg/errors"
)

func sig(t *testing.T, name string, dir signal.Direction, strength float64, evidence string) signal.Signal {
	t.Helper()
	s, err := signal.New(name, dir, strength, evidence)
	require.NoError(t, err)
	return s
}

func TestRecommend_AllPositiveEqualStrength(t *testing.T) {
	signals := []signal.Signal{
		sig(t, "a", signal.DirectionPositive, 0.5, "a good"),
		sig(t, "b", signal.DirectionPositive, 0.5, "b good"),
		sig(t, "c", signal.DirectionPositive, 0.5, "c good"),
	}

	rec, err := Recommend("AAPL", signals, false)
	require.NoError(t, err)
	assert.Equal(t, 1.0, rec.SignalRatio)
	assert.Equal(t, advice.ActionStrongBuy, rec.Action)
	assert.Equal(t, 0, rec.NegativeSignalCount)
}

func TestRecommend_AllNegativeNotHeld(t *testing.T) {
	signals := []signal.Signal{
		sig(t, "a", signal.DirectionNegative, 0.9, "a bad"),
		sig(t, "b", signal.DirectionNegative, 0.4, "b bad"),
	}

	rec, err := Recommend("XYZ", signals, false)
	require.NoError(t, err)
	assert.Equal(t, 0.0, rec.SignalRatio)
	assert.Equal(t, advice.ActionPass, rec.Action)
	assert.Equal(t, 2, rec.NegativeSignalCount)
}

func TestRecommend_HeldNegativeCounts(t *testing.T) {
	t.Run("three negatives sell", func(t *testing.T) {
		signals := []signal.Signal{
			sig(t, "a", signal.DirectionNegative, 0.1, "a"),
			sig(t, "b", signal.DirectionNegative, 0.9, "b"),
			sig(t, "c", signal.DirectionNegative, 0.5, "c"),
		}
		rec, err := Recommend("XYZ", signals, true)
		require.NoError(t, err)
		assert.Equal(t, advice.ActionSell, rec.Action)
	})

	t.Run("two negatives hold", func(t *testing.T) {
		signals := []signal.Signal{
			sig(t, "a", signal.DirectionNegative, 0.9, "a"),
			sig(t, "b", signal.DirectionNegative, 0.9, "b"),
		}
		rec, err := Recommend("XYZ", signals, true)
		require.NoError(t, err)
		assert.Equal(t, advice.ActionHold, rec.Action)
	})

	t.Run("three negatives outweighed by positives still sell", func(t *testing.T) {
		signals := []signal.Signal{
			sig(t, "a", signal.DirectionNegative, 0.1, "a"),
			sig(t, "b", signal.DirectionNegative, 0.1, "b"),
			sig(t, "c", signal.DirectionNegative, 0.1, "c"),
			sig(t, "d", signal.DirectionPositive, 1.0, "d"),
		}
		rec, err := Recommend("XYZ", signals, true)
		require.NoError(t, err)
		assert.Equal(t, advice.ActionSell, rec.Action)
	})
}

func TestRecommend_RatioBoundaries(t *testing.T) {
	// positive 0.7 / total 1.0 = exactly 0.7
	t.Run("exactly 0.7 strong_buy", func(t *testing.T) {
		signals := []signal.Signal{
			sig(t, "p", signal.DirectionPositive, 0.7, "p"),
			sig(t, "n", signal.DirectionNegative, 0.3, "n"),
		}
		rec, err := Recommend("T", signals, false)
		require.NoError(t, err)
		assert.InDelta(t, 0.7, rec.SignalRatio, 1e-9)
		assert.Equal(t, advice.ActionStrongBuy, rec.Action)
	})

	t.Run("exactly 0.5 buy", func(t *testing.T) {
		signals := []signal.Signal{
			sig(t, "p", signal.DirectionPositive, 0.5, "p"),
			sig(t, "n", signal.DirectionNegative, 0.5, "n"),
		}
		rec, err := Recommend("T", signals, false)
		require.NoError(t, err)
		assert.InDelta(t, 0.5, rec.SignalRatio, 1e-9)
		assert.Equal(t, advice.ActionBuy, rec.Action)
	})

	t.Run("just below 0.5 pass", func(t *testing.T) {
		signals := []signal.Signal{
			sig(t, "p", signal.DirectionPositive, 0.49999, "p"),
			sig(t, "n", signal.DirectionNegative, 0.50001, "n"),
		}
		rec, err := Recommend("T", signals, false)
		require.NoError(t, err)
		assert.Less(t, rec.SignalRatio, 0.5)
		assert.Equal(t, advice.ActionPass, rec.Action)
	})
}

func TestRecommend_ZeroSignals(t *testing.T) {
	rec, err := Recommend("T", nil, false)
	require.NoError(t, err)
	assert.Equal(t, 0.0, rec.SignalRatio)
	assert.Equal(t, advice.ActionPass, rec.Action)

	rec, err = Recommend("T", nil, true)
	require.NoError(t, err)
	assert.Equal(t, advice.ActionHold, rec.Action)
}

func TestRecommend_AllNeutral(t *testing.T) {
	signals := []signal.Signal{
		sig(t, "a", signal.DirectionNeutral, 0.5, "context a"),
		sig(t, "b", signal.DirectionNeutral, 0.9, "context b"),
	}

	rec, err := Recommend("T", signals, false)
	require.NoError(t, err)
	assert.Equal(t, 0.0, rec.SignalRatio)
	assert.Equal(t, advice.ActionPass, rec.Action)

	rec, err = Recommend("T", signals, true)
	require.NoError(t, err)
	assert.Equal(t, advice.ActionHold, rec.Action)
}

func TestRecommend_OutOfRangeStrengthFails(t *testing.T) {
	// bypass the constructor to simulate a buggy provider
	signals := []signal.Signal{
		{Name: "broken", Direction: signal.DirectionPositive, Strength: 1.5},
	}

	_, err := Recommend("T", signals, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrSignalRange))

	signals[0].Strength = -0.2
	_, err = Recommend("T", signals, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrSignalRange))
}

func TestRecommend_ReasoningOrder(t *testing.T) {
	signals := []signal.Signal{
		sig(t, "growth", signal.DirectionPositive, 0.6, "growth evidence"),
		sig(t, "pe", signal.DirectionPositive, 0.8, "pe evidence"),
		sig(t, "risk", signal.DirectionNegative, 0.3, "risk evidence"),
		sig(t, "beta", signal.DirectionNeutral, 0.6, "beta evidence"),
	}

	rec, err := Recommend("AAPL", signals, false)
	require.NoError(t, err)

	// strength desc, ties broken by name asc
	assert.Equal(t, []string{
		"pe evidence",
		"beta evidence",
		"growth evidence",
		"risk evidence",
	}, rec.Reasoning)
}

func TestRecommend_Deterministic(t *testing.T) {
	signals := []signal.Signal{
		sig(t, "pe", signal.DirectionPositive, 0.8, "pe"),
		sig(t, "growth", signal.DirectionPositive, 0.6, "growth"),
		sig(t, "risk", signal.DirectionNegative, 0.3, "risk"),
	}

	first, err := Recommend("AAPL", signals, false)
	require.NoError(t, err)
	second, err := Recommend("AAPL", signals, false)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRecommend_MixedSignalsBuyQuestion(t *testing.T) {
	// "Should I buy AAPL?" with no held position
	signals := []signal.Signal{
		sig(t, "pe", signal.DirectionPositive, 0.8, "pe first"),
		sig(t, "growth", signal.DirectionPositive, 0.6, "growth second"),
		sig(t, "risk", signal.DirectionNegative, 0.3, "risk third"),
	}

	rec, err := Recommend("AAPL", signals, false)
	require.NoError(t, err)

	assert.InDelta(t, 0.8235, rec.SignalRatio, 0.001)
	assert.Equal(t, advice.ActionStrongBuy, rec.Action)
	require.NotEmpty(t, rec.Reasoning)
	assert.Equal(t, "pe first", rec.Reasoning[0])
}
