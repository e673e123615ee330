package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plutus/pkg/errors"
)

func TestNew(t *testing.T) {
	t.Run("valid signal", func(t *testing.T) {
		s, err := New("valuation_signal", DirectionPositive, 0.8, "P/E of 12.5 suggests undervaluation")
		require.NoError(t, err)
		assert.Equal(t, "valuation_signal", s.Name)
		assert.Equal(t, DirectionPositive, s.Direction)
		assert.Equal(t, 0.8, s.Strength)
	})

	t.Run("boundary strengths accepted", func(t *testing.T) {
		_, err := New("a", DirectionNeutral, 0, "")
		assert.NoError(t, err)
		_, err = New("b", DirectionNegative, 1, "")
		assert.NoError(t, err)
	})

	t.Run("strength above range rejected", func(t *testing.T) {
		_, err := New("momentum_signal", DirectionPositive, 1.2, "")
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrSignalRange))
	})

	t.Run("strength below range rejected", func(t *testing.T) {
		_, err := New("momentum_signal", DirectionNegative, -0.1, "")
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrSignalRange))
	})

	t.Run("empty name rejected", func(t *testing.T) {
		_, err := New("", DirectionPositive, 0.5, "")
		assert.Error(t, err)
	})

	t.Run("unknown direction rejected", func(t *testing.T) {
		_, err := New("x", Direction("bullish"), 0.5, "")
		assert.Error(t, err)
	})
}
