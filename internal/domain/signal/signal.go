package signal

import (
	"plutus/pkg/errors"
)

// Direction classifies a signal's stance on the analyzed stock.
type Direction string

const (
	DirectionPositive Direction = "positive"
	DirectionNegative Direction = "negative"
	DirectionNeutral  Direction = "neutral"
)

// IsValid checks if the direction is a known value.
func (d Direction) IsValid() bool {
	switch d {
	case DirectionPositive, DirectionNegative, DirectionNeutral:
		return true
	default:
		return false
	}
}

// Signal is one quantitative judgment about a stock along a single
// analytical dimension. Computed fresh per recommendation, never persisted.
type Signal struct {
	Name      string    `json:"name"`
	Direction Direction `json:"direction"`
	Strength  float64   `json:"strength"` // in [0,1]
	Evidence  string    `json:"evidence"`
}

// New builds a validated Signal. Strength outside [0,1] is rejected rather
// than clamped: a provider emitting out-of-range strengths would bias every
// recommendation, so it must fail loudly.
func New(name string, direction Direction, strength float64, evidence string) (Signal, error) {
	if name == "" {
		return Signal{}, errors.Wrap(errors.ErrInvalidInput, "signal name cannot be empty")
	}
	if !direction.IsValid() {
		return Signal{}, errors.Wrapf(errors.ErrInvalidInput, "invalid signal direction %q", direction)
	}
	if strength < 0 || strength > 1 {
		return Signal{}, errors.Wrapf(errors.ErrSignalRange,
			"signal %s strength %v outside [0,1]", name, strength)
	}
	return Signal{
		Name:      name,
		Direction: direction,
		Strength:  strength,
		Evidence:  evidence,
	}, nil
}
