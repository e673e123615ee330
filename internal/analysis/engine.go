package analysis

import (
	"sort"

	"plutus/internal/domain/advice"
	"plutus/internal/domain/signal"
	"plutus/pkg/errors"
)

// Decision thresholds. Lower bounds are inclusive.
const (
	strongBuyRatio = 0.7
	buyRatio       = 0.5
	sellNegatives  = 3
)

// Recommend converts a signal set plus position context into a discrete
// action. Pure function of its inputs: identical inputs always produce an
// identical Recommendation, including reasoning order.
func Recommend(ticker string, signals []signal.Signal, held bool) (*advice.Recommendation, error) {
	var positiveSum, nonNeutralSum float64
	negativeCount := 0

	for _, s := range signals {
		if s.Strength < 0 || s.Strength > 1 {
			return nil, errors.Wrapf(errors.ErrSignalRange,
				"signal %s strength %v outside [0,1]", s.Name, s.Strength)
		}
		switch s.Direction {
		case signal.DirectionPositive:
			positiveSum += s.Strength
			nonNeutralSum += s.Strength
		case signal.DirectionNegative:
			negativeCount++
			nonNeutralSum += s.Strength
		case signal.DirectionNeutral:
			// neutral signals contribute evidence only
		default:
			return nil, errors.Wrapf(errors.ErrInvalidInput,
				"signal %s has unknown direction %q", s.Name, s.Direction)
		}
	}

	ratio := 0.0
	if nonNeutralSum > 0 {
		ratio = positiveSum / nonNeutralSum
	}

	var action advice.Action
	switch {
	case !held && ratio >= strongBuyRatio:
		action = advice.ActionStrongBuy
	case !held && ratio >= buyRatio:
		action = advice.ActionBuy
	case !held:
		action = advice.ActionPass
	case negativeCount >= sellNegatives:
		action = advice.ActionSell
	default:
		action = advice.ActionHold
	}

	return &advice.Recommendation{
		Ticker:              ticker,
		Action:              action,
		SignalRatio:         ratio,
		NegativeSignalCount: negativeCount,
		Reasoning:           buildReasoning(signals),
	}, nil
}

// buildReasoning orders evidence by descending strength, ties broken by
// signal name, so replays are deterministic.
func buildReasoning(signals []signal.Signal) []string {
	ordered := make([]signal.Signal, len(signals))
	copy(ordered, signals)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Strength != ordered[j].Strength {
			return ordered[i].Strength > ordered[j].Strength
		}
		return ordered[i].Name < ordered[j].Name
	})

	reasoning := make([]string, 0, len(ordered))
	for _, s := range ordered {
		if s.Evidence != "" {
			reasoning = append(reasoning, s.Evidence)
		}
	}
	return reasoning
}
