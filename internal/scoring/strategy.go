// Package scoring turns wallet feature vectors into bounded integer scores.
package scoring

import (
	"errors"

	"wallet-risk-lab/internal/domain"
)

// Scoring errors
var (
	ErrUnknownMode              = errors.New("unknown scoring mode")
	ErrInsufficientTrainingData = errors.New("insufficient training data")
)

// Strategy scores a whole wallet population in one call.
// Population-level strategies (trained, normalized) need every wallet at once.
type Strategy interface {
	// Name returns the configured mode, e.g. "hybrid".
	Name() string

	// Score returns one score per wallet, in input order.
	Score(wallets []*domain.WalletFeatures) (*Outcome, error)
}

// Outcome is the result of scoring one population.
type Outcome struct {
	Strategy domain.StrategyName // strategy that actually produced the scores
	Reason   string              // why that strategy was applied
	Scores   []domain.WalletScore
}

// ScoreMap returns wallet -> score.
func (o *Outcome) ScoreMap() map[string]int {
	m := make(map[string]int, len(o.Scores))
	for _, s := range o.Scores {
		m[s.WalletID] = s.Score
	}
	return m
}
