package scoring

import (
	"math"

	"wallet-risk-lab/internal/domain"
)

// ClampScore converts a raw score to an integer in [MinScore, MaxScore].
// Fractions are truncated; callers round first where rounding applies.
// NaN maps to MinScore.
func ClampScore(raw float64) int {
	switch {
	case math.IsNaN(raw):
		return domain.MinScore
	case raw <= domain.MinScore:
		return domain.MinScore
	case raw >= domain.MaxScore:
		return domain.MaxScore
	}
	return int(raw)
}

// baselineScore is the fixed score for wallets that never borrowed.
func baselineScore(walletID string, strategy domain.StrategyName) domain.WalletScore {
	return domain.WalletScore{
		WalletID: walletID,
		Score:    domain.BaselineScore,
		Strategy: strategy,
	}
}
