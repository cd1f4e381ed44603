package scoring

import (
	"wallet-risk-lab/internal/domain"
)

// Rule-based weights
const (
	repaymentWeight = 800.0
	notRiskyBonus   = 100.0
)

// RuleBased scores borrowers from repayment ratio and liquidation history.
// Deterministic, no training.
type RuleBased struct{}

// NewRuleBased creates a rule-based strategy.
func NewRuleBased() *RuleBased {
	return &RuleBased{}
}

// Name returns the strategy mode.
func (r *RuleBased) Name() string {
	return ModeRule
}

// Score applies ScoreWallet to every wallet.
func (r *RuleBased) Score(wallets []*domain.WalletFeatures) (*Outcome, error) {
	return r.scoreAll(wallets, "rule-based scoring"), nil
}

func (r *RuleBased) scoreAll(wallets []*domain.WalletFeatures, reason string) *Outcome {
	out := &Outcome{
		Strategy: domain.StrategyRuleBased,
		Reason:   reason,
		Scores:   make([]domain.WalletScore, 0, len(wallets)),
	}
	for _, w := range wallets {
		out.Scores = append(out.Scores, domain.WalletScore{
			WalletID: w.WalletID,
			Score:    r.ScoreWallet(w),
			Strategy: domain.StrategyRuleBased,
		})
	}
	return out
}

// ScoreWallet returns 750 for non-borrowers, else
// min(repayment_ratio*800 + (risky ? 0 : 100), 1000) truncated.
func (r *RuleBased) ScoreWallet(w *domain.WalletFeatures) int {
	if !w.HasBorrowed {
		return domain.BaselineScore
	}
	raw := w.RepaymentRatio * repaymentWeight
	if !w.IsRisky {
		raw += notRiskyBonus
	}
	return ClampScore(raw)
}
