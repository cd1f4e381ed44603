package scoring

import (
	"go.uber.org/zap"

	"wallet-risk-lab/internal/domain"
	"wallet-risk-lab/internal/model"
)

// Hybrid runs the selector once per population and delegates to
// the probability strategy when training data suffices, rule-based otherwise.
type Hybrid struct {
	selector    *Selector
	rule        *RuleBased
	probability *Probability
	logger      *zap.Logger
}

// NewHybrid creates a hybrid strategy.
func NewHybrid(selector *Selector, cfg model.Config, logger *zap.Logger) *Hybrid {
	if selector == nil {
		selector = NewSelector(DefaultMinTrainingWallets)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hybrid{
		selector:    selector,
		rule:        NewRuleBased(),
		probability: NewProbability(selector, cfg),
		logger:      logger,
	}
}

// Name returns the strategy mode.
func (h *Hybrid) Name() string {
	return ModeHybrid
}

// Score selects a strategy and applies it to every wallet.
func (h *Hybrid) Score(wallets []*domain.WalletFeatures) (*Outcome, error) {
	sel := h.selector.Select(wallets)
	h.logger.Info("scoring strategy selected",
		zap.String("strategy", sel.Strategy.String()),
		zap.Int("borrowers", sel.Borrowers),
		zap.Int("risky", sel.Risky),
		zap.String("reason", sel.Reason),
	)

	if !sel.Sufficient() {
		return h.rule.scoreAll(wallets, sel.Reason), nil
	}
	return h.probability.fitAndScore(wallets, sel.Reason)
}
