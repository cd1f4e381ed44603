package scoring

import (
	"fmt"

	"wallet-risk-lab/internal/domain"
)

// DefaultMinTrainingWallets is the borrower count below which the classifier is not trained.
const DefaultMinTrainingWallets = 10

// Selection is the once-per-run strategy decision.
type Selection struct {
	Strategy  domain.StrategyName
	Borrowers int // wallets with HasBorrowed
	Risky     int // borrowers with IsRisky
	Reason    string
}

// Sufficient reports whether the borrower set can train the classifier.
func (s Selection) Sufficient() bool {
	return s.Strategy == domain.StrategyProbability
}

// Selector gates the probability strategy on training-data sufficiency.
type Selector struct {
	minWallets int
}

// NewSelector creates a selector. minWallets <= 0 uses DefaultMinTrainingWallets.
func NewSelector(minWallets int) *Selector {
	if minWallets <= 0 {
		minWallets = DefaultMinTrainingWallets
	}
	return &Selector{minWallets: minWallets}
}

// Select inspects borrowers only.
// Fewer than minWallets borrowers, or a single IsRisky class, selects rule-based.
func (s *Selector) Select(wallets []*domain.WalletFeatures) Selection {
	sel := Selection{}
	for _, w := range wallets {
		if !w.HasBorrowed {
			continue
		}
		sel.Borrowers++
		if w.IsRisky {
			sel.Risky++
		}
	}

	switch {
	case sel.Borrowers < s.minWallets:
		sel.Strategy = domain.StrategyRuleBased
		sel.Reason = fmt.Sprintf("insufficient borrowers: %d < %d", sel.Borrowers, s.minWallets)
	case sel.Risky == 0 || sel.Risky == sel.Borrowers:
		sel.Strategy = domain.StrategyRuleBased
		sel.Reason = fmt.Sprintf("single risk class among %d borrowers", sel.Borrowers)
	default:
		sel.Strategy = domain.StrategyProbability
		sel.Reason = fmt.Sprintf("%d borrowers, %d risky", sel.Borrowers, sel.Risky)
	}
	return sel
}
