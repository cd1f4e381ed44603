package scoring

import (
	"fmt"
	"math"

	"wallet-risk-lab/internal/domain"
	"wallet-risk-lab/internal/model"
)

// Probability trains a classifier on borrowers (label IsRisky) and scores
// borrowers as round((1 - p) * 1000). Non-borrowers get the baseline.
type Probability struct {
	selector *Selector
	cfg      model.Config
}

// NewProbability creates a probability strategy.
func NewProbability(selector *Selector, cfg model.Config) *Probability {
	if selector == nil {
		selector = NewSelector(DefaultMinTrainingWallets)
	}
	return &Probability{selector: selector, cfg: cfg}
}

// Name returns the strategy mode.
func (p *Probability) Name() string {
	return ModeProbability
}

// Score fails with ErrInsufficientTrainingData when the selector rejects the borrower set.
func (p *Probability) Score(wallets []*domain.WalletFeatures) (*Outcome, error) {
	sel := p.selector.Select(wallets)
	if !sel.Sufficient() {
		return nil, fmt.Errorf("%w: %s", ErrInsufficientTrainingData, sel.Reason)
	}
	return p.fitAndScore(wallets, sel.Reason)
}

func (p *Probability) fitAndScore(wallets []*domain.WalletFeatures, reason string) (*Outcome, error) {
	var X [][]float64
	var y []bool
	for _, w := range wallets {
		if !w.HasBorrowed {
			continue
		}
		X = append(X, modelInputs(w))
		y = append(y, w.IsRisky)
	}

	clf := model.NewLogisticRegression(p.cfg)
	if err := clf.Fit(X, y); err != nil {
		return nil, fmt.Errorf("failed to train classifier: %w", err)
	}

	out := &Outcome{
		Strategy: domain.StrategyProbability,
		Reason:   reason,
		Scores:   make([]domain.WalletScore, 0, len(wallets)),
	}
	for _, w := range wallets {
		if !w.HasBorrowed {
			out.Scores = append(out.Scores, baselineScore(w.WalletID, domain.StrategyProbability))
			continue
		}

		prob, err := clf.PredictProba(modelInputs(w))
		if err != nil {
			return nil, fmt.Errorf("failed to score wallet %s: %w", w.WalletID, err)
		}
		out.Scores = append(out.Scores, domain.WalletScore{
			WalletID:        w.WalletID,
			Score:           ClampScore(math.Round((1 - prob) * domain.MaxScore)),
			Strategy:        domain.StrategyProbability,
			RiskProbability: &prob,
		})
	}
	return out, nil
}

// modelInputs is the classifier feature vector. The debt ratio uses its finite ceiling.
func modelInputs(w *domain.WalletFeatures) []float64 {
	return []float64{
		w.TotalBorrowedUSD,
		w.RepaymentRatio,
		w.NetDebtRatio.Float(),
		w.MaxBorrowSizeUSD,
		w.WalletAgeDays,
		w.TransactionFrequency,
	}
}
