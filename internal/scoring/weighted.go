package scoring

import (
	"math"

	"wallet-risk-lab/internal/domain"
	"wallet-risk-lab/internal/features"
)

// Weights for the weighted-normalization strategy. Each applies to a
// min-max normalized column. Age, assets and interactions enter as (1 - x).
type Weights struct {
	Liquidations  float64
	BorrowToRepay float64
	WalletAge     float64
	UniqueAssets  float64
	Interactions  float64
}

// DefaultWeights returns the standard weighted-normalization weights.
func DefaultWeights() Weights {
	return Weights{
		Liquidations:  0.50,
		BorrowToRepay: 0.20,
		WalletAge:     0.15,
		UniqueAssets:  0.10,
		Interactions:  0.05,
	}
}

// Weighted scores the population as round(1000 * weighted sum of normalized columns).
// There is no borrower/non-borrower split.
//
// Higher normalized age, asset diversity and interaction count lower the score.
// This polarity is kept as specified pending product review.
type Weighted struct {
	weights Weights
}

// NewWeighted creates a weighted strategy.
func NewWeighted(w Weights) *Weighted {
	return &Weighted{weights: w}
}

// Name returns the strategy mode.
func (s *Weighted) Name() string {
	return ModeWeighted
}

// Score normalizes every column across the population, then applies the weights.
func (s *Weighted) Score(wallets []*domain.WalletFeatures) (*Outcome, error) {
	n := len(wallets)
	liq := make([]float64, n)
	b2r := make([]float64, n)
	age := make([]float64, n)
	assets := make([]float64, n)
	interactions := make([]float64, n)
	for i, w := range wallets {
		liq[i] = float64(w.LiquidationCount)
		b2r[i] = w.BorrowToRepayRatio
		age[i] = w.WalletAgeDays
		assets[i] = float64(w.UniqueAssetsSupplied)
		interactions[i] = float64(w.InteractionCount)
	}

	liq = features.MinMaxNormalize(liq)
	b2r = features.MinMaxNormalize(b2r)
	age = features.MinMaxNormalize(age)
	assets = features.MinMaxNormalize(assets)
	interactions = features.MinMaxNormalize(interactions)

	out := &Outcome{
		Strategy: domain.StrategyWeighted,
		Reason:   "weighted normalization",
		Scores:   make([]domain.WalletScore, 0, n),
	}
	for i, w := range wallets {
		raw := liq[i]*s.weights.Liquidations +
			b2r[i]*s.weights.BorrowToRepay +
			(1-age[i])*s.weights.WalletAge +
			(1-assets[i])*s.weights.UniqueAssets +
			(1-interactions[i])*s.weights.Interactions

		out.Scores = append(out.Scores, domain.WalletScore{
			WalletID: w.WalletID,
			Score:    ClampScore(math.Round(raw * domain.MaxScore)),
			Strategy: domain.StrategyWeighted,
		})
	}
	return out, nil
}
