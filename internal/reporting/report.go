package reporting

import (
	"time"

	"wallet-risk-lab/internal/domain"
)

// DistributionBucketWidth is the score width of one distribution row.
const DistributionBucketWidth = 100

// Report summarises one scoring run.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	Run         domain.ScoreRun

	// Aggregates over Scores
	Summary      Summary
	Distribution []DistributionRow

	// Scores sorted by score DESC, wallet_id ASC
	Scores []domain.WalletScore
}

// Summary contains score statistics for a run.
type Summary struct {
	WalletCount   int     `json:"wallet_count"`
	BaselineCount int     `json:"baseline_count"` // wallets at domain.BaselineScore
	Min           int     `json:"min"`
	Max           int     `json:"max"`
	Mean          float64 `json:"mean"`
	Median        float64 `json:"median"`
	StdDev        float64 `json:"std_dev"` // sample standard deviation, 0 for fewer than two wallets
}

// DistributionRow counts wallets whose score falls in [Lower, Upper].
type DistributionRow struct {
	Lower int
	Upper int
	Count int
}
