package domain

// Score bounds and the no-borrow baseline shared by every strategy.
const (
	MinScore      = 0
	MaxScore      = 1000
	BaselineScore = 750
)

// StrategyName identifies the strategy that produced a score.
type StrategyName string

const (
	StrategyRuleBased   StrategyName = "RULE_BASED"
	StrategyProbability StrategyName = "PROBABILITY"
	StrategyWeighted    StrategyName = "WEIGHTED"
)

// String returns the string representation of StrategyName.
func (s StrategyName) String() string {
	return string(s)
}

// WalletScore is the final score for one wallet in one run.
// Corresponds to wallet_scores table in PostgreSQL.
type WalletScore struct {
	RunID           string
	WalletID        string
	Score           int          // [MinScore, MaxScore]
	Strategy        StrategyName // strategy that produced the score
	RiskProbability *float64     // model output, probability strategy only
}

// ScoreRun describes one batch scoring run.
// Corresponds to score_runs table in PostgreSQL.
type ScoreRun struct {
	RunID          string
	Strategy       StrategyName
	SelectReason   string // why the strategy was chosen
	WalletCount    int
	SkippedRecords int
	StartedAt      int64 // Unix timestamp in milliseconds
	FinishedAt     int64 // Unix timestamp in milliseconds
}

// ScoreSnapshot is an append-only history row for analytics.
// Corresponds to score_history table in ClickHouse.
type ScoreSnapshot struct {
	RunID    string
	WalletID string
	Score    int
	Strategy StrategyName
	ScoredAt int64 // Unix timestamp in milliseconds
}
