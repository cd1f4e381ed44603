package domain

// DebtRatioCeiling is the finite value substituted for an unbounded debt ratio
// before any averaging or normalization.
const DebtRatioCeiling = 99999.0

// DebtRatio is net debt over net collateral.
// Unbounded is set when the wallet has no positive net collateral.
type DebtRatio struct {
	Value     float64
	Unbounded bool
}

// UnboundedDebtRatio returns the tagged high-risk ratio.
func UnboundedDebtRatio() DebtRatio {
	return DebtRatio{Unbounded: true}
}

// Float returns the ratio as a finite number, DebtRatioCeiling when unbounded.
func (r DebtRatio) Float() float64 {
	if r.Unbounded {
		return DebtRatioCeiling
	}
	return r.Value
}

// WalletFeatures is the derived feature vector for one wallet.
// Computed once per scoring run and never mutated.
type WalletFeatures struct {
	WalletID string

	// Volume totals (USD)
	TotalBorrowedUSD  float64
	TotalRepaidUSD    float64
	TotalDepositedUSD float64
	TotalRedeemedUSD  float64

	RepaymentRatio       float64   // [0, 1]; 1.0 when nothing was borrowed
	NetDebtRatio         DebtRatio // net_debt / net_collateral
	MaxBorrowSizeUSD     float64   // 0 when no borrows
	WalletAgeDays        float64   // days since earliest transaction
	TransactionFrequency float64   // transactions per day, 0 when age is 0

	HasBorrowed bool
	IsRisky     bool // at least one liquidation

	// Activity counts used by the weighted strategy
	LiquidationCount     int
	InteractionCount     int // all transactions, unknown actions included
	UniqueAssetsSupplied int // distinct non-empty asset symbols
	BorrowCount          int
	RepayCount           int
	BorrowToRepayRatio   float64 // borrows/repays, borrows*2 when no repays
}
