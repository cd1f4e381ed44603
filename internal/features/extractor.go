// Package features derives per-wallet feature vectors from transaction history.
package features

import (
	"time"

	"golang.org/x/sync/errgroup"

	"wallet-risk-lab/internal/domain"
	"wallet-risk-lab/internal/normalization"
)

const secondsPerDay = 86400.0

// Extractor computes WalletFeatures from grouped transactions.
type Extractor struct {
	clock   func() time.Time
	workers int
}

// NewExtractor creates an extractor using wall-clock time and a single worker.
func NewExtractor() *Extractor {
	return &Extractor{
		clock:   time.Now,
		workers: 1,
	}
}

// WithClock sets the clock used for wallet age. Tests pin it for determinism.
func (e *Extractor) WithClock(clock func() time.Time) *Extractor {
	if clock != nil {
		e.clock = clock
	}
	return e
}

// WithWorkers sets how many wallets are featurized concurrently.
func (e *Extractor) WithWorkers(n int) *Extractor {
	if n > 0 {
		e.workers = n
	}
	return e
}

// ExtractAll featurizes every wallet group.
// Output order matches input order regardless of worker count.
func (e *Extractor) ExtractAll(groups []normalization.WalletTransactions) []*domain.WalletFeatures {
	result := make([]*domain.WalletFeatures, len(groups))
	if len(groups) == 0 {
		return result
	}

	now := e.clock()

	if e.workers <= 1 {
		for i, g := range groups {
			result[i] = computeWalletFeatures(g.WalletID, g.Transactions, now)
		}
		return result
	}

	var g errgroup.Group
	g.SetLimit(e.workers)
	for i := range groups {
		g.Go(func() error {
			result[i] = computeWalletFeatures(groups[i].WalletID, groups[i].Transactions, now)
			return nil
		})
	}
	_ = g.Wait()

	return result
}

// Extract featurizes a single wallet.
func (e *Extractor) Extract(walletID string, txs []*domain.Transaction) *domain.WalletFeatures {
	return computeWalletFeatures(walletID, txs, e.clock())
}

// computeWalletFeatures calculates every derived attribute for one wallet.
//
// Formulas:
//   - repayment_ratio = min(repaid / borrowed, 1), 1 if borrowed == 0
//   - net_debt_ratio = (borrowed - repaid) / (deposited - redeemed), unbounded if collateral <= 0
//   - wallet_age_days = (now - MIN(timestamp)) / 86400, 0 if no transactions
//   - transaction_frequency = count / wallet_age_days, 0 if age == 0
//   - borrow_to_repay_ratio = borrows / repays, borrows * 2 if repays == 0
func computeWalletFeatures(walletID string, txs []*domain.Transaction, now time.Time) *domain.WalletFeatures {
	f := &domain.WalletFeatures{
		WalletID:         walletID,
		InteractionCount: len(txs),
	}

	symbols := make(map[string]struct{})
	var earliest int64
	for i, tx := range txs {
		if i == 0 || tx.Timestamp < earliest {
			earliest = tx.Timestamp
		}
		if tx.AssetSymbol != "" {
			symbols[tx.AssetSymbol] = struct{}{}
		}

		switch tx.Action {
		case domain.ActionDeposit:
			f.TotalDepositedUSD += tx.AmountUSD
		case domain.ActionBorrow:
			f.TotalBorrowedUSD += tx.AmountUSD
			f.BorrowCount++
			if tx.AmountUSD > f.MaxBorrowSizeUSD {
				f.MaxBorrowSizeUSD = tx.AmountUSD
			}
		case domain.ActionRepay:
			f.TotalRepaidUSD += tx.AmountUSD
			f.RepayCount++
		case domain.ActionRedeem:
			f.TotalRedeemedUSD += tx.AmountUSD
		case domain.ActionLiquidation:
			f.LiquidationCount++
		}
	}
	f.UniqueAssetsSupplied = len(symbols)

	f.RepaymentRatio = computeRepaymentRatio(f.TotalRepaidUSD, f.TotalBorrowedUSD)
	f.NetDebtRatio = computeNetDebtRatio(
		f.TotalBorrowedUSD-f.TotalRepaidUSD,
		f.TotalDepositedUSD-f.TotalRedeemedUSD,
	)

	if len(txs) > 0 {
		f.WalletAgeDays = computeWalletAgeDays(earliest, now)
	}
	if f.WalletAgeDays > 0 {
		f.TransactionFrequency = float64(len(txs)) / f.WalletAgeDays
	}

	f.HasBorrowed = f.TotalBorrowedUSD > 0
	f.IsRisky = f.LiquidationCount > 0
	f.BorrowToRepayRatio = computeBorrowToRepayRatio(f.BorrowCount, f.RepayCount)

	return f
}

// computeRepaymentRatio treats a wallet that never borrowed as fully compliant.
func computeRepaymentRatio(repaid, borrowed float64) float64 {
	if borrowed <= 0 {
		return 1.0
	}
	return min(repaid/borrowed, 1.0)
}

func computeNetDebtRatio(netDebt, netCollateral float64) domain.DebtRatio {
	if netCollateral <= 0 {
		return domain.UnboundedDebtRatio()
	}
	return domain.DebtRatio{Value: netDebt / netCollateral}
}

// computeWalletAgeDays returns 0 for timestamps in the future.
func computeWalletAgeDays(earliest int64, now time.Time) float64 {
	nowSeconds := float64(now.UnixMilli()) / 1000
	age := (nowSeconds - float64(earliest)) / secondsPerDay
	if age < 0 {
		return 0
	}
	return age
}

// computeBorrowToRepayRatio penalizes never repaying with borrows * 2.
func computeBorrowToRepayRatio(borrows, repays int) float64 {
	if repays > 0 {
		return float64(borrows) / float64(repays)
	}
	return float64(borrows * 2)
}
