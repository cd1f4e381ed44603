package scoring

import (
	"fmt"
	"time"

	"wallet-risk-lab/internal/domain"
	"wallet-risk-lab/internal/features"
)

var fixedNow = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func daysAgo(d int) int64 {
	return fixedNow.Add(-time.Duration(d) * 24 * time.Hour).Unix()
}

func extract(walletID string, txs ...*domain.Transaction) *domain.WalletFeatures {
	for _, tx := range txs {
		tx.WalletID = walletID
	}
	return features.NewExtractor().
		WithClock(func() time.Time { return fixedNow }).
		Extract(walletID, txs)
}

func deposit(amount float64, ts int64) *domain.Transaction {
	return &domain.Transaction{Action: domain.ActionDeposit, AmountUSD: amount, Timestamp: ts}
}

func borrow(amount float64, ts int64) *domain.Transaction {
	return &domain.Transaction{Action: domain.ActionBorrow, AmountUSD: amount, Timestamp: ts}
}

func repay(amount float64, ts int64) *domain.Transaction {
	return &domain.Transaction{Action: domain.ActionRepay, AmountUSD: amount, Timestamp: ts}
}

func liquidation(amount float64, ts int64) *domain.Transaction {
	return &domain.Transaction{Action: domain.ActionLiquidation, AmountUSD: amount, Timestamp: ts}
}

// reliableWallet: deposit 10000, borrow 2000, repay 2000.
func reliableWallet(id string) *domain.WalletFeatures {
	return extract(id,
		deposit(10000, daysAgo(100)),
		borrow(2000, daysAgo(90)),
		repay(2000, daysAgo(50)),
	)
}

// liquidatedWallet: deposit 5000, borrow 4500, one liquidation.
func liquidatedWallet(id string) *domain.WalletFeatures {
	return extract(id,
		deposit(5000, daysAgo(60)),
		borrow(4500, daysAgo(50)),
		liquidation(4000, daysAgo(10)),
	)
}

// depositOnlyWallet never borrowed.
func depositOnlyWallet(id string) *domain.WalletFeatures {
	return extract(id, deposit(1000, daysAgo(30)))
}

// trainingPopulation returns borrowers with both risk classes plus non-borrowers.
// Risky wallets repay little and end with no net collateral.
func trainingPopulation() []*domain.WalletFeatures {
	var wallets []*domain.WalletFeatures
	for i := 0; i < 8; i++ {
		wallets = append(wallets, extract(fmt.Sprintf("good-%02d", i),
			deposit(float64(5000+i*500), daysAgo(200+i*10)),
			borrow(float64(1000+i*100), daysAgo(150)),
			repay(float64(1000+i*100), daysAgo(100)),
		))
	}
	for i := 0; i < 6; i++ {
		wallets = append(wallets, extract(fmt.Sprintf("bad-%02d", i),
			borrow(float64(3000+i*400), daysAgo(20+i)),
			repay(float64(100*i), daysAgo(10)),
			liquidation(1000, daysAgo(5)),
		))
	}
	for i := 0; i < 3; i++ {
		wallets = append(wallets, depositOnlyWallet(fmt.Sprintf("idle-%02d", i)))
	}
	return wallets
}
