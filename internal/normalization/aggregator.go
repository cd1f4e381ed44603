package normalization

import "wallet-risk-lab/internal/domain"

// WalletTransactions is one wallet's transactions in source order.
type WalletTransactions struct {
	WalletID     string
	Transactions []*domain.Transaction
}

// GroupByWallet partitions transactions by wallet.
// Wallets appear in order of first occurrence; each list keeps source order.
// No transaction is dropped.
func GroupByWallet(txs []*domain.Transaction) []WalletTransactions {
	index := make(map[string]int)
	var groups []WalletTransactions

	for _, tx := range txs {
		if tx == nil {
			continue
		}
		i, ok := index[tx.WalletID]
		if !ok {
			i = len(groups)
			index[tx.WalletID] = i
			groups = append(groups, WalletTransactions{WalletID: tx.WalletID})
		}
		groups[i].Transactions = append(groups[i].Transactions, tx)
	}

	return groups
}
