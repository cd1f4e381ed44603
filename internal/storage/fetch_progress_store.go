package storage

import "context"

// FetchProgressStore records which wallets the subgraph fetcher has completed.
// This enables resumption after restarts without refetching or duplicating transactions.
type FetchProgressStore interface {
	// IsWalletFetched checks if a wallet's history has been fetched.
	IsWalletFetched(ctx context.Context, walletID string) (bool, error)

	// MarkWalletFetched records that a wallet's history has been fetched.
	MarkWalletFetched(ctx context.Context, walletID string) error

	// LoadFetchedWallets returns all fetched wallets (for warming the in-memory cache).
	LoadFetchedWallets(ctx context.Context) ([]string, error)
}
