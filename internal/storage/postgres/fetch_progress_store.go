package postgres

import (
	"context"

	"wallet-risk-lab/internal/storage"
)

// FetchProgressStore is a PostgreSQL implementation of storage.FetchProgressStore
// backed by the fetched_wallets table.
type FetchProgressStore struct {
	pool *Pool
}

// NewFetchProgressStore creates a new PostgreSQL fetch progress store.
func NewFetchProgressStore(pool *Pool) *FetchProgressStore {
	return &FetchProgressStore{pool: pool}
}

// Compile-time interface check.
var _ storage.FetchProgressStore = (*FetchProgressStore)(nil)

// IsWalletFetched checks if a wallet's history has been fetched.
func (s *FetchProgressStore) IsWalletFetched(ctx context.Context, walletID string) (bool, error) {
	if walletID == "" {
		return false, storage.ErrInvalidInput
	}

	row := s.pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM fetched_wallets WHERE wallet_id = $1)
	`, walletID)

	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// MarkWalletFetched records that a wallet's history has been fetched.
func (s *FetchProgressStore) MarkWalletFetched(ctx context.Context, walletID string) error {
	if walletID == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO fetched_wallets (wallet_id, fetched_at)
		VALUES ($1, NOW())
		ON CONFLICT (wallet_id) DO NOTHING
	`, walletID)

	return err
}

// LoadFetchedWallets returns all fetched wallets, sorted.
func (s *FetchProgressStore) LoadFetchedWallets(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT wallet_id FROM fetched_wallets ORDER BY wallet_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var wallets []string
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			return nil, err
		}
		wallets = append(wallets, w)
	}

	return wallets, rows.Err()
}
