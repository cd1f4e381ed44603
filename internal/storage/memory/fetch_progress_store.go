package memory

import (
	"context"
	"sort"
	"sync"

	"wallet-risk-lab/internal/storage"
)

// FetchProgressStore is an in-memory implementation of storage.FetchProgressStore.
type FetchProgressStore struct {
	mu      sync.RWMutex
	fetched map[string]bool
}

// NewFetchProgressStore creates a new in-memory fetch progress store.
func NewFetchProgressStore() *FetchProgressStore {
	return &FetchProgressStore{
		fetched: make(map[string]bool),
	}
}

// IsWalletFetched checks if a wallet's history has been fetched.
func (s *FetchProgressStore) IsWalletFetched(_ context.Context, walletID string) (bool, error) {
	if walletID == "" {
		return false, storage.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.fetched[walletID], nil
}

// MarkWalletFetched records that a wallet's history has been fetched.
func (s *FetchProgressStore) MarkWalletFetched(_ context.Context, walletID string) error {
	if walletID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.fetched[walletID] = true
	return nil
}

// LoadFetchedWallets returns all fetched wallets, sorted.
func (s *FetchProgressStore) LoadFetchedWallets(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wallets := make([]string, 0, len(s.fetched))
	for w := range s.fetched {
		wallets = append(wallets, w)
	}
	sort.Strings(wallets)
	return wallets, nil
}

var _ storage.FetchProgressStore = (*FetchProgressStore)(nil)
