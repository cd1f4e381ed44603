package memory

import (
	"context"
	"sync"

	"wallet-risk-lab/internal/domain"
	"wallet-risk-lab/internal/storage"
)

// TransactionStore is an in-memory implementation of storage.TransactionStore.
type TransactionStore struct {
	mu    sync.RWMutex
	order []*domain.Transaction // insertion order
	ids   map[string]struct{}
}

// NewTransactionStore creates a new in-memory transaction store.
func NewTransactionStore() *TransactionStore {
	return &TransactionStore{
		ids: make(map[string]struct{}),
	}
}

// InsertBulk adds multiple transactions atomically. Fails entire batch on any duplicate.
func (s *TransactionStore) InsertBulk(_ context.Context, txs []*domain.Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Track keys in this batch to detect intra-batch duplicates
	batchKeys := make(map[string]struct{}, len(txs))

	for _, tx := range txs {
		if tx == nil || tx.ID == "" || tx.WalletID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.ids[tx.ID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[tx.ID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[tx.ID] = struct{}{}
	}

	for _, tx := range txs {
		copy := *tx
		s.order = append(s.order, &copy)
		s.ids[tx.ID] = struct{}{}
	}

	return nil
}

// GetAll retrieves every transaction in insertion order.
func (s *TransactionStore) GetAll(_ context.Context) ([]*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Transaction, 0, len(s.order))
	for _, tx := range s.order {
		copy := *tx
		result = append(result, &copy)
	}
	return result, nil
}

// GetByWallet retrieves a wallet's transactions in insertion order.
func (s *TransactionStore) GetByWallet(_ context.Context, walletID string) ([]*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Transaction
	for _, tx := range s.order {
		if tx.WalletID == walletID {
			copy := *tx
			result = append(result, &copy)
		}
	}
	return result, nil
}

var _ storage.TransactionStore = (*TransactionStore)(nil)
