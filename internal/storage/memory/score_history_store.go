package memory

import (
	"context"
	"sort"
	"sync"

	"wallet-risk-lab/internal/domain"
	"wallet-risk-lab/internal/storage"
)

// ScoreHistoryStore is an in-memory implementation of storage.ScoreHistoryStore.
type ScoreHistoryStore struct {
	mu   sync.RWMutex
	data map[string]*domain.ScoreSnapshot // keyed by run_id|wallet_id
}

// NewScoreHistoryStore creates a new in-memory score history store.
func NewScoreHistoryStore() *ScoreHistoryStore {
	return &ScoreHistoryStore{
		data: make(map[string]*domain.ScoreSnapshot),
	}
}

func snapshotKey(runID, walletID string) string {
	return runID + "|" + walletID
}

// InsertBulk appends snapshots. Fails entire batch on any duplicate.
func (s *ScoreHistoryStore) InsertBulk(_ context.Context, snapshots []*domain.ScoreSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(snapshots))
	for _, snap := range snapshots {
		if snap == nil || snap.RunID == "" || snap.WalletID == "" {
			return storage.ErrInvalidInput
		}
		key := snapshotKey(snap.RunID, snap.WalletID)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, snap := range snapshots {
		copy := *snap
		s.data[snapshotKey(snap.RunID, snap.WalletID)] = &copy
	}

	return nil
}

// GetByWallet retrieves a wallet's snapshots, ordered by scored_at ASC.
func (s *ScoreHistoryStore) GetByWallet(_ context.Context, walletID string) ([]*domain.ScoreSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ScoreSnapshot
	for _, snap := range s.data {
		if snap.WalletID == walletID {
			copy := *snap
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].ScoredAt != result[j].ScoredAt {
			return result[i].ScoredAt < result[j].ScoredAt
		}
		return result[i].RunID < result[j].RunID
	})

	return result, nil
}

var _ storage.ScoreHistoryStore = (*ScoreHistoryStore)(nil)
