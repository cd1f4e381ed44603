package memory

import (
	"context"
	"sort"
	"sync"

	"wallet-risk-lab/internal/domain"
	"wallet-risk-lab/internal/storage"
)

// ScoreStore is an in-memory implementation of storage.ScoreStore.
type ScoreStore struct {
	mu     sync.RWMutex
	runs   []*domain.ScoreRun              // insertion order
	scores map[string][]domain.WalletScore // keyed by run_id
}

// NewScoreStore creates a new in-memory score store.
func NewScoreStore() *ScoreStore {
	return &ScoreStore{
		scores: make(map[string][]domain.WalletScore),
	}
}

// InsertRun stores a run and its scores atomically. Returns ErrDuplicateKey if run_id exists.
func (s *ScoreStore) InsertRun(_ context.Context, run *domain.ScoreRun, scores []domain.WalletScore) error {
	if run == nil || run.RunID == "" {
		return storage.ErrInvalidInput
	}

	seen := make(map[string]struct{}, len(scores))
	for _, sc := range scores {
		if sc.WalletID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := seen[sc.WalletID]; exists {
			return storage.ErrDuplicateKey
		}
		seen[sc.WalletID] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.scores[run.RunID]; exists {
		return storage.ErrDuplicateKey
	}

	runCopy := *run
	s.runs = append(s.runs, &runCopy)

	stored := make([]domain.WalletScore, len(scores))
	for i, sc := range scores {
		sc.RunID = run.RunID
		sc.RiskProbability = copyFloat(sc.RiskProbability)
		stored[i] = sc
	}
	sort.Slice(stored, func(i, j int) bool {
		return stored[i].WalletID < stored[j].WalletID
	})
	s.scores[run.RunID] = stored

	return nil
}

// GetRun retrieves a run by ID. Returns ErrNotFound if not exists.
func (s *ScoreStore) GetRun(_ context.Context, runID string) (*domain.ScoreRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, run := range s.runs {
		if run.RunID == runID {
			copy := *run
			return &copy, nil
		}
	}
	return nil, storage.ErrNotFound
}

// GetLatestRun retrieves the most recently finished run.
// Ties on FinishedAt go to the later insert.
func (s *ScoreStore) GetLatestRun(_ context.Context) (*domain.ScoreRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	latest := s.latestRun(func(*domain.ScoreRun) bool { return true })
	if latest == nil {
		return nil, storage.ErrNotFound
	}
	copy := *latest
	return &copy, nil
}

// GetRunScores retrieves all scores for a run, ordered by wallet_id ASC.
func (s *ScoreStore) GetRunScores(_ context.Context, runID string) ([]domain.WalletScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.scores[runID]
	result := make([]domain.WalletScore, len(stored))
	for i, sc := range stored {
		sc.RiskProbability = copyFloat(sc.RiskProbability)
		result[i] = sc
	}
	return result, nil
}

// GetLatestByWallet retrieves the wallet's score from the latest run that scored it.
func (s *ScoreStore) GetLatestByWallet(_ context.Context, walletID string) (*domain.WalletScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run := s.latestRun(func(r *domain.ScoreRun) bool {
		_, ok := findScore(s.scores[r.RunID], walletID)
		return ok
	})
	if run == nil {
		return nil, storage.ErrNotFound
	}

	sc, _ := findScore(s.scores[run.RunID], walletID)
	sc.RiskProbability = copyFloat(sc.RiskProbability)
	return &sc, nil
}

// latestRun returns the matching run with the highest FinishedAt. Caller holds the lock.
func (s *ScoreStore) latestRun(match func(*domain.ScoreRun) bool) *domain.ScoreRun {
	var latest *domain.ScoreRun
	for _, run := range s.runs {
		if !match(run) {
			continue
		}
		if latest == nil || run.FinishedAt >= latest.FinishedAt {
			latest = run
		}
	}
	return latest
}

// findScore binary-searches scores sorted by wallet id.
func findScore(scores []domain.WalletScore, walletID string) (domain.WalletScore, bool) {
	i := sort.Search(len(scores), func(i int) bool { return scores[i].WalletID >= walletID })
	if i < len(scores) && scores[i].WalletID == walletID {
		return scores[i], true
	}
	return domain.WalletScore{}, false
}

func copyFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

var _ storage.ScoreStore = (*ScoreStore)(nil)
