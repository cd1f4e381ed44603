package clickhouse

import (
	"context"
	"fmt"

	"wallet-risk-lab/internal/domain"
	"wallet-risk-lab/internal/storage"
)

// ScoreHistoryStore implements storage.ScoreHistoryStore using ClickHouse.
type ScoreHistoryStore struct {
	conn *Conn
}

// NewScoreHistoryStore creates a new ScoreHistoryStore.
func NewScoreHistoryStore(conn *Conn) *ScoreHistoryStore {
	return &ScoreHistoryStore{conn: conn}
}

// Compile-time interface check.
var _ storage.ScoreHistoryStore = (*ScoreHistoryStore)(nil)

// InsertBulk appends snapshots. Fails entire batch on duplicate (run_id, wallet_id).
// MergeTree does not enforce keys, so duplicates are checked before the insert.
func (s *ScoreHistoryStore) InsertBulk(ctx context.Context, snapshots []*domain.ScoreSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	type key struct {
		runID    string
		walletID string
	}
	seen := make(map[key]struct{}, len(snapshots))
	runs := make(map[string]struct{})
	for _, snap := range snapshots {
		if snap == nil || snap.RunID == "" || snap.WalletID == "" {
			return storage.ErrInvalidInput
		}
		if snap.Score < domain.MinScore || snap.Score > domain.MaxScore {
			return storage.ErrInvalidInput
		}
		k := key{snap.RunID, snap.WalletID}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
		runs[snap.RunID] = struct{}{}
	}

	// A run's snapshots are written in one batch, so any existing row for the run is a duplicate
	for runID := range runs {
		exists, err := s.runExists(ctx, runID)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO score_history (
			run_id, wallet_id, score, strategy, scored_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, snap := range snapshots {
		err = batch.Append(
			snap.RunID, snap.WalletID, uint16(snap.Score),
			string(snap.Strategy), uint64(snap.ScoredAt),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByWallet retrieves a wallet's snapshots, ordered by scored_at ASC.
func (s *ScoreHistoryStore) GetByWallet(ctx context.Context, walletID string) ([]*domain.ScoreSnapshot, error) {
	query := `
		SELECT run_id, wallet_id, score, strategy, scored_at
		FROM score_history
		WHERE wallet_id = ?
		ORDER BY scored_at ASC, run_id ASC
	`

	rows, err := s.conn.Query(ctx, query, walletID)
	if err != nil {
		return nil, fmt.Errorf("query by wallet id: %w", err)
	}
	defer rows.Close()

	return scanScoreHistory(rows)
}

func (s *ScoreHistoryStore) runExists(ctx context.Context, runID string) (bool, error) {
	var count uint64
	err := s.conn.QueryRow(ctx, `SELECT count(*) FROM score_history WHERE run_id = ?`, runID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// scanScoreHistory scans multiple rows.
func scanScoreHistory(rows chRows) ([]*domain.ScoreSnapshot, error) {
	var snapshots []*domain.ScoreSnapshot

	for rows.Next() {
		var snap domain.ScoreSnapshot
		var score uint16
		var strategy string
		var scoredAt uint64

		if err := rows.Scan(&snap.RunID, &snap.WalletID, &score, &strategy, &scoredAt); err != nil {
			return nil, fmt.Errorf("scan score history row: %w", err)
		}

		snap.Score = int(score)
		snap.Strategy = domain.StrategyName(strategy)
		snap.ScoredAt = int64(scoredAt)
		snapshots = append(snapshots, &snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate score history rows: %w", err)
	}

	return snapshots, nil
}
