package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"wallet-risk-lab/internal/domain"
	"wallet-risk-lab/internal/storage"
)

// ScoreStore implements storage.ScoreStore using PostgreSQL.
// Runs live in score_runs, per-wallet results in wallet_scores.
type ScoreStore struct {
	pool *Pool
}

// NewScoreStore creates a new ScoreStore.
func NewScoreStore(pool *Pool) *ScoreStore {
	return &ScoreStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ScoreStore = (*ScoreStore)(nil)

// InsertRun stores a run and its scores atomically. Returns ErrDuplicateKey if run_id exists.
func (s *ScoreStore) InsertRun(ctx context.Context, run *domain.ScoreRun, scores []domain.WalletScore) error {
	if run == nil || run.RunID == "" {
		return storage.ErrInvalidInput
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO score_runs (
			run_id, strategy, select_reason, wallet_count, skipped_records, started_at, finished_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		run.RunID,
		run.Strategy,
		run.SelectReason,
		run.WalletCount,
		run.SkippedRecords,
		run.StartedAt,
		run.FinishedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert score run: %w", err)
	}

	if len(scores) > 0 {
		rows := make([][]any, 0, len(scores))
		for _, sc := range scores {
			if sc.WalletID == "" {
				return storage.ErrInvalidInput
			}
			rows = append(rows, []any{run.RunID, sc.WalletID, sc.Score, sc.Strategy, sc.RiskProbability})
		}

		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"wallet_scores"},
			[]string{"run_id", "wallet_id", "score", "strategy", "risk_probability"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("copy wallet scores: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

const selectRunColumns = `
	SELECT run_id, strategy, select_reason, wallet_count, skipped_records, started_at, finished_at
	FROM score_runs
`

// GetRun retrieves a run by ID. Returns ErrNotFound if not exists.
func (s *ScoreStore) GetRun(ctx context.Context, runID string) (*domain.ScoreRun, error) {
	row := s.pool.QueryRow(ctx, selectRunColumns+` WHERE run_id = $1`, runID)

	run, err := scanRun(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get score run: %w", err)
	}
	return run, nil
}

// GetLatestRun retrieves the most recently finished run. Returns ErrNotFound if none.
func (s *ScoreStore) GetLatestRun(ctx context.Context) (*domain.ScoreRun, error) {
	row := s.pool.QueryRow(ctx, selectRunColumns+` ORDER BY finished_at DESC, seq DESC LIMIT 1`)

	run, err := scanRun(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get latest score run: %w", err)
	}
	return run, nil
}

// GetRunScores retrieves all scores for a run, ordered by wallet_id ASC.
func (s *ScoreStore) GetRunScores(ctx context.Context, runID string) ([]domain.WalletScore, error) {
	query := `
		SELECT run_id, wallet_id, score, strategy, risk_probability
		FROM wallet_scores
		WHERE run_id = $1
		ORDER BY wallet_id ASC
	`

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("get run scores: %w", err)
	}
	defer rows.Close()

	scores := []domain.WalletScore{}
	for rows.Next() {
		var sc domain.WalletScore
		if err := rows.Scan(&sc.RunID, &sc.WalletID, &sc.Score, &sc.Strategy, &sc.RiskProbability); err != nil {
			return nil, fmt.Errorf("scan wallet score row: %w", err)
		}
		scores = append(scores, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wallet score rows: %w", err)
	}

	return scores, nil
}

// GetLatestByWallet retrieves the wallet's score from the latest run that scored it.
func (s *ScoreStore) GetLatestByWallet(ctx context.Context, walletID string) (*domain.WalletScore, error) {
	query := `
		SELECT ws.run_id, ws.wallet_id, ws.score, ws.strategy, ws.risk_probability
		FROM wallet_scores ws
		JOIN score_runs r ON r.run_id = ws.run_id
		WHERE ws.wallet_id = $1
		ORDER BY r.finished_at DESC, r.seq DESC
		LIMIT 1
	`

	var sc domain.WalletScore
	err := s.pool.QueryRow(ctx, query, walletID).Scan(
		&sc.RunID, &sc.WalletID, &sc.Score, &sc.Strategy, &sc.RiskProbability,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get latest wallet score: %w", err)
	}
	return &sc, nil
}

func scanRun(row pgx.Row) (*domain.ScoreRun, error) {
	var run domain.ScoreRun
	err := row.Scan(
		&run.RunID,
		&run.Strategy,
		&run.SelectReason,
		&run.WalletCount,
		&run.SkippedRecords,
		&run.StartedAt,
		&run.FinishedAt,
	)
	if err != nil {
		return nil, err
	}
	return &run, nil
}
