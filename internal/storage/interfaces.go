package storage

import (
	"context"

	"wallet-risk-lab/internal/domain"
)

// TransactionStore provides access to normalized transactions.
type TransactionStore interface {
	// InsertBulk adds multiple transactions atomically. Fails entire batch on any duplicate ID.
	InsertBulk(ctx context.Context, txs []*domain.Transaction) error

	// GetAll retrieves every transaction in insertion order.
	GetAll(ctx context.Context) ([]*domain.Transaction, error)

	// GetByWallet retrieves a wallet's transactions in insertion order.
	GetByWallet(ctx context.Context, walletID string) ([]*domain.Transaction, error)
}

// ScoreStore provides access to score_runs and wallet_scores storage.
type ScoreStore interface {
	// InsertRun stores a run and its scores atomically. Returns ErrDuplicateKey if run_id exists.
	InsertRun(ctx context.Context, run *domain.ScoreRun, scores []domain.WalletScore) error

	// GetRun retrieves a run by ID. Returns ErrNotFound if not exists.
	GetRun(ctx context.Context, runID string) (*domain.ScoreRun, error)

	// GetLatestRun retrieves the most recently finished run. Returns ErrNotFound if none.
	GetLatestRun(ctx context.Context) (*domain.ScoreRun, error)

	// GetRunScores retrieves all scores for a run, ordered by wallet_id ASC.
	GetRunScores(ctx context.Context, runID string) ([]domain.WalletScore, error)

	// GetLatestByWallet retrieves the wallet's score from the latest run that scored it.
	// Returns ErrNotFound if the wallet was never scored.
	GetLatestByWallet(ctx context.Context, walletID string) (*domain.WalletScore, error)
}

// ScoreHistoryStore provides access to the append-only score_history.
type ScoreHistoryStore interface {
	// InsertBulk appends snapshots. Fails entire batch on duplicate (run_id, wallet_id).
	InsertBulk(ctx context.Context, snapshots []*domain.ScoreSnapshot) error

	// GetByWallet retrieves a wallet's snapshots, ordered by scored_at ASC.
	GetByWallet(ctx context.Context, walletID string) ([]*domain.ScoreSnapshot, error)
}
