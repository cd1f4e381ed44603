package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"wallet-risk-lab/internal/domain"
	"wallet-risk-lab/internal/storage"
)

// TransactionStore implements storage.TransactionStore using PostgreSQL.
type TransactionStore struct {
	pool *Pool
}

// NewTransactionStore creates a new TransactionStore.
func NewTransactionStore(pool *Pool) *TransactionStore {
	return &TransactionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TransactionStore = (*TransactionStore)(nil)

const insertTransactionQuery = `
	INSERT INTO transactions (
		tx_id, wallet_id, action, raw_action, amount_usd, asset_symbol, timestamp
	) VALUES ($1, $2, $3, $4, $5, $6, $7)
`

// InsertBulk adds multiple transactions atomically. Fails entire batch on any duplicate.
func (s *TransactionStore) InsertBulk(ctx context.Context, txs []*domain.Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	for _, t := range txs {
		if t == nil || t.ID == "" || t.WalletID == "" {
			return storage.ErrInvalidInput
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, t := range txs {
		batch.Queue(insertTransactionQuery,
			t.ID,
			t.WalletID,
			t.Action,
			t.RawAction,
			t.AmountUSD,
			t.AssetSymbol,
			t.Timestamp,
		)
	}

	br := tx.SendBatch(ctx, batch)
	for range txs {
		if _, err := br.Exec(); err != nil {
			br.Close()
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert transaction in bulk: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetAll retrieves every transaction in insertion order.
func (s *TransactionStore) GetAll(ctx context.Context) ([]*domain.Transaction, error) {
	query := `
		SELECT tx_id, wallet_id, action, raw_action, amount_usd, asset_symbol, timestamp
		FROM transactions
		ORDER BY seq ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all transactions: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// GetByWallet retrieves a wallet's transactions in insertion order.
func (s *TransactionStore) GetByWallet(ctx context.Context, walletID string) ([]*domain.Transaction, error) {
	query := `
		SELECT tx_id, wallet_id, action, raw_action, amount_usd, asset_symbol, timestamp
		FROM transactions
		WHERE wallet_id = $1
		ORDER BY seq ASC
	`

	rows, err := s.pool.Query(ctx, query, walletID)
	if err != nil {
		return nil, fmt.Errorf("get transactions by wallet: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// scanTransactions scans multiple rows into a slice of Transaction.
func scanTransactions(rows pgx.Rows) ([]*domain.Transaction, error) {
	var txs []*domain.Transaction

	for rows.Next() {
		var t domain.Transaction

		err := rows.Scan(
			&t.ID,
			&t.WalletID,
			&t.Action,
			&t.RawAction,
			&t.AmountUSD,
			&t.AssetSymbol,
			&t.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}

		txs = append(txs, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction rows: %w", err)
	}

	return txs, nil
}
