package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-risk-lab/internal/domain"
	"wallet-risk-lab/internal/storage"
)

func TestScoreStore_InsertRunAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewScoreStore(pool)

	run := &domain.ScoreRun{
		RunID:          "run-1",
		Strategy:       domain.StrategyProbability,
		SelectReason:   "12 borrowers, 3 risky",
		WalletCount:    2,
		SkippedRecords: 1,
		StartedAt:      1700000000000,
		FinishedAt:     1700000001000,
	}
	scores := []domain.WalletScore{
		{WalletID: "w2", Score: 412, Strategy: domain.StrategyProbability, RiskProbability: ptr(0.588)},
		{WalletID: "w1", Score: 750, Strategy: domain.StrategyProbability},
	}

	require.NoError(t, store.InsertRun(ctx, run, scores))

	got, err := store.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, *run, *got)

	stored, err := store.GetRunScores(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, "w1", stored[0].WalletID)
	assert.Nil(t, stored[0].RiskProbability)
	assert.Equal(t, 412, stored[1].Score)
	require.NotNil(t, stored[1].RiskProbability)
	assert.InDelta(t, 0.588, *stored[1].RiskProbability, 1e-12)
}

func TestScoreStore_DuplicateRun(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewScoreStore(pool)

	run := &domain.ScoreRun{RunID: "run-1", Strategy: domain.StrategyRuleBased, StartedAt: 1, FinishedAt: 2}
	require.NoError(t, store.InsertRun(ctx, run, nil))

	err := store.InsertRun(ctx, run, nil)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestScoreStore_NotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewScoreStore(pool)

	_, err := store.GetRun(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = store.GetLatestRun(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = store.GetLatestByWallet(ctx, "w1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestScoreStore_Latest(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewScoreStore(pool)

	require.NoError(t, store.InsertRun(ctx,
		&domain.ScoreRun{RunID: "old", Strategy: domain.StrategyRuleBased, StartedAt: 50, FinishedAt: 100},
		[]domain.WalletScore{
			{WalletID: "w1", Score: 100, Strategy: domain.StrategyRuleBased},
			{WalletID: "w2", Score: 200, Strategy: domain.StrategyRuleBased},
		}))
	require.NoError(t, store.InsertRun(ctx,
		&domain.ScoreRun{RunID: "new", Strategy: domain.StrategyRuleBased, StartedAt: 150, FinishedAt: 200},
		[]domain.WalletScore{{WalletID: "w1", Score: 900, Strategy: domain.StrategyRuleBased}}))

	latest, err := store.GetLatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, "new", latest.RunID)

	w1, err := store.GetLatestByWallet(ctx, "w1")
	require.NoError(t, err)
	assert.Equal(t, 900, w1.Score)

	w2, err := store.GetLatestByWallet(ctx, "w2")
	require.NoError(t, err)
	assert.Equal(t, "old", w2.RunID)
}
