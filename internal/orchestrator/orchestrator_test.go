package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-risk-lab/internal/domain"
	"wallet-risk-lab/internal/engine"
	"wallet-risk-lab/internal/normalization"
	"wallet-risk-lab/internal/observability"
	"wallet-risk-lab/internal/storage"
	"wallet-risk-lab/internal/storage/memory"
)

var fixedNow = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

type testStores struct {
	txs     *memory.TransactionStore
	scores  *memory.ScoreStore
	history *memory.ScoreHistoryStore
}

func newTestOrchestrator(t *testing.T, history storage.ScoreHistoryStore) (*Orchestrator, testStores, *observability.Metrics) {
	t.Helper()

	clock := func() time.Time { return fixedNow }
	eng, err := engine.New(engine.Options{Clock: clock})
	require.NoError(t, err)

	stores := testStores{
		txs:     memory.NewTransactionStore(),
		scores:  memory.NewScoreStore(),
		history: memory.NewScoreHistoryStore(),
	}
	if history == nil {
		history = stores.history
	}
	metrics := observability.NewMetrics("test", prometheus.NewRegistry())

	orch, err := New(Options{
		Engine:           eng,
		TransactionStore: stores.txs,
		ScoreStore:       stores.scores,
		HistoryStore:     history,
		Metrics:          metrics,
		Clock:            clock,
	})
	require.NoError(t, err)
	return orch, stores, metrics
}

func sampleTransactions() []*domain.Transaction {
	ts := fixedNow.Add(-30 * 24 * time.Hour).Unix()
	return []*domain.Transaction{
		{ID: "1", WalletID: "0xgood", Action: domain.ActionDeposit, AmountUSD: 10000, Timestamp: ts},
		{ID: "2", WalletID: "0xgood", Action: domain.ActionBorrow, AmountUSD: 2000, Timestamp: ts + 1},
		{ID: "3", WalletID: "0xgood", Action: domain.ActionRepay, AmountUSD: 2000, Timestamp: ts + 2},
		{ID: "4", WalletID: "0xidle", Action: domain.ActionDeposit, AmountUSD: 500, Timestamp: ts},
	}
}

func TestNew_MissingDependency(t *testing.T) {
	_, err := New(Options{})
	if !errors.Is(err, ErrMissingDependency) {
		t.Errorf("expected ErrMissingDependency, got %v", err)
	}
}

func TestOrchestrator_Run_Empty(t *testing.T) {
	orch, stores, _ := newTestOrchestrator(t, nil)
	ctx := context.Background()

	result, err := orch.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 0, result.Run.WalletCount)
	assert.Empty(t, result.Scores)
	assert.Equal(t, 0, result.HistoryWritten)

	// Empty runs are still recorded
	_, err = stores.scores.GetRun(ctx, result.Run.RunID)
	assert.NoError(t, err)
}

func TestOrchestrator_IngestAndRun(t *testing.T) {
	orch, stores, metrics := newTestOrchestrator(t, nil)
	ctx := context.Background()

	require.NoError(t, orch.Ingest(ctx, sampleTransactions()))

	result, err := orch.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, domain.StrategyRuleBased, result.Run.Strategy)
	assert.Equal(t, 2, result.Run.WalletCount)
	assert.Equal(t, fixedNow.UnixMilli(), result.Run.FinishedAt)
	assert.Equal(t, 2, result.HistoryWritten)
	assert.Empty(t, result.Errors)

	latest, err := stores.scores.GetLatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, result.Run.RunID, latest.RunID)

	good, err := stores.scores.GetLatestByWallet(ctx, "0xgood")
	require.NoError(t, err)
	assert.Equal(t, 900, good.Score)

	idle, err := stores.scores.GetLatestByWallet(ctx, "0xidle")
	require.NoError(t, err)
	assert.Equal(t, domain.BaselineScore, idle.Score)

	history, err := stores.history.GetByWallet(ctx, "0xgood")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, result.Run.RunID, history[0].RunID)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RunsTotal.WithLabelValues("RULE_BASED", "success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.WalletsScored))
}

func TestOrchestrator_Ingest_Duplicate(t *testing.T) {
	orch, _, _ := newTestOrchestrator(t, nil)
	ctx := context.Background()

	require.NoError(t, orch.Ingest(ctx, sampleTransactions()))
	err := orch.Ingest(ctx, sampleTransactions())
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestOrchestrator_ScoreRecords_CountsSkipped(t *testing.T) {
	orch, _, metrics := newTestOrchestrator(t, nil)

	records := []normalization.RawRecord{
		{"userWallet": "0xa", "action": "deposit", "timestamp": 1, "actionData": map[string]any{"amount": "5", "assetPriceUSD": "2"}},
		{"action": "deposit", "timestamp": 2},
		{"userWallet": "", "action": "borrow", "timestamp": 3},
	}

	result, err := orch.ScoreRecords(context.Background(), records)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Run.SkippedRecords)
	assert.Equal(t, 1, result.Run.WalletCount)
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.RecordsSkipped))
}

type failingHistoryStore struct{}

func (failingHistoryStore) InsertBulk(context.Context, []*domain.ScoreSnapshot) error {
	return fmt.Errorf("clickhouse unavailable")
}

func (failingHistoryStore) GetByWallet(context.Context, string) ([]*domain.ScoreSnapshot, error) {
	return nil, nil
}

func TestOrchestrator_HistoryFailureIsNotFatal(t *testing.T) {
	orch, stores, metrics := newTestOrchestrator(t, failingHistoryStore{})
	ctx := context.Background()

	require.NoError(t, orch.Ingest(ctx, sampleTransactions()))

	result, err := orch.Run(ctx)
	require.NoError(t, err)

	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "clickhouse unavailable")
	assert.Equal(t, 0, result.HistoryWritten)

	_, err = stores.scores.GetRun(ctx, result.Run.RunID)
	assert.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.DBQueryErrors.WithLabelValues("insert_score_history")))
}
