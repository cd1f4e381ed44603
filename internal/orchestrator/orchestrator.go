// Package orchestrator runs a scoring pass over stored transactions and persists the outcome.
// Flow: load transactions → engine → score run + wallet scores → score history
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"wallet-risk-lab/internal/domain"
	"wallet-risk-lab/internal/engine"
	"wallet-risk-lab/internal/normalization"
	"wallet-risk-lab/internal/observability"
	"wallet-risk-lab/internal/storage"
)

// ErrMissingDependency is returned by New when a required collaborator is nil.
var ErrMissingDependency = errors.New("missing orchestrator dependency")

// Options for creating Orchestrator.
type Options struct {
	// Required
	Engine           *engine.Engine
	TransactionStore storage.TransactionStore
	ScoreStore       storage.ScoreStore

	// Optional
	HistoryStore storage.ScoreHistoryStore // append-only analytics copy
	Metrics      *observability.Metrics    // default observability.DefaultMetrics
	Clock        func() time.Time          // default time.Now
	Logger       *zap.Logger
}

// Orchestrator coordinates one scoring run end to end.
type Orchestrator struct {
	engine       *engine.Engine
	txStore      storage.TransactionStore
	scoreStore   storage.ScoreStore
	historyStore storage.ScoreHistoryStore
	metrics      *observability.Metrics
	clock        func() time.Time
	logger       *zap.Logger
}

// New creates a new Orchestrator.
func New(opts Options) (*Orchestrator, error) {
	switch {
	case opts.Engine == nil:
		return nil, fmt.Errorf("%w: engine", ErrMissingDependency)
	case opts.TransactionStore == nil:
		return nil, fmt.Errorf("%w: transaction store", ErrMissingDependency)
	case opts.ScoreStore == nil:
		return nil, fmt.Errorf("%w: score store", ErrMissingDependency)
	}
	if opts.Metrics == nil {
		opts.Metrics = observability.DefaultMetrics
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	return &Orchestrator{
		engine:       opts.Engine,
		txStore:      opts.TransactionStore,
		scoreStore:   opts.ScoreStore,
		historyStore: opts.HistoryStore,
		metrics:      opts.Metrics,
		clock:        opts.Clock,
		logger:       opts.Logger.With(zap.String("component", "orchestrator")),
	}, nil
}

// RunResult contains results from one orchestrated run.
type RunResult struct {
	Run            *domain.ScoreRun
	Scores         []domain.WalletScore // sorted by wallet id
	HistoryWritten int
	Errors         []string // non-fatal failures, e.g. history writes
}

// Run scores every stored transaction and persists the run.
func (o *Orchestrator) Run(ctx context.Context) (*RunResult, error) {
	started := o.clock()

	t0 := o.clock()
	txs, err := o.txStore.GetAll(ctx)
	o.observe("get_all_transactions", t0, err)
	if err != nil {
		o.metrics.RecordRun("", "error", o.clock().Sub(started))
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	o.logger.Info("transactions loaded", zap.Int("count", len(txs)))

	result, err := o.engine.ScoreTransactions(txs)
	if err != nil {
		o.metrics.RecordRun("", "error", o.clock().Sub(started))
		return nil, fmt.Errorf("score transactions: %w", err)
	}

	return o.persist(ctx, result, started)
}

// ScoreRecords scores raw records directly and persists the run.
// Transactions are not stored; use Ingest for that.
func (o *Orchestrator) ScoreRecords(ctx context.Context, records []normalization.RawRecord) (*RunResult, error) {
	started := o.clock()

	result, err := o.engine.ScoreRecords(records)
	if err != nil {
		o.metrics.RecordRun("", "error", o.clock().Sub(started))
		return nil, fmt.Errorf("score records: %w", err)
	}
	o.metrics.RecordRecordsSkipped(len(result.Skipped))

	return o.persist(ctx, result, started)
}

// Ingest stores normalized transactions for later runs.
func (o *Orchestrator) Ingest(ctx context.Context, txs []*domain.Transaction) error {
	t0 := o.clock()
	err := o.txStore.InsertBulk(ctx, txs)
	o.observe("insert_transactions", t0, err)
	if err != nil {
		return fmt.Errorf("insert transactions: %w", err)
	}
	o.logger.Info("transactions ingested", zap.Int("count", len(txs)))
	return nil
}

// persist writes the run and scores, then the history copy.
// A history failure is reported in RunResult.Errors without failing the run.
func (o *Orchestrator) persist(ctx context.Context, result *engine.Result, started time.Time) (*RunResult, error) {
	finished := o.clock()
	run := &domain.ScoreRun{
		RunID:          result.RunID,
		Strategy:       result.Strategy,
		SelectReason:   result.Reason,
		WalletCount:    len(result.Scores),
		SkippedRecords: len(result.Skipped),
		StartedAt:      started.UnixMilli(),
		FinishedAt:     finished.UnixMilli(),
	}

	t0 := o.clock()
	err := o.scoreStore.InsertRun(ctx, run, result.Scores)
	o.observe("insert_score_run", t0, err)
	if err != nil {
		o.metrics.RecordRun(run.Strategy.String(), "error", o.clock().Sub(started))
		return nil, fmt.Errorf("store score run %s: %w", run.RunID, err)
	}

	out := &RunResult{Run: run, Scores: result.Scores}

	if o.historyStore != nil && len(result.Scores) > 0 {
		snapshots := make([]*domain.ScoreSnapshot, 0, len(result.Scores))
		for _, s := range result.Scores {
			snapshots = append(snapshots, &domain.ScoreSnapshot{
				RunID:    run.RunID,
				WalletID: s.WalletID,
				Score:    s.Score,
				Strategy: s.Strategy,
				ScoredAt: run.FinishedAt,
			})
		}

		t0 := o.clock()
		err := o.historyStore.InsertBulk(ctx, snapshots)
		o.observe("insert_score_history", t0, err)
		if err != nil {
			o.logger.Error("score history write failed", zap.String("run_id", run.RunID), zap.Error(err))
			out.Errors = append(out.Errors, fmt.Sprintf("score history: %v", err))
		} else {
			out.HistoryWritten = len(snapshots)
		}
	}

	scores := make([]int, len(result.Scores))
	for i, s := range result.Scores {
		scores[i] = s.Score
	}
	o.metrics.RecordScores(run.Strategy.String(), scores)
	o.metrics.RecordRun(run.Strategy.String(), "success", o.clock().Sub(started))

	o.logger.Info("score run stored",
		zap.String("run_id", run.RunID),
		zap.String("strategy", run.Strategy.String()),
		zap.String("reason", run.SelectReason),
		zap.Int("wallets", run.WalletCount),
		zap.Int("skipped_records", run.SkippedRecords),
	)

	return out, nil
}

func (o *Orchestrator) observe(operation string, start time.Time, err error) {
	o.metrics.RecordDBQuery(operation, err, o.clock().Sub(start))
}
