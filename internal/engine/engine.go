// Package engine wires normalization, feature extraction and scoring into one batch call.
package engine

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"wallet-risk-lab/internal/domain"
	"wallet-risk-lab/internal/features"
	"wallet-risk-lab/internal/normalization"
	"wallet-risk-lab/internal/scoring"
)

// ErrInvalidSchema is returned for an unsupported input schema.
var ErrInvalidSchema = errors.New("invalid input schema")

// Options configures an Engine.
type Options struct {
	Schema   domain.Schema    // default SchemaActionLog
	Strategy scoring.Strategy // default hybrid
	Workers  int              // feature extraction workers, default 1
	Clock    func() time.Time // default time.Now
	Logger   *zap.Logger
}

// Engine is a pure batch function from a transaction set to wallet scores.
type Engine struct {
	normalizer *normalization.Normalizer
	extractor  *features.Extractor
	strategy   scoring.Strategy
	logger     *zap.Logger
}

// Result is the output of one scoring run.
type Result struct {
	RunID            string
	Strategy         domain.StrategyName
	Reason           string
	Scores           []domain.WalletScore // sorted by wallet id
	Skipped          []normalization.SkippedRecord
	TransactionCount int
}

// ScoreMap returns wallet -> score.
func (r *Result) ScoreMap() map[string]int {
	m := make(map[string]int, len(r.Scores))
	for _, s := range r.Scores {
		m[s.WalletID] = s.Score
	}
	return m
}

// New creates an engine.
func New(opts Options) (*Engine, error) {
	if opts.Schema == "" {
		opts.Schema = domain.SchemaActionLog
	}
	if !opts.Schema.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSchema, opts.Schema)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Strategy == nil {
		cfg := scoring.DefaultConfig()
		cfg.Logger = opts.Logger
		s, err := scoring.FromConfig(cfg)
		if err != nil {
			return nil, err
		}
		opts.Strategy = s
	}

	extractor := features.NewExtractor().WithWorkers(opts.Workers)
	if opts.Clock != nil {
		extractor.WithClock(opts.Clock)
	}

	return &Engine{
		normalizer: normalization.NewNormalizer(opts.Schema, opts.Logger),
		extractor:  extractor,
		strategy:   opts.Strategy,
		logger:     opts.Logger,
	}, nil
}

// ScoreRecords normalizes raw records, skipping malformed ones, then scores them.
func (e *Engine) ScoreRecords(records []normalization.RawRecord) (*Result, error) {
	norm := e.normalizer.NormalizeAll(records)

	result, err := e.ScoreTransactions(norm.Transactions)
	if err != nil {
		return nil, err
	}
	result.Skipped = norm.Skipped
	return result, nil
}

// ScoreTransactions scores already-normalized transactions.
// Empty input yields an empty result.
func (e *Engine) ScoreTransactions(txs []*domain.Transaction) (*Result, error) {
	result := &Result{
		RunID:            uuid.NewString(),
		Scores:           []domain.WalletScore{},
		TransactionCount: len(txs),
	}

	groups := normalization.GroupByWallet(txs)
	if len(groups) == 0 {
		result.Reason = "no transactions"
		return result, nil
	}

	wallets := e.extractor.ExtractAll(groups)

	outcome, err := e.strategy.Score(wallets)
	if err != nil {
		return nil, fmt.Errorf("scoring with %s: %w", e.strategy.Name(), err)
	}

	result.Strategy = outcome.Strategy
	result.Reason = outcome.Reason
	for _, s := range outcome.Scores {
		s.RunID = result.RunID
		result.Scores = append(result.Scores, s)
	}
	sort.Slice(result.Scores, func(i, j int) bool {
		return result.Scores[i].WalletID < result.Scores[j].WalletID
	})

	e.logger.Info("scoring run complete",
		zap.String("run_id", result.RunID),
		zap.String("strategy", result.Strategy.String()),
		zap.Int("wallets", len(result.Scores)),
		zap.Int("transactions", len(txs)),
	)

	return result, nil
}
