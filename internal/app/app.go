// Package app assembles engines, stores and orchestrators from configuration
// for the cmd binaries.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"wallet-risk-lab/internal/config"
	"wallet-risk-lab/internal/domain"
	"wallet-risk-lab/internal/engine"
	"wallet-risk-lab/internal/observability"
	"wallet-risk-lab/internal/orchestrator"
	"wallet-risk-lab/internal/scoring"
	"wallet-risk-lab/internal/storage"
	chstore "wallet-risk-lab/internal/storage/clickhouse"
	"wallet-risk-lab/internal/storage/memory"
	"wallet-risk-lab/internal/storage/migrations"
	pgstore "wallet-risk-lab/internal/storage/postgres"
)

// Stores bundles the storage backends selected by configuration.
type Stores struct {
	Transactions  storage.TransactionStore
	Scores        storage.ScoreStore
	History       storage.ScoreHistoryStore
	FetchProgress storage.FetchProgressStore

	// ReadyChecks pings each external backend; empty for memory stores.
	ReadyChecks map[string]func(ctx context.Context) error

	// Persistent is true when transactions and scores live in PostgreSQL.
	Persistent bool

	closers []func()
}

// OpenStores connects the configured backends and applies migrations.
// An empty postgres DSN selects memory stores for transactions, scores and
// fetch progress; an empty clickhouse DSN selects a memory history store.
func OpenStores(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Stores, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Stores{ReadyChecks: make(map[string]func(ctx context.Context) error)}

	if cfg.Postgres.DSN == "" {
		logger.Info("postgres dsn not set, using memory stores")
		s.Transactions = memory.NewTransactionStore()
		s.Scores = memory.NewScoreStore()
		s.FetchProgress = memory.NewFetchProgressStore()
	} else {
		pool, err := pgstore.NewPool(ctx, cfg.Postgres.DSN, pgstore.WithMaxConns(cfg.Postgres.MaxConns))
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, pool.Close)
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			s.Close()
			return nil, fmt.Errorf("postgres migrations: %w", err)
		}
		s.Transactions = pgstore.NewTransactionStore(pool)
		s.Scores = pgstore.NewScoreStore(pool)
		s.FetchProgress = pgstore.NewFetchProgressStore(pool)
		s.ReadyChecks["postgres"] = pool.Ping
		s.Persistent = true
		logger.Info("postgres stores ready")
	}

	if cfg.Clickhouse.DSN == "" {
		s.History = memory.NewScoreHistoryStore()
	} else {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.Clickhouse.DSN)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("clickhouse migrations: %w", err)
		}
		s.closers = append(s.closers, func() { conn.Close() })
		s.History = chstore.NewScoreHistoryStore(conn)
		s.ReadyChecks["clickhouse"] = conn.Ping
		logger.Info("clickhouse history store ready")
	}

	return s, nil
}

// Close releases every opened connection in reverse order.
func (s *Stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// NewEngine builds a scoring engine from the scoring and input sections.
func NewEngine(cfg config.Config, logger *zap.Logger) (*engine.Engine, error) {
	sc := cfg.Scoring.StrategyConfig()
	sc.Logger = logger

	strategy, err := scoring.FromConfig(sc)
	if err != nil {
		return nil, err
	}

	return engine.New(engine.Options{
		Schema:   domain.Schema(cfg.Input.Schema),
		Strategy: strategy,
		Workers:  cfg.Scoring.Workers,
		Logger:   logger,
	})
}

// NewOrchestrator builds an engine and wires it to stores.
func NewOrchestrator(cfg config.Config, stores *Stores, metrics *observability.Metrics, logger *zap.Logger) (*orchestrator.Orchestrator, error) {
	eng, err := NewEngine(cfg, logger)
	if err != nil {
		return nil, err
	}
	return orchestrator.New(orchestrator.Options{
		Engine:           eng,
		TransactionStore: stores.Transactions,
		ScoreStore:       stores.Scores,
		HistoryStore:     stores.History,
		Metrics:          metrics,
		Logger:           logger,
	})
}
