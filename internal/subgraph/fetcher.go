package subgraph

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"wallet-risk-lab/internal/address"
	"wallet-risk-lab/internal/ingest"
	"wallet-risk-lab/internal/observability"
	"wallet-risk-lab/internal/storage"
)

// DefaultRequestDelay is the pause between consecutive wallet queries.
const DefaultRequestDelay = 500 * time.Millisecond

// ErrNilSink is returned when FetchAll is called without a sink.
var ErrNilSink = errors.New("nil sink")

// AccountSource returns the lending history of one wallet.
type AccountSource interface {
	GetAccountHistory(ctx context.Context, wallet string) (*Account, error)
}

// Sink receives the ledger rows of one wallet. Returning an error aborts the fetch.
type Sink func(ctx context.Context, wallet string, rows []ingest.LedgerRow) error

// FetcherOptions configures a Fetcher.
type FetcherOptions struct {
	Source   AccountSource
	Delay    time.Duration              // pause between wallets; 0 disables
	Progress storage.FetchProgressStore // optional; completed wallets are skipped on rerun
	Metrics  *observability.Metrics     // optional
	Logger   *zap.Logger
}

// FetchStats summarises one FetchAll call.
type FetchStats struct {
	Requested int // wallets in the input list
	Invalid   int // rejected by address validation
	Resumed   int // already fetched in an earlier run
	Fetched   int // wallets whose rows reached the sink
	Empty     int // subset of Fetched unknown to the subgraph
	Failed    int // wallets whose query failed
	Rows      int // ledger rows handed to the sink
}

// Fetcher walks a wallet list, queries each wallet sequentially and hands
// the rows to a sink. Per-wallet query failures are logged and skipped.
type Fetcher struct {
	source   AccountSource
	delay    time.Duration
	progress storage.FetchProgressStore
	metrics  *observability.Metrics
	logger   *zap.Logger
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewFetcher creates a fetcher.
func NewFetcher(opts FetcherOptions) *Fetcher {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		source:   opts.Source,
		delay:    opts.Delay,
		progress: opts.Progress,
		metrics:  opts.Metrics,
		logger:   logger,
		sleep:    sleepContext,
	}
}

// FetchAll fetches every valid wallet in wallets. Only context cancellation,
// sink errors and progress store errors abort the loop.
func (f *Fetcher) FetchAll(ctx context.Context, wallets []string, sink Sink) (*FetchStats, error) {
	if sink == nil {
		return nil, ErrNilSink
	}

	stats := &FetchStats{Requested: len(wallets)}

	valid, rejects := address.CanonicalizeAll(wallets)
	for raw, err := range rejects {
		f.logger.Warn("skipping invalid wallet address",
			zap.String("wallet", raw),
			zap.String("reason", err.Error()),
		)
	}
	stats.Invalid = len(rejects)

	f.logger.Info("starting subgraph fetch", zap.Int("wallets", len(valid)))

	queried := 0
	for i, wallet := range valid {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		if f.progress != nil {
			done, err := f.progress.IsWalletFetched(ctx, wallet)
			if err != nil {
				return stats, fmt.Errorf("check progress %s: %w", wallet, err)
			}
			if done {
				stats.Resumed++
				continue
			}
		}

		if queried > 0 && f.delay > 0 {
			if err := f.sleep(ctx, f.delay); err != nil {
				return stats, err
			}
		}
		queried++

		f.logger.Debug("fetching wallet",
			zap.Int("position", i+1),
			zap.Int("total", len(valid)),
			zap.String("wallet", wallet),
		)

		account, err := f.source.GetAccountHistory(ctx, wallet)
		if err != nil {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			f.logger.Warn("wallet fetch failed", zap.String("wallet", wallet), zap.Error(err))
			stats.Failed++
			continue
		}

		rows := account.LedgerRows(wallet)
		if account == nil {
			f.logger.Info("no subgraph data for wallet", zap.String("wallet", wallet))
			stats.Empty++
		}

		if err := sink(ctx, wallet, rows); err != nil {
			return stats, fmt.Errorf("sink %s: %w", wallet, err)
		}
		stats.Fetched++
		stats.Rows += len(rows)
		if f.metrics != nil {
			f.metrics.RecordWalletFetched()
		}

		if f.progress != nil {
			if err := f.progress.MarkWalletFetched(ctx, wallet); err != nil {
				return stats, fmt.Errorf("mark progress %s: %w", wallet, err)
			}
		}
	}

	f.logger.Info("subgraph fetch complete",
		zap.Int("fetched", stats.Fetched),
		zap.Int("resumed", stats.Resumed),
		zap.Int("failed", stats.Failed),
		zap.Int("invalid", stats.Invalid),
		zap.Int("rows", stats.Rows),
	)

	return stats, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
